package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yourorg/roomdesk/internal/domain"
)

func TestRestSelectDocumentsMapsRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rows/documents" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("unit_id"); got != "eq.hq" {
			t.Fatalf("unexpected unit filter %q", got)
		}
		if got := r.URL.Query().Get("order"); got != "updated_at.desc" {
			t.Fatalf("unexpected order %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]documentRow{
			{ID: "d1", UnitID: "hq", Name: "Policy", DocDate: "Jan 2, 2026", FileSize: "12 KB", FileType: "pdf", Status: "approved", Category: "Policies", URL: "http://files/d1"},
		})
	}))
	defer srv.Close()

	s := NewRestStore(srv.URL, "", nil)
	docs, err := s.SelectDocuments(context.Background(), "hq")
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	d := docs[0]
	if d.ID != "d1" || d.Type != "pdf" || d.Size != "12 KB" || d.Date != "Jan 2, 2026" {
		t.Fatalf("row mapping wrong: %+v", d)
	}
	if d.SyncState != domain.SyncStateSynced {
		t.Fatalf("fetched rows must be tagged synced, got %q", d.SyncState)
	}
}

func TestRestSelectErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewRestStore(srv.URL, "", nil)
	if _, err := s.SelectUsers(context.Background(), "hq"); err == nil {
		t.Fatalf("expected error on 500 response")
	}
}

func TestRestUploadReturnsPublicURL(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/hq/doc1/report.pdf" {
			t.Fatalf("unexpected upload path %s", r.URL.Path)
		}
		gotBody = make([]byte, r.ContentLength)
		r.Body.Read(gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewRestStore(srv.URL, "", nil)
	url, err := s.Upload(context.Background(), "hq/doc1/report.pdf", []byte("pdf-bytes"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if url != srv.URL+"/files/hq/doc1/report.pdf" {
		t.Fatalf("unexpected public url %s", url)
	}
	if string(gotBody) != "pdf-bytes" {
		t.Fatalf("body not forwarded, got %q", gotBody)
	}
}
