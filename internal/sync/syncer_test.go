package sync

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/yourorg/roomdesk/internal/bus"
	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/store"
	"github.com/yourorg/roomdesk/pkg/kv"
)

// fakeRemote lets each test script the remote surface; unset reads fail and
// unset writes succeed.
type fakeRemote struct {
	selectUsers     func(unitID string) ([]domain.User, error)
	selectDocuments func(unitID string) ([]domain.Document, error)
	selectBookings  func(unitID string) ([]domain.Booking, error)
	upsertRooms     func(unitID string, rooms []domain.Room) error
	updateBooking   func(unitID string, b domain.Booking) error
	updateDocument  func(unitID string, d domain.Document) error
	calls           []string
}

var errNotScripted = errors.New("not scripted")

func (f *fakeRemote) SelectUsers(_ context.Context, unitID string) ([]domain.User, error) {
	f.calls = append(f.calls, "select_users")
	if f.selectUsers == nil {
		return nil, errNotScripted
	}
	return f.selectUsers(unitID)
}

func (f *fakeRemote) UpsertUsers(context.Context, string, []domain.User) error { return nil }

func (f *fakeRemote) SelectRooms(_ context.Context, _ string) ([]domain.Room, error) {
	return nil, errNotScripted
}

func (f *fakeRemote) UpsertRooms(_ context.Context, unitID string, rooms []domain.Room) error {
	f.calls = append(f.calls, "upsert_rooms")
	if f.upsertRooms == nil {
		return nil
	}
	return f.upsertRooms(unitID, rooms)
}

func (f *fakeRemote) SelectBookings(_ context.Context, unitID string) ([]domain.Booking, error) {
	f.calls = append(f.calls, "select_bookings")
	if f.selectBookings == nil {
		return nil, errNotScripted
	}
	return f.selectBookings(unitID)
}

func (f *fakeRemote) InsertBooking(context.Context, string, domain.Booking) error { return nil }

func (f *fakeRemote) UpdateBooking(_ context.Context, unitID string, b domain.Booking) error {
	f.calls = append(f.calls, "update_booking:"+b.ID)
	if f.updateBooking == nil {
		return nil
	}
	return f.updateBooking(unitID, b)
}

func (f *fakeRemote) DeleteBooking(context.Context, string, string) error { return nil }

func (f *fakeRemote) SelectDocuments(_ context.Context, unitID string) ([]domain.Document, error) {
	f.calls = append(f.calls, "select_documents")
	if f.selectDocuments == nil {
		return nil, errNotScripted
	}
	return f.selectDocuments(unitID)
}

func (f *fakeRemote) InsertDocument(context.Context, string, domain.Document) error { return nil }

func (f *fakeRemote) UpdateDocument(_ context.Context, unitID string, d domain.Document) error {
	f.calls = append(f.calls, "update_document:"+d.ID)
	if f.updateDocument == nil {
		return nil
	}
	return f.updateDocument(unitID, d)
}

func (f *fakeRemote) DeleteDocument(context.Context, string, string) error { return nil }

func (f *fakeRemote) Upload(_ context.Context, path string, _ []byte) (string, error) {
	return "http://remote/files/" + path, nil
}
func (f *fakeRemote) PublicURL(path string) string { return "http://remote/files/" + path }
func (f *fakeRemote) Ping(context.Context) error   { return nil }

func newSyncTestStore() *store.Store {
	units := []store.Descriptor{{ID: "hq", Name: "Headquarters"}}
	return store.New(kv.NewMemory(), bus.New(), units, "hq", nil)
}

func TestSyncUsersReplacesLocal(t *testing.T) {
	st := newSyncTestStore()
	remote := &fakeRemote{
		selectUsers: func(string) ([]domain.User, error) {
			return []domain.User{{ID: "ru1", Name: "Remote One", UnitID: "hq"}}, nil
		},
	}
	s := New(st, remote, nil)

	got := s.SyncUsers(context.Background(), "hq")
	if len(got) != 1 || got[0].ID != "ru1" {
		t.Fatalf("expected remote users, got %+v", got)
	}
	persisted := st.UnitData("hq").Users
	if len(persisted) != 1 || persisted[0].ID != "ru1" {
		t.Fatalf("expected remote users persisted, got %+v", persisted)
	}
}

func TestSyncUsersErrorKeepsLocal(t *testing.T) {
	st := newSyncTestStore()
	local := st.UnitData("hq").Users
	remote := &fakeRemote{
		selectUsers: func(string) ([]domain.User, error) { return nil, errors.New("network down") },
	}
	s := New(st, remote, nil)

	got := s.SyncUsers(context.Background(), "hq")
	if len(got) != len(local) {
		t.Fatalf("expected local users unchanged, got %d want %d", len(got), len(local))
	}
}

func TestSyncDocumentsPreservesPendingUploads(t *testing.T) {
	st := newSyncTestStore()
	st.SaveUnitDocuments("hq", []domain.Document{
		{ID: "1", Name: "local pending", Status: domain.DocStatusPending},
		{ID: "2", Name: "local approved", Status: domain.DocStatusApproved},
	})
	remote := &fakeRemote{
		selectDocuments: func(string) ([]domain.Document, error) {
			return []domain.Document{
				{ID: "2", Name: "remote two", Status: domain.DocStatusApproved, SyncState: domain.SyncStateSynced},
				{ID: "3", Name: "remote three", Status: domain.DocStatusDraft, SyncState: domain.SyncStateSynced},
			}, nil
		},
	}
	s := New(st, remote, nil)

	got := s.SyncDocuments(context.Background(), "hq")
	if len(got) != 3 {
		t.Fatalf("expected 3 reconciled documents, got %d", len(got))
	}
	if got[0].ID != "1" || got[0].Status != domain.DocStatusPending {
		t.Fatalf("expected pending local doc first, got %+v", got[0])
	}
	if got[1].ID != "2" || got[1].Name != "remote two" {
		t.Fatalf("expected remote copy to win for id 2, got %+v", got[1])
	}
	if got[2].ID != "3" {
		t.Fatalf("expected remote doc 3 last, got %+v", got[2])
	}
}

func TestSyncDocumentsDropsPendingOnIDCollision(t *testing.T) {
	st := newSyncTestStore()
	st.SaveUnitDocuments("hq", []domain.Document{
		{ID: "1", Name: "local pending", Status: domain.DocStatusPending},
	})
	remote := &fakeRemote{
		selectDocuments: func(string) ([]domain.Document, error) {
			return []domain.Document{{ID: "1", Name: "remote landed", Status: domain.DocStatusApproved}}, nil
		},
	}
	s := New(st, remote, nil)

	got := s.SyncDocuments(context.Background(), "hq")
	if len(got) != 1 || got[0].Name != "remote landed" {
		t.Fatalf("expected remote copy to replace pending on id collision, got %+v", got)
	}
}

func TestSyncDocumentsKeepsUnpushedEditOverRemoteRow(t *testing.T) {
	st := newSyncTestStore()
	st.SaveUnitDocuments("hq", []domain.Document{
		{ID: "1", Name: "policy", Status: domain.DocStatusApproved, URL: "http://remote/files/1", SyncState: domain.SyncStatePendingLocalOnly},
	})
	remote := &fakeRemote{
		selectDocuments: func(string) ([]domain.Document, error) {
			return []domain.Document{{ID: "1", Name: "policy", Status: domain.DocStatusPending, URL: "http://remote/files/1", SyncState: domain.SyncStateSynced}}, nil
		},
		updateDocument: func(string, domain.Document) error { return errors.New("still down") },
	}
	s := New(st, remote, nil)

	got := s.SyncDocuments(context.Background(), "hq")
	if len(got) != 1 {
		t.Fatalf("expected 1 document, got %d", len(got))
	}
	if got[0].Status != domain.DocStatusApproved {
		t.Fatalf("local approval lost to stale remote row: %+v", got[0])
	}
	if got[0].SyncState != domain.SyncStatePendingLocalOnly {
		t.Fatalf("expected tag kept while push keeps failing, got %q", got[0].SyncState)
	}
	persisted := st.UnitData("hq").Documents
	if persisted[0].Status != domain.DocStatusApproved {
		t.Fatalf("expected local edit persisted, got %+v", persisted[0])
	}
}

func TestSyncDocumentsReoffersUnpushedRow(t *testing.T) {
	st := newSyncTestStore()
	st.SaveUnitDocuments("hq", []domain.Document{
		{ID: "1", Name: "policy", Status: domain.DocStatusApproved, URL: "http://remote/files/1", SyncState: domain.SyncStatePendingLocalOnly},
	})
	remote := &fakeRemote{
		selectDocuments: func(string) ([]domain.Document, error) {
			return []domain.Document{{ID: "1", Name: "policy", Status: domain.DocStatusApproved, SyncState: domain.SyncStateSynced}}, nil
		},
	}
	s := New(st, remote, nil)

	got := s.SyncDocuments(context.Background(), "hq")
	if remote.calls[0] != "update_document:1" {
		t.Fatalf("expected doc re-offered before fetch, calls %v", remote.calls)
	}
	if len(got) != 1 || got[0].SyncState != domain.SyncStateSynced {
		t.Fatalf("expected tag cleared after successful re-offer, got %+v", got)
	}
}

func TestSyncDocumentsDoesNotReofferLocalOnlyBlob(t *testing.T) {
	st := newSyncTestStore()
	st.SaveUnitDocuments("hq", []domain.Document{
		{ID: "1", Name: "orphan", Status: domain.DocStatusPending, URL: domain.LocalURLPrefix + "hq/1-orphan.pdf", SyncState: domain.SyncStatePendingLocalOnly},
	})
	remote := &fakeRemote{
		selectDocuments: func(string) ([]domain.Document, error) { return []domain.Document{}, nil },
	}
	s := New(st, remote, nil)

	got := s.SyncDocuments(context.Background(), "hq")
	for _, c := range remote.calls {
		if c == "update_document:1" {
			t.Fatalf("blob-less document must not be pushed as a row: %v", remote.calls)
		}
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected local-only document preserved, got %+v", got)
	}
}

func TestSyncBookingsPushesRoomsFirst(t *testing.T) {
	st := newSyncTestStore()
	remote := &fakeRemote{
		selectBookings: func(string) ([]domain.Booking, error) {
			return []domain.Booking{{ID: "rb1", Title: "remote booking"}}, nil
		},
	}
	s := New(st, remote, nil)

	got := s.SyncBookings(context.Background(), "hq")
	if len(got) != 1 || got[0].ID != "rb1" {
		t.Fatalf("expected remote bookings, got %+v", got)
	}
	if len(remote.calls) != 2 || remote.calls[0] != "upsert_rooms" || remote.calls[1] != "select_bookings" {
		t.Fatalf("expected rooms pushed before bookings fetched, got %v", remote.calls)
	}
}

func TestSyncBookingsFetchErrorKeepsLocal(t *testing.T) {
	st := newSyncTestStore()
	local := st.UnitData("hq").Bookings
	remote := &fakeRemote{
		selectBookings: func(string) ([]domain.Booking, error) { return nil, errors.New("timeout") },
	}
	s := New(st, remote, nil)

	got := s.SyncBookings(context.Background(), "hq")
	if len(got) != len(local) {
		t.Fatalf("expected local bookings unchanged, got %d want %d", len(got), len(local))
	}
}

func TestSyncBookingsPreservesUnpushedBooking(t *testing.T) {
	st := newSyncTestStore()
	st.SaveUnitBookings("hq", []domain.Booking{
		{ID: "b1", Title: "made while offline", Date: "2026-09-14", SyncState: domain.SyncStatePendingLocalOnly},
	})
	remote := &fakeRemote{
		selectBookings: func(string) ([]domain.Booking, error) { return []domain.Booking{}, nil },
		updateBooking:  func(string, domain.Booking) error { return errors.New("still down") },
	}
	s := New(st, remote, nil)

	got := s.SyncBookings(context.Background(), "hq")
	if len(got) != 1 || got[0].ID != "b1" {
		t.Fatalf("expected unpushed booking to survive sync, got %+v", got)
	}
	if got[0].SyncState != domain.SyncStatePendingLocalOnly {
		t.Fatalf("expected tag kept while push keeps failing, got %q", got[0].SyncState)
	}
	persisted := st.UnitData("hq").Bookings
	if len(persisted) != 1 || persisted[0].ID != "b1" {
		t.Fatalf("expected unpushed booking persisted, got %+v", persisted)
	}
}

func TestSyncBookingsReoffersUnpushedBooking(t *testing.T) {
	st := newSyncTestStore()
	st.SaveUnitBookings("hq", []domain.Booking{
		{ID: "b1", Title: "made while offline", Date: "2026-09-14", SyncState: domain.SyncStatePendingLocalOnly},
	})
	remote := &fakeRemote{
		selectBookings: func(string) ([]domain.Booking, error) {
			return []domain.Booking{{ID: "b1", Title: "made while offline", Date: "2026-09-14", SyncState: domain.SyncStateSynced}}, nil
		},
	}
	s := New(st, remote, nil)

	got := s.SyncBookings(context.Background(), "hq")
	want := []string{"upsert_rooms", "update_booking:b1", "select_bookings"}
	if !reflect.DeepEqual(remote.calls, want) {
		t.Fatalf("expected booking re-offered between room push and fetch, got %v", remote.calls)
	}
	if len(got) != 1 || got[0].SyncState != domain.SyncStateSynced {
		t.Fatalf("expected tag cleared after successful re-offer, got %+v", got)
	}
}

func TestNilRemoteIsLocalOnly(t *testing.T) {
	st := newSyncTestStore()
	s := New(st, nil, nil)
	if s.Enabled() {
		t.Fatalf("expected sync disabled without remote")
	}
	if got := s.SyncUsers(context.Background(), "hq"); len(got) == 0 {
		t.Fatalf("expected local users returned")
	}
	if err := s.PushRooms(context.Background(), "hq"); err != nil {
		t.Fatalf("expected nil error on local-only push, got %v", err)
	}
}
