package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/roomdesk/internal/bus"
	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/observability/metrics"
	"github.com/yourorg/roomdesk/internal/security"
	"github.com/yourorg/roomdesk/internal/security/audit"
	"github.com/yourorg/roomdesk/internal/store"
)

// DocumentService implements the document repository: metadata CRUD plus
// blob upload, with the same optimistic local fallback as bookings.
// Documents whose remote row write failed carry SyncStatePendingLocalOnly
// and are re-offered to the remote by the next documents sync. A document
// whose blob upload failed gets a domain.LocalURLPrefix URL instead; sync
// preserves it but cannot re-push it, since the file bytes were never
// retained.
type DocumentService struct {
	store  *store.Store
	bus    *bus.Bus
	remote domain.RemoteStore
	authz  *security.AuthorizationService
	audit  *audit.Logger
	logger *slog.Logger
}

// NewDocumentService creates the document service. remote may be nil.
func NewDocumentService(st *store.Store, b *bus.Bus, remote domain.RemoteStore, authz *security.AuthorizationService, auditLog *audit.Logger, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		store:  st,
		bus:    b,
		remote: remote,
		authz:  authz,
		audit:  auditLog,
		logger: logger,
	}
}

// List returns the unit's documents.
func (s *DocumentService) List(unitID string) []domain.Document {
	return s.store.UnitData(unitID).Documents
}

// Upload stores a file and records its metadata. The blob goes to the
// remote file store first; when that fails the document is still recorded
// with a local placeholder URL and tagged pending_local_only so the action
// visibly succeeds and sync can reconcile later. New uploads always enter
// the repository awaiting approval.
func (s *DocumentService) Upload(ctx context.Context, unitID string, actor domain.User, filename, category string, data []byte) (domain.Document, error) {
	if err := s.authz.ValidatePermission(actor.Role, security.PermUploadDocument); err != nil {
		s.audit.LogDenied(ctx, unitID, actor.ID, "upload_document")
		return domain.Document{}, err
	}
	if filename == "" {
		return domain.Document{}, fmt.Errorf("document filename is required")
	}

	doc := domain.Document{
		ID:       "d-" + uuid.NewString(),
		Name:     filename,
		Date:     time.Now().Format("Jan 2, 2006"),
		Size:     humanSize(len(data)),
		Type:     fileType(filename),
		Status:   domain.DocStatusPending,
		Category: category,
	}

	blobPath := unitID + "/" + doc.ID + "-" + filename
	url, uploaded := s.uploadBlob(ctx, blobPath, data)
	doc.URL = url
	if uploaded {
		doc.SyncState = domain.SyncStateSynced
		if err := s.remote.InsertDocument(ctx, unitID, doc); err != nil {
			s.logger.Warn("remote document insert failed, keeping local copy",
				slog.String("document_id", doc.ID),
				slog.String("error", err.Error()),
			)
			metrics.ObserveOptimisticFallback("upload_document")
			doc.SyncState = domain.SyncStatePendingLocalOnly
		}
	} else {
		doc.SyncState = domain.SyncStatePendingLocalOnly
	}

	s.store.UpdateUnitDocuments(unitID, func(docs []domain.Document) []domain.Document {
		return append(docs, doc)
	})
	s.audit.LogDocumentChange(ctx, unitID, actor.ID, "upload", doc.ID, "success", filename)
	return doc, nil
}

// SetStatus moves a document between approved, draft and pending.
func (s *DocumentService) SetStatus(ctx context.Context, unitID string, actor domain.User, id, status string) (domain.Document, error) {
	if err := s.authz.ValidatePermission(actor.Role, security.PermApproveDocument); err != nil {
		s.audit.LogDenied(ctx, unitID, actor.ID, "approve_document")
		return domain.Document{}, err
	}
	switch status {
	case domain.DocStatusApproved, domain.DocStatusDraft, domain.DocStatusPending:
	default:
		return domain.Document{}, fmt.Errorf("invalid document status %q", status)
	}

	var updated domain.Document
	found := false
	s.store.UpdateUnitDocuments(unitID, func(docs []domain.Document) []domain.Document {
		for i := range docs {
			if docs[i].ID == id {
				docs[i].Status = status
				updated = docs[i]
				found = true
			}
		}
		return docs
	})
	if !found {
		return domain.Document{}, fmt.Errorf("document %s not found", id)
	}

	if s.remote != nil {
		if err := s.remote.UpdateDocument(ctx, unitID, updated); err != nil {
			s.logger.Warn("remote document update failed, keeping local copy",
				slog.String("document_id", id),
				slog.String("error", err.Error()),
			)
			metrics.ObserveOptimisticFallback("update_document")
			s.markDocumentPending(unitID, id)
			updated.SyncState = domain.SyncStatePendingLocalOnly
		}
	}
	s.audit.LogDocumentChange(ctx, unitID, actor.ID, "set_status", id, "success", status)
	return updated, nil
}

// Delete removes a document locally and best-effort on the remote.
func (s *DocumentService) Delete(ctx context.Context, unitID string, actor domain.User, id string) error {
	if err := s.authz.ValidatePermission(actor.Role, security.PermDeleteDocument); err != nil {
		s.audit.LogDenied(ctx, unitID, actor.ID, "delete_document")
		return err
	}

	found := false
	s.store.UpdateUnitDocuments(unitID, func(docs []domain.Document) []domain.Document {
		out := docs[:0]
		for _, d := range docs {
			if d.ID == id {
				found = true
				continue
			}
			out = append(out, d)
		}
		return out
	})
	if !found {
		return fmt.Errorf("document %s not found", id)
	}

	if s.remote != nil {
		if err := s.remote.DeleteDocument(ctx, unitID, id); err != nil {
			s.logger.Warn("remote document delete failed, local delete stands",
				slog.String("document_id", id),
				slog.String("error", err.Error()),
			)
			metrics.ObserveOptimisticFallback("delete_document")
		}
	}
	s.audit.LogDocumentChange(ctx, unitID, actor.ID, "delete", id, "success", "")
	return nil
}

func (s *DocumentService) uploadBlob(ctx context.Context, blobPath string, data []byte) (string, bool) {
	if s.remote == nil {
		return domain.LocalURLPrefix + blobPath, false
	}
	url, err := s.remote.Upload(ctx, blobPath, data)
	if err != nil {
		s.logger.Warn("blob upload failed, recording local-only document",
			slog.String("path", blobPath),
			slog.String("error", err.Error()),
		)
		metrics.ObserveOptimisticFallback("upload_blob")
		return domain.LocalURLPrefix + blobPath, false
	}
	return url, true
}

func (s *DocumentService) markDocumentPending(unitID, id string) {
	s.store.UpdateUnitDocuments(unitID, func(docs []domain.Document) []domain.Document {
		for i := range docs {
			if docs[i].ID == id {
				docs[i].SyncState = domain.SyncStatePendingLocalOnly
			}
		}
		return docs
	})
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.0f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func fileType(filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		return "file"
	}
	return strings.ToLower(ext)
}
