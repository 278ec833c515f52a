// Package sync reconciles entity collections between the remote row store
// and the local unit blobs. Remote failures never surface to callers: the
// local array stays authoritative until the next successful sync.
package sync

import (
	"context"
	"log/slog"

	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/observability/metrics"
	"github.com/yourorg/roomdesk/internal/store"
)

// Syncer runs per-entity reconciliation. A nil remote store means the
// deployment is local-only and every sync is a no-op returning local state.
type Syncer struct {
	store  *store.Store
	remote domain.RemoteStore
	logger *slog.Logger
}

// New creates a syncer. remote may be nil.
func New(st *store.Store, remote domain.RemoteStore, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{store: st, remote: remote, logger: logger}
}

// Enabled reports whether a remote backend is configured.
func (s *Syncer) Enabled() bool { return s.remote != nil }

// SyncUsers replaces the unit's local users with the remote version. On any
// remote error the current local array is returned unchanged.
func (s *Syncer) SyncUsers(ctx context.Context, unitID string) []domain.User {
	local := s.store.UnitData(unitID).Users
	if s.remote == nil {
		return local
	}
	fetched, err := s.remote.SelectUsers(ctx, unitID)
	if err != nil {
		s.logger.Warn("user sync failed, keeping local state",
			slog.String("unit_id", unitID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveSync("users", "error")
		return local
	}
	if fetched == nil {
		fetched = []domain.User{}
	}
	s.store.SaveUnitUsers(unitID, fetched)
	metrics.ObserveSync("users", "success")
	return fetched
}

// SyncDocuments replaces the unit's local documents with the remote version,
// with two exceptions. Local pending documents whose id is absent from the
// remote set are kept and prepended: those are uploads still in flight to
// moderation, and overwriting them would lose the only copy. Documents tagged
// pending_local_only hold edits that never reached the remote; they are
// re-offered first, and any still unpushed afterwards win over their remote
// row.
func (s *Syncer) SyncDocuments(ctx context.Context, unitID string) []domain.Document {
	local := s.store.UnitData(unitID).Documents
	if s.remote == nil {
		return local
	}
	local = s.reofferDocuments(ctx, unitID, local)

	fetched, err := s.remote.SelectDocuments(ctx, unitID)
	if err != nil {
		s.logger.Warn("document sync failed, keeping local state",
			slog.String("unit_id", unitID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveSync("documents", "error")
		return local
	}
	if fetched == nil {
		fetched = []domain.Document{}
	}

	remoteIdx := make(map[string]int, len(fetched))
	for i, d := range fetched {
		remoteIdx[d.ID] = i
	}
	reconciled := make([]domain.Document, 0, len(fetched))
	kept := 0
	for _, d := range local {
		i, onRemote := remoteIdx[d.ID]
		switch {
		case d.SyncState == domain.SyncStatePendingLocalOnly && onRemote:
			// The remote row is stale relative to the unpushed local edit.
			fetched[i] = d
			kept++
		case d.SyncState == domain.SyncStatePendingLocalOnly:
			reconciled = append(reconciled, d)
			kept++
		case d.Status == domain.DocStatusPending && !onRemote:
			reconciled = append(reconciled, d)
			kept++
		}
	}
	reconciled = append(reconciled, fetched...)

	s.store.SaveUnitDocuments(unitID, reconciled)
	metrics.ObserveSync("documents", "success")
	if kept > 0 {
		s.logger.Info("kept local-only documents through sync",
			slog.String("unit_id", unitID),
			slog.Int("count", kept),
		)
	}
	return reconciled
}

// reofferDocuments retries the remote row write for documents tagged
// pending_local_only, clearing the tag on success. Documents whose blob never
// uploaded are skipped: their bytes are gone and a metadata row pointing at a
// local URL would be useless upstream.
func (s *Syncer) reofferDocuments(ctx context.Context, unitID string, docs []domain.Document) []domain.Document {
	for i, d := range docs {
		if d.SyncState != domain.SyncStatePendingLocalOnly || d.LocalOnlyBlob() {
			continue
		}
		if err := s.remote.UpdateDocument(ctx, unitID, d); err != nil {
			s.logger.Warn("document re-offer failed",
				slog.String("unit_id", unitID),
				slog.String("document_id", d.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		d.SyncState = domain.SyncStateSynced
		docs[i] = d
	}
	return docs
}

// SyncBookings first pushes the unit's rooms to the remote store and then
// replaces the local bookings with the remote version. Rooms go first:
// remote bookings reference them, so they must exist upstream before the
// fetched bookings can be trusted. Bookings tagged pending_local_only are
// re-offered before the fetch, and any still unpushed afterwards survive
// the replacement.
func (s *Syncer) SyncBookings(ctx context.Context, unitID string) []domain.Booking {
	u := s.store.UnitData(unitID)
	if s.remote == nil {
		return u.Bookings
	}
	if err := s.remote.UpsertRooms(ctx, unitID, u.Rooms); err != nil {
		s.logger.Warn("room push before booking sync failed",
			slog.String("unit_id", unitID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveSync("rooms", "error")
	} else {
		metrics.ObserveSync("rooms", "success")
	}
	local := s.reofferBookings(ctx, unitID, u.Bookings)

	fetched, err := s.remote.SelectBookings(ctx, unitID)
	if err != nil {
		s.logger.Warn("booking sync failed, keeping local state",
			slog.String("unit_id", unitID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveSync("bookings", "error")
		return local
	}
	if fetched == nil {
		fetched = []domain.Booking{}
	}

	remoteIdx := make(map[string]int, len(fetched))
	for i, b := range fetched {
		remoteIdx[b.ID] = i
	}
	reconciled := make([]domain.Booking, 0, len(fetched))
	kept := 0
	for _, b := range local {
		if b.SyncState != domain.SyncStatePendingLocalOnly {
			continue
		}
		if i, onRemote := remoteIdx[b.ID]; onRemote {
			fetched[i] = b
		} else {
			reconciled = append(reconciled, b)
		}
		kept++
	}
	reconciled = append(reconciled, fetched...)

	s.store.SaveUnitBookings(unitID, reconciled)
	metrics.ObserveSync("bookings", "success")
	if kept > 0 {
		s.logger.Info("kept local-only bookings through sync",
			slog.String("unit_id", unitID),
			slog.Int("count", kept),
		)
	}
	return reconciled
}

// reofferBookings retries the remote write for bookings tagged
// pending_local_only, clearing the tag on success. The remote write is an
// upsert, so it covers failed inserts and failed updates alike.
func (s *Syncer) reofferBookings(ctx context.Context, unitID string, bookings []domain.Booking) []domain.Booking {
	for i, b := range bookings {
		if b.SyncState != domain.SyncStatePendingLocalOnly {
			continue
		}
		if err := s.remote.UpdateBooking(ctx, unitID, b); err != nil {
			s.logger.Warn("booking re-offer failed",
				slog.String("unit_id", unitID),
				slog.String("booking_id", b.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		b.SyncState = domain.SyncStateSynced
		bookings[i] = b
	}
	return bookings
}

// PushRooms uploads the unit's rooms to the remote store. Rooms are pushed
// but never full-cycle synced; the local set stays authoritative.
func (s *Syncer) PushRooms(ctx context.Context, unitID string) error {
	if s.remote == nil {
		return nil
	}
	rooms := s.store.UnitData(unitID).Rooms
	if err := s.remote.UpsertRooms(ctx, unitID, rooms); err != nil {
		s.logger.Warn("room push failed",
			slog.String("unit_id", unitID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveSync("rooms", "error")
		return err
	}
	metrics.ObserveSync("rooms", "success")
	return nil
}
