package handler

import (
	"log/slog"
	"net/http"
	"sync"

	roomsync "github.com/yourorg/roomdesk/internal/sync"
)

// SyncHandler handles POST /api/sync: a full reconciliation pass for the
// caller's unit. Entity syncs run concurrently; each one's failure is
// already absorbed by the sync layer, so the response always carries the
// resulting local arrays' sizes.
type SyncHandler struct {
	syncer *roomsync.Syncer
	logger *slog.Logger
}

func NewSyncHandler(syncer *roomsync.Syncer, logger *slog.Logger) *SyncHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncHandler{syncer: syncer, logger: logger}
}

func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	unitID := actor.UnitID

	var users, documents, bookings int
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		users = len(h.syncer.SyncUsers(r.Context(), unitID))
	}()
	go func() {
		defer wg.Done()
		documents = len(h.syncer.SyncDocuments(r.Context(), unitID))
	}()
	go func() {
		defer wg.Done()
		bookings = len(h.syncer.SyncBookings(r.Context(), unitID))
	}()
	wg.Wait()

	writeJSON(w, http.StatusOK, map[string]any{
		"unitId":    unitID,
		"remote":    h.syncer.Enabled(),
		"users":     users,
		"documents": documents,
		"bookings":  bookings,
	})
}
