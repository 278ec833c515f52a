package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/observability/metrics"
	"github.com/yourorg/roomdesk/internal/security"
	"github.com/yourorg/roomdesk/internal/security/audit"
	"github.com/yourorg/roomdesk/internal/store"
)

// RoomService exposes the unit's room inventory. Rooms are pushed to the
// remote but never full-cycle synced; the local copy is authoritative.
type RoomService struct {
	store  *store.Store
	remote domain.RemoteStore
	authz  *security.AuthorizationService
	audit  *audit.Logger
	logger *slog.Logger
}

func NewRoomService(st *store.Store, remote domain.RemoteStore, authz *security.AuthorizationService, auditLog *audit.Logger, logger *slog.Logger) *RoomService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomService{store: st, remote: remote, authz: authz, audit: auditLog, logger: logger}
}

// List returns the unit's rooms.
func (s *RoomService) List(unitID string) []domain.Room {
	return s.store.UnitData(unitID).Rooms
}

// Replace swaps the unit's whole room inventory. Whole-array replacement is
// a bulk operation and admin-only.
func (s *RoomService) Replace(ctx context.Context, unitID string, actor domain.User, rooms []domain.Room) error {
	if err := s.authz.ValidatePermission(actor.Role, security.PermBulkOps); err != nil {
		s.audit.LogDenied(ctx, unitID, actor.ID, "replace_rooms")
		return err
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	s.store.SaveUnitRooms(unitID, rooms)

	if s.remote != nil {
		if err := s.remote.UpsertRooms(ctx, unitID, rooms); err != nil {
			s.logger.Warn("remote rooms push failed, local copy stands",
				slog.String("unit_id", unitID),
				slog.String("error", err.Error()),
			)
			metrics.ObserveOptimisticFallback("replace_rooms")
		}
	}
	s.audit.LogAction(ctx, unitID, actor.ID, "replace_rooms", "room", "", "success", "")
	return nil
}
