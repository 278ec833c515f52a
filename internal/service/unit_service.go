package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/security"
	"github.com/yourorg/roomdesk/internal/security/audit"
	"github.com/yourorg/roomdesk/internal/store"
)

// UnitService exposes the tenant list and the current-unit pointer.
type UnitService struct {
	store  *store.Store
	authz  *security.AuthorizationService
	audit  *audit.Logger
	logger *slog.Logger
}

func NewUnitService(st *store.Store, authz *security.AuthorizationService, auditLog *audit.Logger, logger *slog.Logger) *UnitService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnitService{store: st, authz: authz, audit: auditLog, logger: logger}
}

// All returns the configured tenants.
func (s *UnitService) All() []store.Descriptor {
	return s.store.AllUnits()
}

// CurrentID returns the current-unit pointer.
func (s *UnitService) CurrentID() string {
	return s.store.CurrentUnitID()
}

// Data returns the unit's full blob, seeding it if absent.
func (s *UnitService) Data(unitID string) *domain.Unit {
	return s.store.UnitData(unitID)
}

// Switch moves the current-unit pointer. Only admins may switch; the store
// publishes unit_changed so observers reload.
func (s *UnitService) Switch(ctx context.Context, actor domain.User, unitID string) error {
	if err := s.authz.ValidatePermission(actor.Role, security.PermSwitchUnit); err != nil {
		s.audit.LogDenied(ctx, unitID, actor.ID, "switch_unit")
		return err
	}
	known := false
	for _, d := range s.store.AllUnits() {
		if d.ID == unitID {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown unit %s", unitID)
	}
	s.store.SetCurrentUnitID(unitID)
	s.audit.LogAction(ctx, unitID, actor.ID, "switch_unit", "unit", unitID, "success", "")
	return nil
}
