package security

import (
	"fmt"
	"log/slog"

	"github.com/yourorg/roomdesk/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermViewBookings    Permission = "view_bookings"
	PermCreateBooking   Permission = "create_booking"
	PermEditBooking     Permission = "edit_booking"
	PermDeleteBooking   Permission = "delete_booking"
	PermViewDocuments   Permission = "view_documents"
	PermUploadDocument  Permission = "upload_document"
	PermApproveDocument Permission = "approve_document"
	PermDeleteDocument  Permission = "delete_document"
	PermSwitchUnit      Permission = "switch_unit"
	PermBulkOps         Permission = "bulk_ops"
	PermManageUsers     Permission = "manage_users"
	PermViewAuditLog    Permission = "view_audit_log"
)

// RolePermissions is the single authorization capability table. Every action
// gate in the application consults it instead of re-checking roles ad hoc.
// The role comes from verified token claims on the HTTP path and from the
// cached identity on the local path.
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleAdmin: {
		PermViewBookings,
		PermCreateBooking,
		PermEditBooking,
		PermDeleteBooking,
		PermViewDocuments,
		PermUploadDocument,
		PermApproveDocument,
		PermDeleteDocument,
		PermSwitchUnit,
		PermBulkOps,
		PermManageUsers,
		PermViewAuditLog,
	},
	domain.RoleMember: {
		PermViewBookings,
		PermViewDocuments,
		PermUploadDocument,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("permission denied: %s role cannot %s", role, permission)
	}
	return nil
}

// GetRolePermissions returns all permissions for a role
func (as *AuthorizationService) GetRolePermissions(role domain.Role) []Permission {
	return RolePermissions[role]
}

// ValidateUnitAccess checks if a user belongs to a unit
func (as *AuthorizationService) ValidateUnitAccess(userUnitID, requestedUnitID string) error {
	if userUnitID != requestedUnitID {
		as.logger.Warn("unit access denied",
			slog.String("user_unit", userUnitID),
			slog.String("requested_unit", requestedUnitID),
		)
		return fmt.Errorf("access denied: invalid unit")
	}
	return nil
}
