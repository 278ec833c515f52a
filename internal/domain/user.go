package domain

// Role is the coarse two-level authorization model. The security package
// maps roles to permissions; services check those before mutating.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// UserStatus values.
const (
	UserStatusActive  = "active"
	UserStatusOffline = "offline"
)

// User represents a member of a unit.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	Dept        string `json:"dept"`
	Status      string `json:"status"`
	AvatarColor string `json:"avatarColor"`
	Email       string `json:"email,omitempty"`
	UnitID      string `json:"unitId"`
	// PasswordHash is the bcrypt hash checked at login. Never serialized to
	// API responses; see Sanitized.
	PasswordHash string `json:"passwordHash,omitempty"`
	// CurrentSessionID is the single most-recently-issued session token for
	// this user. Issuing a new one implicitly invalidates any prior session
	// (last-write-wins, no revocation list).
	CurrentSessionID string    `json:"currentSessionId,omitempty"`
	SyncState        SyncState `json:"syncState,omitempty"`
}

// Sanitized returns a copy safe to hand to API clients.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.CurrentSessionID = ""
	return u
}
