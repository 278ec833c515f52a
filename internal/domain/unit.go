package domain

// SyncState tags whether an entity is known to the remote store or only
// exists in the local unit blob after a failed remote write.
type SyncState string

const (
	SyncStateSynced           SyncState = "synced"
	SyncStatePendingLocalOnly SyncState = "pending_local_only"
)

// Unit is one isolated tenant namespace. It owns its users, rooms, bookings
// and documents exclusively; nothing references across units. The whole unit
// is serialized as a single blob, which is the atom of local persistence.
type Unit struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Users     []User     `json:"users"`
	Rooms     []Room     `json:"rooms"`
	Bookings  []Booking  `json:"bookings"`
	Documents []Document `json:"documents"`
}

// Normalize replaces nil collections with empty ones. Callers of UnitData
// rely on the arrays never being null.
func (u *Unit) Normalize() {
	if u.Users == nil {
		u.Users = []User{}
	}
	if u.Rooms == nil {
		u.Rooms = []Room{}
	}
	if u.Bookings == nil {
		u.Bookings = []Booking{}
	}
	if u.Documents == nil {
		u.Documents = []Document{}
	}
}

// FindUser returns the user with the given id, if present.
func (u *Unit) FindUser(id string) (User, bool) {
	for _, usr := range u.Users {
		if usr.ID == id {
			return usr, true
		}
	}
	return User{}, false
}

// UnknownLocation is the sentinel returned when a booking references a room
// that no longer exists in its unit.
const UnknownLocation = "Unknown"

// ResolveLocation maps a room id to its location, degrading to
// UnknownLocation for dangling references rather than failing.
func (u *Unit) ResolveLocation(roomID string) string {
	for _, r := range u.Rooms {
		if r.ID == roomID {
			return r.Location
		}
	}
	return UnknownLocation
}
