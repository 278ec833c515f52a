package domain

// RoomStatus values.
const (
	RoomStatusActive      = "active"
	RoomStatusMaintenance = "maintenance"
)

// Room is a bookable meeting room or e-cabinet.
type Room struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Capacity  int      `json:"capacity"`
	Location  string   `json:"location"`
	Amenities []string `json:"amenities"`
	Status    string   `json:"status"`
}
