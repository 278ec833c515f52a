package domain

import "time"

// BookingType values.
const (
	BookingTypeInternal  = "internal"
	BookingTypeExternal  = "external"
	BookingTypeTraining  = "training"
	BookingTypeImportant = "important"
)

// DateLayout is the calendar format bookings are stored in.
const DateLayout = "2006-01-02"

// Booking is a reservation of a room. Attendees and Documents are
// denormalized copies taken at creation time, not foreign keys: later edits
// to the user roster or the document repository do not retroactively change
// copies already embedded here.
type Booking struct {
	ID string `json:"id"`
	// Date is a full calendar date (DateLayout). The UI layer derives the
	// day-of-month from it for the month grid.
	Date      string        `json:"date"`
	Title     string        `json:"title"`
	StartTime string        `json:"startTime"` // HH:MM, no timezone
	EndTime   string        `json:"endTime"`   // HH:MM, no timezone
	RoomID    string        `json:"roomId"`
	Type      string        `json:"type"`
	Attendees []User        `json:"attendees"`
	Documents []DocumentRef `json:"documents"`
	SyncState SyncState     `json:"syncState,omitempty"`
}

// DocumentRef is the lightweight document metadata embedded in a booking.
type DocumentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Day returns the day-of-month (1-31) derived from Date, or 0 if the date
// does not parse.
func (b Booking) Day() int {
	t, err := time.Parse(DateLayout, b.Date)
	if err != nil {
		return 0
	}
	return t.Day()
}
