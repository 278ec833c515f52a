// Package remote implements the opaque remote row store the sync layer
// reconciles against. Two backends exist: a PostgreSQL one over database/sql
// and a REST one over a PostgREST-style row API. Both speak the same row
// shapes (snake_case columns) and share the mapping to domain entities.
package remote

import (
	"encoding/json"

	"github.com/yourorg/roomdesk/internal/domain"
)

type userRow struct {
	ID               string `json:"id"`
	UnitID           string `json:"unit_id"`
	Name             string `json:"name"`
	Role             string `json:"role"`
	Dept             string `json:"dept"`
	Status           string `json:"status"`
	AvatarColor      string `json:"avatar_color"`
	Email            string `json:"email"`
	CurrentSessionID string `json:"current_session_id"`
}

type roomRow struct {
	ID        string   `json:"id"`
	UnitID    string   `json:"unit_id"`
	Name      string   `json:"name"`
	Capacity  int      `json:"capacity"`
	Location  string   `json:"location"`
	Amenities []string `json:"amenities"`
	Status    string   `json:"status"`
}

type bookingRow struct {
	ID          string          `json:"id"`
	UnitID      string          `json:"unit_id"`
	BookingDate string          `json:"booking_date"`
	Title       string          `json:"title"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	RoomID      string          `json:"room_id"`
	BookingType string          `json:"booking_type"`
	Attendees   json.RawMessage `json:"attendees"`
	Documents   json.RawMessage `json:"documents"`
}

type documentRow struct {
	ID       string `json:"id"`
	UnitID   string `json:"unit_id"`
	Name     string `json:"name"`
	DocDate  string `json:"doc_date"`
	FileSize string `json:"file_size"`
	FileType string `json:"file_type"`
	Status   string `json:"status"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

func userFromRow(r userRow) domain.User {
	return domain.User{
		ID:               r.ID,
		Name:             r.Name,
		Role:             domain.Role(r.Role),
		Dept:             r.Dept,
		Status:           r.Status,
		AvatarColor:      r.AvatarColor,
		Email:            r.Email,
		UnitID:           r.UnitID,
		CurrentSessionID: r.CurrentSessionID,
		SyncState:        domain.SyncStateSynced,
	}
}

func userToRow(unitID string, u domain.User) userRow {
	return userRow{
		ID:               u.ID,
		UnitID:           unitID,
		Name:             u.Name,
		Role:             string(u.Role),
		Dept:             u.Dept,
		Status:           u.Status,
		AvatarColor:      u.AvatarColor,
		Email:            u.Email,
		CurrentSessionID: u.CurrentSessionID,
	}
}

func roomFromRow(r roomRow) domain.Room {
	amenities := r.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return domain.Room{
		ID:        r.ID,
		Name:      r.Name,
		Capacity:  r.Capacity,
		Location:  r.Location,
		Amenities: amenities,
		Status:    r.Status,
	}
}

func roomToRow(unitID string, r domain.Room) roomRow {
	return roomRow{
		ID:        r.ID,
		UnitID:    unitID,
		Name:      r.Name,
		Capacity:  r.Capacity,
		Location:  r.Location,
		Amenities: r.Amenities,
		Status:    r.Status,
	}
}

func bookingFromRow(r bookingRow) domain.Booking {
	// Embedded copies are stored as JSON columns; a malformed payload
	// degrades to empty lists rather than failing the whole fetch.
	attendees := []domain.User{}
	if len(r.Attendees) > 0 {
		_ = json.Unmarshal(r.Attendees, &attendees)
	}
	docs := []domain.DocumentRef{}
	if len(r.Documents) > 0 {
		_ = json.Unmarshal(r.Documents, &docs)
	}
	return domain.Booking{
		ID:        r.ID,
		Date:      r.BookingDate,
		Title:     r.Title,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		RoomID:    r.RoomID,
		Type:      r.BookingType,
		Attendees: attendees,
		Documents: docs,
		SyncState: domain.SyncStateSynced,
	}
}

func bookingToRow(unitID string, b domain.Booking) bookingRow {
	attendees, _ := json.Marshal(sanitizedAttendees(b.Attendees))
	docs, _ := json.Marshal(b.Documents)
	return bookingRow{
		ID:          b.ID,
		UnitID:      unitID,
		BookingDate: b.Date,
		Title:       b.Title,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		RoomID:      b.RoomID,
		BookingType: b.Type,
		Attendees:   attendees,
		Documents:   docs,
	}
}

func sanitizedAttendees(users []domain.User) []domain.User {
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out
}

func documentFromRow(r documentRow) domain.Document {
	return domain.Document{
		ID:        r.ID,
		Name:      r.Name,
		Date:      r.DocDate,
		Size:      r.FileSize,
		Type:      r.FileType,
		Status:    r.Status,
		Category:  r.Category,
		URL:       r.URL,
		SyncState: domain.SyncStateSynced,
	}
}

func documentToRow(unitID string, d domain.Document) documentRow {
	return documentRow{
		ID:       d.ID,
		UnitID:   unitID,
		Name:     d.Name,
		DocDate:  d.Date,
		FileSize: d.Size,
		FileType: d.Type,
		Status:   d.Status,
		Category: d.Category,
		URL:      d.URL,
	}
}
