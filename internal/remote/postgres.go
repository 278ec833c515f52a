package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/yourorg/roomdesk/internal/domain"
)

// PostgresStore implements domain.RemoteStore against a relational backend.
// Rows are keyed (id, unit_id) and ordered by recency on fetch.
type PostgresStore struct {
	db         *sql.DB
	publicBase string
	logger     *slog.Logger
}

// NewPostgresStore creates a postgres-backed remote store. publicBase is the
// prefix served for uploaded files.
func NewPostgresStore(db *sql.DB, publicBase string, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, publicBase: strings.TrimRight(publicBase, "/"), logger: logger}
}

// SelectUsers fetches a unit's users, most recently updated first.
func (s *PostgresStore) SelectUsers(ctx context.Context, unitID string) ([]domain.User, error) {
	query := `
		SELECT id, unit_id, name, role, dept, status, avatar_color, email, current_session_id
		FROM users
		WHERE unit_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to select users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var r userRow
		if err := rows.Scan(&r.ID, &r.UnitID, &r.Name, &r.Role, &r.Dept, &r.Status, &r.AvatarColor, &r.Email, &r.CurrentSessionID); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, userFromRow(r))
	}
	return out, rows.Err()
}

// UpsertUsers writes a unit's users by id.
func (s *PostgresStore) UpsertUsers(ctx context.Context, unitID string, users []domain.User) error {
	query := `
		INSERT INTO users (id, unit_id, name, role, dept, status, avatar_color, email, current_session_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, role = EXCLUDED.role, dept = EXCLUDED.dept,
		    status = EXCLUDED.status, avatar_color = EXCLUDED.avatar_color,
		    email = EXCLUDED.email, current_session_id = EXCLUDED.current_session_id,
		    updated_at = now()
	`
	for _, u := range users {
		r := userToRow(unitID, u)
		if _, err := s.db.ExecContext(ctx, query, r.ID, r.UnitID, r.Name, r.Role, r.Dept, r.Status, r.AvatarColor, r.Email, r.CurrentSessionID); err != nil {
			return fmt.Errorf("failed to upsert user %s: %w", r.ID, err)
		}
	}
	return nil
}

// SelectRooms fetches a unit's rooms.
func (s *PostgresStore) SelectRooms(ctx context.Context, unitID string) ([]domain.Room, error) {
	query := `
		SELECT id, unit_id, name, capacity, location, amenities, status
		FROM rooms
		WHERE unit_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to select rooms: %w", err)
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		var r roomRow
		if err := rows.Scan(&r.ID, &r.UnitID, &r.Name, &r.Capacity, &r.Location, pq.Array(&r.Amenities), &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		out = append(out, roomFromRow(r))
	}
	return out, rows.Err()
}

// UpsertRooms writes a unit's rooms by id. Bookings reference rooms
// remotely, so sync pushes rooms before fetching bookings.
func (s *PostgresStore) UpsertRooms(ctx context.Context, unitID string, rooms []domain.Room) error {
	query := `
		INSERT INTO rooms (id, unit_id, name, capacity, location, amenities, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, capacity = EXCLUDED.capacity, location = EXCLUDED.location,
		    amenities = EXCLUDED.amenities, status = EXCLUDED.status, updated_at = now()
	`
	for _, room := range rooms {
		r := roomToRow(unitID, room)
		if _, err := s.db.ExecContext(ctx, query, r.ID, r.UnitID, r.Name, r.Capacity, r.Location, pq.Array(r.Amenities), r.Status); err != nil {
			return fmt.Errorf("failed to upsert room %s: %w", r.ID, err)
		}
	}
	return nil
}

// SelectBookings fetches a unit's bookings.
func (s *PostgresStore) SelectBookings(ctx context.Context, unitID string) ([]domain.Booking, error) {
	query := `
		SELECT id, unit_id, booking_date, title, start_time, end_time, room_id, booking_type, attendees, documents
		FROM bookings
		WHERE unit_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to select bookings: %w", err)
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var r bookingRow
		var attendees, documents []byte
		if err := rows.Scan(&r.ID, &r.UnitID, &r.BookingDate, &r.Title, &r.StartTime, &r.EndTime, &r.RoomID, &r.BookingType, &attendees, &documents); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		r.Attendees = json.RawMessage(attendees)
		r.Documents = json.RawMessage(documents)
		out = append(out, bookingFromRow(r))
	}
	return out, rows.Err()
}

const bookingUpsertQuery = `
	INSERT INTO bookings (id, unit_id, booking_date, title, start_time, end_time, room_id, booking_type, attendees, documents, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
	ON CONFLICT (id) DO UPDATE
	SET booking_date = EXCLUDED.booking_date, title = EXCLUDED.title,
	    start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
	    room_id = EXCLUDED.room_id, booking_type = EXCLUDED.booking_type,
	    attendees = EXCLUDED.attendees, documents = EXCLUDED.documents,
	    updated_at = now()
`

// InsertBooking creates a booking row.
func (s *PostgresStore) InsertBooking(ctx context.Context, unitID string, b domain.Booking) error {
	return s.writeBooking(ctx, unitID, b)
}

// UpdateBooking updates a booking row by id.
func (s *PostgresStore) UpdateBooking(ctx context.Context, unitID string, b domain.Booking) error {
	return s.writeBooking(ctx, unitID, b)
}

func (s *PostgresStore) writeBooking(ctx context.Context, unitID string, b domain.Booking) error {
	r := bookingToRow(unitID, b)
	if _, err := s.db.ExecContext(ctx, bookingUpsertQuery,
		r.ID, r.UnitID, r.BookingDate, r.Title, r.StartTime, r.EndTime, r.RoomID, r.BookingType,
		[]byte(r.Attendees), []byte(r.Documents)); err != nil {
		return fmt.Errorf("failed to write booking %s: %w", r.ID, err)
	}
	return nil
}

// DeleteBooking removes a booking row by id.
func (s *PostgresStore) DeleteBooking(ctx context.Context, unitID, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1 AND unit_id = $2`, id, unitID); err != nil {
		return fmt.Errorf("failed to delete booking %s: %w", id, err)
	}
	return nil
}

// SelectDocuments fetches a unit's documents.
func (s *PostgresStore) SelectDocuments(ctx context.Context, unitID string) ([]domain.Document, error) {
	query := `
		SELECT id, unit_id, name, doc_date, file_size, file_type, status, category, url
		FROM documents
		WHERE unit_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		var r documentRow
		if err := rows.Scan(&r.ID, &r.UnitID, &r.Name, &r.DocDate, &r.FileSize, &r.FileType, &r.Status, &r.Category, &r.URL); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, documentFromRow(r))
	}
	return out, rows.Err()
}

const documentUpsertQuery = `
	INSERT INTO documents (id, unit_id, name, doc_date, file_size, file_type, status, category, url, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name, doc_date = EXCLUDED.doc_date, file_size = EXCLUDED.file_size,
	    file_type = EXCLUDED.file_type, status = EXCLUDED.status,
	    category = EXCLUDED.category, url = EXCLUDED.url, updated_at = now()
`

// InsertDocument creates a document row.
func (s *PostgresStore) InsertDocument(ctx context.Context, unitID string, d domain.Document) error {
	return s.writeDocument(ctx, unitID, d)
}

// UpdateDocument updates a document row by id.
func (s *PostgresStore) UpdateDocument(ctx context.Context, unitID string, d domain.Document) error {
	return s.writeDocument(ctx, unitID, d)
}

func (s *PostgresStore) writeDocument(ctx context.Context, unitID string, d domain.Document) error {
	r := documentToRow(unitID, d)
	if _, err := s.db.ExecContext(ctx, documentUpsertQuery,
		r.ID, r.UnitID, r.Name, r.DocDate, r.FileSize, r.FileType, r.Status, r.Category, r.URL); err != nil {
		return fmt.Errorf("failed to write document %s: %w", r.ID, err)
	}
	return nil
}

// DeleteDocument removes a document row by id.
func (s *PostgresStore) DeleteDocument(ctx context.Context, unitID, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1 AND unit_id = $2`, id, unitID); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return nil
}

// Upload stores a file blob and returns its public URL.
func (s *PostgresStore) Upload(ctx context.Context, path string, data []byte) (string, error) {
	query := `
		INSERT INTO files (path, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`
	if _, err := s.db.ExecContext(ctx, query, path, data); err != nil {
		return "", fmt.Errorf("failed to upload file %s: %w", path, err)
	}
	return s.PublicURL(path), nil
}

// PublicURL derives the serving URL for an uploaded path.
func (s *PostgresStore) PublicURL(path string) string {
	return s.publicBase + "/files/" + path
}

// Ping checks backend connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
