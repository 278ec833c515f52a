package remote

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yourorg/roomdesk/internal/domain"
)

// RestStore implements domain.RemoteStore over a PostgREST-style row API:
// one JSON row collection per table, filtered by unit, plus a file endpoint
// for uploads.
type RestStore struct {
	client *resty.Client
	base   string
	logger *slog.Logger
}

// NewRestStore creates a REST-backed remote store rooted at baseURL.
func NewRestStore(baseURL, apiKey string, logger *slog.Logger) *RestStore {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("apikey", apiKey)
		client.SetAuthToken(apiKey)
	}
	return &RestStore{client: client, base: strings.TrimRight(baseURL, "/"), logger: logger}
}

func (s *RestStore) selectRows(ctx context.Context, table, unitID string, result any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("unit_id", "eq."+unitID).
		SetQueryParam("order", "updated_at.desc").
		SetResult(result).
		Get("/rows/" + table)
	if err != nil {
		return fmt.Errorf("failed to select %s: %w", table, err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to select %s: status %d", table, resp.StatusCode())
	}
	return nil
}

func (s *RestStore) upsertRow(ctx context.Context, table string, row any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates").
		SetQueryParam("on_conflict", "id").
		SetBody(row).
		Post("/rows/" + table)
	if err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", table, err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to upsert into %s: status %d", table, resp.StatusCode())
	}
	return nil
}

func (s *RestStore) deleteRow(ctx context.Context, table, unitID, id string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		SetQueryParam("unit_id", "eq."+unitID).
		Delete("/rows/" + table)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to delete from %s: status %d", table, resp.StatusCode())
	}
	return nil
}

// SelectUsers fetches a unit's users, most recently updated first.
func (s *RestStore) SelectUsers(ctx context.Context, unitID string) ([]domain.User, error) {
	var rows []userRow
	if err := s.selectRows(ctx, "users", unitID, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, userFromRow(r))
	}
	return out, nil
}

// UpsertUsers writes a unit's users by id.
func (s *RestStore) UpsertUsers(ctx context.Context, unitID string, users []domain.User) error {
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, userToRow(unitID, u))
	}
	return s.upsertRow(ctx, "users", rows)
}

// SelectRooms fetches a unit's rooms.
func (s *RestStore) SelectRooms(ctx context.Context, unitID string) ([]domain.Room, error) {
	var rows []roomRow
	if err := s.selectRows(ctx, "rooms", unitID, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Room, 0, len(rows))
	for _, r := range rows {
		out = append(out, roomFromRow(r))
	}
	return out, nil
}

// UpsertRooms writes a unit's rooms by id.
func (s *RestStore) UpsertRooms(ctx context.Context, unitID string, rooms []domain.Room) error {
	rows := make([]roomRow, 0, len(rooms))
	for _, r := range rooms {
		rows = append(rows, roomToRow(unitID, r))
	}
	return s.upsertRow(ctx, "rooms", rows)
}

// SelectBookings fetches a unit's bookings.
func (s *RestStore) SelectBookings(ctx context.Context, unitID string) ([]domain.Booking, error) {
	var rows []bookingRow
	if err := s.selectRows(ctx, "bookings", unitID, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(rows))
	for _, r := range rows {
		out = append(out, bookingFromRow(r))
	}
	return out, nil
}

// InsertBooking creates a booking row.
func (s *RestStore) InsertBooking(ctx context.Context, unitID string, b domain.Booking) error {
	return s.upsertRow(ctx, "bookings", bookingToRow(unitID, b))
}

// UpdateBooking updates a booking row by id.
func (s *RestStore) UpdateBooking(ctx context.Context, unitID string, b domain.Booking) error {
	return s.upsertRow(ctx, "bookings", bookingToRow(unitID, b))
}

// DeleteBooking removes a booking row by id.
func (s *RestStore) DeleteBooking(ctx context.Context, unitID, id string) error {
	return s.deleteRow(ctx, "bookings", unitID, id)
}

// SelectDocuments fetches a unit's documents.
func (s *RestStore) SelectDocuments(ctx context.Context, unitID string) ([]domain.Document, error) {
	var rows []documentRow
	if err := s.selectRows(ctx, "documents", unitID, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, documentFromRow(r))
	}
	return out, nil
}

// InsertDocument creates a document row.
func (s *RestStore) InsertDocument(ctx context.Context, unitID string, d domain.Document) error {
	return s.upsertRow(ctx, "documents", documentToRow(unitID, d))
}

// UpdateDocument updates a document row by id.
func (s *RestStore) UpdateDocument(ctx context.Context, unitID string, d domain.Document) error {
	return s.upsertRow(ctx, "documents", documentToRow(unitID, d))
}

// DeleteDocument removes a document row by id.
func (s *RestStore) DeleteDocument(ctx context.Context, unitID, id string) error {
	return s.deleteRow(ctx, "documents", unitID, id)
}

// Upload stores a file blob and returns its public URL.
func (s *RestStore) Upload(ctx context.Context, path string, data []byte) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(data).
		Post("/files/" + path)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("failed to upload %s: status %d", path, resp.StatusCode())
	}
	return s.PublicURL(path), nil
}

// PublicURL derives the serving URL for an uploaded path.
func (s *RestStore) PublicURL(path string) string {
	return s.base + "/files/" + path
}

// Ping checks backend reachability.
func (s *RestStore) Ping(ctx context.Context) error {
	resp, err := s.client.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return fmt.Errorf("remote unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("remote unhealthy: status %d", resp.StatusCode())
	}
	return nil
}
