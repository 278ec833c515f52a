package domain

import "context"

// RemoteStore is the opaque remote row store the sync layer reconciles
// against. The core only depends on these operations succeeding or failing;
// it does not depend on a specific backend.
type RemoteStore interface {
	SelectUsers(ctx context.Context, unitID string) ([]User, error)
	UpsertUsers(ctx context.Context, unitID string, users []User) error

	SelectRooms(ctx context.Context, unitID string) ([]Room, error)
	UpsertRooms(ctx context.Context, unitID string, rooms []Room) error

	SelectBookings(ctx context.Context, unitID string) ([]Booking, error)
	InsertBooking(ctx context.Context, unitID string, b Booking) error
	UpdateBooking(ctx context.Context, unitID string, b Booking) error
	DeleteBooking(ctx context.Context, unitID string, id string) error

	SelectDocuments(ctx context.Context, unitID string) ([]Document, error)
	InsertDocument(ctx context.Context, unitID string, d Document) error
	UpdateDocument(ctx context.Context, unitID string, d Document) error
	DeleteDocument(ctx context.Context, unitID string, id string) error

	// Upload stores a file blob and returns its public URL.
	Upload(ctx context.Context, path string, data []byte) (string, error)
	PublicURL(path string) string

	Ping(ctx context.Context) error
}
