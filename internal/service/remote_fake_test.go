package service

import (
	"context"
	"errors"

	"github.com/yourorg/roomdesk/internal/bus"
	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/security"
	"github.com/yourorg/roomdesk/internal/security/audit"
	"github.com/yourorg/roomdesk/internal/store"
	"github.com/yourorg/roomdesk/pkg/kv"
)

// fakeRemote lets each test script the remote surface; unset write
// operations succeed and unset reads fail.
type fakeRemote struct {
	upsertUsers    func(unitID string, users []domain.User) error
	insertBooking  func(unitID string, b domain.Booking) error
	updateBooking  func(unitID string, b domain.Booking) error
	deleteBooking  func(unitID, id string) error
	insertDocument func(unitID string, d domain.Document) error
	updateDocument func(unitID string, d domain.Document) error
	deleteDocument func(unitID, id string) error
	upload         func(path string, data []byte) (string, error)
	calls          []string
}

var errNotScripted = errors.New("not scripted")

func (f *fakeRemote) SelectUsers(context.Context, string) ([]domain.User, error) {
	return nil, errNotScripted
}

func (f *fakeRemote) UpsertUsers(_ context.Context, unitID string, users []domain.User) error {
	f.calls = append(f.calls, "upsert_users")
	if f.upsertUsers == nil {
		return nil
	}
	return f.upsertUsers(unitID, users)
}

func (f *fakeRemote) SelectRooms(context.Context, string) ([]domain.Room, error) {
	return nil, errNotScripted
}
func (f *fakeRemote) UpsertRooms(context.Context, string, []domain.Room) error { return nil }

func (f *fakeRemote) SelectBookings(context.Context, string) ([]domain.Booking, error) {
	return nil, errNotScripted
}

func (f *fakeRemote) InsertBooking(_ context.Context, unitID string, b domain.Booking) error {
	f.calls = append(f.calls, "insert_booking")
	if f.insertBooking == nil {
		return nil
	}
	return f.insertBooking(unitID, b)
}

func (f *fakeRemote) UpdateBooking(_ context.Context, unitID string, b domain.Booking) error {
	f.calls = append(f.calls, "update_booking")
	if f.updateBooking == nil {
		return nil
	}
	return f.updateBooking(unitID, b)
}

func (f *fakeRemote) DeleteBooking(_ context.Context, unitID, id string) error {
	f.calls = append(f.calls, "delete_booking")
	if f.deleteBooking == nil {
		return nil
	}
	return f.deleteBooking(unitID, id)
}

func (f *fakeRemote) SelectDocuments(context.Context, string) ([]domain.Document, error) {
	return nil, errNotScripted
}

func (f *fakeRemote) InsertDocument(_ context.Context, unitID string, d domain.Document) error {
	f.calls = append(f.calls, "insert_document")
	if f.insertDocument == nil {
		return nil
	}
	return f.insertDocument(unitID, d)
}

func (f *fakeRemote) UpdateDocument(_ context.Context, unitID string, d domain.Document) error {
	f.calls = append(f.calls, "update_document")
	if f.updateDocument == nil {
		return nil
	}
	return f.updateDocument(unitID, d)
}

func (f *fakeRemote) DeleteDocument(_ context.Context, unitID, id string) error {
	f.calls = append(f.calls, "delete_document")
	if f.deleteDocument == nil {
		return nil
	}
	return f.deleteDocument(unitID, id)
}

func (f *fakeRemote) Upload(_ context.Context, path string, data []byte) (string, error) {
	f.calls = append(f.calls, "upload")
	if f.upload == nil {
		return "http://remote/files/" + path, nil
	}
	return f.upload(path, data)
}

func (f *fakeRemote) PublicURL(path string) string { return "http://remote/files/" + path }
func (f *fakeRemote) Ping(context.Context) error   { return nil }

func newTestStore() (*store.Store, *bus.Bus) {
	b := bus.New()
	units := []store.Descriptor{
		{ID: "hq", Name: "Headquarters"},
		{ID: "lab", Name: "Research Lab"},
	}
	return store.New(kv.NewMemory(), b, units, "hq", nil), b
}

// testDeps bundles the collaborators shared by the CRUD service tests.
type testDeps struct {
	store *store.Store
	bus   *bus.Bus
	authz *security.AuthorizationService
	audit *audit.Logger
}

func newTestDeps() *testDeps {
	st, b := newTestStore()
	return &testDeps{
		store: st,
		bus:   b,
		authz: security.NewAuthorizationService(nil),
		audit: audit.NewLogger(nil),
	}
}

func findByRole(users []domain.User, role domain.Role) (domain.User, bool) {
	for _, u := range users {
		if u.Role == role {
			return u, true
		}
	}
	return domain.User{}, false
}
