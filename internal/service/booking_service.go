package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/roomdesk/internal/bus"
	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/observability/metrics"
	"github.com/yourorg/roomdesk/internal/security"
	"github.com/yourorg/roomdesk/internal/security/audit"
	"github.com/yourorg/roomdesk/internal/store"
)

// BookingService implements booking mutations with optimistic remote
// propagation: the local unit blob is always updated first, the remote push
// is attempted second, and a push failure downgrades the record to
// pending_local_only instead of rolling back.
type BookingService struct {
	store  *store.Store
	bus    *bus.Bus
	remote domain.RemoteStore
	authz  *security.AuthorizationService
	audit  *audit.Logger
	logger *slog.Logger
}

// NewBookingService creates the booking service. remote may be nil for
// local-only operation.
func NewBookingService(st *store.Store, b *bus.Bus, remote domain.RemoteStore, authz *security.AuthorizationService, auditLog *audit.Logger, logger *slog.Logger) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		store:  st,
		bus:    b,
		remote: remote,
		authz:  authz,
		audit:  auditLog,
		logger: logger,
	}
}

// BookingInput carries the caller-supplied fields of a new or edited
// booking.
type BookingInput struct {
	Date      string               `json:"date"`
	Title     string               `json:"title"`
	StartTime string               `json:"startTime"`
	EndTime   string               `json:"endTime"`
	RoomID    string               `json:"roomId"`
	Type      string               `json:"type"`
	Attendees []domain.User        `json:"attendees"`
	Documents []domain.DocumentRef `json:"documents"`
}

func (in BookingInput) validate() error {
	if in.Title == "" {
		return fmt.Errorf("booking title is required")
	}
	if _, err := time.Parse(domain.DateLayout, in.Date); err != nil {
		return fmt.Errorf("invalid booking date %q: want %s", in.Date, domain.DateLayout)
	}
	return nil
}

// List returns the unit's bookings.
func (s *BookingService) List(unitID string) []domain.Booking {
	return s.store.UnitData(unitID).Bookings
}

// RoomLocation resolves a booking's room to its display location, falling
// back to the Unknown sentinel for dangling references.
func (s *BookingService) RoomLocation(unitID, roomID string) string {
	return s.store.UnitData(unitID).ResolveLocation(roomID)
}

// Create adds a booking to the unit and pushes it to the remote. Attendee
// and document lists are embedded as-is: they are point-in-time copies, not
// references.
func (s *BookingService) Create(ctx context.Context, unitID string, actor domain.User, in BookingInput) (domain.Booking, error) {
	if err := s.authz.ValidatePermission(actor.Role, security.PermCreateBooking); err != nil {
		s.audit.LogDenied(ctx, unitID, actor.ID, "create_booking")
		return domain.Booking{}, err
	}
	if err := in.validate(); err != nil {
		return domain.Booking{}, err
	}

	booking := domain.Booking{
		ID:        "b-" + uuid.NewString(),
		Date:      in.Date,
		Title:     in.Title,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		RoomID:    in.RoomID,
		Type:      in.Type,
		Attendees: in.Attendees,
		Documents: in.Documents,
		SyncState: domain.SyncStateSynced,
	}
	if booking.Type == "" {
		booking.Type = domain.BookingTypeInternal
	}
	if booking.Attendees == nil {
		booking.Attendees = []domain.User{}
	}
	if booking.Documents == nil {
		booking.Documents = []domain.DocumentRef{}
	}

	if !s.pushInsert(ctx, unitID, &booking) {
		booking.SyncState = domain.SyncStatePendingLocalOnly
	}

	s.store.UpdateUnitBookings(unitID, func(bookings []domain.Booking) []domain.Booking {
		return append(bookings, booking)
	})
	s.audit.LogBookingChange(ctx, unitID, actor.ID, "create", booking.ID, "success", booking.Title)
	return booking, nil
}

// Update replaces the fields of an existing booking.
func (s *BookingService) Update(ctx context.Context, unitID string, actor domain.User, id string, in BookingInput) (domain.Booking, error) {
	if err := s.authz.ValidatePermission(actor.Role, security.PermEditBooking); err != nil {
		s.audit.LogDenied(ctx, unitID, actor.ID, "edit_booking")
		return domain.Booking{}, err
	}
	if err := in.validate(); err != nil {
		return domain.Booking{}, err
	}

	var updated domain.Booking
	found := false
	s.store.UpdateUnitBookings(unitID, func(bookings []domain.Booking) []domain.Booking {
		for i := range bookings {
			if bookings[i].ID != id {
				continue
			}
			bookings[i].Date = in.Date
			bookings[i].Title = in.Title
			bookings[i].StartTime = in.StartTime
			bookings[i].EndTime = in.EndTime
			bookings[i].RoomID = in.RoomID
			if in.Type != "" {
				bookings[i].Type = in.Type
			}
			if in.Attendees != nil {
				bookings[i].Attendees = in.Attendees
			}
			if in.Documents != nil {
				bookings[i].Documents = in.Documents
			}
			bookings[i].SyncState = domain.SyncStateSynced
			updated = bookings[i]
			found = true
		}
		return bookings
	})
	if !found {
		return domain.Booking{}, fmt.Errorf("booking %s not found", id)
	}

	if !s.pushUpdate(ctx, unitID, updated) {
		updated.SyncState = domain.SyncStatePendingLocalOnly
		s.markBookingPending(unitID, id)
	}
	s.audit.LogBookingChange(ctx, unitID, actor.ID, "update", id, "success", updated.Title)
	return updated, nil
}

// Delete removes a booking locally and best-effort on the remote. The local
// delete stands even when the remote call fails; the next bookings sync
// resolves the discrepancy in the remote's favor.
func (s *BookingService) Delete(ctx context.Context, unitID string, actor domain.User, id string) error {
	if err := s.authz.ValidatePermission(actor.Role, security.PermDeleteBooking); err != nil {
		s.audit.LogDenied(ctx, unitID, actor.ID, "delete_booking")
		return err
	}

	found := false
	s.store.UpdateUnitBookings(unitID, func(bookings []domain.Booking) []domain.Booking {
		out := bookings[:0]
		for _, b := range bookings {
			if b.ID == id {
				found = true
				continue
			}
			out = append(out, b)
		}
		return out
	})
	if !found {
		return fmt.Errorf("booking %s not found", id)
	}

	if s.remote != nil {
		if err := s.remote.DeleteBooking(ctx, unitID, id); err != nil {
			s.logger.Warn("remote booking delete failed, local delete stands",
				slog.String("booking_id", id),
				slog.String("error", err.Error()),
			)
			metrics.ObserveOptimisticFallback("delete_booking")
		}
	}
	s.audit.LogBookingChange(ctx, unitID, actor.ID, "delete", id, "success", "")
	return nil
}

func (s *BookingService) pushInsert(ctx context.Context, unitID string, b *domain.Booking) bool {
	if s.remote == nil {
		return false
	}
	if err := s.remote.InsertBooking(ctx, unitID, *b); err != nil {
		s.logger.Warn("remote booking insert failed, keeping local copy",
			slog.String("booking_id", b.ID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveOptimisticFallback("create_booking")
		return false
	}
	return true
}

func (s *BookingService) pushUpdate(ctx context.Context, unitID string, b domain.Booking) bool {
	if s.remote == nil {
		return false
	}
	if err := s.remote.UpdateBooking(ctx, unitID, b); err != nil {
		s.logger.Warn("remote booking update failed, keeping local copy",
			slog.String("booking_id", b.ID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveOptimisticFallback("edit_booking")
		return false
	}
	return true
}

func (s *BookingService) markBookingPending(unitID, id string) {
	s.store.UpdateUnitBookings(unitID, func(bookings []domain.Booking) []domain.Booking {
		for i := range bookings {
			if bookings[i].ID == id {
				bookings[i].SyncState = domain.SyncStatePendingLocalOnly
			}
		}
		return bookings
	})
}
