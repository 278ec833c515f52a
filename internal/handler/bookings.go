package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/service"
)

// BookingsHandler handles /api/bookings and /api/bookings/{id}.
type BookingsHandler struct {
	bookings *service.BookingService
	logger   *slog.Logger
}

func NewBookingsHandler(bookings *service.BookingService, logger *slog.Logger) *BookingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingsHandler{bookings: bookings, logger: logger}
}

// Collection handles GET and POST /api/bookings.
func (h *BookingsHandler) Collection(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	unitID := actor.UnitID

	switch r.Method {
	case http.MethodGet:
		bookings := h.bookings.List(unitID)
		// Day and Location are derived display fields, flattened next to the
		// booking's own.
		type item struct {
			domain.Booking
			Day      int    `json:"day"`
			Location string `json:"location"`
		}
		items := make([]item, 0, len(bookings))
		for _, b := range bookings {
			items = append(items, item{
				Booking:  b,
				Day:      b.Day(),
				Location: h.bookings.RoomLocation(unitID, b.RoomID),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": items})

	case http.MethodPost:
		var in service.BookingInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		b, err := h.bookings.Create(r.Context(), unitID, actor, in)
		if err != nil {
			status := http.StatusBadRequest
			if strings.Contains(err.Error(), "permission denied") {
				status = http.StatusForbidden
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, b)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item handles PUT and DELETE /api/bookings/{id}.
func (h *BookingsHandler) Item(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing booking id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var in service.BookingInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		b, err := h.bookings.Update(r.Context(), actor.UnitID, actor, id, in)
		if err != nil {
			writeError(w, statusForServiceError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, b)

	case http.MethodDelete:
		if err := h.bookings.Delete(r.Context(), actor.UnitID, actor, id); err != nil {
			writeError(w, statusForServiceError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func statusForServiceError(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "permission denied"):
		return http.StatusForbidden
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
