package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/service"
)

// RoomsHandler handles GET and PUT /api/rooms.
type RoomsHandler struct {
	rooms  *service.RoomService
	logger *slog.Logger
}

func NewRoomsHandler(rooms *service.RoomService, logger *slog.Logger) *RoomsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomsHandler{rooms: rooms, logger: logger}
}

func (h *RoomsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"rooms": h.rooms.List(actor.UnitID)})

	case http.MethodPut:
		var req struct {
			Rooms []domain.Room `json:"rooms"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := h.rooms.Replace(r.Context(), actor.UnitID, actor, req.Rooms); err != nil {
			writeError(w, statusForServiceError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rooms": h.rooms.List(actor.UnitID)})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
