package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/roomdesk/internal/service"
)

// UnitsHandler handles the tenant surface: GET /api/units,
// GET /api/units/{id}, POST /api/units/switch.
type UnitsHandler struct {
	units  *service.UnitService
	logger *slog.Logger
}

func NewUnitsHandler(units *service.UnitService, logger *slog.Logger) *UnitsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnitsHandler{units: units, logger: logger}
}

// List handles GET /api/units.
func (h *UnitsHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"units":   h.units.All(),
		"current": h.units.CurrentID(),
	})
}

// Data handles GET /api/units/{id}: the unit's full blob, seeded if absent.
func (h *UnitsHandler) Data(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.PathValue("id")
	known := false
	for _, d := range h.units.All() {
		if d.ID == id {
			known = true
			break
		}
	}
	if !known {
		writeError(w, http.StatusNotFound, "unknown unit")
		return
	}
	writeJSON(w, http.StatusOK, h.units.Data(id))
}

// Switch handles POST /api/units/switch.
func (h *UnitsHandler) Switch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		UnitID string `json:"unitId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UnitID == "" {
		writeError(w, http.StatusBadRequest, "unitId required")
		return
	}

	if err := h.units.Switch(r.Context(), actor, req.UnitID); err != nil {
		h.logger.Warn("unit switch rejected",
			slog.String("unit_id", req.UnitID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"current": req.UnitID})
}
