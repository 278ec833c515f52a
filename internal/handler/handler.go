// Package handler implements the HTTP API: login/session, units, roster,
// bookings, documents, rooms, sync triggers, health probes and the
// websocket event stream.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/security/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// actorFromRequest derives the acting user from validated token claims.
func actorFromRequest(r *http.Request) (domain.User, bool) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		return domain.User{}, false
	}
	return domain.User{
		ID:     claims.UserID,
		Email:  claims.Email,
		Role:   domain.Role(claims.Role),
		UnitID: claims.UnitID,
	}, true
}

// unitFromRequest resolves the unit a request operates on: the token's
// unit when authenticated, else an explicit ?unit= parameter.
func unitFromRequest(r *http.Request, fallback string) string {
	if id := middleware.GetUnitFromContext(r.Context()); id != "" {
		return id
	}
	if id := r.URL.Query().Get("unit"); id != "" {
		return id
	}
	return fallback
}
