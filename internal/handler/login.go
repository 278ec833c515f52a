package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/roomdesk/internal/service"
)

// LoginRequest selects an account and presents its password.
type LoginRequest struct {
	UnitID   string `json:"unitId"`
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

// LoginHandler handles POST /api/login.
type LoginHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewLoginHandler(auth *service.AuthService, logger *slog.Logger) *LoginHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginHandler{auth: auth, logger: logger}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode login request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.UnitID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "unitId and userId required")
		return
	}

	res, err := h.auth.Login(r.Context(), req.UnitID, req.UserID, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// SessionHandler handles GET /api/session and POST /api/logout.
type SessionHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewSessionHandler(auth *service.AuthService, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{auth: auth, logger: logger}
}

// Session reports whether the local session is still the user's newest one.
func (h *SessionHandler) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.auth.Revalidate() {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	user, _ := h.auth.CurrentUser()
	writeJSON(w, http.StatusOK, map[string]any{
		"active": true,
		"user":   user.Sanitized(),
	})
}

// Logout tears down the local session.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.auth.Logout()
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// RosterHandler handles GET /api/roster?unit=<id>: the account picker list.
type RosterHandler struct {
	auth        *service.AuthService
	defaultUnit func() string
	logger      *slog.Logger
}

func NewRosterHandler(auth *service.AuthService, defaultUnit func() string, logger *slog.Logger) *RosterHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterHandler{auth: auth, defaultUnit: defaultUnit, logger: logger}
}

func (h *RosterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	unitID := unitFromRequest(r, h.defaultUnit())
	writeJSON(w, http.StatusOK, map[string]any{
		"unitId": unitID,
		"users":  h.auth.Roster(unitID),
	})
}
