package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/roomdesk/internal/bus"
	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/featureflags"
	"github.com/yourorg/roomdesk/internal/observability/metrics"
	"github.com/yourorg/roomdesk/internal/security/auth"
	"github.com/yourorg/roomdesk/internal/store"
)

// ErrInvalidCredentials is returned for unknown accounts and wrong
// passwords alike, to prevent account enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials")

const tokenLifetime = 24 * time.Hour

// AuthService gates access behind a selected-account + password check and
// keeps the locally cached identity consistent with the unit roster. The
// session scheme is client-local: one opaque token per user, last write
// wins, detected by comparison on revalidation.
type AuthService struct {
	store      *store.Store
	bus        *bus.Bus
	remote     domain.RemoteStore
	tokens     *auth.TokenManager
	logger     *slog.Logger
	openUnitID string
}

// NewAuthService creates the authentication service. remote may be nil;
// openUnitID names the tenant whose non-admin accounts skip the password
// check entirely.
func NewAuthService(st *store.Store, b *bus.Bus, remote domain.RemoteStore, tokens *auth.TokenManager, openUnitID string, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:      st,
		bus:        b,
		remote:     remote,
		tokens:     tokens,
		logger:     logger,
		openUnitID: openUnitID,
	}
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	User      domain.User `json:"user"`
	SessionID string      `json:"sessionId"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Roster returns the unit's accounts for the login picker, stripped of
// credentials.
func (s *AuthService) Roster(unitID string) []domain.User {
	users := s.store.UnitData(unitID).Users
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out
}

// Login verifies the selected account and issues a fresh session. The new
// session token is written both into the user's roster entry and the local
// cache; any session issued earlier for the same user is implicitly
// invalidated and will be torn down on its next revalidation.
func (s *AuthService) Login(ctx context.Context, unitID, userID, password string) (*LoginResult, error) {
	unit := s.store.UnitData(unitID)
	user, ok := unit.FindUser(userID)
	if !ok {
		s.logger.Info("login attempt for unknown account",
			slog.String("unit_id", unitID),
			slog.String("user_id", userID),
		)
		metrics.ObserveLogin("unknown_account")
		return nil, ErrInvalidCredentials
	}

	if s.passwordRequired(unitID, user) {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			s.logger.Info("login failed with wrong password",
				slog.String("unit_id", unitID),
				slog.String("user_id", userID),
			)
			metrics.ObserveLogin("wrong_password")
			return nil, ErrInvalidCredentials
		}
	}

	sessionID, err := newSessionID()
	if err != nil {
		s.logger.Error("failed to generate session id", slog.String("error", err.Error()))
		return nil, errors.New("failed to log in")
	}

	user.CurrentSessionID = sessionID
	s.store.UpdateUnitUsers(unitID, func(users []domain.User) []domain.User {
		for i := range users {
			if users[i].ID == userID {
				users[i].CurrentSessionID = sessionID
			}
		}
		return users
	})
	s.store.SetCachedUser(user)
	s.store.SetSessionToken(sessionID)

	// Best-effort propagation so other contexts learn about the new session
	// on their next user sync. Failure keeps the login local-only.
	if s.remote != nil {
		if err := s.remote.UpsertUsers(ctx, unitID, []domain.User{user}); err != nil {
			s.logger.Warn("failed to push session to remote",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			metrics.ObserveOptimisticFallback("login")
		}
	}

	token, err := s.tokens.GenerateToken(unitID, userID, user.Email, string(user.Role), sessionID, tokenLifetime)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, errors.New("failed to log in")
	}

	s.logger.Info("user logged in",
		slog.String("unit_id", unitID),
		slog.String("user_id", userID),
		slog.String("role", string(user.Role)),
	)
	metrics.ObserveLogin("success")
	metrics.SetSessionActive(true)
	s.bus.Publish(bus.SignalAuthChanged)

	return &LoginResult{
		User:      user.Sanitized(),
		SessionID: sessionID,
		Token:     token,
		ExpiresAt: time.Now().Add(tokenLifetime),
	}, nil
}

// passwordRequired applies the open-unit bypass: non-admin accounts of the
// designated open tenant log in without a password unless strict_auth is
// flagged on.
func (s *AuthService) passwordRequired(unitID string, user domain.User) bool {
	if user.Role == domain.RoleAdmin {
		return true
	}
	if unitID == s.openUnitID && s.openUnitID != "" && !featureflags.Enabled("strict_auth") {
		return false
	}
	return true
}

// CurrentUser returns the locally cached identity, if any.
func (s *AuthService) CurrentUser() (domain.User, bool) {
	return s.store.CachedUser()
}

// Logout tears down the local session.
func (s *AuthService) Logout() {
	if u, ok := s.store.CachedUser(); ok {
		s.logger.Info("user logged out", slog.String("user_id", u.ID), slog.String("unit_id", u.UnitID))
	}
	s.store.ClearSession()
	metrics.SetSessionActive(false)
	s.bus.Publish(bus.SignalAuthChanged)
}

// Revalidate re-derives the cached identity from the unit store. If the
// user vanished or its recorded session token no longer matches the cached
// one, the local session is torn down silently and false is returned. A
// valid session returns true; no cached session returns false without side
// effects.
func (s *AuthService) Revalidate() bool {
	cached, ok := s.store.CachedUser()
	if !ok {
		metrics.SetSessionActive(false)
		return false
	}
	token, hasToken := s.store.SessionToken()

	unit := s.store.UnitData(cached.UnitID)
	user, found := unit.FindUser(cached.ID)
	if !found || !hasToken || user.CurrentSessionID != token {
		s.logger.Info("session superseded or user removed, forcing logout",
			slog.String("user_id", cached.ID),
			slog.String("unit_id", cached.UnitID),
		)
		s.store.ClearSession()
		metrics.ObserveSessionInvalidation()
		s.bus.Publish(bus.SignalAuthChanged)
		return false
	}
	metrics.SetSessionActive(true)
	return true
}

// VerifyToken validates an API credential.
func (s *AuthService) VerifyToken(tokenString string) (*auth.Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}

func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
