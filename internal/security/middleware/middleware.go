package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/roomdesk/internal/security/audit"
	"github.com/yourorg/roomdesk/internal/security/auth"
	"github.com/yourorg/roomdesk/internal/security/ratelimit"
)

type UnitContextKey struct{}
type ClaimsContextKey struct{}

// Login attempts get a much tighter window than authenticated traffic.
const (
	loginMaxAttempts = 10
	loginWindow      = time.Minute
)

// isPublic reports whether the path is reachable without a token. The
// roster must stay public: clients pick an account from it before they can
// log in.
func isPublic(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics", "/api/login", "/api/units":
		return true
	}
	return strings.HasPrefix(path, "/api/roster") || strings.HasPrefix(path, "/ws/events")
}

func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Debug("token rejected", slog.String("error", err.Error()))
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			ctx = context.WithValue(ctx, UnitContextKey{}, claims.UnitID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/login" {
				if !limiter.AllowStrict("login:"+clientKey(r), loginMaxAttempts, loginWindow) {
					log.Warn("login rate limit exceeded", slog.String("client", clientKey(r)))
					http.Error(w, `{"error":"too many login attempts"}`, http.StatusTooManyRequests)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(clientKey(r)) {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey buckets requests by authenticated unit when available, falling
// back to remote address for anonymous traffic.
func clientKey(r *http.Request) string {
	if u := r.Context().Value(UnitContextKey{}); u != nil {
		return u.(string)
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			unitID := ""
			userID := ""
			if u := r.Context().Value(UnitContextKey{}); u != nil {
				unitID = u.(string)
			}
			if c := r.Context().Value(ClaimsContextKey{}); c != nil {
				claims := c.(*auth.Claims)
				userID = claims.UserID
			}

			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/api/bookings":
				auditLog.LogAction(r.Context(), unitID, userID, "create", "booking", "", "initiated", "")
			case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/bookings/"):
				auditLog.LogAction(r.Context(), unitID, userID, "delete", "booking", r.PathValue("id"), "initiated", "")
			case r.Method == http.MethodPost && r.URL.Path == "/api/documents":
				auditLog.LogAction(r.Context(), unitID, userID, "upload", "document", "", "initiated", "")
			case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/documents/"):
				auditLog.LogAction(r.Context(), unitID, userID, "delete", "document", r.PathValue("id"), "initiated", "")
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GetUnitFromContext(ctx context.Context) string {
	if u := ctx.Value(UnitContextKey{}); u != nil {
		return u.(string)
	}
	return ""
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}
