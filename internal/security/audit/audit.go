package audit

import (
	"context"
	"log/slog"
	"time"
)

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, unitID, userID, action, resource, resourceID, status, details string) {
	requestID := ""
	if reqID := ctx.Value("request_id"); reqID != nil {
		requestID = reqID.(string)
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("unit_id", unitID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogLogin(ctx context.Context, unitID, userID, status, details string) {
	al.LogAction(ctx, unitID, userID, "login", "session", "", status, details)
}

func (al *Logger) LogLogout(ctx context.Context, unitID, userID string) {
	al.LogAction(ctx, unitID, userID, "logout", "session", "", "ok", "")
}

func (al *Logger) LogBookingChange(ctx context.Context, unitID, userID, action, bookingID, status, details string) {
	al.LogAction(ctx, unitID, userID, action, "booking", bookingID, status, details)
}

func (al *Logger) LogDocumentChange(ctx context.Context, unitID, userID, action, docID, status, details string) {
	al.LogAction(ctx, unitID, userID, action, "document", docID, status, details)
}

func (al *Logger) LogDenied(ctx context.Context, unitID, userID, reason string) {
	al.LogAction(ctx, unitID, userID, "access_denied", "api", "", "denied", reason)
}
