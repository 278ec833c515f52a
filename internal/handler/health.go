package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/roomdesk/internal/domain"
)

// Pinger is implemented by substrates that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the liveness and readiness probes.
type HealthHandler struct {
	kv     Pinger             // nil for the in-memory substrate
	remote domain.RemoteStore // nil in local-only mode
	logger *slog.Logger
}

func NewHealthHandler(kvPinger Pinger, remote domain.RemoteStore, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{kv: kvPinger, remote: remote, logger: logger}
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /readyz. The remote being down does not fail readiness:
// the service degrades to local-only operation, so only the KV substrate is
// load-bearing.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	if h.kv != nil {
		if err := h.kv.Ping(ctx); err != nil {
			checks["kv"] = "error: " + err.Error()
			ready = false
		} else {
			checks["kv"] = "ok"
		}
	} else {
		checks["kv"] = "in-memory"
	}

	if h.remote != nil {
		if err := h.remote.Ping(ctx); err != nil {
			checks["remote"] = "error: " + err.Error()
		} else {
			checks["remote"] = "ok"
		}
	} else {
		checks["remote"] = "not configured"
	}

	status := "ready"
	statusCode := http.StatusOK
	if !ready {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]any{
		"status": status,
		"checks": checks,
	})

	h.logger.Debug("readiness check",
		slog.String("status", status),
		slog.String("kv", checks["kv"]),
		slog.String("remote", checks["remote"]),
	)
}
