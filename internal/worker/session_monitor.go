package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/yourorg/roomdesk/internal/bus"
)

// sessionRevalidator is the slice of the auth service the monitor needs.
type sessionRevalidator interface {
	Revalidate() bool
}

// SessionMonitor polls the unit store to detect sessions superseded by a
// newer login elsewhere. It re-checks immediately on auth_changed so a
// local login or logout is reflected without waiting out the interval.
type SessionMonitor struct {
	auth     sessionRevalidator
	bus      *bus.Bus
	logger   *slog.Logger
	interval time.Duration
	running  atomic.Bool
}

// NewSessionMonitor creates a session monitor.
func NewSessionMonitor(auth sessionRevalidator, b *bus.Bus, interval time.Duration, logger *slog.Logger) *SessionMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionMonitor{
		auth:     auth,
		bus:      b,
		logger:   logger,
		interval: interval,
	}
}

// Start begins the revalidation loop. A second Start while one is running
// is a no-op, so restart paths cannot stack tickers.
func (m *SessionMonitor) Start(ctx context.Context) {
	if !m.running.CompareAndSwap(false, true) {
		m.logger.Warn("session monitor already running, ignoring duplicate start")
		return
	}
	defer m.running.Store(false)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	kick := make(chan struct{}, 1)
	unsubscribe := m.bus.Subscribe(bus.SignalAuthChanged, func() {
		select {
		case kick <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	m.logger.Info("session monitor started", slog.Duration("interval", m.interval))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("session monitor stopped")
			return
		case <-ticker.C:
			m.auth.Revalidate()
		case <-kick:
			m.auth.Revalidate()
		}
	}
}
