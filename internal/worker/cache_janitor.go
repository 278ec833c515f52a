package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/roomdesk/internal/featureflags"
	"github.com/yourorg/roomdesk/internal/observability/metrics"
)

// cacheSweeper is the slice of the store the janitor needs.
type cacheSweeper interface {
	CleanupExpired() bool
}

// CacheJanitor periodically runs the whole-cache TTL sweep so a process
// that stays up for weeks still sheds stale unit blobs the way a fresh
// start would.
type CacheJanitor struct {
	store    cacheSweeper
	logger   *slog.Logger
	interval time.Duration
}

// NewCacheJanitor creates a cache janitor.
func NewCacheJanitor(store cacheSweeper, interval time.Duration, logger *slog.Logger) *CacheJanitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheJanitor{
		store:    store,
		logger:   logger,
		interval: interval,
	}
}

// Start begins the sweep loop. The auto_wipe_disabled flag parks the
// janitor without removing it from the wiring.
func (j *CacheJanitor) Start(ctx context.Context) {
	if featureflags.Enabled("auto_wipe_disabled") {
		j.logger.Info("cache janitor disabled by flag")
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("cache janitor started", slog.Duration("interval", j.interval))

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("cache janitor stopped")
			return
		case <-ticker.C:
			if j.store.CleanupExpired() {
				j.logger.Info("cache TTL sweep wiped unit data")
				metrics.ObserveCacheWipe()
			}
		}
	}
}
