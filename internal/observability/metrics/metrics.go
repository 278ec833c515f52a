package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomdesk_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roomdesk_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	syncOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomdesk_sync_operations_total",
		Help: "Count of remote sync attempts by entity and result",
	}, []string{"entity", "result"})

	optimisticFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomdesk_optimistic_fallbacks_total",
		Help: "Count of mutations kept locally after a failed remote write",
	}, []string{"operation"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomdesk_logins_total",
		Help: "Count of login attempts by result",
	}, []string{"result"})

	sessionInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomdesk_session_invalidations_total",
		Help: "Count of sessions torn down by revalidation",
	})

	activeSession = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "roomdesk_active_session",
		Help: "Whether a locally cached session is currently valid (0 or 1)",
	})

	cacheWipes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomdesk_cache_wipes_total",
		Help: "Count of whole-cache TTL wipes",
	})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveSync increments the sync counter for an entity and result.
func ObserveSync(entity, result string) {
	syncOperations.WithLabelValues(entity, result).Inc()
}

// ObserveOptimisticFallback records a mutation that succeeded only locally.
func ObserveOptimisticFallback(operation string) {
	optimisticFallbacks.WithLabelValues(operation).Inc()
}

// ObserveLogin records a login attempt result.
func ObserveLogin(result string) {
	logins.WithLabelValues(result).Inc()
}

// ObserveSessionInvalidation records a forced logout from revalidation.
func ObserveSessionInvalidation() {
	sessionInvalidations.Inc()
	activeSession.Set(0)
}

// SetSessionActive flips the active-session gauge.
func SetSessionActive(active bool) {
	if active {
		activeSession.Set(1)
		return
	}
	activeSession.Set(0)
}

// ObserveCacheWipe records a whole-cache TTL wipe.
func ObserveCacheWipe() {
	cacheWipes.Inc()
}
