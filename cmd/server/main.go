package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourorg/roomdesk/internal/bus"
	"github.com/yourorg/roomdesk/internal/domain"
	"github.com/yourorg/roomdesk/internal/handler"
	"github.com/yourorg/roomdesk/internal/infrastructure/logger"
	"github.com/yourorg/roomdesk/internal/infrastructure/rediskv"
	"github.com/yourorg/roomdesk/internal/observability/metrics"
	"github.com/yourorg/roomdesk/internal/observability/tracing"
	"github.com/yourorg/roomdesk/internal/remote"
	"github.com/yourorg/roomdesk/internal/security"
	"github.com/yourorg/roomdesk/internal/security/audit"
	"github.com/yourorg/roomdesk/internal/security/auth"
	"github.com/yourorg/roomdesk/internal/security/middleware"
	"github.com/yourorg/roomdesk/internal/security/ratelimit"
	"github.com/yourorg/roomdesk/internal/service"
	"github.com/yourorg/roomdesk/internal/store"
	roomsync "github.com/yourorg/roomdesk/internal/sync"
	"github.com/yourorg/roomdesk/internal/worker"
	"github.com/yourorg/roomdesk/pkg/config"
	"github.com/yourorg/roomdesk/pkg/database"
	"github.com/yourorg/roomdesk/pkg/kv"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.New(cfg.LogLevel)
	log.Info("starting roomdesk server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Optional tracing
	shutdownTracing, err := tracing.Init(ctx, log, tracing.Options{
		ServiceName: "roomdesk",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Local KV substrate: Redis when configured, in-memory otherwise
	var kvStore kv.Store
	var kvPinger handler.Pinger
	if cfg.RedisURL != "" {
		redisStore, err := rediskv.New(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisStore.Close()
		kvStore = redisStore
		kvPinger = redisStore
		log.Info("using redis substrate")
	} else {
		kvStore = kv.NewMemory()
		log.Warn("REDIS_URL not set, using in-memory substrate")
	}

	// 5. Remote backend
	var remoteStore domain.RemoteStore
	switch cfg.RemoteBackend {
	case config.RemoteBackendPostgres:
		pool, err := database.NewFromDSN(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("failed to connect to postgres", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		remoteStore = remote.NewPostgresStore(pool.GetDB(), cfg.PublicBaseURL, log)
		log.Info("using postgres remote backend")
	case config.RemoteBackendRest:
		if cfg.RemoteBaseURL == "" {
			log.Error("REMOTE_BACKEND=rest requires REMOTE_BASE_URL")
			os.Exit(1)
		}
		remoteStore = remote.NewRestStore(cfg.RemoteBaseURL, cfg.RemoteAPIKey, log)
		log.Info("using rest remote backend", slog.String("base_url", cfg.RemoteBaseURL))
	default:
		log.Info("remote backend disabled, running local-only")
	}

	// 6. Core: bus, unit store, syncer
	eventBus := bus.New()
	descriptors := make([]store.Descriptor, 0, len(cfg.Units))
	for _, u := range cfg.Units {
		descriptors = append(descriptors, store.Descriptor{ID: u.ID, Name: u.Name})
	}
	unitStore := store.New(kvStore, eventBus, descriptors, cfg.DefaultUnitID, log)
	if unitStore.InitData() {
		log.Info("stale cache wiped during startup")
		metrics.ObserveCacheWipe()
	}
	syncer := roomsync.New(unitStore, remoteStore, log)

	// 7. Security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "roomdesk")
	rateLimiter := ratelimit.NewLimiter(100, time.Minute)
	auditLogger := audit.NewLogger(log)
	authz := security.NewAuthorizationService(log)

	// 8. Services
	authService := service.NewAuthService(unitStore, eventBus, remoteStore, tokenManager, cfg.OpenUnitID, log)
	unitService := service.NewUnitService(unitStore, authz, auditLogger, log)
	bookingService := service.NewBookingService(unitStore, eventBus, remoteStore, authz, auditLogger, log)
	documentService := service.NewDocumentService(unitStore, eventBus, remoteStore, authz, auditLogger, log)
	roomService := service.NewRoomService(unitStore, remoteStore, authz, auditLogger, log)

	// 9. Handlers
	loginHandler := handler.NewLoginHandler(authService, log)
	sessionHandler := handler.NewSessionHandler(authService, log)
	rosterHandler := handler.NewRosterHandler(authService, unitStore.CurrentUnitID, log)
	unitsHandler := handler.NewUnitsHandler(unitService, log)
	bookingsHandler := handler.NewBookingsHandler(bookingService, log)
	documentsHandler := handler.NewDocumentsHandler(documentService, log)
	roomsHandler := handler.NewRoomsHandler(roomService, log)
	syncHandler := handler.NewSyncHandler(syncer, log)
	healthHandler := handler.NewHealthHandler(kvPinger, remoteStore, log)
	eventsHandler := handler.NewEventsHandler(eventBus, cfg.CORSAllowedOrigins, log)

	// 10. Routes
	mux := http.NewServeMux()
	mux.Handle("POST /api/login", loginHandler)
	mux.HandleFunc("POST /api/logout", sessionHandler.Logout)
	mux.HandleFunc("GET /api/session", sessionHandler.Session)
	mux.Handle("GET /api/roster", rosterHandler)
	mux.HandleFunc("GET /api/units", unitsHandler.List)
	mux.HandleFunc("GET /api/units/{id}", unitsHandler.Data)
	mux.HandleFunc("POST /api/units/switch", unitsHandler.Switch)
	mux.HandleFunc("/api/bookings", bookingsHandler.Collection)
	mux.HandleFunc("/api/bookings/{id}", bookingsHandler.Item)
	mux.HandleFunc("/api/documents", documentsHandler.Collection)
	mux.HandleFunc("/api/documents/{id}", documentsHandler.Item)
	mux.Handle("/api/rooms", roomsHandler)
	mux.Handle("POST /api/sync", syncHandler)
	mux.Handle("GET /ws/events", eventsHandler)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> audit -> rate limit -> JWT -> CORS+mux
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.AuditMiddleware(auditLogger)(
				middleware.RateLimitMiddleware(rateLimiter, log)(
					middleware.JWTMiddleware(tokenManager, log)(handlerWithCORS),
				),
			),
		),
		log,
	)

	// 11. Background workers
	sessionMonitor := worker.NewSessionMonitor(authService, eventBus, time.Duration(cfg.SessionPollSeconds)*time.Second, log)
	go sessionMonitor.Start(ctx)

	cacheJanitor := worker.NewCacheJanitor(unitStore, time.Duration(cfg.CleanupSweepMinutes)*time.Minute, log)
	go cacheJanitor.Start(ctx)

	// 12. HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("remote_backend", cfg.RemoteBackend),
		slog.String("default_unit", cfg.DefaultUnitID),
		slog.Int("units", len(cfg.Units)),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // stop workers
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
