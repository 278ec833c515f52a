package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourorg/roomdesk/internal/bus"
)

const (
	eventWriteTimeout = 10 * time.Second
	eventPingInterval = 30 * time.Second
)

// EventsHandler handles GET /ws/events: a websocket stream of bus signal
// names, so UI observers can reload when data, the current unit, or the
// session changes.
type EventsHandler struct {
	bus            *bus.Bus
	logger         *slog.Logger
	allowedOrigins []string
}

func NewEventsHandler(b *bus.Bus, allowedOrigins []string, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{bus: b, logger: logger, allowedOrigins: allowedOrigins}
}

func (h *EventsHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

type event struct {
	Signal string    `json:"signal"`
	At     time.Time `json:"at"`
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	// Buffered so a slow reader drops signals instead of blocking the bus.
	events := make(chan bus.Signal, 16)
	var unsubscribes []func()
	for _, sig := range bus.Signals {
		sig := sig
		unsubscribes = append(unsubscribes, h.bus.Subscribe(sig, func() {
			select {
			case events <- sig:
			default:
			}
		}))
	}
	defer func() {
		for _, u := range unsubscribes {
			u()
		}
	}()

	// The read loop only exists to detect the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Debug("event stream opened", slog.String("remote", r.RemoteAddr))

	pinger := time.NewTicker(eventPingInterval)
	defer pinger.Stop()

	for {
		select {
		case <-done:
			h.logger.Debug("event stream closed", slog.String("remote", r.RemoteAddr))
			return
		case sig := <-events:
			payload, _ := json.Marshal(event{Signal: string(sig), At: time.Now()})
			ws.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-pinger.C:
			ws.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
