// ABOUTME: HTTP handler for the event stream endpoint
// ABOUTME: Registers a session, sends open, then pings on an interval until the stream ends

package sse

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// DefaultPingInterval is the keep-alive interval used when none is configured.
const DefaultPingInterval = 15 * time.Second

// ErrStreamingUnsupported is reported when the ResponseWriter cannot flush.
var ErrStreamingUnsupported = errors.New("streaming not supported")

type openEvent struct {
	ID string `json:"id"`
	TS int64  `json:"ts"`
}

type pingEvent struct {
	I  int64 `json:"i"`
	TS int64 `json:"ts"`
}

// HandlerConfig configures the stream endpoint.
type HandlerConfig struct {
	Registry     *Registry
	Logger       *slog.Logger
	PingInterval time.Duration
	WriteTimeout time.Duration
}

// Handler serves GET requests as long-lived event streams.
type Handler struct {
	registry     *Registry
	logger       *slog.Logger
	pingInterval time.Duration
	writeTimeout time.Duration
}

// NewHandler creates the stream endpoint handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.PingInterval
	if interval <= 0 {
		interval = DefaultPingInterval
	}
	return &Handler{
		registry:     cfg.Registry,
		logger:       logger.With("component", "sse"),
		pingInterval: interval,
		writeTimeout: cfg.WriteTimeout,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, ok := w.(http.Flusher); !ok {
		h.logger.Error("response writer cannot flush", "error", ErrStreamingUnsupported)
		http.Error(w, ErrStreamingUnsupported.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	session := NewSession(newHTTPEventWriter(w, h.writeTimeout))
	logger := h.logger.With("session_id", session.ID, "remote_addr", r.RemoteAddr)

	// open goes out before registration so no broadcast can precede it. A
	// broadcast issued before Register returns is not delivered to this session.
	if err := session.Send(EventOpen, openEvent{ID: session.ID, TS: time.Now().UnixMilli()}); err != nil {
		logger.Debug("failed to send open event", "error", err)
		return
	}

	if _, err := h.registry.Register(session); err != nil {
		logger.Warn("rejecting stream", "error", err)
		return
	}
	// The ResponseWriter must not be touched after ServeHTTP returns, so wait
	// out any broadcast still writing to it.
	defer func() {
		h.registry.Unregister(session)
		session.Drain()
	}()
	logger.Info("stream opened")

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	var seq int64
	for {
		select {
		case <-r.Context().Done():
			logger.Info("stream closed by client")
			return
		case <-session.Done():
			logger.Info("stream closed by server")
			return
		case <-ticker.C:
			if err := session.Send(EventPing, pingEvent{I: seq, TS: time.Now().UnixMilli()}); err != nil {
				logger.Debug("ping failed, closing stream", "error", err)
				return
			}
			seq++
		}
	}
}
