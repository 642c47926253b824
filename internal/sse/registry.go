// ABOUTME: Registry tracks every open event stream session and fans out broadcasts
// ABOUTME: Sessions whose writes fail are closed and removed; the rest still receive the event

package sse

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/2389/mcp-sse-adapter/internal/metrics"
)

// DefaultFanout bounds how many sessions a single broadcast writes to concurrently.
const DefaultFanout = 16

// ErrRegistryClosed is returned when registering on a registry that has shut down.
var ErrRegistryClosed = errors.New("registry closed")

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Fanout  int
}

// Registry is the set of currently open sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	fanout  int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// SessionInfo describes a registered session for status reporting.
type SessionInfo struct {
	ID       string
	OpenedAt int64
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fanout := cfg.Fanout
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	return &Registry{
		sessions: make(map[string]*Session),
		fanout:   fanout,
		logger:   logger.With("component", "sse_registry"),
		metrics:  cfg.Metrics,
	}
}

// Register adds a session and moves it to the open state. The returned
// handle is what Unregister expects.
func (r *Registry) Register(s *Session) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		s.Close()
		return nil, ErrRegistryClosed
	}
	if !s.markOpen() {
		return nil, ErrSessionClosed
	}
	r.sessions[s.ID] = s
	r.metrics.SessionOpened()
	r.logger.Debug("session registered", "session_id", s.ID, "sessions", len(r.sessions))
	return s, nil
}

// Unregister closes the session and removes it. Calling it more than once,
// or for a session that was never registered, is a no-op.
func (r *Registry) Unregister(s *Session) {
	if s == nil {
		return
	}
	s.Close()

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[s.ID]; ok && current == s {
		delete(r.sessions, s.ID)
		r.metrics.SessionClosed()
		r.logger.Debug("session unregistered", "session_id", s.ID, "sessions", len(r.sessions))
	}
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sessions returns a description of every registered session.
func (r *Registry) Sessions() []SessionInfo {
	snapshot := r.snapshot()
	infos := make([]SessionInfo, 0, len(snapshot))
	for _, s := range snapshot {
		infos = append(infos, SessionInfo{ID: s.ID, OpenedAt: s.OpenedAt.UnixMilli()})
	}
	return infos
}

func (r *Registry) snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Broadcast writes the event to every session registered when the call
// starts and returns how many writes succeeded. A session whose write fails
// is closed and removed. Broadcast returns only after every attempt has
// finished, so consecutive broadcasts reach each session in order.
func (r *Registry) Broadcast(ctx context.Context, event string, payload any) int {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("failed to marshal broadcast payload", "event", event, "error", err)
		return 0
	}
	raw := json.RawMessage(data)

	sessions := r.snapshot()
	if len(sessions) == 0 {
		r.metrics.Broadcast(event, 0, 0)
		return 0
	}

	var delivered, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(r.fanout)

	for _, s := range sessions {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := s.Send(event, raw); err != nil {
				failed.Add(1)
				r.logger.Debug("dropping session after failed write",
					"session_id", s.ID,
					"event", event,
					"error", err,
				)
				r.Unregister(s)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	r.metrics.Broadcast(event, int(delivered.Load()), int(failed.Load()))
	return int(delivered.Load())
}

// Close closes and removes every session and rejects further registrations.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	for _, s := range r.snapshot() {
		r.Unregister(s)
	}
}
