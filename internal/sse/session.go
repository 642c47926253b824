// ABOUTME: Session is one open event stream tracked by the Registry
// ABOUTME: Serialises writes and moves connecting -> open -> closed exactly once

package sse

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrSessionClosed is returned when sending to a session that has been closed.
var ErrSessionClosed = errors.New("session closed")

// State is the lifecycle state of a Session.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is a long-lived server-to-client channel.
type Session struct {
	ID       string
	OpenedAt time.Time

	writeMu sync.Mutex // one frame at a time; ping and broadcast share the writer
	w       EventWriter

	state     atomic.Int32
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession creates a session in the connecting state with a fresh ID.
func NewSession(w EventWriter) *Session {
	return &Session{
		ID:       uuid.New().String(),
		OpenedAt: time.Now().UTC(),
		w:        w,
		done:     make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// markOpen moves a connecting session to open. It reports false if the
// session was already closed.
func (s *Session) markOpen() bool {
	return s.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
}

// Send writes one event. Writes from concurrent callers are serialised, so
// events from a single caller arrive in the order they were sent.
func (s *Session) Send(event string, data any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.State() == StateClosed {
		return ErrSessionClosed
	}
	return s.w.WriteEvent(event, data)
}

// Close transitions the session to closed. Only the first call has any
// effect; it reports whether this call performed the transition. A write
// already in progress may still finish; Drain waits for it.
func (s *Session) Close() bool {
	closed := false
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)
		closed = true
	})
	return closed
}

// Drain closes the session and waits for any in-progress write to finish.
// After Drain returns the underlying writer is never used again.
func (s *Session) Drain() {
	s.Close()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.w = nil
}
