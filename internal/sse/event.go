// ABOUTME: Event stream framing: named events with a single JSON data line
// ABOUTME: HTTP-backed EventWriter applying a per-write deadline and flushing each frame

package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Event names emitted by the adapter.
const (
	EventOpen = "open"
	EventPing = "ping"
	EventNote = "note"
)

// EventWriter delivers one framed event to a client.
type EventWriter interface {
	WriteEvent(event string, data any) error
}

// WriteFrame writes a single event frame: an event line, a data line holding
// the JSON encoding of data, and the terminating blank line.
func WriteFrame(w io.Writer, event string, data any) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, dataJSON); err != nil {
		return fmt.Errorf("writing %s event: %w", event, err)
	}
	return nil
}

// httpEventWriter writes frames to an http.ResponseWriter and flushes each one.
type httpEventWriter struct {
	w            http.ResponseWriter
	rc           *http.ResponseController
	writeTimeout time.Duration
}

func newHTTPEventWriter(w http.ResponseWriter, writeTimeout time.Duration) *httpEventWriter {
	return &httpEventWriter{
		w:            w,
		rc:           http.NewResponseController(w),
		writeTimeout: writeTimeout,
	}
}

func (h *httpEventWriter) WriteEvent(event string, data any) error {
	if h.writeTimeout > 0 {
		err := h.rc.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err != nil && !errors.Is(err, http.ErrNotSupported) {
			return fmt.Errorf("setting write deadline: %w", err)
		}
	}
	if err := WriteFrame(h.w, event, data); err != nil {
		return err
	}
	if err := h.rc.Flush(); err != nil {
		return fmt.Errorf("flushing %s event: %w", event, err)
	}
	return nil
}
