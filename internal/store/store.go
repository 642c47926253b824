// ABOUTME: Store interface and data types for mcp-sse-adapter persistence
// ABOUTME: Defines the audit log entry, its filter, and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// AuditLog records simulated actions and manual audit events.
type AuditLog interface {
	AppendAuditLog(ctx context.Context, e *AuditEntry) error
	ListAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}

// Store is the persistence layer of the adapter. Only the audit log is
// persisted; sessions and RPC state live in memory.
type Store interface {
	AuditLog
	Ping(ctx context.Context) error
	Close() error
}

// AuditAction represents an auditable action.
type AuditAction string

const (
	AuditCall                 AuditAction = "call"
	AuditSMS                  AuditAction = "sms"
	AuditCRMWrite             AuditAction = "crm_write"
	AuditCalendarAvailability AuditAction = "calendar_availability"
	AuditManual               AuditAction = "manual"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID        string         `json:"id"`                  // UUID v4
	Action    AuditAction    `json:"action"`              // what happened
	Reference string         `json:"reference,omitempty"` // simulation id, if any
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// AuditFilter specifies filtering options for listing audit entries.
type AuditFilter struct {
	Action *AuditAction // filter by action type
	Since  *time.Time   // entries at or after this time
	Limit  int          // max results (default 100, max 1000)
}
