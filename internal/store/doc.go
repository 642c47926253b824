// Package store persists the adapter's audit log.
//
// # Scope
//
// Only the audit trail of simulated actions is stored. Stream sessions and
// RPC state are deliberately in-memory and lost on restart.
//
// # Drivers
//
// SQLiteStore works with either registered SQLite driver:
//
//   - "sqlite": modernc.org/sqlite, pure Go (default)
//   - "sqlite3": github.com/mattn/go-sqlite3, requires cgo
//
// An empty path or ":memory:" opens an in-memory database limited to a single
// connection.
//
// # Usage
//
//	s, err := store.Open(store.DriverModernc, "/var/lib/mcp-sse-adapter/audit.db")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	err = s.AppendAuditLog(ctx, &store.AuditEntry{
//	    Action:    store.AuditCall,
//	    Reference: "call_01J...",
//	    Payload:   map[string]any{"to": "+15550100"},
//	})
//
// # Testing
//
// MockStore implements Store in memory and can inject append failures.
package store
