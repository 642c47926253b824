// ABOUTME: Audit log entity and store methods for simulated actions
// ABOUTME: Records what the stub executors did, replacing the append-only JSON audit file

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// tsLayout is fixed width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// AppendAuditLog appends a new entry to the audit log.
// Generates ID and Timestamp if not set.
func (s *SQLiteStore) AppendAuditLog(ctx context.Context, e *AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	var payloadJSON *string
	if e.Payload != nil {
		data, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshaling audit payload: %w", err)
		}
		str := string(data)
		payloadJSON = &str
	}

	query := `
		INSERT INTO audit_log (audit_id, action, reference, ts, payload_json)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		string(e.Action),
		e.Reference,
		e.Timestamp.UTC().Format(tsLayout),
		payloadJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	s.logger.Debug("appended audit log",
		"id", e.ID,
		"action", e.Action,
		"reference", e.Reference,
	)
	return nil
}

// normalizeAuditLimit applies default (100) and cap (1000) to audit limit.
func normalizeAuditLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

// scanAuditEntry scans a row into an AuditEntry.
func scanAuditEntry(scanner interface{ Scan(dest ...any) error }) (AuditEntry, error) {
	var e AuditEntry
	var actionStr, tsStr string
	var payloadJSON *string

	if err := scanner.Scan(
		&e.ID,
		&actionStr,
		&e.Reference,
		&tsStr,
		&payloadJSON,
	); err != nil {
		return e, fmt.Errorf("scanning audit entry: %w", err)
	}

	e.Action = AuditAction(actionStr)
	var err error
	e.Timestamp, err = time.Parse(tsLayout, tsStr)
	if err != nil {
		return e, fmt.Errorf("parsing timestamp: %w", err)
	}

	if payloadJSON != nil {
		if err := json.Unmarshal([]byte(*payloadJSON), &e.Payload); err != nil {
			return e, fmt.Errorf("unmarshaling payload: %w", err)
		}
	}
	return e, nil
}

const auditLogQuery = `
	SELECT audit_id, action, reference, ts, payload_json
	FROM audit_log
	WHERE (? IS NULL OR action = ?)
	  AND (? IS NULL OR ts >= ?)
	ORDER BY seq DESC
	LIMIT ?
`

// ListAuditLog returns audit entries matching the filter criteria.
// Results are returned newest first (insertion order, descending).
func (s *SQLiteStore) ListAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	limit := normalizeAuditLimit(f.Limit)

	var actionStr, sinceStr *string
	if f.Action != nil {
		a := string(*f.Action)
		actionStr = &a
	}
	if f.Since != nil {
		ts := f.Since.UTC().Format(tsLayout)
		sinceStr = &ts
	}

	rows, err := s.db.QueryContext(ctx, auditLogQuery,
		actionStr, actionStr,
		sinceStr, sinceStr,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}

	if entries == nil {
		entries = []AuditEntry{}
	}
	return entries, nil
}
