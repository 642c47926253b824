// ABOUTME: Simulated outbound actions (call, SMS, CRM write, calendar lookup) for integration testing
// ABOUTME: Every action returns a receipt and is recorded in the audit log when one is configured

package simulate

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/2389/mcp-sse-adapter/internal/metrics"
	"github.com/2389/mcp-sse-adapter/internal/store"
)

// Calendar bounds.
const (
	DefaultDays = 2
	MinDays     = 1
	MaxDays     = 7
	MaxSlots    = 3
)

// slotTimes are the fixed business-hour start times offered on each day.
var slotTimes = []string{"10:00", "13:00", "15:30"}

// Receipt is the response to a simulated action: the generated id under the
// action's key, plus the payload that was received.
type Receipt map[string]any

// Slot is one available calendar slot.
type Slot struct {
	Slot    string `json:"slot"`
	Display string `json:"display"`
}

type action struct {
	audit  store.AuditAction
	prefix string
	idKey  string
}

var (
	callAction = action{audit: store.AuditCall, prefix: "call", idKey: "call_simulation_id"}
	smsAction  = action{audit: store.AuditSMS, prefix: "sms", idKey: "sms_simulation_id"}
	crmAction  = action{audit: store.AuditCRMWrite, prefix: "crm", idKey: "crm_id"}
)

// Config configures a Simulator. All fields are optional; without Audit the
// actions still succeed but nothing is persisted.
type Config struct {
	Audit   store.AuditLog
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// Simulator executes simulated actions.
type Simulator struct {
	audit   store.AuditLog
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Simulator.
func New(cfg Config) *Simulator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		audit:   cfg.Audit,
		metrics: cfg.Metrics,
		logger:  logger.With("component", "simulate"),
		now:     now,
	}
}

// PlaceCall simulates placing a phone call.
func (s *Simulator) PlaceCall(ctx context.Context, received any) Receipt {
	return s.perform(ctx, callAction, received)
}

// SendSMS simulates sending a text message.
func (s *Simulator) SendSMS(ctx context.Context, received any) Receipt {
	return s.perform(ctx, smsAction, received)
}

// WriteCRM simulates writing a CRM record.
func (s *Simulator) WriteCRM(ctx context.Context, received any) Receipt {
	return s.perform(ctx, crmAction, received)
}

func (s *Simulator) perform(ctx context.Context, a action, received any) Receipt {
	id := a.prefix + "_" + ulid.Make().String()
	receipt := Receipt{
		a.idKey:    id,
		"received": received,
	}

	s.record(ctx, &store.AuditEntry{
		Action:    a.audit,
		Reference: id,
		Payload:   receipt,
	})
	s.metrics.SimulatedAction(string(a.audit))
	s.logger.Info("simulated action", "action", a.audit, "id", id)
	return receipt
}

// Availability returns up to MaxSlots deterministic slots starting today
// (UTC). days is clamped to [MinDays, MaxDays].
func (s *Simulator) Availability(ctx context.Context, days int) []Slot {
	days = ClampDays(days)
	now := s.now().UTC()

	var slots []Slot
	for d := 0; d < days; d++ {
		date := now.AddDate(0, 0, d).Format(time.DateOnly)
		for _, at := range slotTimes {
			slots = append(slots, Slot{
				Slot:    date + "T" + at + ":00",
				Display: date + " " + at,
			})
		}
		if len(slots) >= MaxSlots {
			break
		}
	}
	slots = slots[:min(len(slots), MaxSlots)]

	s.record(ctx, &store.AuditEntry{
		Action: store.AuditCalendarAvailability,
		Payload: map[string]any{
			"query":        map[string]any{"days": days},
			"result_count": len(slots),
		},
	})
	s.metrics.SimulatedAction(string(store.AuditCalendarAvailability))
	return slots
}

// ClampDays bounds a requested day count to [MinDays, MaxDays].
func ClampDays(days int) int {
	return max(MinDays, min(MaxDays, days))
}

// RecordAudit appends a manual audit event. An empty payload is recorded as
// a manual_audit_post note. A string "action" field in the payload is used
// as the entry's action.
func (s *Simulator) RecordAudit(ctx context.Context, payload map[string]any) (store.AuditEntry, error) {
	if len(payload) == 0 {
		payload = map[string]any{"note": "manual_audit_post"}
	}
	entry := store.AuditEntry{
		Action:  store.AuditManual,
		Payload: payload,
	}
	if a, ok := payload["action"].(string); ok && a != "" {
		entry.Action = store.AuditAction(a)
	}

	if s.audit == nil {
		entry.ID = uuid.New().String()
		entry.Timestamp = s.now().UTC()
		return entry, nil
	}
	if err := s.audit.AppendAuditLog(ctx, &entry); err != nil {
		return store.AuditEntry{}, fmt.Errorf("recording audit event: %w", err)
	}
	return entry, nil
}

// AuditLog returns the most recent entries matching f, oldest first.
func (s *Simulator) AuditLog(ctx context.Context, f store.AuditFilter) ([]store.AuditEntry, error) {
	if s.audit == nil {
		return []store.AuditEntry{}, nil
	}
	entries, err := s.audit.ListAuditLog(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	slices.Reverse(entries)
	return entries, nil
}

// record persists an entry; failures are logged and never fail the action.
func (s *Simulator) record(ctx context.Context, e *store.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.AppendAuditLog(ctx, e); err != nil {
		s.logger.Warn("failed to write audit entry", "action", e.Action, "error", err)
	}
}
