// ABOUTME: Tools exposing the simulated actions: call, sms, crm_write, calendar and audit
// ABOUTME: Each returns the simulator's JSON response as a single text item

package tools

import (
	"context"
	"encoding/json"

	"github.com/2389/mcp-sse-adapter/internal/simulate"
	"github.com/2389/mcp-sse-adapter/internal/store"
)

// CallArgs are the documented arguments of the call tool. Every argument
// received is echoed in the receipt.
type CallArgs struct {
	To      Text `json:"to,omitempty" jsonschema_description:"Number to call"`
	From    Text `json:"from,omitempty" jsonschema_description:"Caller id"`
	Message Text `json:"message,omitempty" jsonschema_description:"Script to read"`
}

type SMSArgs struct {
	To   Text `json:"to,omitempty" jsonschema_description:"Recipient number"`
	Body Text `json:"body,omitempty" jsonschema_description:"Message text"`
}

type CRMArgs struct {
	Entity Text           `json:"entity,omitempty" jsonschema_description:"Record type, e.g. contact"`
	ID     Text           `json:"id,omitempty" jsonschema_description:"Existing record id"`
	Fields map[string]any `json:"fields,omitempty" jsonschema_description:"Fields to write"`
}

type CalendarArgs struct {
	Days Int `json:"days,omitempty" jsonschema:"minimum=1,maximum=7" jsonschema_description:"Days ahead to search, default 2"`
}

type AuditAppendArgs struct {
	Action Text `json:"action,omitempty" jsonschema_description:"Action name, default manual"`
	Note   Text `json:"note,omitempty"`
}

type AuditListArgs struct {
	Limit  Int  `json:"limit,omitempty" jsonschema:"minimum=1,maximum=1000" jsonschema_description:"Most recent entries to return, default 100"`
	Action Text `json:"action,omitempty" jsonschema_description:"Only entries with this action"`
}

// SimulationTools returns tools backed by sim.
func SimulationTools(sim *simulate.Simulator) []Tool {
	return []Tool{
		NewTool("call", "Simulate placing a phone call", func(ctx context.Context, req *Request[CallArgs]) (*Result, error) {
			return JSONResult(sim.PlaceCall(ctx, receivedArgs(req.Raw)))
		}),
		NewTool("sms", "Simulate sending an SMS", func(ctx context.Context, req *Request[SMSArgs]) (*Result, error) {
			return JSONResult(sim.SendSMS(ctx, receivedArgs(req.Raw)))
		}),
		NewTool("crm_write", "Simulate writing a CRM record", func(ctx context.Context, req *Request[CRMArgs]) (*Result, error) {
			return JSONResult(sim.WriteCRM(ctx, receivedArgs(req.Raw)))
		}),
		NewTool("calendar_availability", "List up to three available calendar slots", func(ctx context.Context, req *Request[CalendarArgs]) (*Result, error) {
			slots := sim.Availability(ctx, req.Args.Days.Or(simulate.DefaultDays))
			return JSONResult(map[string]any{"available": slots})
		}),
		NewTool("audit_append", "Append an event to the audit log", func(ctx context.Context, req *Request[AuditAppendArgs]) (*Result, error) {
			payload, _ := receivedArgs(req.Raw).(map[string]any)
			entry, err := sim.RecordAudit(ctx, payload)
			if err != nil {
				return nil, err
			}
			return JSONResult(map[string]any{"status": "ok", "saved": entry})
		}),
		NewTool("audit_list", "List recent audit log entries, oldest first", func(ctx context.Context, req *Request[AuditListArgs]) (*Result, error) {
			filter := store.AuditFilter{Limit: req.Args.Limit.Or(0)}
			if action := req.Args.Action.Trimmed(); action != "" {
				a := store.AuditAction(action)
				filter.Action = &a
			}
			entries, err := sim.AuditLog(ctx, filter)
			if err != nil {
				return nil, err
			}
			return JSONResult(entries)
		}),
	}
}

// receivedArgs decodes the raw argument object for echoing. Empty or
// non-object arguments yield nil.
func receivedArgs(raw json.RawMessage) any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || len(m) == 0 {
		return nil
	}
	return m
}
