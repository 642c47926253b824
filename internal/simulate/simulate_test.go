// ABOUTME: Tests for simulated actions and their audit trail
// ABOUTME: Uses the in-memory mock store and a fixed clock

package simulate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/mcp-sse-adapter/internal/store"
)

var fixedNow = time.Date(2025, 3, 14, 22, 30, 0, 0, time.UTC)

func newTestSimulator(t *testing.T) (*Simulator, *store.MockStore) {
	t.Helper()
	ms := store.NewMockStore()
	return New(Config{Audit: ms, Now: func() time.Time { return fixedNow }}), ms
}

func assertSimID(t *testing.T, id any, prefix string) {
	t.Helper()
	s, ok := id.(string)
	require.True(t, ok, "id should be a string, got %T", id)
	require.True(t, strings.HasPrefix(s, prefix+"_"), "id %q should start with %s_", s, prefix)
	_, err := ulid.Parse(strings.TrimPrefix(s, prefix+"_"))
	assert.NoError(t, err)
}

func TestSimulatedActions(t *testing.T) {
	tests := []struct {
		name   string
		run    func(*Simulator, context.Context, any) Receipt
		idKey  string
		prefix string
		action store.AuditAction
	}{
		{"call", (*Simulator).PlaceCall, "call_simulation_id", "call", store.AuditCall},
		{"sms", (*Simulator).SendSMS, "sms_simulation_id", "sms", store.AuditSMS},
		{"crm", (*Simulator).WriteCRM, "crm_id", "crm", store.AuditCRMWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, ms := newTestSimulator(t)
			received := map[string]any{"to": "+15550100"}

			receipt := tt.run(sim, context.Background(), received)
			assertSimID(t, receipt[tt.idKey], tt.prefix)
			assert.Equal(t, received, receipt["received"])

			entries := ms.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.action, entries[0].Action)
			assert.Equal(t, receipt[tt.idKey], entries[0].Reference)
			assert.Equal(t, receipt[tt.idKey], entries[0].Payload[tt.idKey])
		})
	}
}

func TestSimulatedAction_UniqueIDs(t *testing.T) {
	sim, _ := newTestSimulator(t)
	a := sim.PlaceCall(context.Background(), nil)
	b := sim.PlaceCall(context.Background(), nil)
	assert.NotEqual(t, a["call_simulation_id"], b["call_simulation_id"])
	assert.Nil(t, a["received"])
}

func TestSimulatedAction_AuditFailureDoesNotFail(t *testing.T) {
	sim, ms := newTestSimulator(t)
	ms.AppendErr = errors.New("disk full")

	receipt := sim.SendSMS(context.Background(), "hi")
	assertSimID(t, receipt["sms_simulation_id"], "sms")
	assert.Empty(t, ms.Entries())
}

func TestSimulatedAction_NoAuditStore(t *testing.T) {
	sim := New(Config{})
	receipt := sim.WriteCRM(context.Background(), map[string]any{"name": "Ada"})
	assertSimID(t, receipt["crm_id"], "crm")

	entries, err := sim.AuditLog(context.Background(), store.AuditFilter{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAvailability(t *testing.T) {
	sim, ms := newTestSimulator(t)

	slots := sim.Availability(context.Background(), 2)
	require.Len(t, slots, 3)
	assert.Equal(t, []Slot{
		{Slot: "2025-03-14T10:00:00", Display: "2025-03-14 10:00"},
		{Slot: "2025-03-14T13:00:00", Display: "2025-03-14 13:00"},
		{Slot: "2025-03-14T15:30:00", Display: "2025-03-14 15:30"},
	}, slots)

	entries := ms.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, store.AuditCalendarAvailability, entries[0].Action)
	assert.Equal(t, 3, entries[0].Payload["result_count"])
}

func TestAvailability_UsesUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 08:00 local on the 15th is still the 14th in UTC.
	local := time.Date(2025, 3, 15, 8, 0, 0, 0, loc)
	sim := New(Config{Now: func() time.Time { return local }})

	slots := sim.Availability(context.Background(), 1)
	require.NotEmpty(t, slots)
	assert.Equal(t, "2025-03-14T10:00:00", slots[0].Slot)
}

func TestClampDays(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{2, 2},
		{7, 7},
		{30, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampDays(tt.in), "ClampDays(%d)", tt.in)
	}
}

func TestRecordAudit(t *testing.T) {
	t.Run("empty payload becomes a manual note", func(t *testing.T) {
		sim, ms := newTestSimulator(t)
		entry, err := sim.RecordAudit(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, store.AuditManual, entry.Action)
		assert.Equal(t, "manual_audit_post", entry.Payload["note"])
		assert.NotEmpty(t, entry.ID)
		assert.Len(t, ms.Entries(), 1)
	})

	t.Run("action field names the entry", func(t *testing.T) {
		sim, _ := newTestSimulator(t)
		entry, err := sim.RecordAudit(context.Background(), map[string]any{"action": "handoff", "who": "agent"})
		require.NoError(t, err)
		assert.Equal(t, store.AuditAction("handoff"), entry.Action)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		sim, ms := newTestSimulator(t)
		ms.AppendErr = errors.New("disk full")
		_, err := sim.RecordAudit(context.Background(), map[string]any{"x": 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("without a store the entry is still stamped", func(t *testing.T) {
		sim := New(Config{Now: func() time.Time { return fixedNow }})
		entry, err := sim.RecordAudit(context.Background(), map[string]any{"x": 1})
		require.NoError(t, err)
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, fixedNow, entry.Timestamp)
	})
}

func TestAuditLog_OldestFirst(t *testing.T) {
	sim, _ := newTestSimulator(t)
	ctx := context.Background()

	first := sim.PlaceCall(ctx, nil)
	second := sim.SendSMS(ctx, nil)
	third := sim.WriteCRM(ctx, nil)

	entries, err := sim.AuditLog(ctx, store.AuditFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, first["call_simulation_id"], entries[0].Reference)
	assert.Equal(t, second["sms_simulation_id"], entries[1].Reference)
	assert.Equal(t, third["crm_id"], entries[2].Reference)

	recent, err := sim.AuditLog(ctx, store.AuditFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second["sms_simulation_id"], recent[0].Reference, "limit keeps the most recent entries")
}
