// ABOUTME: Tests for the capability table, argument coercion and schema reflection
// ABOUTME: Also provides shared helpers for the tool handler tests

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type broadcastCall struct {
	event   string
	payload any
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, event string, payload any) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, broadcastCall{event: event, payload: payload})
	return 1
}

func findTool(t *testing.T, list []Tool, name string) Tool {
	t.Helper()
	for _, tool := range list {
		if tool.Descriptor.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %q not found", name)
	return Tool{}
}

func call(t *testing.T, tool Tool, env Env, args string) *Result {
	t.Helper()
	var raw json.RawMessage
	if args != "" {
		raw = json.RawMessage(args)
	}
	res, err := tool.Handler(context.Background(), env, raw)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func noop(name string) Tool {
	return NewTool(name, name+" tool", func(context.Context, *Request[PingArgs]) (*Result, error) {
		return TextResult(name), nil
	})
}

func TestNewTable(t *testing.T) {
	table, err := NewTable(noop("b"), noop("a"), noop("c"))
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"b", "a", "c"}, table.Names(), "registration order is kept")

	descs := table.Descriptors()
	require.Len(t, descs, 3)
	assert.Equal(t, "b", descs[0].Name)
	assert.Equal(t, "b tool", descs[0].Description)

	tool, ok := table.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "a", tool.Descriptor.Name)

	_, ok = table.Lookup("missing")
	assert.False(t, ok)
}

func TestNewTable_Errors(t *testing.T) {
	t.Run("collision", func(t *testing.T) {
		_, err := NewTable(noop("ping"), noop("ping"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrToolCollision))
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := NewTable(noop(""))
		require.Error(t, err)
	})

	t.Run("missing handler", func(t *testing.T) {
		_, err := NewTable(Tool{Descriptor: Descriptor{Name: "x"}})
		require.Error(t, err)
	})
}

func TestNewTable_DefaultToolsAreUnique(t *testing.T) {
	all := append(Builtins(), SimulationTools(newSimulator(t))...)
	table, err := NewTable(all...)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ping", "search",
		"call", "sms", "crm_write", "calendar_availability", "audit_append", "audit_list",
	}, table.Names())
}

func TestText_Unmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Text
	}{
		{`"hello"`, "hello"},
		{`"  padded  "`, "  padded  "},
		{`42`, "42"},
		{`3.5`, "3.5"},
		{`true`, "true"},
		{`null`, ""},
		{`{"a": 1}`, `{"a":1}`},
		{`[1, 2]`, `[1,2]`},
	}
	for _, tt := range tests {
		var got Text
		require.NoError(t, json.Unmarshal([]byte(tt.in), &got), tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	assert.Equal(t, "padded", Text("  padded \n").Trimmed())
}

func TestInt_Unmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantSet bool
	}{
		{`3`, 3, true},
		{`3.9`, 3, true},
		{`-2`, -2, true},
		{`"7"`, 7, true},
		{`" 8 "`, 8, true},
		{`"many"`, 0, false},
		{`true`, 0, false},
		{`null`, 0, false},
		{`{}`, 0, false},
	}
	for _, tt := range tests {
		var got Int
		require.NoError(t, json.Unmarshal([]byte(tt.in), &got), tt.in)
		assert.Equal(t, tt.wantSet, got.Set, tt.in)
		assert.Equal(t, tt.want, got.Value, tt.in)
	}

	assert.Equal(t, 5, Int{}.Or(5))
	assert.Equal(t, 2, Int{Value: 2, Set: true}.Or(5))
}

func TestInt_UnmarshalInStruct(t *testing.T) {
	var args SearchArgs
	require.NoError(t, json.Unmarshal([]byte(`{"limit":"x"}`), &args))
	assert.False(t, args.Limit.Set)

	require.NoError(t, json.Unmarshal([]byte(`{"query":99,"limit":2}`), &args))
	assert.Equal(t, Text("99"), args.Query)
	assert.Equal(t, 2, args.Limit.Value)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(-4, 1, 10))
	assert.Equal(t, 10, Clamp(400, 1, 10))
	assert.Equal(t, 6, Clamp(6, 1, 10))
}

func schemaMap(t *testing.T, d Descriptor) map[string]any {
	t.Helper()
	data, err := json.Marshal(d)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	schema, ok := m["inputSchema"].(map[string]any)
	require.True(t, ok, "inputSchema should be an object: %s", data)
	return schema
}

func TestSchema_Search(t *testing.T) {
	search := findTool(t, Builtins(), "search")
	schema := schemaMap(t, search.Descriptor)

	assert.Equal(t, "object", schema["type"])
	assert.NotContains(t, schema, "$schema")
	assert.NotContains(t, schema, "required", "all search arguments are optional")

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)

	query := props["query"].(map[string]any)
	assert.Equal(t, "string", query["type"])
	assert.Equal(t, "Text to search for", query["description"])

	limit := props["limit"].(map[string]any)
	assert.Equal(t, "integer", limit["type"])
	assert.Equal(t, float64(1), limit["minimum"])
	assert.Equal(t, float64(10), limit["maximum"])
}

func TestSchema_Ping(t *testing.T) {
	ping := findTool(t, Builtins(), "ping")
	schema := schemaMap(t, ping.Descriptor)
	assert.Equal(t, "object", schema["type"])
	assert.NotContains(t, schema, "additionalProperties")
}

func TestNewTool_InvalidArguments(t *testing.T) {
	search := findTool(t, Builtins(), "search")
	_, err := search.Handler(context.Background(), Env{}, json.RawMessage(`[1,2,3]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments for search")
}

func TestResults(t *testing.T) {
	r := TextResult("a", "b")
	assert.False(t, r.IsError)
	assert.Equal(t, []Content{{Type: "text", Text: "a"}, {Type: "text", Text: "b"}}, r.Content)

	e := ErrorResult("boom")
	assert.True(t, e.IsError)
	assert.Equal(t, "boom", e.Content[0].Text)

	j, err := JSONResult(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, j.Content[0].Text)

	_, err = JSONResult(make(chan int))
	assert.Error(t, err)
}
