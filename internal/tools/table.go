// ABOUTME: Capability table mapping tool names to descriptors and handlers
// ABOUTME: Shared by tools/list and tools/call so the two never disagree

package tools

import (
	"errors"
	"fmt"
)

// ErrToolCollision indicates a tool name is already in the table.
var ErrToolCollision = errors.New("tool name collision")

// Table is an immutable set of tools in registration order.
type Table struct {
	byName map[string]Tool
	order  []string
}

// NewTable builds a table from tools. Names must be non-empty and unique.
func NewTable(tools ...Tool) (*Table, error) {
	t := &Table{byName: make(map[string]Tool, len(tools))}
	for _, tool := range tools {
		name := tool.Descriptor.Name
		if name == "" {
			return nil, errors.New("tool name is required")
		}
		if tool.Handler == nil {
			return nil, fmt.Errorf("tool '%s' has no handler", name)
		}
		if _, exists := t.byName[name]; exists {
			return nil, fmt.Errorf("%w: tool '%s' already registered", ErrToolCollision, name)
		}
		t.byName[name] = tool
		t.order = append(t.order, name)
	}
	return t, nil
}

// Descriptors returns every tool's descriptor in registration order.
func (t *Table) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byName[name].Descriptor)
	}
	return out
}

// Lookup returns the named tool.
func (t *Table) Lookup(name string) (Tool, bool) {
	tool, ok := t.byName[name]
	return tool, ok
}

// Names returns the tool names in registration order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Table) Len() int { return len(t.order) }
