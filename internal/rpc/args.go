// ABOUTME: Canonical extraction of the tool name and argument object from tools/call params
// ABOUTME: Accepts nested arguments, nested args, or flat params

package rpc

import (
	"encoding/json"
)

// toolCall is the canonical form of tools/call params.
type toolCall struct {
	Name      string
	Arguments json.RawMessage
}

// extractToolCall normalises the accepted params shapes. The argument
// source is params.arguments when it is an object, else params.args when it
// is an object, else params itself. The name is the first non-empty of
// params.name and the source's name. A name key that selected the tool is
// not passed on as an argument.
func extractToolCall(params json.RawMessage) toolCall {
	var p map[string]json.RawMessage
	if err := json.Unmarshal(params, &p); err != nil || p == nil {
		p = map[string]json.RawMessage{}
	}

	source := p
	flat := true
	for _, key := range []string{"arguments", "args"} {
		if v, ok := p[key]; ok && isObject(v) {
			var nested map[string]json.RawMessage
			if err := json.Unmarshal(v, &nested); err == nil && nested != nil {
				source = nested
				flat = false
				break
			}
		}
	}

	name := stringField(p, "name")
	if name == "" && !flat {
		if name = stringField(source, "name"); name != "" {
			delete(source, "name")
		}
	}
	if flat {
		delete(source, "name")
	}

	args, err := json.Marshal(source)
	if err != nil {
		args = emptyObject
	}
	return toolCall{Name: name, Arguments: args}
}

func stringField(m map[string]json.RawMessage, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}
