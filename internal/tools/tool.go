// ABOUTME: Tool definitions: descriptors, invocation results and typed handlers
// ABOUTME: Input schemas are reflected from each tool's argument struct

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Content is one item of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the outcome of a tool invocation.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// TextResult builds a successful result with one text item per argument.
func TextResult(texts ...string) *Result {
	content := make([]Content, 0, len(texts))
	for _, t := range texts {
		content = append(content, Content{Type: "text", Text: t})
	}
	return &Result{Content: content}
}

// ErrorResult builds a failed result carrying msg.
func ErrorResult(msg string) *Result {
	return &Result{
		Content: []Content{{Type: "text", Text: msg}},
		IsError: true,
	}
}

// JSONResult builds a successful result holding the JSON encoding of v.
func JSONResult(v any) (*Result, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return TextResult(string(data)), nil
}

// Descriptor is the advertised shape of a tool.
type Descriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// Broadcaster pushes an event to every open stream.
type Broadcaster interface {
	Broadcast(ctx context.Context, event string, payload any) int
}

// Env is what a handler may reach besides its arguments.
type Env struct {
	Broadcaster Broadcaster
	Catalog     []Descriptor
}

// Handler executes a tool. args is the canonical argument object.
// A returned error is reported to the caller as an isError result.
type Handler func(ctx context.Context, env Env, args json.RawMessage) (*Result, error)

// Tool binds a descriptor to its handler.
type Tool struct {
	Descriptor Descriptor
	Handler    Handler
}

// Request carries decoded arguments to a typed handler.
type Request[A any] struct {
	Env  Env
	Args A
	// Raw is the argument object as received.
	Raw json.RawMessage
}

// NewTool creates a tool whose arguments decode into A. The input schema is
// reflected from A.
func NewTool[A any](name, description string, fn func(ctx context.Context, req *Request[A]) (*Result, error)) Tool {
	return Tool{
		Descriptor: Descriptor{
			Name:        name,
			Description: description,
			InputSchema: schemaFor[A](),
		},
		Handler: func(ctx context.Context, env Env, raw json.RawMessage) (*Result, error) {
			req := &Request[A]{Env: env, Raw: raw}
			if len(raw) > 0 && string(raw) != "null" {
				if err := json.Unmarshal(raw, &req.Args); err != nil {
					return nil, fmt.Errorf("invalid arguments for %s: %w", name, err)
				}
			}
			return fn(ctx, req)
		},
	}
}

// schemaFor reflects A into an inline object schema that tolerates
// properties it does not declare.
func schemaFor[A any]() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(new(A))
	if s == nil || s.Type != "object" {
		return &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
	}
	s.Version = ""
	s.ID = ""
	if s.Properties == nil {
		s.Properties = jsonschema.NewProperties()
	}
	return s
}
