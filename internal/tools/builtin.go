// ABOUTME: Built-in tools available on every adapter: ping and search
// ABOUTME: ping broadcasts a note to open streams; search echoes the query and matches the catalog

package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// NoteEvent is the stream event ping broadcasts.
const NoteEvent = "note"

// Search limits.
const (
	DefaultSearchLimit = 5
	MinSearchLimit     = 1
	MaxSearchLimit     = 10
)

// PingArgs takes no arguments.
type PingArgs struct{}

// SearchArgs are the arguments of the search tool.
type SearchArgs struct {
	Query Text `json:"query,omitempty" jsonschema_description:"Text to search for"`
	Limit Int  `json:"limit,omitempty" jsonschema:"minimum=1,maximum=10" jsonschema_description:"Maximum number of results, default 5"`
}

// Builtins returns the tools every adapter exposes.
func Builtins() []Tool {
	return []Tool{
		NewTool("ping", "Broadcast a note to every open stream and return pong", ping),
		NewTool("search", "Echo the query and list tools whose name or description match it", search),
	}
}

func ping(ctx context.Context, req *Request[PingArgs]) (*Result, error) {
	if req.Env.Broadcaster != nil {
		req.Env.Broadcaster.Broadcast(ctx, NoteEvent, map[string]any{
			"tool": "ping",
			"ts":   time.Now().UnixMilli(),
		})
	}
	return TextResult("pong"), nil
}

func search(_ context.Context, req *Request[SearchArgs]) (*Result, error) {
	query := req.Args.Query.Trimmed()
	limit := Clamp(req.Args.Limit.Or(DefaultSearchLimit), MinSearchLimit, MaxSearchLimit)

	items := []string{"search echo: " + query}
	if query != "" {
		needle := strings.ToLower(query)
		for _, d := range req.Env.Catalog {
			if len(items) >= limit {
				break
			}
			if strings.Contains(strings.ToLower(d.Name), needle) ||
				strings.Contains(strings.ToLower(d.Description), needle) {
				items = append(items, fmt.Sprintf("tool: %s - %s", d.Name, d.Description))
			}
		}
	}
	return TextResult(items...), nil
}
