// ABOUTME: Root status page rendered from a Markdown template with goldmark
// ABOUTME: Lists endpoints, tools and the currently open streams

package gateway

import (
	"bytes"
	"cmp"
	_ "embed"
	"fmt"
	"html"
	"net/http"
	"slices"
	"text/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389/mcp-sse-adapter/internal/sse"
	"github.com/2389/mcp-sse-adapter/internal/tools"
)

//go:embed status.md.tmpl
var statusTemplateText string

var (
	statusTemplate = template.Must(template.New("status").Parse(statusTemplateText))
	markdown       = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

type statusData struct {
	Name         string
	Version      string
	Uptime       time.Duration
	Sessions     int
	PingInterval time.Duration
	MetricsPath  string
	Tools        []tools.Descriptor
	Streams      []streamRow
}

type streamRow struct {
	ID     string
	Opened string
}

const statusPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>body{font-family:system-ui,sans-serif;max-width:52rem;margin:2rem auto;padding:0 1rem}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.3rem .6rem;text-align:left}</style>
</head>
<body>
%s</body>
</html>
`

// renderStatus produces the status page body as Markdown.
func (g *Gateway) renderStatus() ([]byte, error) {
	data := statusData{
		Name:         g.config.Server.Name,
		Version:      g.config.Server.Version,
		Uptime:       time.Since(g.startedAt).Round(time.Second),
		Sessions:     g.registry.Len(),
		PingInterval: g.config.Server.PingInterval,
		Tools:        g.tools.Descriptors(),
	}
	if g.metrics != nil {
		data.MetricsPath = g.config.Metrics.Path
	}

	sessions := g.registry.Sessions()
	slices.SortFunc(sessions, func(a, b sse.SessionInfo) int { return cmp.Compare(a.OpenedAt, b.OpenedAt) })
	for _, s := range sessions {
		data.Streams = append(data.Streams, streamRow{
			ID:     s.ID,
			Opened: time.UnixMilli(s.OpenedAt).UTC().Format(time.DateTime),
		})
	}

	var md bytes.Buffer
	if err := statusTemplate.Execute(&md, data); err != nil {
		return nil, fmt.Errorf("rendering status template: %w", err)
	}
	return md.Bytes(), nil
}

func (g *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	md, err := g.renderStatus()
	if err != nil {
		g.logger.Error("failed to render status page", "error", err)
		http.Error(w, "failed to render status page", http.StatusInternalServerError)
		return
	}

	var body bytes.Buffer
	if err := markdown.Convert(md, &body); err != nil {
		g.logger.Error("failed to convert markdown", "error", err)
		body.Reset()
		body.WriteString("<p>Failed to render status.</p>")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w, statusPage, html.EscapeString(g.config.Server.Name), body.String())
}
