// ABOUTME: HTTP route table for the gateway
// ABOUTME: Health, event stream, RPC (with its /sse alias), stub endpoints, status page and metrics

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/2389/mcp-sse-adapter/internal/rpc"
	"github.com/2389/mcp-sse-adapter/internal/sse"
)

func (g *Gateway) registerRoutes(mux *http.ServeMux) {
	stream := sse.NewHandler(sse.HandlerConfig{
		Registry:     g.registry,
		Logger:       g.logger,
		PingInterval: g.config.Server.PingInterval,
		WriteTimeout: g.config.Server.WriteTimeout,
	})
	rpcHandler := rpc.NewHandler(g.dispatcher, g.logger)

	mux.HandleFunc("GET /healthz", g.handleHealth)

	mux.Handle("GET /sse", stream)
	mux.Handle("POST /sse", rpcHandler)
	mux.Handle("POST /rpc", rpcHandler)

	mux.HandleFunc("POST /_stub/call", g.handleStubCall)
	mux.HandleFunc("POST /_stub/sms", g.handleStubSMS)
	mux.HandleFunc("POST /_stub/crm", g.handleStubCRM)
	mux.HandleFunc("GET /_stub/calendar/availability", g.handleStubAvailability)
	mux.HandleFunc("POST /_stub/audit", g.handleStubAuditAppend)
	mux.HandleFunc("GET /_stub/audit", g.handleStubAuditList)

	mux.HandleFunc("GET /{$}", g.handleStatus)

	if g.metrics != nil {
		mux.Handle("GET "+g.config.Metrics.Path, g.metrics.Handler())
		g.logger.Info("metrics enabled", "path", g.config.Metrics.Path)
	}
}

// healthPingTimeout bounds the audit store check in /healthz.
const healthPingTimeout = 2 * time.Second

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	OK       bool    `json:"ok"`
	Service  string  `json:"service"`
	Version  string  `json:"version"`
	Uptime   float64 `json:"uptime"`
	Sessions int     `json:"sessions"`
	Store    string  `json:"store"`
}

// handleHealth reports liveness with the process uptime in seconds. An
// unreachable audit store makes the response 503.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		OK:       true,
		Service:  g.config.Server.Name,
		Version:  g.config.Server.Version,
		Uptime:   time.Since(g.startedAt).Seconds(),
		Sessions: g.registry.Len(),
		Store:    "ok",
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	if err := g.store.Ping(ctx); err != nil {
		g.logger.Warn("audit store ping failed", "error", err)
		resp.OK = false
		resp.Store = "unavailable"
		status = http.StatusServiceUnavailable
	}

	g.sendJSON(w, status, resp)
}

// sendJSON writes v as a JSON response with the given status.
func (g *Gateway) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Warn("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.sendJSON(w, status, map[string]string{"error": message})
}
