// Package gateway orchestrates the mcp-sse-adapter server components.
//
// # Overview
//
// The gateway owns the audit store, the session registry, the capability
// table, the RPC dispatcher and the simulator, and serves them all from one
// HTTP server.
//
// # HTTP API
//
//   - GET /healthz - Liveness, service name and uptime in seconds
//   - GET /sse - Event stream (open, ping, note)
//   - POST /rpc - JSON-RPC 2.0 (initialize, tools/list, tools/call)
//   - POST /sse - Same as POST /rpc
//   - POST /_stub/call, /_stub/sms, /_stub/crm - Simulated actions
//   - GET /_stub/calendar/availability - Simulated calendar slots
//   - GET, POST /_stub/audit - Audit log
//   - GET / - Status page
//   - GET /metrics - Prometheus metrics, when enabled
//
// # Event Stream
//
// Each stream starts with an open event and then pings on an interval:
//
//	event: open
//	data: {"id":"5f0c...","ts":1700000000000}
//
//	event: ping
//	data: {"i":0,"ts":1700000015000}
//
// Calling the ping tool broadcasts a note event to every open stream.
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, logger)
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	err = gw.Run(ctx)
//
// Run returns after the context is canceled and the server has shut down.
// Shutdown closes every open stream so handlers return promptly.
//
// # Key Files
//
//   - gateway.go: Gateway struct, initialization, Run/Shutdown
//   - routes.go: route table and health endpoint
//   - stub.go: simulated action endpoints
//   - status.go: Markdown status page
//   - tailscale.go: tsnet listener
package gateway
