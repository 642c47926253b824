// ABOUTME: Prometheus collectors for stream sessions, RPC calls, tool calls and broadcasts
// ABOUTME: All recording methods are nil-safe so components can run without metrics

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcp_sse_adapter"

// Metrics holds the adapter's collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	activeSessions   prometheus.Gauge
	sessionsTotal    prometheus.Counter
	rpcRequests      *prometheus.CounterVec
	rpcDuration      *prometheus.HistogramVec
	toolCalls        *prometheus.CounterVec
	broadcasts       *prometheus.CounterVec
	deliveries       prometheus.Counter
	deliveryFailures prometheus.Counter
	simulatedActions *prometheus.CounterVec
}

// New creates and registers all collectors. Go runtime and process
// collectors are included.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sse",
			Name:      "active_sessions",
			Help:      "Number of currently open event stream sessions.",
		}),
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sse",
			Name:      "sessions_total",
			Help:      "Total number of event stream sessions opened.",
		}),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "JSON-RPC requests by method and outcome.",
		}, []string{"method", "outcome"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "JSON-RPC request handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tools",
			Name:      "calls_total",
			Help:      "Tool invocations by tool and status.",
		}, []string{"tool", "status"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sse",
			Name:      "broadcasts_total",
			Help:      "Broadcasts issued by event name.",
		}, []string{"event"}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sse",
			Name:      "deliveries_total",
			Help:      "Broadcast events successfully written to a session.",
		}),
		deliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sse",
			Name:      "delivery_failures_total",
			Help:      "Broadcast writes that failed and closed their session.",
		}),
		simulatedActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulate",
			Name:      "actions_total",
			Help:      "Simulated actions by kind.",
		}, []string{"action"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.activeSessions,
		m.sessionsTotal,
		m.rpcRequests,
		m.rpcDuration,
		m.toolCalls,
		m.broadcasts,
		m.deliveries,
		m.deliveryFailures,
		m.simulatedActions,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SessionOpened records a newly registered stream session.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
	m.sessionsTotal.Inc()
}

// SessionClosed records a session leaving the registry.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// RPCRequest records one dispatched request. outcome is "ok" or the
// JSON-RPC error code as text.
func (m *Metrics) RPCRequest(method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "(none)"
	}
	m.rpcRequests.WithLabelValues(method, outcome).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ToolCall records a tool invocation. status is "ok" or "error".
func (m *Metrics) ToolCall(tool, status string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
}

// Broadcast records one broadcast and its per-session results.
func (m *Metrics) Broadcast(event string, delivered, failed int) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(event).Inc()
	m.deliveries.Add(float64(delivered))
	m.deliveryFailures.Add(float64(failed))
}

// SimulatedAction records a stub executor run.
func (m *Metrics) SimulatedAction(action string) {
	if m == nil {
		return
	}
	m.simulatedActions.WithLabelValues(action).Inc()
}
