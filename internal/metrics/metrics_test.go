package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.SessionOpened()
		m.SessionClosed()
		m.RPCRequest("initialize", "ok", time.Millisecond)
		m.ToolCall("ping", "ok")
		m.Broadcast("note", 1, 0)
		m.SimulatedAction("call")
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionGauge(t *testing.T) {
	m := New()

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsTotal))
}

func TestCounters(t *testing.T) {
	m := New()

	m.RPCRequest("tools/call", "ok", 2*time.Millisecond)
	m.RPCRequest("tools/call", "-32601", time.Millisecond)
	m.RPCRequest("", "-32600", time.Millisecond)
	m.ToolCall("ping", "ok")
	m.Broadcast("note", 3, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("tools/call", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("tools/call", "-32601")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("(none)", "-32600")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("ping", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.deliveries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveryFailures))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.SessionOpened()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "mcp_sse_adapter_sse_active_sessions 1"))
}
