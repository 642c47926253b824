// ABOUTME: REST stub endpoints for simulated calls, SMS, CRM writes, calendar and audit log
// ABOUTME: Thin HTTP wrappers around the simulator, shaped like the tools that share it

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/2389/mcp-sse-adapter/internal/rpc"
	"github.com/2389/mcp-sse-adapter/internal/simulate"
	"github.com/2389/mcp-sse-adapter/internal/store"
)

var errInvalidJSON = errors.New("invalid JSON body")

// readBody decodes an optional JSON request body. An empty body yields nil.
func readBody(r *http.Request) (any, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, rpc.MaxRequestBodySize))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errInvalidJSON
	}
	return v, nil
}

func (g *Gateway) handleSimulated(w http.ResponseWriter, r *http.Request, action func(context.Context, any) simulate.Receipt) {
	received, err := readBody(r)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	g.sendJSON(w, http.StatusOK, action(r.Context(), received))
}

func (g *Gateway) handleStubCall(w http.ResponseWriter, r *http.Request) {
	g.handleSimulated(w, r, g.simulator.PlaceCall)
}

func (g *Gateway) handleStubSMS(w http.ResponseWriter, r *http.Request) {
	g.handleSimulated(w, r, g.simulator.SendSMS)
}

func (g *Gateway) handleStubCRM(w http.ResponseWriter, r *http.Request) {
	g.handleSimulated(w, r, g.simulator.WriteCRM)
}

// handleStubAvailability returns up to three slots; ?days defaults to 2.
func (g *Gateway) handleStubAvailability(w http.ResponseWriter, r *http.Request) {
	days := simulate.DefaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			days = n
		}
	}
	slots := g.simulator.Availability(r.Context(), days)
	g.sendJSON(w, http.StatusOK, map[string]any{"available": slots})
}

func (g *Gateway) handleStubAuditAppend(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload, _ := body.(map[string]any)

	entry, err := g.simulator.RecordAudit(r.Context(), payload)
	if err != nil {
		g.logger.Error("failed writing audit event", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "failed_writing_audit")
		return
	}
	g.sendJSON(w, http.StatusOK, map[string]any{"status": "ok", "saved": entry})
}

// parseAuditFilter maps ?limit, ?action and ?since (RFC 3339) onto an audit filter.
// A non-numeric limit is ignored.
func parseAuditFilter(r *http.Request) (store.AuditFilter, error) {
	q := r.URL.Query()

	var f store.AuditFilter
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			f.Limit = n
		}
	}
	if raw := q.Get("action"); raw != "" {
		action := store.AuditAction(raw)
		f.Action = &action
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return store.AuditFilter{}, fmt.Errorf("invalid since %q: want RFC 3339", raw)
		}
		f.Since = &since
	}
	return f, nil
}

// handleStubAuditList returns recent audit entries, oldest first.
func (g *Gateway) handleStubAuditList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAuditFilter(r)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := g.simulator.AuditLog(r.Context(), filter)
	if err != nil {
		g.logger.Error("failed reading audit log", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "failed_reading_audit")
		return
	}
	g.sendJSON(w, http.StatusOK, entries)
}
