// ABOUTME: RPC dispatcher routing initialize, tools/list and tools/call through a method table
// ABOUTME: Every request yields a well-formed response; tool failures become isError results

package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/mcp-sse-adapter/internal/metrics"
	"github.com/2389/mcp-sse-adapter/internal/tools"
)

// ProtocolVersion is the tool protocol version advertised by initialize.
const ProtocolVersion = "2024-11-05"

// ServerInfo identifies the adapter in initialize results.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the result of initialize.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

// Capabilities advertises tool support.
type Capabilities struct {
	Tools struct{} `json:"tools"`
}

// ListToolsResult is the result of tools/list.
type ListToolsResult struct {
	Tools []tools.Descriptor `json:"tools"`
}

// Config configures a Dispatcher.
type Config struct {
	Tools       *tools.Table
	Broadcaster tools.Broadcaster
	Logger      *slog.Logger
	Metrics     *metrics.Metrics

	ServerName    string
	ServerVersion string
}

type methodFunc func(ctx context.Context, req *Request) (any, *Error)

// Dispatcher executes JSON-RPC requests.
type Dispatcher struct {
	tools       *tools.Table
	catalog     []tools.Descriptor
	broadcaster tools.Broadcaster
	logger      *slog.Logger
	metrics     *metrics.Metrics
	info        ServerInfo

	methods map[string]methodFunc
}

// NewDispatcher creates a dispatcher. A nil tool table is treated as empty.
func NewDispatcher(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	table := cfg.Tools
	if table == nil {
		table, _ = tools.NewTable()
	}

	d := &Dispatcher{
		tools:       table,
		catalog:     table.Descriptors(),
		broadcaster: cfg.Broadcaster,
		logger:      logger.With("component", "rpc"),
		metrics:     cfg.Metrics,
		info:        ServerInfo{Name: cfg.ServerName, Version: cfg.ServerVersion},
	}
	d.methods = map[string]methodFunc{
		"initialize": d.initialize,
		"tools/list": d.toolsList,
		"tools/call": d.toolsCall,
	}
	return d
}

// Handle parses a raw request body and dispatches it. A body that is not a
// JSON object yields Invalid Request with a null id.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) *Response {
	req, ok := ParseRequest(body)
	if !ok {
		d.metrics.RPCRequest("", "invalid", 0)
		return errorResponse(nil, newError(CodeInvalidRequest, MsgInvalidRequest))
	}
	return d.Dispatch(ctx, req)
}

// Dispatch routes a parsed request by method name.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	start := time.Now()

	if req.Method == "" {
		d.metrics.RPCRequest("", "invalid", time.Since(start))
		return errorResponse(req.ID, newError(CodeInvalidRequest, MsgInvalidRequest))
	}

	fn, ok := d.methods[req.Method]
	if !ok {
		d.logger.Debug("unknown method", "method", req.Method)
		d.metrics.RPCRequest("unknown", "error", time.Since(start))
		return errorResponse(req.ID, newError(CodeMethodNotFound, MsgMethodNotFound))
	}

	result, rpcErr := fn(ctx, req)
	duration := time.Since(start)

	d.logger.Debug("rpc request",
		"method", req.Method,
		"id", string(req.ID),
		"notification", req.IsNotification(),
		"duration", duration,
		"error", rpcErr != nil,
	)

	if rpcErr != nil {
		d.metrics.RPCRequest(req.Method, "error", duration)
		return errorResponse(req.ID, rpcErr)
	}
	d.metrics.RPCRequest(req.Method, "ok", duration)
	return &Response{JSONRPC: JSONRPCVersion, ID: req.ID, Result: result}
}

func errorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Error: err}
}

func (d *Dispatcher) initialize(_ context.Context, _ *Request) (any, *Error) {
	return InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      d.info,
	}, nil
}

func (d *Dispatcher) toolsList(_ context.Context, _ *Request) (any, *Error) {
	return ListToolsResult{Tools: d.catalog}, nil
}

func (d *Dispatcher) toolsCall(ctx context.Context, req *Request) (any, *Error) {
	call := extractToolCall(req.Params)

	tool, ok := d.tools.Lookup(call.Name)
	if !ok {
		d.logger.Debug("unknown tool", "tool_name", call.Name)
		d.metrics.ToolCall("unknown", "not_found")
		return nil, newError(CodeMethodNotFound, MsgUnknownTool)
	}

	return d.invoke(ctx, tool, call.Arguments), nil
}

// invoke runs a tool handler, turning errors and panics into isError results.
func (d *Dispatcher) invoke(ctx context.Context, tool tools.Tool, args json.RawMessage) (result *tools.Result) {
	name := tool.Descriptor.Name
	env := tools.Env{Broadcaster: d.broadcaster, Catalog: d.catalog}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", "tool_name", name, "panic", r)
			result = tools.ErrorResult(fmt.Sprintf("tool %s failed: %v", name, r))
		}
		status := "ok"
		if result.IsError {
			status = "error"
		}
		d.metrics.ToolCall(name, status)
	}()

	res, err := tool.Handler(ctx, env, args)
	if err != nil {
		d.logger.Warn("tool execution failed", "tool_name", name, "error", err)
		return tools.ErrorResult(err.Error())
	}
	if res == nil {
		return &tools.Result{Content: []tools.Content{}}
	}
	if res.Content == nil {
		res.Content = []tools.Content{}
	}
	return res
}
