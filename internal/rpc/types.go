// ABOUTME: JSON-RPC 2.0 envelope types and error codes
// ABOUTME: Lenient request parsing that keeps the id whenever the body is a JSON object

package rpc

import (
	"bytes"
	"encoding/json"
)

// JSONRPCVersion is the protocol version carried by every response.
const JSONRPCVersion = "2.0"

// JSON-RPC error codes returned by the dispatcher
const (
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
)

// Error messages
const (
	MsgInvalidRequest = "Invalid Request"
	MsgMethodNotFound = "Method not found"
	MsgUnknownTool    = "Unknown tool"
)

// Request is a parsed JSON-RPC request. ID is kept verbatim; a nil ID is
// echoed as null. Params is always a JSON object.
type Request struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC response. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

func newError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

var emptyObject = json.RawMessage(`{}`)

// ParseRequest decodes body into a Request. It reports false only when the
// body is not a JSON object. A method that is not a string is treated as
// missing, and params that are not an object become {}.
func ParseRequest(body []byte) (*Request, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, false
	}

	req := &Request{ID: fields["id"], Params: emptyObject}
	if v, ok := fields["jsonrpc"]; ok {
		_ = json.Unmarshal(v, &req.JSONRPC)
	}
	if v, ok := fields["method"]; ok {
		_ = json.Unmarshal(v, &req.Method)
	}
	if v, ok := fields["params"]; ok && isObject(v) {
		req.Params = v
	}
	return req, true
}

// IsNotification reports whether the request carries no id.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
