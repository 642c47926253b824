// Package rpc implements the request/response half of the adapter: a
// JSON-RPC 2.0 dispatcher for initialize, tools/list and tools/call, and
// the HTTP handler that carries it.
//
// Methods are looked up in a table keyed by name. tools/call accepts the
// tool arguments nested under "arguments" or "args", or flat in params,
// and normalises them before the tool sees them.
package rpc
