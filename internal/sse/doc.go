// Package sse implements the server-push half of the adapter: the
// long-lived event stream endpoint and the registry of open sessions that
// RPC handlers broadcast notifications through.
//
// Frames follow the text/event-stream format with one JSON data line:
//
//	event: ping
//	data: {"i":0,"ts":1700000000000}
//
// A session belongs to the registry from registration until it is closed
// by client disconnect, a failed write, or server shutdown.
package sse
