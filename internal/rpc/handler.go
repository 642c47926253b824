// ABOUTME: HTTP transport for the RPC dispatcher
// ABOUTME: POST only, bounded body, JSON content type gate, always HTTP 200 with a JSON-RPC body

package rpc

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/elnormous/contenttype"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

var jsonMediaType = contenttype.NewMediaType("application/json")

// Handler serves JSON-RPC requests over HTTP.
type Handler struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewHandler wraps a dispatcher as an http.Handler.
func NewHandler(d *Dispatcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{dispatcher: d, logger: logger.With("component", "rpc_http")}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		h.logger.Debug("failed to read request body", "error", err)
		h.write(w, errorResponse(nil, newError(CodeInvalidRequest, MsgInvalidRequest)))
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		h.logger.Warn("request body too large", "remote_addr", r.RemoteAddr)
		h.write(w, errorResponse(nil, newError(CodeInvalidRequest, MsgInvalidRequest)))
		return
	}

	// A body declared as something other than JSON is not decoded, so it
	// dispatches as an empty request.
	if r.Header.Get("Content-Type") != "" {
		ctype, err := contenttype.GetMediaType(r)
		if err != nil || !ctype.Matches(jsonMediaType) {
			h.logger.Debug("ignoring non-JSON body", "content_type", r.Header.Get("Content-Type"))
			body = emptyObject
		}
	}

	h.write(w, h.dispatcher.Handle(r.Context(), body))
}

func (h *Handler) write(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}
