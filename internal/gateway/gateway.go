// ABOUTME: Gateway orchestrator that wires the registry, dispatcher and simulator into one HTTP server
// ABOUTME: Manages the audit store, listeners (TCP or tailnet) and graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"tailscale.com/tsnet"

	"github.com/2389/mcp-sse-adapter/internal/config"
	"github.com/2389/mcp-sse-adapter/internal/metrics"
	"github.com/2389/mcp-sse-adapter/internal/rpc"
	"github.com/2389/mcp-sse-adapter/internal/simulate"
	"github.com/2389/mcp-sse-adapter/internal/sse"
	"github.com/2389/mcp-sse-adapter/internal/store"
	"github.com/2389/mcp-sse-adapter/internal/tools"
)

// Gateway serves the event stream, the RPC endpoint and the stub endpoints.
type Gateway struct {
	config      *config.Config
	store       store.Store
	registry    *sse.Registry
	tools       *tools.Table
	dispatcher  *rpc.Dispatcher
	simulator   *simulate.Simulator
	metrics     *metrics.Metrics
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger

	startedAt time.Time
}

// initStore opens the audit store described by cfg. An empty path keeps the
// audit log in memory.
func initStore(cfg config.DatabaseConfig) (store.Store, error) {
	s, err := store.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// New creates a Gateway from cfg. Nothing listens until Run is called.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := initStore(cfg.Database)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	registry := sse.NewRegistry(sse.RegistryConfig{
		Logger:  logger,
		Metrics: m,
	})

	sim := simulate.New(simulate.Config{
		Audit:   s,
		Metrics: m,
		Logger:  logger,
	})

	table, err := tools.NewTable(append(tools.Builtins(), tools.SimulationTools(sim)...)...)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("building tool table: %w", err)
	}

	dispatcher := rpc.NewDispatcher(rpc.Config{
		Tools:         table,
		Broadcaster:   registry,
		Logger:        logger,
		Metrics:       m,
		ServerName:    cfg.Server.Name,
		ServerVersion: cfg.Server.Version,
	})

	gw := &Gateway{
		config:     cfg,
		store:      s,
		registry:   registry,
		tools:      table,
		dispatcher: dispatcher,
		simulator:  sim,
		metrics:    m,
		logger:     logger,
		startedAt:  time.Now(),
	}

	mux := http.NewServeMux()
	gw.registerRoutes(mux)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Open streams never go idle on their own, so close them when shutdown starts.
	gw.httpServer.RegisterOnShutdown(registry.Close)

	return gw, nil
}

// Handler returns the gateway's HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Registry returns the session registry.
func (g *Gateway) Registry() *sse.Registry {
	return g.registry
}

// Tools returns the capability table.
func (g *Gateway) Tools() *tools.Table {
	return g.tools
}

// setupTCPListener creates the standard TCP listener for HTTP.
func (g *Gateway) setupTCPListener() (net.Listener, error) {
	g.logger.Info("starting gateway", "http_addr", g.config.Server.HTTPAddr)

	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// setupListener creates the listener based on configuration (Tailscale or TCP).
func (g *Gateway) setupListener(ctx context.Context) (net.Listener, error) {
	if g.config.Tailscale.Enabled {
		if g.config.Server.HTTPAddr != "" {
			g.logger.Warn("server.http_addr is ignored when tailscale is enabled",
				"http_addr", g.config.Server.HTTPAddr,
			)
		}
		return g.setupTailscaleListener(ctx)
	}
	return g.setupTCPListener()
}

// startServer starts the HTTP server in a goroutine, returning its error channel.
func (g *Gateway) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)

	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return errCh
}

// waitForShutdownSignal waits for context cancellation or server error.
func (g *Gateway) waitForShutdownSignal(ctx context.Context, errCh chan error) error {
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
		return nil
	case err := <-errCh:
		g.logger.Error("server error", "error", err)
		return err
	}
}

// Run starts serving and blocks until ctx is canceled or the server fails.
// Returns nil on graceful shutdown (context canceled), or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := g.setupListener(ctx)
	if err != nil {
		g.registry.Close()
		if closeErr := g.store.Close(); closeErr != nil {
			g.logger.Warn("failed to close store", "error", closeErr)
		}
		return err
	}

	errCh := g.startServer(ln)
	serverErr := g.waitForShutdownSignal(ctx, errCh)

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

func (g *Gateway) gracefulShutdown() error {
	timeout := g.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return g.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server, closes every open stream and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway", "sessions", g.registry.Len())

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))

	// RegisterOnShutdown hooks run asynchronously; no session may outlive Shutdown.
	g.registry.Close()

	if g.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", g.tsnetServer.Close())
	}
	errs = appendCloseError(errs, "store close", g.store.Close())

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}
