// ABOUTME: Entry point for the mcp-sse-adapter server
// ABOUTME: Serves the event stream and JSON-RPC endpoint, plus health and tool listing commands

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/mcp-sse-adapter/internal/config"
	"github.com/2389/mcp-sse-adapter/internal/gateway"
	"github.com/2389/mcp-sse-adapter/internal/simulate"
	"github.com/2389/mcp-sse-adapter/internal/tools"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                                                                 _             _
  _ __ ___   ___ _ __        ___ ___  ___       __ _  __| | __ _ _ __ | |_ ___ _ __
 | '_ ' _ \ / __| '_ \ _____/ __/ __|/ _ \_____/ _' |/ _' |/ _' | '_ \| __/ _ \ '__|
 | | | | | | (__| |_) |_____\__ \__ \  __/_____| (_| | (_| | (_| | |_) | ||  __/ |
 |_| |_| |_|\___| .__/      |___/___/\___|      \__,_|\__,_|\__,_| .__/ \__\___|_|
                |_|                                              |_|
`

// getConfigPath returns the path to the adapter config file.
// Priority: MCP_SSE_CONFIG env var > XDG_CONFIG_HOME/mcp-sse-adapter/config.yaml > ~/.config/mcp-sse-adapter/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("MCP_SSE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "mcp-sse-adapter", "config.yaml")
}

// loadConfig reads the config file at path. A missing file is not an error:
// the adapter runs on defaults plus environment overrides.
func loadConfig(path string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, fmt.Errorf("loading config: %w", err)
	}

	cfg = config.Default()
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, fmt.Errorf("validating config: %w", err)
	}
	return cfg, false, nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mcp-sse-adapter [command]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the adapter (default)")
	fmt.Fprintln(w, "  init     Create a new config file interactively")
	fmt.Fprintln(w, "  health   Check adapter health")
	fmt.Fprintln(w, "  tools    List the tools served over tools/list")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	var err error
	switch command {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit(os.Stdin, os.Stdout)
	case "health":
		err = runHealth(ctx, os.Stdout)
	case "tools":
		err = runTools(os.Stdout)
	case "help", "-h", "--help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		usage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, fromFile, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, os.Stdout)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	if fromFile {
		fmt.Printf("Config:    %s\n", configPath)
	} else {
		fmt.Print("Config:    ")
		gray.Println("defaults (no config file)")
	}
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	if cfg.Database.Path == "" {
		fmt.Print("Audit log: ")
		gray.Println("in memory")
	} else {
		fmt.Printf("Audit log: %s\n", cfg.Database.Path)
	}

	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}

	fmt.Println()

	logger.Info("starting mcp-sse-adapter",
		"version", version,
		"http_addr", cfg.Server.HTTPAddr,
		"ping_interval", cfg.Server.PingInterval,
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

// healthURL turns a listen address into the URL of its health endpoint.
// A bare ":port" is reached through localhost.
func healthURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/healthz"
}

func runHealth(ctx context.Context, out io.Writer) error {
	cfg, _, err := loadConfig(getConfigPath())
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL(cfg.Server.HTTPAddr), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	fmt.Fprintln(out, strings.TrimSpace(string(body)))
	return nil
}

// runTools prints the capability table without starting a server.
func runTools(out io.Writer) error {
	table, err := tools.NewTable(append(tools.Builtins(), tools.SimulationTools(simulate.New(simulate.Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}))...)...)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDESCRIPTION")
	for _, d := range table.Descriptors() {
		fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Description)
	}
	return tw.Flush()
}

func runInit(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "mcp-sse-adapter configuration setup")
	fmt.Fprintln(out, "===================================")
	fmt.Fprintln(out)

	outputFile := prompt(reader, out, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, out, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	fmt.Fprintln(out, "\n--- Server Configuration ---")
	httpAddr := prompt(reader, out, "HTTP address", config.DefaultHTTPAddr)
	pingInterval := prompt(reader, out, "Ping interval", config.DefaultPingInterval.String())

	fmt.Fprintln(out, "\n--- Audit Log ---")
	dbPath := prompt(reader, out, "SQLite database path (empty keeps it in memory)", "")

	fmt.Fprintln(out, "\n--- Tailscale Configuration ---")
	tailscaleEnabled := isYes(prompt(reader, out, "Enable Tailscale?", "no"))

	var tsHostname string
	var tsFunnel bool
	if tailscaleEnabled {
		tsHostname = prompt(reader, out, "Tailscale hostname", config.DefaultServiceName)
		tsFunnel = isYes(prompt(reader, out, "Enable Funnel (public HTTPS)?", "no"))
	}

	fmt.Fprintln(out, "\n--- Logging Configuration ---")
	logLevel := prompt(reader, out, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, out, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# mcp-sse-adapter configuration\n")
	cfg.WriteString("# Generated by mcp-sse-adapter init\n\n")

	cfg.WriteString("server:\n")
	fmt.Fprintf(&cfg, "  http_addr: %q\n", httpAddr)
	fmt.Fprintf(&cfg, "  ping_interval: %q\n", pingInterval)
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	fmt.Fprintf(&cfg, "  driver: %q\n", config.DefaultDatabaseDriver)
	fmt.Fprintf(&cfg, "  path: %q\n", dbPath)
	cfg.WriteString("\n")

	cfg.WriteString("tailscale:\n")
	fmt.Fprintf(&cfg, "  enabled: %t\n", tailscaleEnabled)
	if tailscaleEnabled {
		fmt.Fprintf(&cfg, "  hostname: %q\n", tsHostname)
		fmt.Fprintf(&cfg, "  funnel: %t\n", tsFunnel)
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	fmt.Fprintf(&cfg, "  level: %q\n", logLevel)
	fmt.Fprintf(&cfg, "  format: %q\n", logFormat)
	cfg.WriteString("\n")

	cfg.WriteString("metrics:\n")
	cfg.WriteString("  enabled: false\n")
	fmt.Fprintf(&cfg, "  path: %q\n", config.DefaultMetricsPath)

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Reject output that the server would fail to load.
	if _, err := config.Load(outputFile); err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", outputFile)
	fmt.Fprintln(out, "\nTo start the server:")
	fmt.Fprintln(out, "  mcp-sse-adapter serve")

	return nil
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
