// ABOUTME: Tests for the mcp-sse-adapter command: config fallback, init, health, tools and logging
// ABOUTME: Commands write to injected writers so output can be asserted without a terminal

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/mcp-sse-adapter/internal/config"
)

func TestGetConfigPath(t *testing.T) {
	t.Run("explicit env var", func(t *testing.T) {
		t.Setenv("MCP_SSE_CONFIG", "/etc/adapter.toml")
		assert.Equal(t, "/etc/adapter.toml", getConfigPath())
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("MCP_SSE_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		assert.Equal(t, "/xdg/mcp-sse-adapter/config.yaml", getConfigPath())
	})
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "9911")

	cfg, fromFile, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.False(t, fromFile)
	assert.Equal(t, ":9911", cfg.Server.HTTPAddr)
	assert.Equal(t, config.DefaultServiceName, cfg.Server.Name)
}

func TestLoadConfig_InvalidFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  ping_interval: \"never\"\n"), 0644))

	_, _, err := loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestHealthURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8787/healthz", healthURL(":8787"))
	assert.Equal(t, "http://127.0.0.1:9000/healthz", healthURL("127.0.0.1:9000"))
}

func TestRunHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"service":"mcp-sse-adapter","uptime":1.5}` + "\n"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "config.yaml")
	addr := strings.TrimPrefix(srv.URL, "http://")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_addr: \""+addr+"\"\n"), 0644))
	t.Setenv("MCP_SSE_CONFIG", path)

	var out bytes.Buffer
	require.NoError(t, runHealth(context.Background(), &out))
	assert.Equal(t, `{"ok":true,"service":"mcp-sse-adapter","uptime":1.5}`+"\n", out.String())
}

func TestRunHealth_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "config.yaml")
	addr := strings.TrimPrefix(srv.URL, "http://")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_addr: \""+addr+"\"\n"), 0644))
	t.Setenv("MCP_SSE_CONFIG", path)

	err := runHealth(context.Background(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestRunTools(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runTools(&out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 9)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.True(t, strings.HasPrefix(lines[1], "ping "))
	assert.True(t, strings.HasPrefix(lines[2], "search "))
	assert.Contains(t, out.String(), "calendar_availability")
}

func TestRunInit(t *testing.T) {
	t.Setenv("PORT", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	answers := strings.Join([]string{
		path,             // config path
		"127.0.0.1:9999", // http addr
		"5s",             // ping interval
		"",               // database path
		"no",             // tailscale
		"debug",          // log level
		"",               // log format
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, runInit(strings.NewReader(answers), &out))
	assert.Contains(t, out.String(), "Config written to "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.HTTPAddr)
	assert.Equal(t, "5s", cfg.Server.PingInterval.String())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.Tailscale.Enabled)
}

func TestRunInit_KeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0644))

	var out bytes.Buffer
	require.NoError(t, runInit(strings.NewReader(path+"\nno\n"), &out))
	assert.Contains(t, out.String(), "Aborted.")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(data))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.Info("stream opened", "session", "abc")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "stream opened", line["msg"])
	assert.Equal(t, "abc", line["session"])
}

func TestColorHandler(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "debug", Format: "text"}, &buf)

	logger.With("component", "sse").WithGroup("req").Warn("write failed", "session", "abc")
	logger.Debug("tick")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "WRN write failed component=sse req.session=abc")
	assert.Contains(t, lines[1], "DBG tick")
}
