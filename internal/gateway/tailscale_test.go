// ABOUTME: Tests for tailnet listener configuration helpers
// ABOUTME: Covers state directory defaults and auth key resolution from config or TS_AUTHKEY

package gateway

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTailscaleStateDir(t *testing.T) {
	t.Run("configured path wins", func(t *testing.T) {
		dir, err := resolveTailscaleStateDir("/var/lib/adapter/ts")
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/adapter/ts", dir)
	})

	t.Run("defaults under home", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		dir, err := resolveTailscaleStateDir("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".local", "share", "mcp-sse-adapter", "tailscale"), dir)
	})
}

func TestResolveTailscaleAuthKey(t *testing.T) {
	t.Run("configured key wins over env", func(t *testing.T) {
		t.Setenv("TS_AUTHKEY", "tskey-env")
		key, err := resolveTailscaleAuthKey("tskey-config")
		require.NoError(t, err)
		assert.Equal(t, "tskey-config", key)
	})

	t.Run("falls back to env", func(t *testing.T) {
		t.Setenv("TS_AUTHKEY", "tskey-env")
		key, err := resolveTailscaleAuthKey("")
		require.NoError(t, err)
		assert.Equal(t, "tskey-env", key)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Setenv("TS_AUTHKEY", "")
		_, err := resolveTailscaleAuthKey("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TS_AUTHKEY")
	})
}

func TestRun_TailscaleWithoutAuthKey(t *testing.T) {
	t.Setenv("TS_AUTHKEY", "")
	cfg := testConfig(t)
	cfg.Tailscale.Enabled = true
	cfg.Tailscale.Hostname = "adapter-test"
	cfg.Tailscale.StateDir = t.TempDir()

	gw, err := New(cfg, testLogger())
	require.NoError(t, err)
	defer gw.Shutdown(context.Background())

	err = gw.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tailscale auth key required")
	assert.Nil(t, gw.tsnetServer, "no node is started without a key")
	assert.Error(t, gw.store.Ping(context.Background()), "store is closed on listener failure")
}
