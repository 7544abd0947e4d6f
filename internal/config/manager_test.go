package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	return m
}

func TestNewManagerCreatesDefaults(t *testing.T) {
	m := newTestManager(t)

	_, err := os.Stat(m.GetConfigPath())
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 7465, cfg.ServerPort)
	assert.Equal(t, "auto", cfg.Provider)
	assert.Equal(t, 30*time.Second, cfg.Refresh.FallbackInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Refresh.SettleDelay)
	assert.Equal(t, filepath.Join(m.GetConfigDir(), "icons"), cfg.Icons.Dir)
	assert.True(t, cfg.Icons.BundleLookup)
}

func TestSavedDurationsAreReadable(t *testing.T) {
	m := newTestManager(t)
	data, err := os.ReadFile(m.GetConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "fallback_interval: 30s")
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: aerospace\nrefresh:\n  fallback_interval: 5s\n"), 0644))

	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, "aerospace", cfg.Provider)
	assert.Equal(t, 5*time.Second, cfg.Refresh.FallbackInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Refresh.SettleDelay)
	assert.Equal(t, 7465, cfg.ServerPort)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: kwin\n"), 0644))

	_, err := NewManager(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	cfg := Defaults("/tmp/spacebar")
	require.NoError(t, cfg.Validate())

	cfg.ServerPort = 0
	cfg.LogLevel = "trace"
	cfg.Refresh.SettleDelay = 0
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "server_port")
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "refresh.settle_delay")
}

func TestGetKey(t *testing.T) {
	m := newTestManager(t)

	v, err := m.GetKey("provider")
	require.NoError(t, err)
	assert.Equal(t, "auto", v)

	_, err = m.GetKey("nope")
	assert.ErrorIs(t, err, ErrUnknownKey)

	assert.Contains(t, m.Keys(), "refresh.settle_delay")
}

func TestSetKey(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.SetKey("refresh.settle_delay", "250ms"))
	require.NoError(t, m.SetKey("server_port", "8080"))
	require.NoError(t, m.SetKey("icons.bundle_lookup", "false"))

	cfg := m.Get()
	assert.Equal(t, 250*time.Millisecond, cfg.Refresh.SettleDelay)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.False(t, cfg.Icons.BundleLookup)

	reloaded, err := NewManager(m.GetConfigPath())
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, reloaded.Get().Refresh.SettleDelay)
}

func TestSetKeyRejectsBadValues(t *testing.T) {
	m := newTestManager(t)

	assert.ErrorIs(t, m.SetKey("unknown", "1"), ErrUnknownKey)
	assert.Error(t, m.SetKey("server_port", "abc"))
	assert.ErrorIs(t, m.SetKey("server_port", "70000"), ErrInvalid)
	assert.ErrorIs(t, m.SetKey("provider", "kwin"), ErrInvalid)

	assert.Equal(t, 7465, m.Get().ServerPort)
	assert.Equal(t, "auto", m.Get().Provider)
}

func TestWatchReloads(t *testing.T) {
	m := newTestManager(t)

	var mu sync.Mutex
	var got *Config
	m.OnChange(func(cfg *Config) {
		mu.Lock()
		got = cfg
		mu.Unlock()
	})
	require.NoError(t, m.Watch())
	defer m.Close()

	require.NoError(t, os.WriteFile(m.GetConfigPath(), []byte("log_level: debug\nrefresh:\n  fallback_interval: 7s\n"), 0644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got != nil && got.Refresh.FallbackInterval == 7*time.Second
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "debug", m.Get().LogLevel)
}

func TestWatchIgnoresInvalidChange(t *testing.T) {
	m := newTestManager(t)

	var mu sync.Mutex
	calls := 0
	m.OnChange(func(*Config) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, m.Watch())
	defer m.Close()

	require.NoError(t, os.WriteFile(m.GetConfigPath(), []byte("server_port: -1\n"), 0644))
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	assert.Zero(t, calls)
	mu.Unlock()
	assert.Equal(t, 7465, m.Get().ServerPort)
}

func TestCloseWithoutWatch(t *testing.T) {
	m := newTestManager(t)
	assert.NoError(t, m.Close())
}
