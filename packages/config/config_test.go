package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/l3montree-dev/lowpot/packages/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.BindAddress)
	assert.Equal(t, "honeypot.log", cfg.LogFile)
	assert.Equal(t, "logs", cfg.LogDir)
	assert.Equal(t, 1024, cfg.ReadSize)
	assert.Equal(t, time.Duration(0), cfg.IdleTimeout)
	assert.Equal(t, 0, cfg.MaxConns)
	assert.Empty(t, cfg.Stats.Addr)
	assert.Equal(t, DefaultServices(), cfg.Services)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
read_size: 512
idle_timeout: 30s
services:
  - port: 2200
    protocol: ssh
  - port: 2100
    protocol: FTP
stats:
  addr: 127.0.0.1:9100
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "honeypot.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.ReadSize)
	assert.Equal(t, 30*time.Second, cfg.IdleTimeout)
	assert.Equal(t, "127.0.0.1:9100", cfg.Stats.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Stats.Retention)
	assert.Equal(t, []ServiceConfig{
		{Port: 2200, Protocol: types.ServiceSSH},
		{Port: 2100, Protocol: types.ServiceFTP},
	}, cfg.Services)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HONEYPOT_LOG_FILE", "attempts.log")
	t.Setenv("HONEYPOT_STATS_ADDR", ":9200")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "attempts.log", cfg.LogFile)
	assert.Equal(t, ":9200", cfg.Stats.Addr)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HONEYPOT_READ_SIZE=64\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("HONEYPOT_READ_SIZE") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.ReadSize)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Services = []ServiceConfig{{Port: 0, Protocol: types.ServiceSSH}}
	assert.ErrorContains(t, cfg.Validate(), "invalid port")

	cfg = Default()
	cfg.Services = []ServiceConfig{{Port: 23, Protocol: "telnet"}}
	assert.ErrorContains(t, cfg.Validate(), "unknown service")

	cfg = Default()
	cfg.ReadSize = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Services = nil
	assert.Error(t, cfg.Validate())
}

func TestParseLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"
	assert.Equal(t, slog.LevelWarn, cfg.ParseLevel())
	cfg.LogLevel = "nonsense"
	assert.Equal(t, slog.LevelDebug, cfg.ParseLevel())
}
