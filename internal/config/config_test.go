package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.GraceWindow)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 25*time.Second, cfg.PingPeriod)
	assert.Equal(t, 45*time.Second, cfg.PongWait)
	assert.Equal(t, "drop", cfg.Backpressure)
	assert.Equal(t, 10, cfg.JoinRateLimit)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yaml := "mode: debug\nport: 4000\ngrace_window: 2m\nallowed_origins:\n  - http://localhost:5173\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), []byte(yaml), 0o644))
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("CODEROOM_PORT", "5000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 5000, cfg.Port, "env wins over file")
	assert.Equal(t, 2*time.Minute, cfg.GraceWindow)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoad_RejectsPingLongerThanPong(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("CODEROOM_PING_PERIOD", "1m")

	_, err := Load()
	assert.Error(t, err)
}
