package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvDB, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Setenv(EnvDB, "")
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kind: industry
today_mode: his
cell_format: rich
http:
  timeout: 10s
throttle:
  rpm: 10
  workers: 4
chart:
  lookbacks: [1, 3, 5]
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "industry", cfg.Kind)
	assert.Equal(t, "his", cfg.TodayMode)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 4, cfg.HTTP.Retries)
	assert.Equal(t, 10.0, cfg.Throttle.RPM)
	assert.Equal(t, 4, cfg.Throttle.Workers)
	assert.Equal(t, time.Second, cfg.Throttle.Sleep)
	assert.Equal(t, []int{1, 3, 5}, cfg.Chart.Lookbacks)
	assert.Equal(t, 90, cfg.Days)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("days: 30\n"), 0644))
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvDB, "duckdb://"+filepath.Join(dir, "bk.duckdb"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Days)
	assert.Contains(t, cfg.DB, "duckdb://")
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvDB, "")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("today_mode: live\n"), 0644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "today_mode")
}
