package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/pool-watch/internal/config"
	"github.com/ogulcanaydogan/pool-watch/pkg/model"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"56"}, cfg.API.ChainIDs)
	assert.Equal(t, 5, cfg.API.PageCount)
	assert.Equal(t, 100, cfg.API.PageSize)
	assert.Equal(t, time.Second, cfg.API.PageDelay)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, model.Thresholds{MinAPR: 3000, MinEarnFee: 1000, MinVolume: 100000}, cfg.ModelThresholds())
	assert.Equal(t, 24*time.Hour, cfg.Cooldown())
	assert.Equal(t, 0.2, cfg.Notify.GrowthRatio)
	assert.Equal(t, "lark", cfg.Notify.Format)
	assert.Empty(t, cfg.Notify.WebhookURL)
	assert.Equal(t, filepath.Join("data", "notified.json"), cfg.Storage.StatePath)
	assert.Equal(t, "@every 15m", cfg.Schedule.Spec)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "poolwatch.yaml")
	data := []byte(`
api:
  base_url: https://pools.internal/api
  chain_ids: ["1", "8453"]
  page_count: 2
  page_delay: 250ms
thresholds:
  min_apr: 500
notify:
  webhook_url: https://hooks.example/abc
  format: slack
  cooldown_ms: 3600000
storage:
  state_path: /var/lib/poolwatch/state.json
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(cfgPath, data, 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "https://pools.internal/api", cfg.API.BaseURL)
	assert.Equal(t, []string{"1", "8453"}, cfg.API.ChainIDs)
	assert.Equal(t, 2, cfg.API.PageCount)
	assert.Equal(t, 250*time.Millisecond, cfg.API.PageDelay)
	assert.Equal(t, 500.0, cfg.Thresholds.MinAPR)
	assert.Equal(t, 1000.0, cfg.Thresholds.MinEarnFee)
	assert.Equal(t, "https://hooks.example/abc", cfg.Notify.WebhookURL)
	assert.Equal(t, "slack", cfg.Notify.Format)
	assert.Equal(t, time.Hour, cfg.Cooldown())
	assert.Equal(t, "/var/lib/poolwatch/state.json", cfg.Storage.StatePath)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POOLWATCH_API_CHAIN_IDS", "56, 1,,137")
	t.Setenv("POOLWATCH_THRESHOLDS_MIN_VOLUME", "250000")
	t.Setenv("POOLWATCH_NOTIFY_COOLDOWN_MS", "0")
	t.Setenv("POOLWATCH_NOTIFY_WEBHOOK_URL", "https://hooks.example/env")
	t.Setenv("POOLWATCH_LOGGING_LEVEL", "error")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"56", "1", "137"}, cfg.API.ChainIDs)
	assert.Equal(t, 250000.0, cfg.Thresholds.MinVolume)
	assert.Equal(t, time.Duration(0), cfg.Cooldown())
	assert.Equal(t, "https://hooks.example/env", cfg.Notify.WebhookURL)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("invalid: [yaml"), 0o644))

	_, err := config.Load(cfgPath)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("POOLWATCH_API_PAGE_SIZE", "0")
	t.Setenv("POOLWATCH_NOTIFY_GROWTH_RATIO", "-1")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.page_size")
	assert.Contains(t, err.Error(), "notify.growth_ratio")
}
