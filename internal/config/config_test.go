package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "vantage", cfg.AppName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("RATE_LIMIT_ENABLED", "yes")
	t.Setenv("RATE_LIMIT_DEVICE_RATE", "2.5")
	t.Setenv("RATE_LIMIT_DEVICE_BURST", "bogus")

	cfg := Load()

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2.5, cfg.RateLimit.DeviceRate)
	// Unparseable values fall back to the default.
	assert.Equal(t, 20, cfg.RateLimit.DeviceBurst)
}

func TestDefaultAlertingConfig(t *testing.T) {
	cfg := DefaultAlertingConfig()

	assert.Equal(t, 30*time.Minute, cfg.DedupWindow)
	assert.Equal(t, 20.0, cfg.HighDeviationPct)
	assert.Equal(t, 10.0, cfg.MediumDeviationPct)
	require.NoError(t, validateAlertingConfig(cfg))
}

func TestValidateAlertingConfig(t *testing.T) {
	cfg := DefaultAlertingConfig()
	cfg.DedupWindow = 0
	assert.Error(t, validateAlertingConfig(cfg))

	cfg = DefaultAlertingConfig()
	cfg.HighDeviationPct = 5
	assert.Error(t, validateAlertingConfig(cfg))

	cfg = DefaultAlertingConfig()
	cfg.MediumDeviationPct = -1
	assert.Error(t, validateAlertingConfig(cfg))
}

func TestStaticAlertingConfigHolder(t *testing.T) {
	cfg := DefaultAlertingConfig()
	cfg.DedupWindow = time.Minute

	holder := NewStaticAlertingConfigHolder(cfg)
	assert.Equal(t, time.Minute, holder.Get().DedupWindow)
}
