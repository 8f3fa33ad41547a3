package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SWEEP_CRON", "")
	t.Setenv("PACKAGE_CACHE_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "vnd", cfg.StripeCurrency)
	assert.Equal(t, 128, cfg.PackageCacheSize)
	assert.Empty(t, cfg.SweepCron)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SWEEP_CRON", "*/15 * * * *")
	t.Setenv("PACKAGE_CACHE_SIZE", "not-a-number")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "*/15 * * * *", cfg.SweepCron)
	assert.Equal(t, 128, cfg.PackageCacheSize)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.0001)
}
