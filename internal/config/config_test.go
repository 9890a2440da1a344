package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "localhost", cfg.PostgresHost)
	assert.Equal(t, "discounts_db", cfg.PostgresDB)
	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, 6379, cfg.RedisPort)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "scd", cfg.CachePrefix)
	assert.Equal(t, "v1", cfg.CacheVersion)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.CacheLockTTL)
	assert.Equal(t, 100*time.Millisecond, cfg.CachePollInterval)
	assert.Equal(t, 10, cfg.CachePollRetries)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("DISCOUNTS_HTTP_PORT", "9010")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("CACHE_VERSION", "v2")
	t.Setenv("CACHE_TTL", "5m")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9010, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "v2", cfg.CacheVersion)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("DISCOUNTS_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_HTTPPortTooLarge(t *testing.T) {
	t.Setenv("DISCOUNTS_HTTP_PORT", "70000")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_NonPositiveCacheTTL(t *testing.T) {
	t.Setenv("CACHE_TTL", "0s")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache TTL must be positive")
}

func TestLoad_UnparseableValue(t *testing.T) {
	t.Setenv("DISCOUNTS_HTTP_PORT", "not-a-number")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load discounts config")
}
