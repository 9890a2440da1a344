package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/webstepper/smart-cycle-discounts-sub018/pkg/config"
)

// Config holds all configuration for the discount engine service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"DISCOUNTS_HTTP_PORT" envDefault:"8010"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"discounts"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"discounts_secret"`
	PostgresDB   string `env:"DISCOUNTS_DB_NAME" envDefault:"discounts_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cache namespace and tuning
	CachePrefix       string        `env:"CACHE_PREFIX" envDefault:"scd"`
	CacheVersion      string        `env:"CACHE_VERSION" envDefault:"v1"`
	CacheTTL          time.Duration `env:"CACHE_TTL" envDefault:"15m"`
	CacheLockTTL      time.Duration `env:"CACHE_LOCK_TTL" envDefault:"30s"`
	CachePollInterval time.Duration `env:"CACHE_POLL_INTERVAL" envDefault:"100ms"`
	CachePollRetries  int           `env:"CACHE_POLL_RETRIES" envDefault:"10"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load discounts config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.CacheTTL)
	}
	if c.CachePollRetries < 0 {
		return fmt.Errorf("cache poll retries must not be negative, got %d", c.CachePollRetries)
	}
	return nil
}
