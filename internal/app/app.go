package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/cache"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/catalog"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/condition"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/config"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/conflict"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/event"
	handler "github.com/webstepper/smart-cycle-discounts-sub018/internal/handler/http"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/repository/postgres"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/selector"
	"github.com/webstepper/smart-cycle-discounts-sub018/internal/service"
	"github.com/webstepper/smart-cycle-discounts-sub018/pkg/database"
	"github.com/webstepper/smart-cycle-discounts-sub018/pkg/health"
	pkgkafka "github.com/webstepper/smart-cycle-discounts-sub018/pkg/kafka"
)

// App wires together all dependencies and runs the discount engine service.
type App struct {
	cfg         *config.Config
	logger      *slog.Logger
	pool        *pgxpool.Pool
	redisClient *redis.Client
	producer    *pkgkafka.Producer
	httpServer  *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	// Initialize Redis for the versioned cache.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("port", cfg.RedisPort),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	engineCache := cache.New(redisClient, cache.Config{
		Prefix:       cfg.CachePrefix,
		Version:      cfg.CacheVersion,
		TTL:          cfg.CacheTTL,
		LockTTL:      cfg.CacheLockTTL,
		PollInterval: cfg.CachePollInterval,
		PollRetries:  cfg.CachePollRetries,
	}, logger)

	repo := postgres.NewCampaignRepository(pool)
	eventProducer := event.NewProducer(producer, logger)

	// The in-memory catalog provider is the default wiring; a storefront
	// integration swaps in its own catalog.Provider implementation.
	provider := catalog.NewMemoryProvider()
	engine := condition.NewEngine(provider)
	sel := selector.New(provider, engine, engineCache)
	resolver := conflict.NewResolver(sel)

	campaignService := service.NewCampaignService(repo, eventProducer, engineCache, logger)
	engineService := service.NewEngineService(repo, provider, sel, engine, resolver, nil, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// HTTP router.
	router := handler.NewRouter(campaignService, engineService, healthHandler, handler.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		redisClient: redisClient,
		producer:    producer,
		httpServer:  httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	// Close Redis client.
	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	// Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
