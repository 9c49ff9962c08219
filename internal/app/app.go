package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sundayezeilo/linkshort/hashgen"
	"github.com/sundayezeilo/linkshort/internal/config"
	"github.com/sundayezeilo/linkshort/internal/db/migrations"
	"github.com/sundayezeilo/linkshort/internal/server"
	"github.com/sundayezeilo/linkshort/internal/shortener"
)

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Service shortener.Service
	Server  *server.Server
	Handler *shortener.Handler
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"service", cfg.App.ServiceName,
		"env", cfg.App.Environment,
		"version", cfg.App.ServiceVersion,
	)

	if cfg.Database.MigrateOnStart {
		logger.Info("applying database migrations")
		if err := migrations.Up(cfg.Database.MigrationURL()); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	dbPool, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	svc, err := NewService(ctx, cfg, logger, dbPool)
	if err != nil {
		dbPool.Close()
		return nil, err
	}

	handler := shortener.NewHandler(shortener.HandlerConfig{
		Service: svc,
		Logger:  logger,
		BaseURL: cfg.Server.BaseURL,
	})

	srv := server.New(cfg, logger, handler, svc)

	logger.Info("application initialized",
		"addr", cfg.Server.Addr(),
		"base_url", cfg.Server.BaseURL,
		"cache", cfg.Redis.Enabled,
		"async_clicks", cfg.Clicks.Async(),
	)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Service: svc,
		Server:  srv,
		Handler: handler,
	}, nil
}

// NewService builds the link service over pool. The service owns pool and,
// when enabled, the redis client; both are released by Service.Close.
func NewService(ctx context.Context, cfg *config.Config, logger *slog.Logger, pool *pgxpool.Pool) (shortener.Service, error) {
	loc, err := cfg.Shortener.Location()
	if err != nil {
		return nil, err
	}

	repo := shortener.NewRepository(pool, nil)

	var recorder shortener.ClickRecorder
	if cfg.Clicks.Async() {
		recorder = shortener.NewAsyncRecorder(repo, &shortener.AsyncRecorderConfig{
			QueueSize:     cfg.Clicks.QueueSize,
			Workers:       cfg.Clicks.Workers,
			BatchSize:     cfg.Clicks.BatchSize,
			FlushInterval: cfg.Clicks.FlushInterval,
			Logger:        logger,
		})
	} else {
		recorder = shortener.NewSyncRecorder(repo)
	}

	var cache shortener.Cache
	if cfg.Redis.Enabled {
		c, err := connectRedis(ctx, cfg, logger)
		if err != nil {
			_ = recorder.Close(ctx)
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		cache = c
	}

	svc, err := shortener.NewService(repo, &shortener.ServiceConfig{
		CodeGenerator:   hashgen.New(cfg.Shortener.CodeLength),
		CodeMaxAttempts: cfg.Shortener.CodeMaxAttempts,
		Recorder:        recorder,
		Cache:           cache,
		Logger:          logger,
		Location:        loc,
	})
	if err != nil {
		_ = recorder.Close(ctx)
		if cache != nil {
			_ = cache.Close()
		}
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	return svc, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown flushes pending clicks and releases the cache and database pool.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Service.Close(ctx); err != nil {
		a.Logger.Error("failed to release resources", "error", err.Error())
		return err
	}

	a.Logger.Info("resources released")
	return nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// connectDatabase establishes a connection to the PostgreSQL database.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}

// connectRedis opens the redirect cache.
func connectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*shortener.RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	logger.Info("connecting to redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("redis connection established")

	return shortener.NewRedisCache(client, &shortener.RedisCacheConfig{
		Prefix: cfg.Redis.KeyPrefix,
		TTL:    cfg.Redis.CacheTTL,
	}), nil
}
