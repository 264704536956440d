package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/addressattr/internal"
	"github.com/dukerupert/addressattr/internal/address"
	"github.com/dukerupert/addressattr/internal/catalog"
	"github.com/dukerupert/addressattr/internal/handler/api"
	"github.com/dukerupert/addressattr/internal/localization"
	"github.com/dukerupert/addressattr/internal/middleware"
	"github.com/dukerupert/addressattr/internal/postgres"
	"github.com/dukerupert/addressattr/internal/telemetry"
	"github.com/dukerupert/addressattr/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Error tracking
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.Enabled,
		Environment: cfg.Env,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
	}, logger)
	if err != nil {
		return err
	}
	defer flushSentry()

	// Initialize database/sql connection for migrations
	logger.Info().Msg("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	logger.Info().Msg("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info().Msg("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	attributeMetrics := telemetry.NewAttributeMetrics(cfg.Metrics.Namespace, registry)
	httpMetrics := middleware.NewMetrics(cfg.Metrics.Namespace, registry)

	// Catalog: Postgres behind a read-through cache
	cache := catalog.NewCached(postgres.NewAttributeCatalog(pool), attributeMetrics, logger)
	if cfg.Nats.URL != "" {
		nc, err := nats.Connect(cfg.Nats.URL, nats.Name("addressattr"))
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Drain()

		if err := cache.Subscribe(nc, cfg.Nats.Subject); err != nil {
			return err
		}
		defer cache.Close()
	} else if cfg.Nats.RefreshInterval > 0 {
		logger.Warn().Dur("interval", cfg.Nats.RefreshInterval).Msg("NATS_URL not set, refreshing catalog cache periodically")
		refresher := worker.NewRefresher(cache, worker.Config{Interval: cfg.Nats.RefreshInterval}, logger)
		go func() {
			if err := refresher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("catalog refresher stopped")
			}
		}()
	} else {
		logger.Warn().Msg("NATS_URL not set, catalog cache will not be invalidated on change")
	}

	// Localization
	resources, err := localization.Load(cfg.Attributes.ResourcesFile)
	if err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}

	// Codec
	parser := address.NewAttributeParser(cache, resources, address.ParserOptions{
		DiscardOnWriteFailure: cfg.Attributes.DiscardOnWriteFailure,
		Logger:                &logger,
		Metrics:               attributeMetrics,
	})
	formatter := address.NewAttributeFormatter(parser)

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = api.NewRequestValidator()
	e.HTTPErrorHandler = middleware.HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(httpMetrics.Middleware())
	e.Use(middleware.RequestID())
	e.Use(middleware.WithRequestLogger(logger))
	e.Use(echomw.BodyLimit("1M"))

	e.GET("/healthz", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return err
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api.NewAddressAttributesHandler(parser, formatter, cache).RegisterRoutes(e)
	api.NewAddressHandler(address.NewBasicValidator(parser)).RegisterRoutes(e)

	addr := fmt.Sprintf(":%d", cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
