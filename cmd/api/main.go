// Package main is the entry point for the BioSentinel API server.
//
// It loads configuration, builds the provider clients (occurrence and fire
// hotspot feeds), selects the alert sink (Postgres when DATABASE_URL is set,
// otherwise the local JSON file), wires the domain services into the core
// chassis, and serves HTTP with graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"biosentinel/internal/alerts"
	"biosentinel/internal/api/handlers"
	"biosentinel/internal/config"
	"biosentinel/internal/core"
	"biosentinel/internal/db"
	"biosentinel/internal/external"
	"biosentinel/internal/risk"
	"biosentinel/internal/satellite"
	"biosentinel/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on
// error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("biosentinel API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	// Provider clients. Each gets its own HTTP client so a saturated
	// occurrence feed cannot starve hotspot fetches of connections.
	gbifClient := external.NewGBIFClient(
		&http.Client{Timeout: cfg.GBIF.Timeout},
		external.GBIFClientConfig{
			BaseURL:     cfg.GBIF.BaseURL,
			CacheTTL:    cfg.GBIF.CacheTTL,
			HistoryDays: cfg.GBIF.HistoryDays,
			Logger:      logger,
		},
	)
	firmsClient := external.NewFIRMSClient(
		&http.Client{Timeout: cfg.Firms.Timeout},
		external.FIRMSClientConfig{
			APIKey:  cfg.Firms.APIKey,
			BaseURL: cfg.Firms.BaseURL,
			Logger:  logger,
		},
	)

	// Alert sink: Postgres when configured, local JSON file otherwise.
	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStart()

	var (
		sink  alerts.Sink
		pool  *pgxpool.Pool
		probe core.HealthProbe
	)
	if cfg.Database.URL.Unmask() != "" {
		pool, err = db.NewPool(startCtx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		sink = db.NewAlertRepository(pool)
		probe = namedProbe{"database", func(ctx context.Context) error { return pool.Ping(ctx) }}
		logger.Info("alert sink: postgres")
	} else {
		fileSink, err := alerts.NewFileSink(cfg.Alerts.StorePath, types.RealClock{}, logger)
		if err != nil {
			return fmt.Errorf("opening alert store: %w", err)
		}
		sink = fileSink
		probe = namedProbe{"alert_store", func(ctx context.Context) error {
			_, err := fileSink.ListAll(ctx)
			return err
		}}
		logger.Info("alert sink: local file", "path", cfg.Alerts.StorePath)
	}

	classifier := risk.NewClassifier(gbifClient, logger)
	alertSvc := alerts.NewService(classifier, firmsClient, sink, cfg.Alerts.DefaultRegion, logger)
	satSvc := satellite.NewService(firmsClient, nil, nil, logger)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.RateLimitStore = core.NewMemoryRateLimitStore()
	srv.HealthProbes = []core.HealthProbe{probe}

	riskHandler := handlers.NewRiskHandler(classifier, gbifClient, srv.Validator, logger)
	alertHandler := handlers.NewAlertHandler(alertSvc, srv.Validator, logger)
	satHandler := handlers.NewSatelliteHandler(satSvc, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		riskHandler.RegisterRoutes,
		alertHandler.RegisterRoutes,
		satHandler.RegisterRoutes,
	)

	srv.MountRoutes()

	return runHTTPServer(srv, cfg, pool, logger)
}

// runHTTPServer starts the server in standard HTTP mode with graceful
// shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      40 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	var closers []core.Closer
	if pool != nil {
		closers = append(closers, poolCloser{pool})
	}
	if err := srv.Shutdown(ctx, closers...); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// namedProbe adapts a check function to the core.HealthProbe interface.
type namedProbe struct {
	name  string
	check func(ctx context.Context) error
}

func (p namedProbe) Name() string                    { return p.name }
func (p namedProbe) Check(ctx context.Context) error { return p.check(ctx) }

// poolCloser adapts pgxpool's void Close to the core.Closer interface.
type poolCloser struct {
	pool *pgxpool.Pool
}

func (c poolCloser) Close() error {
	c.pool.Close()
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log
// level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: false,
	})
	return slog.New(handler)
}
