package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/oesreport/internal/config"
	"github.com/JonMunkholm/oesreport/internal/core"
	"github.com/JonMunkholm/oesreport/internal/history"
	"github.com/JonMunkholm/oesreport/internal/ingest"
	"github.com/JonMunkholm/oesreport/internal/logging"
	"github.com/JonMunkholm/oesreport/internal/metrics"
	"github.com/JonMunkholm/oesreport/internal/schema"
	"github.com/JonMunkholm/oesreport/internal/web"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())
	metrics.BuildInfo.WithLabelValues(version, commit).Set(1)

	doc, err := loadSchema(cfg.Report.SchemaPath)
	if err != nil {
		slog.Error("failed to load schema", "path", cfg.Report.SchemaPath, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, closeStore, err := openHistory(ctx, cfg)
	if err != nil {
		slog.Error("failed to open run history", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Create service with config
	service, err := core.NewService(core.ServiceConfig{
		Parse: ingest.Parser(ingest.Options{
			DynamicTyping: cfg.Report.DynamicTyping,
			MaxBytes:      cfg.Report.MaxFileSize,
		}),
		Schema:  doc,
		History: store,
		Limiter: core.NewRunLimiter(cfg.Report.MaxConcurrent, cfg.Report.MaxWaitTime),
		Timeout: cfg.Report.Timeout,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)
	go history.StartPruneScheduler(jobCtx, store, history.PruneConfig{
		Retention: cfg.History.Retention,
		Interval:  cfg.History.PruneInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting requests, then wait for runs already started
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for report runs to complete", "active", status.Active)
			if err := service.Shutdown(shutdownCtx); err != nil {
				slog.Warn("report runs did not complete in time", "error", err)
			} else {
				slog.Info("all report runs completed")
			}
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr(), "version", version)
	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// loadSchema reads the configured schema file, or the built-in schema when
// path is empty.
func loadSchema(path string) (*schema.Document, error) {
	if path == "" {
		return schema.Default()
	}
	return schema.LoadFile(path)
}

// openHistory connects to PostgreSQL when a database URL is configured and
// falls back to an in-memory ring otherwise.
func openHistory(ctx context.Context, cfg *config.Config) (history.Store, func(), error) {
	if cfg.Database.URL == "" {
		slog.Info("no database configured, keeping run history in memory", "capacity", cfg.History.Capacity)
		return history.NewMemoryStore(cfg.History.Capacity), func() {}, nil
	}

	if cfg.Database.RunMigrations {
		if err := history.Migrate(cfg.Database.URL); err != nil {
			return nil, nil, err
		}
	}

	pool, err := history.Connect(ctx, cfg.Database.URL, history.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return nil, nil, err
	}
	slog.Info("connected to history database", "max_conns", cfg.Database.MaxConns)
	return history.NewPostgresStore(pool), pool.Close, nil
}
