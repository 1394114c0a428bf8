package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/ordersync/internal/application"
	"github.com/JonMunkholm/ordersync/internal/config"
	"github.com/JonMunkholm/ordersync/internal/logging"
	"github.com/JonMunkholm/ordersync/internal/web"
)

func main() {
	// Real environment variables win over .env entries
	cfg, err := config.LoadWithDotenv(".env")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"metrics_enabled", cfg.Metrics.Enabled,
	)
	logger.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	app, err := application.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server := web.NewServer(app.Service, cfg, app.Metrics)

	// Background jobs stop when the process starts shutting down
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()

	if inbox, ok := app.InboxConfig(); ok {
		go app.Service.StartInboxScheduler(jobCtx, inbox)
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting requests, then let running imports finish
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}

		status := app.Service.ImportLimiterStatus()
		if status.Active > 0 {
			logger.Info("waiting for imports to complete", "active", status.Active)
			if err := app.Service.WaitForImports(shutdownCtx); err != nil {
				logger.Warn("imports did not complete in time", "error", err)
			} else {
				logger.Info("all imports completed")
			}
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		cancelJobs()
		app.Close()
		os.Exit(1)
	}
	<-done
	logger.Info("server stopped")
}
