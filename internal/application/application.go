// Package application wires configuration, storage, metrics and the order
// service together for the server and CLI binaries.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/ordersync/internal/config"
	"github.com/JonMunkholm/ordersync/internal/core"
	"github.com/JonMunkholm/ordersync/internal/core/sources"
	"github.com/JonMunkholm/ordersync/internal/metrics"
	"github.com/JonMunkholm/ordersync/internal/store"
)

// App holds the long-lived components of a running process.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   core.OrderStore
	Service *core.Service
	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Collector
}

// New loads header overrides, opens the store and builds the service.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Import.HeaderMapFile != "" {
		if err := sources.LoadOverrides(cfg.Import.HeaderMapFile); err != nil {
			return nil, fmt.Errorf("load header map: %w", err)
		}
		logger.Info("header overrides loaded", "file", cfg.Import.HeaderMapFile)
	}
	if _, ok := core.GetSource(cfg.Import.DefaultSource); !ok {
		return nil, fmt.Errorf("default source %q: %w", cfg.Import.DefaultSource, core.ErrUnknownSource)
	}

	st, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	opts := []core.ServiceOption{core.WithServiceLogger(logger)}
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New(cfg.Metrics.Namespace)
		opts = append(opts, core.WithServiceObserver(collector))
	}

	svc := core.NewService(st, core.ServiceConfig{
		MaxFileSize:   cfg.Import.MaxFileSize,
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWaitTime:   cfg.Import.MaxWaitTime,
		ImportTimeout: cfg.Import.Timeout,
		DefaultSource: cfg.Import.DefaultSource,
	}, opts...)

	if collector != nil {
		collector.WatchImportLimiter(svc.ImportLimiterStatus)
	}

	logger.Info("sources registered", "count", len(core.AllSources()), "default", cfg.Import.DefaultSource)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   st,
		Service: svc,
		Metrics: collector,
	}, nil
}

// InboxConfig returns the inbox settings, or false when no inbox is set.
func (a *App) InboxConfig() (core.InboxConfig, bool) {
	if a.Config.Import.InboxDir == "" {
		return core.InboxConfig{}, false
	}
	return core.InboxConfig{
		Dir:         a.Config.Import.InboxDir,
		Interval:    a.Config.Import.InboxInterval,
		Source:      a.Config.Import.DefaultSource,
		Parallelism: a.Config.Import.InboxParallelism,
	}, true
}

// Close releases the store.
func (a *App) Close() {
	a.Store.Close()
}
