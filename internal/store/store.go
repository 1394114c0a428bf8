// Package store opens the configured order store.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/ordersync/internal/config"
	"github.com/JonMunkholm/ordersync/internal/core"
	"github.com/JonMunkholm/ordersync/internal/store/postgres"
	"github.com/JonMunkholm/ordersync/internal/store/sqlite"
)

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (core.OrderStore, error) {
	switch cfg.Driver {
	case "postgres", "":
		s, err := postgres.Open(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to postgres", "max_conns", cfg.MaxConns, "auto_migrate", cfg.AutoMigrate)
		return s, nil
	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		logger.Info("opened sqlite database", "path", cfg.URL)
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
