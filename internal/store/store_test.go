package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ordersync/internal/config"
)

func TestOpen(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("sqlite file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "orders.db")
		s, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", URL: path}, logger)
		require.NoError(t, err)
		defer s.Close()

		orders, err := s.ListByTenant(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql", URL: "x"}, logger)
		assert.ErrorContains(t, err, "unsupported database driver")
	})
}
