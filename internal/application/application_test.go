package application

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ordersync/internal/config"
	"github.com/JonMunkholm/ordersync/internal/core"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", URL: filepath.Join(t.TempDir(), "orders.db")},
		Import: config.ImportConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 1,
			DefaultSource: "dropshipping_es",
		},
		Metrics: config.MetricsConfig{Enabled: true, Namespace: "apptest"},
	}
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNew(t *testing.T) {
	cfg := sqliteConfig(t)
	headers := filepath.Join(t.TempDir(), "headers.yaml")
	require.NoError(t, os.WriteFile(headers, []byte(
		"sources:\n  dropshipping_es:\n    headers:\n      \"Pedido No\": external_id\n"), 0o600))
	cfg.Import.HeaderMapFile = headers

	app, err := New(context.Background(), cfg, quiet)
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Metrics)

	tenant := uuid.New()
	report, err := app.Service.ImportCSV(context.Background(), tenant, "", "x.csv",
		strings.NewReader("Pedido No,ESTATUS\nP-1,Entregado\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Result.Created, "override alias resolves the id column")

	families, err := app.Metrics.Registry().Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "apptest_imports_active")
	assert.Contains(t, names, "apptest_imports_total")

	_, ok := app.InboxConfig()
	assert.False(t, ok)
}

func TestNew_Errors(t *testing.T) {
	t.Run("unknown default source", func(t *testing.T) {
		cfg := sqliteConfig(t)
		cfg.Import.DefaultSource = "nope"
		_, err := New(context.Background(), cfg, quiet)
		assert.ErrorIs(t, err, core.ErrUnknownSource)
	})

	t.Run("missing header map", func(t *testing.T) {
		cfg := sqliteConfig(t)
		cfg.Import.HeaderMapFile = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := New(context.Background(), cfg, quiet)
		assert.ErrorContains(t, err, "load header map")
	})

	t.Run("unsupported driver", func(t *testing.T) {
		cfg := sqliteConfig(t)
		cfg.Database.Driver = "oracle"
		_, err := New(context.Background(), cfg, quiet)
		assert.Error(t, err)
	})
}

func TestInboxConfig(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Metrics.Enabled = false
	cfg.Import.InboxDir = t.TempDir()
	cfg.Import.InboxParallelism = 3

	app, err := New(context.Background(), cfg, quiet)
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Metrics)
	inbox, ok := app.InboxConfig()
	require.True(t, ok)
	assert.Equal(t, cfg.Import.InboxDir, inbox.Dir)
	assert.Equal(t, 3, inbox.Parallelism)
	assert.Equal(t, "dropshipping_es", inbox.Source)
}
