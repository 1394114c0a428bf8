package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ordersync/internal/core"
)

const tenant = "6f1c1b0e-3c55-4d55-9a7e-2b1f0c9d8e71"

const export = "ID;ESTATUS;VALOR TOTAL;VALOR FLETE;TRANSPORTADORA;DEPARTAMENTO DESTINO\n" +
	"A1;ENTREGADO;100.000;10.000;TCC;Antioquia\n" +
	"A2;DEVOLUCION;80.000;12.000;TCC;Cundinamarca\n" +
	"A3;EN TRANSITO;50.000;8.000;Envia;Antioquia\n"

// setupEnv points the CLI at a fresh SQLite database and returns an export
// file path.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(dir, "orders.db"))
	t.Setenv("LOG_LEVEL", "error")

	path := filepath.Join(dir, "pedidos.csv")
	require.NoError(t, os.WriteFile(path, []byte(export), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestSyncThenAnalyze(t *testing.T) {
	path := setupEnv(t)

	out, err := execute(t, "sync", "--tenant", tenant, "--file", path)
	require.NoError(t, err)

	var report core.ImportReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.Result.Created)
	assert.Empty(t, report.Result.Details)

	out, err = execute(t, "sync", "--tenant", tenant, "--file", path, "--details")
	require.NoError(t, err)
	report = core.ImportReport{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.Result.Unchanged)
	assert.Len(t, report.Result.Details, 3)

	out, err = execute(t, "analyze", "--tenant", tenant, "--carrier", "tcc")
	require.NoError(t, err)
	var res core.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.TotalOrders)
	assert.Equal(t, 1, res.ConfirmedOrders)
	assert.Equal(t, 1, res.ReturnedOrders)
}

func TestAnalyzeFile(t *testing.T) {
	path := setupEnv(t)

	out, err := execute(t, "analyze", "--file", path, "--state", "antioquia")
	require.NoError(t, err)

	var res core.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.TotalOrders)
	assert.Equal(t, 1, res.InProgressOrders)
}

func TestCommandErrors(t *testing.T) {
	path := setupEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "sync without tenant", args: []string{"sync", "--file", path}},
		{name: "sync bad tenant", args: []string{"sync", "--tenant", "acme", "--file", path}},
		{name: "sync missing file", args: []string{"sync", "--tenant", tenant, "--file", path + ".missing"}},
		{name: "sync unknown source", args: []string{"sync", "--tenant", tenant, "--file", path, "--source", "shopify"}},
		{name: "analyze needs a target", args: []string{"analyze"}},
		{name: "analyze tenant and file", args: []string{"analyze", "--tenant", tenant, "--file", path}},
		{name: "analyze bad status", args: []string{"analyze", "--tenant", tenant, "--status", "lost"}},
		{name: "migrate unknown action", args: []string{"migrate", "sideways"}},
		{name: "migrate down on sqlite", args: []string{"migrate", "down"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestMigrateSQLite(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema ready\n", out)
}
