package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ordersync/internal/application"
	"github.com/JonMunkholm/ordersync/internal/config"
	"github.com/JonMunkholm/ordersync/internal/logging"
)

type globalOptions struct {
	envFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:           "orderctl",
		Short:         "Reconcile order exports and report profitability",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file read before the environment")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL")

	cmd.AddCommand(
		newSyncCmd(&opts),
		newAnalyzeCmd(&opts),
		newMigrateCmd(&opts),
	)
	return cmd
}

// load reads configuration and builds a stderr logger, keeping stdout for
// command output.
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadWithDotenv(o.envFile)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Logging.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger := logging.New(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// open loads configuration and builds the application.
func (o *globalOptions) open(cmd *cobra.Command) (*application.App, error) {
	cfg, logger, err := o.load(cmd)
	if err != nil {
		return nil, err
	}
	// The CLI has no scrape endpoint.
	cfg.Metrics.Enabled = false
	return application.New(cmd.Context(), cfg, logger)
}

func parseTenant(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid --tenant %q", raw)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
