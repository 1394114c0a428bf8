package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ordersync/internal/store"
	"github.com/JonMunkholm/ordersync/internal/store/postgres"
)

func newMigrateCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Apply, roll back or inspect the database schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}
			return runMigrate(cmd, g, action)
		},
	}
	return cmd
}

func runMigrate(cmd *cobra.Command, g *globalOptions, action string) error {
	cfg, logger, err := g.load(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if cfg.Database.Driver == "sqlite" {
		// The SQLite schema is created idempotently on open and has no versions.
		if action != "up" {
			return fmt.Errorf("migrate %s: not supported for sqlite", action)
		}
		st, err := store.Open(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		_, err = fmt.Fprintln(out, "schema ready")
		return err
	}

	dbCfg := cfg.Database
	dbCfg.MaxConns, dbCfg.MinConns = 2, 0
	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		return err
	}
	m, err := postgres.NewMigrator(pool, logger)
	if err != nil {
		pool.Close()
		return err
	}
	defer func() {
		_ = m.Close()
		pool.Close()
	}()

	switch action {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}
	if err != nil {
		return err
	}
	return printVersion(out, m)
}

type versioner interface {
	Version() (uint, bool, error)
}

func printVersion(w io.Writer, m versioner) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "version %d (dirty: %t)\n", version, dirty)
	return err
}
