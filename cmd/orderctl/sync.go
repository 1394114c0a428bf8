package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type syncOptions struct {
	tenant  string
	files   []string
	source  string
	details bool
}

func newSyncCmd(g *globalOptions) *cobra.Command {
	var opts syncOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import order export files for a tenant",
		Long: "Reads each CSV export, normalizes its rows and creates or updates the\n" +
			"tenant's orders. Re-running the same file leaves every order unchanged.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.tenant, "tenant", "", "Tenant UUID (required)")
	cmd.Flags().StringSliceVar(&opts.files, "file", nil, "CSV export to import, repeatable (required)")
	cmd.Flags().StringVar(&opts.source, "source", "", "Source key (default: IMPORT_DEFAULT_SOURCE)")
	cmd.Flags().BoolVar(&opts.details, "details", false, "Include per-row outcomes in the output")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSync(cmd *cobra.Command, g *globalOptions, opts syncOptions) error {
	tenantID, err := parseTenant(opts.tenant)
	if err != nil {
		return err
	}

	app, err := g.open(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	for _, path := range opts.files {
		report, err := app.Service.ImportFile(cmd.Context(), tenantID, opts.source, path)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		if !opts.details {
			report.Result.Details = nil
		}
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	}
	return nil
}
