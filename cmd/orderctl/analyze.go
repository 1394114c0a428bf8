package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ordersync/internal/config"
	"github.com/JonMunkholm/ordersync/internal/core"
	"github.com/JonMunkholm/ordersync/internal/core/sources"
)

type analyzeOptions struct {
	tenant string
	file   string
	source string
	filter core.Filter
	status string
}

func newAnalyzeCmd(g *globalOptions) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print the profitability analysis for a tenant or an export file",
		Long: "With --tenant, analyzes the tenant's stored orders. With --file, analyzes\n" +
			"the export directly without touching the database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.tenant, "tenant", "", "Tenant UUID")
	cmd.Flags().StringVar(&opts.file, "file", "", "CSV export to analyze without persisting")
	cmd.Flags().StringVar(&opts.source, "source", "", "Source key for --file (default: IMPORT_DEFAULT_SOURCE)")
	cmd.Flags().StringVar(&opts.filter.Carrier, "carrier", "", "Only orders shipped by this carrier")
	cmd.Flags().StringVar(&opts.status, "status", "", "Only orders in this canonical status")
	cmd.Flags().StringVar(&opts.filter.State, "state", "", "Only orders to this destination state")
	cmd.Flags().StringVar(&opts.filter.From, "from", "", "Earliest order date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.filter.To, "to", "", "Latest order date, YYYY-MM-DD")
	cmd.MarkFlagsMutuallyExclusive("tenant", "file")
	cmd.MarkFlagsOneRequired("tenant", "file")

	return cmd
}

func runAnalyze(cmd *cobra.Command, g *globalOptions, opts analyzeOptions) error {
	if opts.status != "" {
		st, ok := core.ParseCanonicalStatus(opts.status)
		if !ok {
			return fmt.Errorf("invalid --status %q", opts.status)
		}
		opts.filter.Status = st
	}

	if opts.file != "" {
		cfg, _, err := g.load(cmd)
		if err != nil {
			return err
		}
		res, err := analyzeFile(cfg, opts)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	}

	tenantID, err := parseTenant(opts.tenant)
	if err != nil {
		return err
	}
	app, err := g.open(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Service.Analyze(cmd.Context(), tenantID, opts.filter)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

// analyzeFile reads an export and analyzes it in memory.
func analyzeFile(cfg *config.Config, opts analyzeOptions) (core.AnalysisResult, error) {
	if cfg.Import.HeaderMapFile != "" {
		if err := sources.LoadOverrides(cfg.Import.HeaderMapFile); err != nil {
			return core.AnalysisResult{}, err
		}
	}
	key := opts.source
	if key == "" {
		key = cfg.Import.DefaultSource
	}
	def, ok := core.GetSource(key)
	if !ok {
		return core.AnalysisResult{}, fmt.Errorf("source %q: %w", key, core.ErrUnknownSource)
	}

	f, err := os.Open(opts.file)
	if err != nil {
		return core.AnalysisResult{}, err
	}
	defer f.Close()

	rows, err := core.ReadCSV(core.DecodeText(f), def.Headers, def.Delimiter)
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("read %s: %w", opts.file, err)
	}
	records := core.Normalize(rows, def.Headers)
	orders := make([]core.Order, 0, len(records))
	for _, r := range records {
		orders = append(orders, core.Resolve(r))
	}
	return core.Analyze(core.FilterOrders(orders, opts.filter)), nil
}
