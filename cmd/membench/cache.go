package main

import (
	"fmt"
	"strconv"

	"membench/internal/cache"
	"membench/internal/report"
	"membench/internal/ui"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the measurement cache",
	}
	cmd.AddCommand(newCacheStatsCmd(), newCacheExportCmd())
	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the cache holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			backend, err := openBackendFunc(cfg.BackendConfig())
			if err != nil {
				return fmt.Errorf("failed to open cache: %w", err)
			}
			defer backend.Close()

			c := cache.New(backend)
			res := c.Load(cmd.Context())
			records := c.Records()

			rows := [][2]string{
				{"backend", cfg.Cache.Type},
				{"location", cfg.BackendConfig().ResolvedLocation()},
				{"state", string(res.Outcome)},
				{"records", strconv.Itoa(c.Len())},
				{"skipped", strconv.Itoa(res.Skipped)},
				{"variants", fmt.Sprint(report.Variants(records, cfg.Sweep.DefaultVariant))},
				{"functions", fmt.Sprint(report.Functions(records))},
			}
			if res.Err != nil && res.Outcome == cache.OutcomeUnreadable {
				rows = append(rows, [2]string{"error", res.Err.Error()})
			}
			ui.KeyValue(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}

func newCacheExportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every cached record to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closer, err := openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer closer()

			out := cmd.OutOrStdout()
			switch format {
			case "lines":
				for _, r := range c.Records() {
					fmt.Fprintln(out, r.Line)
				}
				return nil
			case "csv":
				return report.WriteCSV(out, c.Records())
			default:
				return fmt.Errorf("unknown format %q (want lines or csv)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "lines", "Output format: lines or csv")
	return cmd
}

func init() {
	rootCmd.AddCommand(newCacheCmd())
}
