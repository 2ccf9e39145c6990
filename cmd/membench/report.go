package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"membench/internal/benchmark"
	"membench/internal/cache"
	"membench/internal/report"

	"github.com/spf13/cobra"
)

type reportOptions struct {
	format    string
	prefer    string
	baseline  string
	style     string
	width     int
	fromCache bool
}

func newReportCmd() *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report [dataset]",
		Short: "Summarise measured throughput per function and alignment",
		Long: `Reads measurement lines from the dataset file, stdin, or the cache with
--from-cache, and prints rates in MiB/s as a rendered markdown table, raw
markdown or CSV. --compare renders every variant against a baseline.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := reportRecords(cmd, args, opts.fromCache)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no measurements to report")
			}

			out := cmd.OutOrStdout()
			if opts.format == "csv" {
				return report.WriteCSV(out, records)
			}

			var md string
			if opts.baseline != "" {
				md = report.CompareMarkdown(records, opts.baseline)
			} else {
				md = report.Document(records, opts.prefer)
			}
			switch opts.format {
			case "markdown":
				_, err = fmt.Fprint(out, md)
				return err
			case "pretty":
				_, err = fmt.Fprint(out, report.Render(md, opts.style, opts.width))
				return err
			default:
				return fmt.Errorf("unknown format %q (want pretty, markdown or csv)", opts.format)
			}
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "pretty", "Output format: pretty, markdown or csv")
	cmd.Flags().StringVar(&opts.prefer, "prefer", "this", "Variant listed first in every table")
	cmd.Flags().StringVar(&opts.baseline, "compare", "", "Compare every variant against this baseline variant")
	cmd.Flags().StringVar(&opts.style, "style", "", "glamour style (default: detect from terminal)")
	cmd.Flags().IntVar(&opts.width, "width", 100, "Word wrap width for pretty output")
	cmd.Flags().BoolVar(&opts.fromCache, "from-cache", false, "Report every record in the measurement cache")
	return cmd
}

func init() {
	rootCmd.AddCommand(newReportCmd())
}

func reportRecords(cmd *cobra.Command, args []string, fromCache bool) ([]benchmark.Record, error) {
	if fromCache {
		c, closer, err := openCache(cmd.Context())
		if err != nil {
			return nil, err
		}
		defer closer()
		return c.Records(), nil
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset: %w", err)
		}
		defer f.Close()
		in = f
	}
	records, skipped, err := report.Parse(in)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: skipped %d malformed lines\n", skipped)
	}
	return records, nil
}

// openCache opens and loads the configured cache. An unreadable store is an
// error here, unlike in run.
func openCache(ctx context.Context) (*cache.Cache, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	backend, err := openBackendFunc(cfg.BackendConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	c := cache.New(backend)
	if res := c.Load(ctx); res.Outcome == cache.OutcomeUnreadable {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to read cache: %w", res.Err)
	}
	return c, func() { backend.Close() }, nil
}
