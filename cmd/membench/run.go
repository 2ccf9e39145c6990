package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"membench/internal/benchmark"
	"membench/internal/cache"
	"membench/internal/config"
	"membench/internal/driver"
	"membench/internal/metrics"
	"membench/internal/notify"
	"membench/internal/planner"
	"membench/internal/telemetry"
	"membench/internal/ui"

	"github.com/spf13/cobra"
)

// Factories allow mocking in tests.
var (
	newRunnerFunc = func(prefix string, stderr io.Writer) benchmark.Runner {
		r := benchmark.NewExecRunner(prefix)
		r.Stderr = stderr
		return r
	}
	openBackendFunc = cache.Open
)

type runOptions struct {
	variants   []string
	alignments []int
	top        int
	quiet      bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sweep every planned group and print one line per measurement",
		Long: `Runs the planned sweep. Measurements go to stdout, one line each, in
plan order; progress and logs go to stderr. The cache is saved before exit
even when a measurement fails, so a rerun picks up where this one stopped.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.variants, "variant", nil, "Variants to sweep (default: sweep.variants or the whole table)")
	cmd.Flags().IntSliceVar(&opts.alignments, "alignment", nil, "Alignments to sweep (default: sweep.alignments)")
	cmd.Flags().IntVar(&opts.top, "top", 0, "Largest block size (default: sweep.top)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not show progress")
	return cmd
}

func init() {
	rootCmd.AddCommand(newRunCmd())
}

// planFor applies command line overrides to the configured sweep.
func planFor(cfg *config.Config, variants []string, alignments []int, top int) driver.Plan {
	p := driver.Plan{
		Capabilities: cfg.CapabilityTable(),
		Variants:     cfg.SweepVariants(),
		Alignments:   cfg.Sweep.Alignments,
	}
	if len(variants) > 0 {
		p.Variants = variants
	}
	if len(alignments) > 0 {
		p.Alignments = alignments
	}
	if top <= 0 {
		top = cfg.Sweep.Top
	}
	p.Sizes = planner.Sizes(top, cfg.Sweep.Steps...)
	return p
}

func runSweep(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backend, err := openBackendFunc(cfg.BackendConfig())
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer backend.Close()

	m := metrics.NewMetrics()
	if cfg.Metrics.Addr != "" {
		srv, err := telemetry.StartMetricsServer(cfg.Metrics.Addr, m.Registry)
		if err != nil {
			slog.Warn("Failed to start metrics server", "addr", cfg.Metrics.Addr, "error", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := &driver.Driver{
		Cache:    cache.New(backend, cache.WithObserver(m), cache.WithLogger(slog.Default())),
		Runner:   m.InstrumentRunner(newRunnerFunc(cfg.BuildPrefix, cmd.ErrOrStderr())),
		Plan:     planFor(cfg, opts.variants, opts.alignments, opts.top),
		Budget:   cfg.Calibration.Budget,
		Target:   cfg.Calibration.Target,
		Out:      cmd.OutOrStdout(),
		Observer: m,
		Logger:   slog.Default(),
	}
	if n := notify.FromWebhooks(cfg.Notifications.Slack.WebhookURL, cfg.Notifications.Discord.WebhookURL); n != nil {
		d.Notifier = n
	}
	if !opts.quiet {
		d.Progress = ui.NewProgress(cmd.ErrOrStderr())
	}

	sum, err := d.Run(ctx)
	ui.RenderSummary(cmd.ErrOrStderr(), sum.String(), err != nil)
	return err
}
