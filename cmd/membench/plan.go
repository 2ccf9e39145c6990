package main

import (
	"fmt"
	"text/tabwriter"

	"membench/internal/planner"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type planOptions struct {
	runOptions
	format string
}

func newPlanCmd() *cobra.Command {
	opts := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the sweep matrix without running anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p := planFor(cfg, opts.variants, opts.alignments, opts.top)
			groups := p.Groups()

			out := cmd.OutOrStdout()
			switch opts.format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(groups); err != nil {
					return fmt.Errorf("failed to encode plan: %w", err)
				}
				return enc.Close()
			case "table":
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ALIGN\tFUNCTION\tVARIANT\tSIZES")
				for _, g := range groups {
					fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", g.Alignment, g.Function, g.Variant, len(g.Sizes))
				}
				w.Flush()
				fmt.Fprintf(out, "\n%d groups, %d points, sizes 1..%d\n", len(groups), planner.Count(groups), p.Sizes[len(p.Sizes)-1])
				return nil
			default:
				return fmt.Errorf("unknown format %q (want table or yaml)", opts.format)
			}
		},
	}
	cmd.Flags().StringSliceVar(&opts.variants, "variant", nil, "Variants to sweep")
	cmd.Flags().IntSliceVar(&opts.alignments, "alignment", nil, "Alignments to sweep")
	cmd.Flags().IntVar(&opts.top, "top", 0, "Largest block size")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "Output format: table or yaml")
	return cmd
}

func init() {
	rootCmd.AddCommand(newPlanCmd())
}
