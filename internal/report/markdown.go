package report

import (
	"fmt"
	"sort"
	"strings"

	"membench/internal/benchmark"

	"github.com/charmbracelet/glamour"
)

// Markdown renders the series of one function and alignment as a table with
// one row per size and one rate column per variant.
func Markdown(function string, alignment int, series []Series) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s of %d byte aligned blocks\n\n", function, alignment)
	if len(series) == 0 {
		sb.WriteString("_no measurements_\n")
		return sb.String()
	}

	sb.WriteString("| Size (B) |")
	for _, s := range series {
		fmt.Fprintf(&sb, " %s (MiB/s) |", s.Variant)
	}
	sb.WriteString("\n|---:|")
	for range series {
		sb.WriteString("---:|")
	}
	sb.WriteString("\n")

	rates := make([]map[int]float64, len(series))
	sizes := make(map[int]bool)
	for i, s := range series {
		rates[i] = make(map[int]float64, len(s.Points))
		for _, p := range s.Points {
			rates[i][p.Bytes] = p.Rate
			sizes[p.Bytes] = true
		}
	}
	ordered := make([]int, 0, len(sizes))
	for b := range sizes {
		ordered = append(ordered, b)
	}
	sort.Ints(ordered)

	for _, b := range ordered {
		fmt.Fprintf(&sb, "| %s |", PrettyKB(b))
		for i := range series {
			if rate, ok := rates[i][b]; ok {
				fmt.Fprintf(&sb, " %.1f |", rate)
			} else {
				sb.WriteString(" - |")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Document renders every function and alignment in records, preferred
// variant first in each table.
func Document(records []benchmark.Record, prefer string) string {
	var sb strings.Builder
	sb.WriteString("# Memory function throughput\n\n")
	for _, fn := range Functions(records) {
		for _, a := range Alignments(records) {
			series := SeriesFor(records, fn, a, prefer)
			if len(series) == 0 {
				continue
			}
			sb.WriteString(Markdown(fn, a, series))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// CompareMarkdown renders rate changes against baseline as a table.
func CompareMarkdown(records []benchmark.Record, baseline string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Throughput against %s\n\n", baseline)
	comps := benchmark.Compare(records, baseline)
	if len(comps) == 0 {
		sb.WriteString("_nothing to compare_\n")
		return sb.String()
	}
	sb.WriteString("| Function | Align | Size (B) | Variant | Baseline (MiB/s) | Rate (MiB/s) | Change |\n")
	sb.WriteString("|---|---:|---:|---|---:|---:|---:|\n")
	for _, c := range comps {
		fmt.Fprintf(&sb, "| %s | %d | %s | %s | %.1f | %.1f | %+.2f%% |\n",
			c.Function, c.Alignment, PrettyKB(c.Bytes), c.Variant, c.Baseline.Rate(), c.Curr.Rate(), c.RateDiff)
	}
	return sb.String()
}

// Render formats markdown for the terminal. style is a glamour style name;
// empty selects one from the terminal background. On renderer failure the
// markdown is returned as is.
func Render(markdown, style string, width int) string {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
