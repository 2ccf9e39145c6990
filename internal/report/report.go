// Package report turns a measurement dataset into per-function rate series,
// CSV exports and markdown tables.
package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"membench/internal/benchmark"
)

// StringCap is the largest size plotted for str* functions. The harness pads
// strings out to 16 KiB; anything past that is an early match.
const StringCap = 16384

// Parse reads dataset lines from r. Lines that do not parse are counted and
// skipped.
func Parse(r io.Reader) ([]benchmark.Record, int, error) {
	var (
		records []benchmark.Record
		skipped int
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rec, err := benchmark.ParseRecord(line)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, fmt.Errorf("reading dataset: %w", err)
	}
	return records, skipped, nil
}

// Variants returns the distinct variants in sorted order, with prefer first
// when it is present.
func Variants(records []benchmark.Record, prefer string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.Variant] {
			seen[r.Variant] = true
			out = append(out, r.Variant)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i] == prefer) != (out[j] == prefer) {
			return out[i] == prefer
		}
		return out[i] < out[j]
	})
	return out
}

// Functions returns the distinct functions in sorted order.
func Functions(records []benchmark.Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.Function] {
			seen[r.Function] = true
			out = append(out, r.Function)
		}
	}
	sort.Strings(out)
	return out
}

// Alignments returns the distinct alignments in ascending order.
func Alignments(records []benchmark.Record) []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range records {
		if !seen[r.Alignment] {
			seen[r.Alignment] = true
			out = append(out, r.Alignment)
		}
	}
	sort.Ints(out)
	return out
}

// Point is one plotted measurement.
type Point struct {
	Bytes int
	Rate  float64 // MiB/s
}

// Series holds one variant's points for a function and alignment, sorted by
// size.
type Series struct {
	Variant string
	Points  []Point
}

// SizeCap returns the largest size worth plotting for function.
func SizeCap(function string) int {
	if strings.Contains(function, "str") {
		return StringCap
	}
	return math.MaxInt32
}

// SeriesFor builds one series per variant for function at alignment, with
// prefer first. Variants without points are left out. When the same size was
// measured more than once the last record wins.
func SeriesFor(records []benchmark.Record, function string, alignment int, prefer string) []Series {
	top := SizeCap(function)
	var out []Series
	for _, v := range Variants(records, prefer) {
		bySize := make(map[int]float64)
		for _, r := range records {
			if r.Variant != v || r.Function != function || r.Alignment != alignment || r.Bytes > top {
				continue
			}
			bySize[r.Bytes] = r.Rate()
		}
		if len(bySize) == 0 {
			continue
		}
		s := Series{Variant: v}
		for b, rate := range bySize {
			s.Points = append(s.Points, Point{Bytes: b, Rate: rate})
		}
		sort.Slice(s.Points, func(i, j int) bool { return s.Points[i].Bytes < s.Points[j].Bytes })
		out = append(out, s)
	}
	return out
}

// PrettyKB formats a size as bytes below 1 KiB and as kilobytes above.
func PrettyKB(v int) string {
	if v < 1024 {
		return fmt.Sprintf("%d", v)
	}
	if v%1024 == 0 {
		return fmt.Sprintf("%d k", v/1024)
	}
	return fmt.Sprintf("%.1f k", float64(v)/1024)
}

// Ticks returns the powers of two from 1 up to the power nearest top, the
// axis positions of a log-scale size plot.
func Ticks(top int) []int {
	if top < 1 {
		return nil
	}
	power := int(math.Round(math.Log2(float64(top))))
	ticks := make([]int, 0, power+1)
	for x := 0; x <= power; x++ {
		ticks = append(ticks, 1<<x)
	}
	return ticks
}
