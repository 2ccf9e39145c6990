package benchmark

import (
	"fmt"
	"sort"
)

const mib = 1024 * 1024

// Rate returns the throughput of the record in MiB/s. Records with no
// elapsed time have no meaningful rate and report zero.
func (r Record) Rate() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Bytes) * float64(r.Loops) / r.Elapsed / mib
}

// Point identifies a measurement independently of loop count and variant.
type Point struct {
	Function  string
	Alignment int
	Bytes     int
}

type Comparison struct {
	Point
	Variant  string
	Baseline Record
	Curr     Record
	RateDiff float64 // Percentage change against the baseline
}

// Compare matches every record against the baseline variant's record at the
// same function, alignment and size. Points the baseline never measured are
// left out. When a point was measured with several loop counts the last
// record wins.
func Compare(records []Record, baseline string) []Comparison {
	base := make(map[Point]Record)
	for _, r := range records {
		if r.Variant == baseline {
			base[pointOf(r)] = r
		}
	}

	type variantPoint struct {
		variant string
		point   Point
	}
	latest := make(map[variantPoint]Record)
	var order []variantPoint
	for _, r := range records {
		if r.Variant == baseline {
			continue
		}
		id := variantPoint{variant: r.Variant, point: pointOf(r)}
		if _, ok := latest[id]; !ok {
			order = append(order, id)
		}
		latest[id] = r
	}

	var comparisons []Comparison
	for _, id := range order {
		c := latest[id]
		b, ok := base[pointOf(c)]
		if !ok {
			continue
		}
		comp := Comparison{
			Point:    pointOf(c),
			Variant:  c.Variant,
			Baseline: b,
			Curr:     c,
		}
		if br := b.Rate(); br > 0 {
			comp.RateDiff = (c.Rate() - br) / br * 100
		}
		comparisons = append(comparisons, comp)
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		a, b := comparisons[i], comparisons[j]
		if a.Function != b.Function {
			return a.Function < b.Function
		}
		if a.Alignment != b.Alignment {
			return a.Alignment < b.Alignment
		}
		if a.Bytes != b.Bytes {
			return a.Bytes < b.Bytes
		}
		return a.Variant < b.Variant
	})
	return comparisons
}

func pointOf(r Record) Point {
	return Point{Function: r.Function, Alignment: r.Alignment, Bytes: r.Bytes}
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s/%d/%d %s: %+.2f%% vs %s", c.Function, c.Alignment, c.Bytes, c.Variant, c.RateDiff, c.Baseline.Variant)
}
