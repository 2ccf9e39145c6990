package planner

import (
	"math"
	"sort"
)

// Defaults for the size sweep: every power of two up to 512 KiB plus the
// intermediate powers of 1.4.
const DefaultTop = 512 * 1024

var (
	DefaultSteps      = []float64{2.0, 1.4}
	DefaultAlignments = []int{8, 16, 4, 1, 2, 32}
)

// Sizes returns the sorted, deduplicated union of step^0 .. step^n for each
// step, where n = round(ln(top)/ln(step)). Fixing n by rounding keeps the
// count stable when step^n lands a hair either side of top.
func Sizes(top int, steps ...float64) []int {
	seen := map[int]bool{1: true}
	if top >= 1 {
		for _, step := range steps {
			if step <= 1 || math.IsNaN(step) || math.IsInf(step, 0) {
				continue
			}
			n := int(math.Round(math.Log(float64(top)) / math.Log(step)))
			for x := 0; x <= n; x++ {
				seen[int(math.Pow(step, float64(x)))] = true
			}
		}
	}

	sizes := make([]int, 0, len(seen))
	for s := range seen {
		sizes = append(sizes, s)
	}
	sort.Ints(sizes)
	return sizes
}

// normalize returns a sorted copy of sizes without duplicates.
func normalize(sizes []int) []int {
	out := append([]int(nil), sizes...)
	sort.Ints(out)
	j := 0
	for i, s := range out {
		if i > 0 && s == out[j-1] {
			continue
		}
		out[j] = s
		j++
	}
	return out[:j]
}
