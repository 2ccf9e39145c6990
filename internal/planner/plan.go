// Package planner enumerates the (alignment, function, variant) sweep groups
// to measure and the sizes each group covers.
package planner

import "fmt"

// Group is one (variant, function, alignment) combination measured across
// Sizes. Sizes is sorted ascending.
type Group struct {
	Alignment int    `yaml:"alignment"`
	Function  string `yaml:"function"`
	Variant   string `yaml:"variant"`
	Sizes     []int  `yaml:"sizes"`
}

func (g Group) String() string {
	return fmt.Sprintf("%s/%s/align=%d", g.Variant, g.Function, g.Alignment)
}

// Plan fixes an alignment and a function and then runs every supporting
// variant back to back, so that the data comes out grouped for plotting and
// calibration state stays local. Pairs missing from the table are skipped.
func Plan(caps Capabilities, variants []string, alignments []int, sizes []int) []Group {
	sorted := normalize(sizes)
	functions := caps.Functions()

	var groups []Group
	for _, alignment := range alignments {
		for _, function := range functions {
			for _, variant := range variants {
				if !caps.Supports(variant, function) {
					continue
				}
				groups = append(groups, Group{
					Alignment: alignment,
					Function:  function,
					Variant:   variant,
					Sizes:     sorted,
				})
			}
		}
	}
	return groups
}

// Count returns the number of reported measurements in groups.
func Count(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Sizes)
	}
	return n
}
