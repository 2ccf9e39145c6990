package planner

import "sort"

// DefaultFunctions is the routine set most variants provide.
var DefaultFunctions = []string{"memcpy", "memset", "memchr", "strchr", "strcmp", "strcpy", "strlen"}

// Entry lists the functions one variant supports.
type Entry struct {
	Variant   string   `mapstructure:"variant" yaml:"variant"`
	Functions []string `mapstructure:"functions" yaml:"functions"`
}

// Capabilities is the variant capability table. Entries are kept in order so
// that function discovery is the same on every run.
type Capabilities struct {
	Default string
	Entries []Entry
}

// DefaultCapabilities returns the table for the stock set of library builds.
func DefaultCapabilities() Capabilities {
	with := func(extra ...string) []string {
		return append(extra, DefaultFunctions...)
	}
	return Capabilities{
		Default: "this",
		Entries: []Entry{
			{Variant: "this", Functions: with("bounce")},
			{Variant: "bionic", Functions: with()},
			{Variant: "glibc", Functions: with()},
			{Variant: "newlib", Functions: with()},
			{Variant: "newlib-xscale", Functions: with()},
			{Variant: "plain", Functions: []string{"memset", "memcpy", "strcmp", "strcpy"}},
			{Variant: "csl", Functions: []string{"memcpy", "memset"}},
		},
	}
}

func (c Capabilities) lookup(variant string) (Entry, bool) {
	for _, e := range c.Entries {
		if e.Variant == variant {
			return e, true
		}
	}
	return Entry{}, false
}

// Has reports whether the table has an entry for variant.
func (c Capabilities) Has(variant string) bool {
	_, ok := c.lookup(variant)
	return ok
}

// Supports reports whether variant provides function.
func (c Capabilities) Supports(variant, function string) bool {
	e, ok := c.lookup(variant)
	if !ok {
		return false
	}
	for _, f := range e.Functions {
		if f == function {
			return true
		}
	}
	return false
}

// Functions returns every function in the table: the default variant's list
// first, followed by functions first seen in later entries.
func (c Capabilities) Functions() []string {
	seen := make(map[string]bool)
	var all []string
	add := func(fns []string) {
		for _, f := range fns {
			if !seen[f] {
				seen[f] = true
				all = append(all, f)
			}
		}
	}

	if e, ok := c.lookup(c.Default); ok {
		add(e.Functions)
	}
	for _, e := range c.Entries {
		add(e.Functions)
	}
	return all
}

// Variants returns the variant names, sorted.
func (c Capabilities) Variants() []string {
	names := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		names = append(names, e.Variant)
	}
	sort.Strings(names)
	return names
}
