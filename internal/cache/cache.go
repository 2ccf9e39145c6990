// Package cache keeps every measurement taken so far, keyed by
// (variant, function, bytes, loops, alignment), and persists them through a
// pluggable Backend so later sessions can skip configurations already
// measured.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"membench/internal/benchmark"
)

// ErrKeyMismatch is returned when an executable reports a measurement for a
// different configuration than the one requested.
var ErrKeyMismatch = errors.New("measurement key mismatch")

// Backend persists raw measurement lines.
type Backend interface {
	// Load returns every stored line. A missing file is reported as an
	// error wrapping fs.ErrNotExist; an empty database returns no lines.
	Load(ctx context.Context) ([]string, error)
	// Save replaces the stored contents with lines.
	Save(ctx context.Context, lines []string) error
	Close() error
}

// Observer is told about every lookup.
type Observer interface {
	CacheLookup(key benchmark.Key, hit bool)
}

// RunFunc produces the raw output line for key.
type RunFunc func(ctx context.Context, key benchmark.Key) (string, error)

// Outcome classifies what Load found.
type Outcome string

const (
	OutcomeLoaded     Outcome = "loaded"
	OutcomeMissing    Outcome = "missing"
	OutcomeUnreadable Outcome = "unreadable"
)

// LoadResult describes the state of the store after Load. Missing and
// unreadable storage both leave the store empty; neither is an error.
type LoadResult struct {
	Outcome Outcome
	Loaded  int
	Skipped int
	Err     error
}

// Option configures a Cache.
type Option func(*Cache)

// WithObserver reports lookups to o.
func WithObserver(o Observer) Option {
	return func(c *Cache) { c.observer = o }
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// Cache is the in-process record store. It is not safe for concurrent use;
// measurements are taken one at a time.
type Cache struct {
	backend  Backend
	records  map[benchmark.Key]benchmark.Record
	observer Observer
	logger   *slog.Logger
}

// New returns an empty cache persisting through backend.
func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		records: make(map[benchmark.Key]benchmark.Record),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load populates the store from the backend. Malformed lines are skipped;
// when a key appears twice the later line wins.
func (c *Cache) Load(ctx context.Context) LoadResult {
	lines, err := c.backend.Load(ctx)
	if err != nil {
		res := LoadResult{Outcome: OutcomeUnreadable, Err: err}
		if errors.Is(err, fs.ErrNotExist) {
			res.Outcome = OutcomeMissing
		}
		c.logger.Info("Measurement cache starts empty", "outcome", res.Outcome, "error", err)
		return res
	}

	res := LoadResult{Outcome: OutcomeLoaded}
	for _, line := range lines {
		rec, err := benchmark.ParseRecord(line)
		if err != nil {
			res.Skipped++
			c.logger.Warn("Skipping cached line", "error", err)
			continue
		}
		c.records[rec.Key()] = rec
	}
	res.Loaded = len(c.records)
	c.logger.Debug("Measurement cache loaded", "records", res.Loaded, "skipped", res.Skipped)
	return res
}

// LookupOrRun returns the stored record for key, or runs the measurement,
// stores its result and returns it. Nothing is stored when run fails or its
// output does not parse.
func (c *Cache) LookupOrRun(ctx context.Context, key benchmark.Key, run RunFunc) (benchmark.Record, bool, error) {
	if rec, ok := c.records[key]; ok {
		c.observe(key, true)
		return rec, true, nil
	}
	c.observe(key, false)

	line, err := run(ctx, key)
	if err != nil {
		return benchmark.Record{}, false, err
	}
	rec, err := benchmark.ParseRecord(line)
	if err != nil {
		return benchmark.Record{}, false, fmt.Errorf("measuring %s: %w", key, err)
	}
	if rec.Key() != key {
		return benchmark.Record{}, false, fmt.Errorf("%w: requested %s, got %s", ErrKeyMismatch, key, rec.Key())
	}

	c.records[key] = rec
	return rec, false, nil
}

func (c *Cache) observe(key benchmark.Key, hit bool) {
	if c.observer != nil {
		c.observer.CacheLookup(key, hit)
	}
}

// Get returns the stored record for key.
func (c *Cache) Get(key benchmark.Key) (benchmark.Record, bool) {
	rec, ok := c.records[key]
	return rec, ok
}

// Len returns the number of stored records.
func (c *Cache) Len() int {
	return len(c.records)
}

// Keys returns the stored keys ordered by their string form.
func (c *Cache) Keys() []benchmark.Key {
	keys := make([]benchmark.Key, 0, len(c.records))
	for k := range c.records {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Records returns the stored records ordered by key.
func (c *Cache) Records() []benchmark.Record {
	keys := c.Keys()
	recs := make([]benchmark.Record, len(keys))
	for i, k := range keys {
		recs[i] = c.records[k]
	}
	return recs
}

// Save writes every stored record to the backend, one line each.
func (c *Cache) Save(ctx context.Context) error {
	recs := c.Records()
	lines := make([]string, len(recs))
	for i, r := range recs {
		lines[i] = r.Line
	}
	if err := c.backend.Save(ctx, lines); err != nil {
		return fmt.Errorf("failed to save measurement cache: %w", err)
	}
	c.logger.Debug("Measurement cache saved", "records", len(lines))
	return nil
}
