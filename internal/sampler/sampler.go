// Package sampler derives repetition counts for a sweep group and takes its
// measurements.
//
// For each group a single probe at the median size estimates how long the
// routine takes. The loop budget F is scaled so the probe would have hit the
// target time, and every size b then runs floor(F/sqrt(b)) loops. Per-call
// overhead dominates small sizes, so the inverse square root keeps wall time
// roughly level across the range without probing each size.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"membench/internal/benchmark"
	"membench/internal/cache"
	"membench/internal/planner"
)

const (
	DefaultBudget = 50_000_000
	DefaultTarget = 5 * time.Second

	// Bounds on how far one probe may move the budget. Routines whose cost
	// does not grow with size (early-exit compares, bounce) would otherwise
	// get absurd loop counts.
	MinFactor = 0.05
	MaxFactor = 20.0
)

// Store is the part of the measurement cache the sampler needs.
type Store interface {
	LookupOrRun(ctx context.Context, key benchmark.Key, run cache.RunFunc) (benchmark.Record, bool, error)
}

// EmitFunc receives every reported measurement. Calibration probes are not
// reported.
type EmitFunc func(rec benchmark.Record, cached bool) error

// Calibration is the transient state derived for one group.
type Calibration struct {
	Reference  int
	ProbeLoops int
	Probe      benchmark.Record
	Factor     float64
	Budget     float64
}

// Sampler measures sweep groups one at a time.
type Sampler struct {
	Store  Store
	Runner benchmark.Runner
	Emit   EmitFunc

	// Budget is the initial loop budget F0 and Target the wall time each
	// measurement aims for. Zero values select the defaults.
	Budget float64
	Target time.Duration

	// OnCalibrated, if set, is called once per group after the probe.
	OnCalibrated func(planner.Group, Calibration)
	Logger       *slog.Logger
}

func (s *Sampler) budget() float64 {
	if s.Budget > 0 {
		return s.Budget
	}
	return DefaultBudget
}

func (s *Sampler) target() time.Duration {
	if s.Target > 0 {
		return s.Target
	}
	return DefaultTarget
}

func (s *Sampler) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Reference returns the median of sizes; for an even count the lower of the
// two middle elements.
func Reference(sizes []int) int {
	sorted := append([]int(nil), sizes...)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}

// LoopsFor returns floor(f/sqrt(max(1, bytes))), never less than one.
func LoopsFor(f float64, bytes int) int {
	loops := int(math.Floor(f / math.Sqrt(float64(max(1, bytes)))))
	return max(1, loops)
}

// Factor returns target/took clamped to [MinFactor, MaxFactor]. A probe that
// reports no elapsed time gets the maximum factor.
func Factor(took, target float64) float64 {
	if took <= 0 {
		return MaxFactor
	}
	return min(MaxFactor, max(MinFactor, target/took))
}

// RoundBudget truncates f to two significant figures so that timing jitter
// does not produce a new loop count, and therefore a new cache key, on every
// run. Budgets below one are raised to one.
func RoundBudget(f float64) float64 {
	if !(f >= 1) {
		return 1
	}
	if math.IsInf(f, 1) {
		return math.MaxFloat64
	}

	exp := int(math.Floor(math.Log10(f)))
	for exp > 0 && math.Pow10(exp) > f {
		exp--
	}
	for math.Pow10(exp+1) <= f {
		exp++
	}

	scale := math.Pow10(exp - 1)
	return scale * math.Floor(f/scale)
}

// Calibrate probes the group's reference size and derives its loop budget.
// The probe goes through the store, so it is cached, but it is not emitted.
func (s *Sampler) Calibrate(ctx context.Context, g planner.Group) (Calibration, error) {
	if len(g.Sizes) == 0 {
		return Calibration{}, fmt.Errorf("group %s has no sizes", g)
	}
	ref := Reference(g.Sizes)
	f0 := s.budget()
	key := benchmark.Key{
		Variant:   g.Variant,
		Function:  g.Function,
		Bytes:     ref,
		Loops:     LoopsFor(f0, ref),
		Alignment: g.Alignment,
	}

	probe, cached, err := s.Store.LookupOrRun(ctx, key, s.Runner.Run)
	if err != nil {
		return Calibration{}, fmt.Errorf("calibration probe: %w", err)
	}

	factor := Factor(probe.Elapsed, s.target().Seconds())
	cal := Calibration{
		Reference:  ref,
		ProbeLoops: key.Loops,
		Probe:      probe,
		Factor:     factor,
		Budget:     RoundBudget(f0 * factor),
	}
	s.logger().Debug("Calibrated sweep group",
		"variant", g.Variant, "function", g.Function, "alignment", g.Alignment,
		"reference", ref, "took", probe.Elapsed, "cached", cached,
		"factor", factor, "budget", cal.Budget)

	if s.OnCalibrated != nil {
		s.OnCalibrated(g, cal)
	}
	return cal, nil
}

// Sweep calibrates g and measures every size in ascending order. The first
// failure aborts the group.
func (s *Sampler) Sweep(ctx context.Context, g planner.Group) ([]benchmark.Record, error) {
	if len(g.Sizes) == 0 {
		return nil, nil
	}

	cal, err := s.Calibrate(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("sweep %s: %w", g, err)
	}

	sizes := append([]int(nil), g.Sizes...)
	sort.Ints(sizes)

	records := make([]benchmark.Record, 0, len(sizes))
	for _, b := range sizes {
		key := benchmark.Key{
			Variant:   g.Variant,
			Function:  g.Function,
			Bytes:     b,
			Loops:     LoopsFor(cal.Budget, b),
			Alignment: g.Alignment,
		}
		rec, cached, err := s.Store.LookupOrRun(ctx, key, s.Runner.Run)
		if err != nil {
			return records, fmt.Errorf("sweep %s: %w", g, err)
		}
		if s.Emit != nil {
			if err := s.Emit(rec, cached); err != nil {
				return records, fmt.Errorf("sweep %s: emit: %w", g, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
