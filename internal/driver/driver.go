// Package driver runs one benchmarking session: load the measurement cache,
// sweep every planned group and save the cache again, whether or not the
// sweep finished.
package driver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"membench/internal/benchmark"
	"membench/internal/cache"
	"membench/internal/planner"
	"membench/internal/sampler"

	"github.com/google/uuid"
)

// Plan is the sweep matrix input.
type Plan struct {
	Capabilities planner.Capabilities
	Variants     []string
	Alignments   []int
	Sizes        []int
}

// Groups expands the plan into sweep groups.
func (p Plan) Groups() []planner.Group {
	return planner.Plan(p.Capabilities, p.Variants, p.Alignments, p.Sizes)
}

// Notifier is told how a session ended.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Progress follows the reported points of a session.
type Progress interface {
	Start(total int)
	Advance(rec benchmark.Record, cached bool)
	Finish()
}

// Observer receives per-group and per-point events, typically metrics.
type Observer interface {
	Calibrated(variant, function string, alignment int, factor float64)
	Emitted(rec benchmark.Record)
	GroupCompleted(g planner.Group)
}

// Summary describes a finished or aborted session.
type Summary struct {
	Session    string
	Load       cache.LoadResult
	Groups     int
	GroupsDone int
	Planned    int
	Emitted    int
	Hits       int
	Executions int
	Stored     int
	Duration   time.Duration
	Aborted    bool
}

func (s Summary) String() string {
	state := "completed"
	if s.Aborted {
		state = "aborted"
	}
	msg := fmt.Sprintf("membench session %s %s after %s: %d/%d groups, %d/%d points (%d cached, %d executed), %d records stored",
		s.Session, state, s.Duration.Round(time.Second), s.GroupsDone, s.Groups, s.Emitted, s.Planned, s.Hits, s.Executions, s.Stored)
	if s.Load.Skipped > 0 {
		msg += fmt.Sprintf(", %d malformed cached lines dropped", s.Load.Skipped)
	}
	return msg
}

// Driver owns the cache for the lifetime of a session.
type Driver struct {
	Cache  *cache.Cache
	Runner benchmark.Runner
	Plan   Plan

	Budget float64
	Target time.Duration

	// Out receives one line per reported measurement.
	Out io.Writer

	Observer Observer
	Progress Progress
	Notifier Notifier
	Logger   *slog.Logger
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Run measures every planned group in order. The cache is saved exactly once
// before Run returns, including when a measurement fails; a save failure is
// joined to the returned error.
func (d *Driver) Run(ctx context.Context) (sum Summary, err error) {
	start := time.Now()
	sum.Session = uuid.NewString()
	log := d.logger().With("session", sum.Session)

	sum.Load = d.Cache.Load(ctx)
	log.Info("Measurement cache ready", "outcome", sum.Load.Outcome, "records", sum.Load.Loaded, "skipped", sum.Load.Skipped)
	if sum.Load.Skipped > 0 {
		// Malformed lines are not kept in memory, so the save below drops them.
		log.Warn("Malformed cached lines will be dropped on save", "lines", sum.Load.Skipped)
	}

	groups := d.Plan.Groups()
	sum.Groups = len(groups)
	sum.Planned = planner.Count(groups)

	defer func() {
		// Save with a fresh context: an interrupted sweep must still persist.
		if serr := d.Cache.Save(context.WithoutCancel(ctx)); serr != nil {
			err = errors.Join(err, serr)
		}
		sum.Stored = d.Cache.Len()
		sum.Duration = time.Since(start)
		sum.Aborted = err != nil
		if sum.Aborted {
			log.Error("Session aborted", "error", err, "stored", sum.Stored)
		} else {
			log.Info("Session complete", "points", sum.Emitted, "stored", sum.Stored, "duration", sum.Duration)
		}
		d.notify(ctx, sum, err)
	}()

	w := d.Out
	if w == nil {
		w = io.Discard
	}
	out := bufio.NewWriter(w)
	if d.Progress != nil {
		d.Progress.Start(sum.Planned)
		defer d.Progress.Finish()
	}

	s := &sampler.Sampler{
		Store: d.Cache,
		Runner: benchmark.RunnerFunc(func(ctx context.Context, key benchmark.Key) (string, error) {
			sum.Executions++
			log.Debug("Running benchmark", "variant", key.Variant, "function", key.Function,
				"bytes", key.Bytes, "loops", key.Loops, "alignment", key.Alignment)
			return d.Runner.Run(ctx, key)
		}),
		Emit: func(rec benchmark.Record, cached bool) error {
			sum.Emitted++
			if cached {
				sum.Hits++
			}
			if _, err := fmt.Fprintln(out, rec.Line); err != nil {
				return err
			}
			if err := out.Flush(); err != nil {
				return err
			}
			if d.Observer != nil {
				d.Observer.Emitted(rec)
			}
			if d.Progress != nil {
				d.Progress.Advance(rec, cached)
			}
			return nil
		},
		Budget: d.Budget,
		Target: d.Target,
		OnCalibrated: func(g planner.Group, c sampler.Calibration) {
			if d.Observer != nil {
				d.Observer.Calibrated(g.Variant, g.Function, g.Alignment, c.Factor)
			}
		},
		Logger: log,
	}

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("sweep interrupted: %w", err)
		}
		if _, err := s.Sweep(ctx, g); err != nil {
			return sum, err
		}
		sum.GroupsDone++
		if d.Observer != nil {
			d.Observer.GroupCompleted(g)
		}
	}
	return sum, nil
}

func (d *Driver) notify(ctx context.Context, sum Summary, runErr error) {
	if d.Notifier == nil {
		return
	}
	msg := sum.String()
	if runErr != nil {
		msg += "\nerror: " + runErr.Error()
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := d.Notifier.Notify(nctx, msg); err != nil {
		d.logger().Warn("Failed to send notification", "error", err)
	}
}
