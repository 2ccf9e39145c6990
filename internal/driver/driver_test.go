package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"membench/internal/benchmark"
	"membench/internal/cache"
	"membench/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	calls int
	fail  func(key benchmark.Key) bool
	took  float64
}

func (r *scriptedRunner) Run(ctx context.Context, key benchmark.Key) (string, error) {
	r.calls++
	if r.fail != nil && r.fail(key) {
		return "", errors.New("exit status 1")
	}
	took := r.took
	if took == 0 {
		took = 2.5
	}
	return fmt.Sprintf("%s:%g", key, took), nil
}

type recordingNotifier struct {
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(ctx context.Context, message string) error {
	n.messages = append(n.messages, message)
	return n.err
}

type recordingProgress struct {
	total, advanced int
	finished        bool
}

func (p *recordingProgress) Start(total int)                         { p.total = total }
func (p *recordingProgress) Advance(rec benchmark.Record, cached bool) { p.advanced++ }
func (p *recordingProgress) Finish()                                 { p.finished = true }

func scenarioPlan(sizes ...int) Plan {
	return Plan{
		Capabilities: planner.Capabilities{
			Default: "A",
			Entries: []planner.Entry{
				{Variant: "A", Functions: []string{"memcpy", "memset"}},
				{Variant: "B", Functions: []string{"memcpy"}},
			},
		},
		Variants:   []string{"A", "B"},
		Alignments: []int{8},
		Sizes:      sizes,
	}
}

func TestRun_Scenario(t *testing.T) {
	backend := &cache.MemoryBackend{}
	var out bytes.Buffer
	progress := &recordingProgress{}
	notifier := &recordingNotifier{}

	d := &Driver{
		Cache:    cache.New(backend),
		Runner:   &scriptedRunner{},
		Plan:     scenarioPlan(64, 1024),
		Out:      &out,
		Progress: progress,
		Notifier: notifier,
	}

	sum, err := d.Run(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	var got []string
	for _, l := range lines {
		rec, err := benchmark.ParseRecord(l)
		require.NoError(t, err)
		got = append(got, fmt.Sprintf("%s/%s/%d", rec.Variant, rec.Function, rec.Bytes))
	}
	assert.Equal(t, []string{
		"A/memcpy/64", "A/memcpy/1024",
		"B/memcpy/64", "B/memcpy/1024",
		"A/memset/64", "A/memset/1024",
	}, got)

	assert.Equal(t, 3, sum.Groups)
	assert.Equal(t, 3, sum.GroupsDone)
	assert.Equal(t, 6, sum.Planned)
	assert.Equal(t, 6, sum.Emitted)
	assert.False(t, sum.Aborted)
	assert.Equal(t, cache.OutcomeMissing, sum.Load.Outcome)

	// Three probes plus six points, all distinct keys.
	assert.Equal(t, 9, sum.Executions)
	assert.Equal(t, 9, sum.Stored)
	assert.Equal(t, 1, backend.Saves)
	assert.Len(t, backend.Lines, 9)

	assert.Equal(t, 6, progress.total)
	assert.Equal(t, 6, progress.advanced)
	assert.True(t, progress.finished)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "completed")
}

func TestRun_SecondSessionUsesCache(t *testing.T) {
	backend := &cache.MemoryBackend{}
	runner := &scriptedRunner{}

	first := &Driver{Cache: cache.New(backend), Runner: runner, Plan: scenarioPlan(64, 1024)}
	_, err := first.Run(context.Background())
	require.NoError(t, err)
	calls := runner.calls

	var out bytes.Buffer
	second := &Driver{Cache: cache.New(backend), Runner: runner, Plan: scenarioPlan(64, 1024), Out: &out}
	sum, err := second.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, calls, runner.calls, "no executable runs on a fully cached session")
	assert.Equal(t, 0, sum.Executions)
	assert.Equal(t, 6, sum.Hits)
	assert.Equal(t, cache.OutcomeLoaded, sum.Load.Outcome)
	assert.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), 6)
}

func TestRun_MalformedCacheLinesReported(t *testing.T) {
	var logs bytes.Buffer
	backend := &cache.MemoryBackend{Lines: []string{"A:memcpy:64:1:8:2.5", "not a measurement"}}
	d := &Driver{
		Cache:  cache.New(backend),
		Runner: &scriptedRunner{},
		Plan:   scenarioPlan(64),
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	}

	sum, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Load.Skipped)
	assert.Contains(t, sum.String(), "1 malformed cached lines dropped")
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "lines=1")
	assert.NotContains(t, backend.Lines, "not a measurement")
}

func TestRun_FailureOnSeventhOfTen(t *testing.T) {
	sizes := []int{1, 2, 4, 8, 16, 32, 64, 128, 256, 512}
	plan := Plan{
		Capabilities: planner.Capabilities{
			Default: "this",
			Entries: []planner.Entry{{Variant: "this", Functions: []string{"memcpy"}}},
		},
		Variants:   []string{"this"},
		Alignments: []int{8},
		Sizes:      sizes,
	}

	// A 2.5s probe doubles the budget, so the probe key (32 bytes,
	// 8,838,834 loops) differs from every reported key.
	reported := 0
	runner := &scriptedRunner{}
	runner.fail = func(key benchmark.Key) bool {
		if key.Bytes == 32 && key.Loops == 8_838_834 {
			return false
		}
		reported++
		return reported == 7
	}

	backend := &cache.MemoryBackend{}
	notifier := &recordingNotifier{err: errors.New("webhook down")}
	var out bytes.Buffer
	d := &Driver{Cache: cache.New(backend), Runner: runner, Plan: plan, Out: &out, Notifier: notifier}

	sum, err := d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.True(t, sum.Aborted)
	assert.Equal(t, 6, sum.Emitted)
	assert.Equal(t, 0, sum.GroupsDone)

	// Saved once: six measurements plus the calibration probe.
	assert.Equal(t, 1, backend.Saves)
	assert.Len(t, backend.Lines, 7)
	assert.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), 6)

	// Notification failure is logged, not returned.
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "aborted")
	assert.Contains(t, notifier.messages[0], "exit status 1")
}

func TestRun_SaveErrorJoined(t *testing.T) {
	backend := &cache.MemoryBackend{SaveErr: errors.New("read-only file system")}
	d := &Driver{Cache: cache.New(backend), Runner: &scriptedRunner{}, Plan: scenarioPlan(64)}

	_, err := d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only file system")
}

func TestRun_Cancelled(t *testing.T) {
	backend := &cache.MemoryBackend{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &Driver{Cache: cache.New(backend), Runner: &scriptedRunner{}, Plan: scenarioPlan(64)}
	sum, err := d.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, sum.Aborted)
	assert.Equal(t, 1, backend.Saves)
}
