package metrics

import (
	"context"
	"strconv"
	"time"

	"membench/internal/benchmark"
	"membench/internal/planner"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics represents the collection of all Prometheus metrics
type Metrics struct {
	Registry *prometheus.Registry

	CacheLookups      *prometheus.CounterVec
	Executions        *prometheus.CounterVec
	ExecutionSeconds  *prometheus.HistogramVec
	MeasuredSeconds   *prometheus.HistogramVec
	CalibrationFactor *prometheus.GaugeVec
	PointsEmitted     prometheus.Counter
	GroupsCompleted   prometheus.Counter
}

// NewMetrics creates all metrics on a fresh registry, so that repeated
// construction (tests, several sessions in one process) never collides.
func NewMetrics() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membench_cache_lookups_total",
			Help: "Measurement cache lookups by result",
		},
		[]string{"result"},
	)

	m.Executions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membench_executions_total",
			Help: "Benchmark executable invocations",
		},
		[]string{"variant", "function", "status"},
	)

	m.ExecutionSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "membench_execution_seconds",
			Help:    "Wall time of benchmark executable invocations",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"variant", "function"},
	)

	m.MeasuredSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "membench_measured_seconds",
			Help:    "Elapsed time reported by the benchmark executables",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"variant", "function"},
	)

	m.CalibrationFactor = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "membench_calibration_factor",
			Help: "Clamped loop budget scale factor of the last calibration probe",
		},
		[]string{"variant", "function", "alignment"},
	)

	m.PointsEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "membench_points_total",
			Help: "Reported measurements",
		},
	)

	m.GroupsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "membench_groups_completed_total",
			Help: "Sweep groups measured across every size",
		},
	)

	m.Registry.MustRegister(
		m.CacheLookups,
		m.Executions,
		m.ExecutionSeconds,
		m.MeasuredSeconds,
		m.CalibrationFactor,
		m.PointsEmitted,
		m.GroupsCompleted,
	)

	return m
}

// CacheLookup implements cache.Observer.
func (m *Metrics) CacheLookup(key benchmark.Key, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// Calibrated records the factor a group's probe produced.
func (m *Metrics) Calibrated(variant, function string, alignment int, factor float64) {
	m.CalibrationFactor.WithLabelValues(variant, function, strconv.Itoa(alignment)).Set(factor)
}

// Emitted counts one reported point.
func (m *Metrics) Emitted(rec benchmark.Record) {
	m.PointsEmitted.Inc()
	m.MeasuredSeconds.WithLabelValues(rec.Variant, rec.Function).Observe(rec.Elapsed)
}

// GroupCompleted counts a group measured across every size.
func (m *Metrics) GroupCompleted(planner.Group) {
	m.GroupsCompleted.Inc()
}

// InstrumentRunner wraps r so that every invocation is counted and timed.
func (m *Metrics) InstrumentRunner(r benchmark.Runner) benchmark.Runner {
	return benchmark.RunnerFunc(func(ctx context.Context, key benchmark.Key) (string, error) {
		start := time.Now()
		line, err := r.Run(ctx, key)
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.Executions.WithLabelValues(key.Variant, key.Function, status).Inc()
		m.ExecutionSeconds.WithLabelValues(key.Variant, key.Function).Observe(time.Since(start).Seconds())
		return line, err
	})
}
