// Package metrics provides Prometheus metrics for the esmtidy pipeline.
package metrics

import (
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dto "github.com/prometheus/client_model/go"
)

// Manager holds all Prometheus instruments for a pipeline run.
type Manager struct {
	namespace string
	registry  prometheus.Registerer

	// Ingestion metrics
	rowsRead    prometheus.Counter
	rowsDropped *prometheus.CounterVec

	// Stage metrics
	stageDuration *prometheus.HistogramVec
	stageRows     *prometheus.GaugeVec

	// Integrity and reshaping metrics
	duplicateKeys prometheus.Counter
	deficitRows   prometheus.Gauge

	// Missingness metrics
	missingCells prometheus.Gauge

	// Participant metrics
	participants      prometheus.Gauge
	undefinedMetrics  prometheus.Counter
	instabilityScores prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Drop reasons recorded by the loader/normalizer and remapper.
const (
	ReasonSentinelDay   = "sentinel_day"
	ReasonExcludedID    = "excluded_id"
	ReasonNullItem      = "null_item"
	ReasonStructural    = "structural"
	ReasonUnknownItem   = "unknown_item"
	ReasonBranchSkipped = "branch_skipped"
)

// Init creates and registers the global metrics manager.
func Init(opts ...Option) *Manager {
	m := &Manager{
		namespace: "esmtidy",
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.rowsRead = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rows_read_total",
		Help:      "Raw rows read from the survey file.",
	})
	m.rowsDropped = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rows_dropped_total",
		Help:      "Rows dropped during cleaning, by reason.",
	}, []string{"reason"})
	m.stageDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "stage_duration_seconds",
		Help:      "Wall-clock duration of each pipeline stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})
	m.stageRows = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "stage_output_rows",
		Help:      "Row count produced by each pipeline stage.",
	}, []string{"stage"})
	m.duplicateKeys = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "duplicate_keys_total",
		Help:      "Duplicate (participant, time, variable) keys seen by the reshaper.",
	})
	m.deficitRows = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "integrity_deficit_rows",
		Help:      "Expected minus observed rows reported by the integrity verifier.",
	})
	m.missingCells = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "missing_cells",
		Help:      "Null cells counted by the missingness profiler.",
	})
	m.participants = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "participants",
		Help:      "Participants present after cleaning.",
	})
	m.undefinedMetrics = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "undefined_instability_total",
		Help:      "Participant/polarity pairs with too few valid points for MSSD.",
	})
	m.instabilityScores = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "instability_records_total",
		Help:      "Instability records produced.",
	})

	globalManager = m
	return m
}

// Get returns the global metrics manager, initializing a default one if needed.
func Get() *Manager {
	if globalManager == nil {
		return Init()
	}
	return globalManager
}

// Recording helpers. All are safe on a nil manager so library code can
// record unconditionally.

func RecordRowsRead(n int) {
	if m := globalManager; m != nil {
		m.rowsRead.Add(float64(n))
	}
}

func RecordRowsDropped(reason string, n int) {
	if m := globalManager; m != nil && n > 0 {
		m.rowsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

func RecordStageDuration(stage string, seconds float64) {
	if m := globalManager; m != nil {
		m.stageDuration.WithLabelValues(stage).Observe(seconds)
	}
}

func RecordStageRows(stage string, n int) {
	if m := globalManager; m != nil {
		m.stageRows.WithLabelValues(stage).Set(float64(n))
	}
}

func RecordDuplicateKey() {
	if m := globalManager; m != nil {
		m.duplicateKeys.Inc()
	}
}

func RecordDeficit(n int) {
	if m := globalManager; m != nil {
		m.deficitRows.Set(float64(n))
	}
}

func RecordMissingCells(n int) {
	if m := globalManager; m != nil {
		m.missingCells.Set(float64(n))
	}
}

func RecordParticipants(n int) {
	if m := globalManager; m != nil {
		m.participants.Set(float64(n))
	}
}

func RecordUndefinedInstability() {
	if m := globalManager; m != nil {
		m.undefinedMetrics.Inc()
	}
}

func RecordInstabilityScore() {
	if m := globalManager; m != nil {
		m.instabilityScores.Inc()
	}
}

// Summary gathers the default registry and renders one line per sample,
// for end-of-run logging in the batch CLI.
func Summary() ([]string, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatherFailed, err)
	}

	var lines []string
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			lines = append(lines, renderSample(fam, metric))
		}
	}
	sort.Strings(lines)
	return lines, nil
}

func renderSample(fam *dto.MetricFamily, metric *dto.Metric) string {
	name := fam.GetName()
	for _, lp := range metric.GetLabel() {
		name += fmt.Sprintf("{%s=%s}", lp.GetName(), lp.GetValue())
	}
	switch fam.GetType() {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%s %g", name, metric.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%s %g", name, metric.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := metric.GetHistogram()
		return fmt.Sprintf("%s count=%d sum=%g", name, h.GetSampleCount(), h.GetSampleSum())
	default:
		return name
	}
}
