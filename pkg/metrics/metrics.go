// Package metrics defines the Prometheus metric collectors used by the
// oversampling and calibration pipeline and exposes an HTTP handler for
// scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the toolkit. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	DocumentsProcessed     prometheus.Counter
	SyntheticDocuments     *prometheus.CounterVec
	ComputeDuration        *prometheus.HistogramVec
	MergeSkipped           prometheus.Counter
	ThresholdOptimizations *prometheus.CounterVec
	BestEffectiveness      *prometheus.GaugeVec
	OversampleRuns         *prometheus.CounterVec
}

// New creates all collectors and registers them with reg. Passing
// prometheus.DefaultRegisterer exposes them through Handler.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocumentsProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dro_documents_processed_total",
				Help: "Total input documents projected by the DRO engine.",
			},
		),
		SyntheticDocuments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dro_synthetic_documents_total",
				Help: "Synthetic latent documents emitted, by set (train, test).",
			},
			[]string{"set"},
		),
		ComputeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dro_compute_duration_seconds",
				Help:    "Wall time of one DRO compute call in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"set"},
		),
		MergeSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dro_merge_skipped_total",
				Help: "Synthetic documents dropped by the BOW/DRI merge for lack of a BOW counterpart.",
			},
		),
		ThresholdOptimizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threshold_optimizations_total",
				Help: "Completed threshold optimizations by metric.",
			},
			[]string{"metric"},
		),
		BestEffectiveness: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "threshold_best_effectiveness",
				Help: "Best effectiveness reached by the last optimization of a category.",
			},
			[]string{"category"},
		),
		OversampleRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oversample_runs_total",
				Help: "Oversampling runs by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
	}

	reg.MustRegister(
		m.DocumentsProcessed,
		m.SyntheticDocuments,
		m.ComputeDuration,
		m.MergeSkipped,
		m.ThresholdOptimizations,
		m.BestEffectiveness,
		m.OversampleRuns,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) ObserveDocument() {
	if m == nil {
		return
	}
	m.DocumentsProcessed.Inc()
}

func (m *Metrics) ObserveSynthetic(set string, n int) {
	if m == nil {
		return
	}
	m.SyntheticDocuments.WithLabelValues(set).Add(float64(n))
}

func (m *Metrics) ObserveCompute(set string, seconds float64) {
	if m == nil {
		return
	}
	m.ComputeDuration.WithLabelValues(set).Observe(seconds)
}

func (m *Metrics) ObserveMergeSkip() {
	if m == nil {
		return
	}
	m.MergeSkipped.Inc()
}

func (m *Metrics) ObserveOptimization(metric, category string, best float64) {
	if m == nil {
		return
	}
	m.ThresholdOptimizations.WithLabelValues(metric).Inc()
	m.BestEffectiveness.WithLabelValues(category).Set(best)
}

func (m *Metrics) ObserveRun(method, outcome string) {
	if m == nil {
		return
	}
	m.OversampleRuns.WithLabelValues(method, outcome).Inc()
}
