package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation_error"
	OutcomeParse      = "parse_error"
	OutcomeError      = "error"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	uploads      *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	scoreSource  *prometheus.CounterVec
	hintLatency  prometheus.Histogram
	transactions prometheus.Histogram
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statement",
			Name:      "uploads_total",
			Help:      "Analyzed statement uploads by format and outcome.",
		}, []string{"format", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "statement",
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end analysis time by format.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"format"}),
		scoreSource: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statement",
			Name:      "score_source_total",
			Help:      "Final scores by source.",
		}, []string{"source"}),
		hintLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "statement",
			Name:      "score_hint_latency_seconds",
			Help:      "Score hint provider round trip time.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 9),
		}),
		transactions: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "statement",
			Name:      "transactions_extracted",
			Help:      "Transactions extracted per tabular upload.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 10),
		}),
	}
}

func (m *Metrics) observeUpload(format Format, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	name := format.Name()
	if name == "" {
		name = "unknown"
	}
	m.uploads.WithLabelValues(name, outcome).Inc()
	m.duration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (m *Metrics) observeScore(source string, hintLatency time.Duration) {
	if m == nil {
		return
	}
	m.scoreSource.WithLabelValues(source).Inc()
	if hintLatency > 0 {
		m.hintLatency.Observe(hintLatency.Seconds())
	}
}

func (m *Metrics) observeTransactions(n int) {
	if m == nil {
		return
	}
	m.transactions.Observe(float64(n))
}
