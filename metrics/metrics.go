// Package metrics provides Prometheus metrics for annotation passes and the
// server's sessions
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/teranos/stamp/scan/annotate"
)

// Metrics holds all Prometheus metrics for stamp
type Metrics struct {
	AnnotationsTotal prometheus.Counter
	AnnotateDuration prometheus.Histogram
	SpansTotal       *prometheus.CounterVec
	ConflictDiscards prometheus.Counter
	WideningsTotal   prometheus.Counter
	UnparsableTotal  prometheus.Counter
	ActiveSessions   prometheus.Gauge
	RequestsTotal    *prometheus.CounterVec
	RateLimitedTotal prometheus.Counter
}

// New creates all metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{}

	m.AnnotationsTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "stamp_annotations_total",
			Help: "Total number of annotation passes",
		},
	)

	m.AnnotateDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stamp_annotate_duration_seconds",
			Help:    "Duration of annotation passes in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)

	m.SpansTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stamp_spans_total",
			Help: "Spans produced by annotation passes, by outcome",
		},
		[]string{"state"},
	)

	m.ConflictDiscards = f.NewCounter(
		prometheus.CounterOpts{
			Name: "stamp_conflict_discards_total",
			Help: "Candidate spans discarded in favour of longer or tie-winning spans",
		},
	)

	m.WideningsTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "stamp_widenings_total",
			Help: "Spans grown into an enclosing expression",
		},
	)

	m.UnparsableTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "stamp_unparsable_spans_total",
			Help: "Matched spans no resolver stage could parse",
		},
	)

	m.ActiveSessions = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "stamp_active_sessions",
			Help: "Editing sessions currently open",
		},
	)

	m.RequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stamp_requests_total",
			Help: "Requests handled, by transport and status",
		},
		[]string{"transport", "status"},
	)

	m.RateLimitedTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "stamp_rate_limited_total",
			Help: "Messages rejected by a session rate limiter",
		},
	)

	return m
}

// ObserveAnnotation records one annotation pass
func (m *Metrics) ObserveAnnotation(stats annotate.Stats, took time.Duration) {
	m.AnnotationsTotal.Inc()
	m.AnnotateDuration.Observe(took.Seconds())
	m.SpansTotal.WithLabelValues("strict").Add(float64(stats.Resolved - stats.Lenient))
	m.SpansTotal.WithLabelValues("lenient").Add(float64(stats.Lenient))
	m.SpansTotal.WithLabelValues("anchored").Add(float64(stats.Anchored))
	m.SpansTotal.WithLabelValues("stale").Add(float64(stats.Stale))
	m.ConflictDiscards.Add(float64(stats.ConflictDiscards))
	m.WideningsTotal.Add(float64(stats.Widened))
	m.UnparsableTotal.Add(float64(stats.Unparsable))
}

// RecordRequest counts one handled request
func (m *Metrics) RecordRequest(transport, status string) {
	m.RequestsTotal.WithLabelValues(transport, status).Inc()
}
