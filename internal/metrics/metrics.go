package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the classification pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Parser call latency by result: "ok", "error", "cache_hit"
	ParserLatency *prometheus.HistogramVec

	// Classification outcomes by outcome and completeness
	Outcomes *prometheus.CounterVec

	// Gap-fill rules that filled a field
	RuleHits *prometheus.CounterVec

	// Candidate cache lookups by result: "hit", "miss", "error"
	CacheLookups *prometheus.CounterVec

	// Batch size distribution
	BatchSize prometheus.Histogram

	// HTTP requests by method, route and status
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers all metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ParserLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "address_classifier_parser_duration_seconds",
			Help:    "Duration of address parser calls by result",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"result"}),

		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "address_classifier_outcomes_total",
			Help: "Total classified records by outcome and completeness",
		}, []string{"outcome", "complete"}),

		RuleHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "address_classifier_gapfill_hits_total",
			Help: "Total fields filled by each gap-fill rule",
		}, []string{"step", "field"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "address_classifier_cache_lookups_total",
			Help: "Candidate cache lookups by result",
		}, []string{"result"}),

		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "address_classifier_batch_size",
			Help:    "Number of records per classified batch",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "address_classifier_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "address_classifier_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "path", "status"}),
	}
}

// ObserveParser records the duration of one parser call.
func (m *Metrics) ObserveParser(result string, d time.Duration) {
	if m != nil {
		m.ParserLatency.WithLabelValues(result).Observe(d.Seconds())
	}
}

// IncrementOutcome records one classified record.
func (m *Metrics) IncrementOutcome(outcome string, complete bool) {
	if m != nil {
		label := "0"
		if complete {
			label = "1"
		}
		m.Outcomes.WithLabelValues(outcome, label).Inc()
	}
}

// IncrementRuleHit records a field filled by a gap-fill step.
func (m *Metrics) IncrementRuleHit(step, field string) {
	if m != nil {
		m.RuleHits.WithLabelValues(step, field).Inc()
	}
}

// IncrementCacheLookup records a candidate cache lookup.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// ObserveBatchSize records the size of a batch.
func (m *Metrics) ObserveBatchSize(n int) {
	if m != nil {
		m.BatchSize.Observe(float64(n))
	}
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m != nil {
		code := strconv.Itoa(status)
		m.HTTPRequests.WithLabelValues(method, path, code).Inc()
		m.HTTPDuration.WithLabelValues(method, path, code).Observe(d.Seconds())
	}
}
