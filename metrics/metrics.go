package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nyaydarpan"

// Metrics groups the service's Prometheus collectors.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	// KarmaChecks counts Karma Checks.
	// Labels: result (scored, cached, degraded, invalid)
	KarmaChecks *prometheus.CounterVec

	// KarmaDuration measures end-to-end Karma Check latency.
	KarmaDuration prometheus.Histogram

	// CacheLookups counts score cache lookups.
	// Labels: result (hit, miss)
	CacheLookups *prometheus.CounterVec

	// ExcludedCases counts retrieved cases dropped by the scorer.
	// Labels: reason
	ExcludedCases *prometheus.CounterVec

	// RemappedFields counts finding fields that had to be coerced.
	// Labels: field (category, severity), method (synonym, edit_distance, fallback)
	RemappedFields *prometheus.CounterVec

	// SkippedFindings counts collaborator findings discarded as unusable.
	SkippedFindings prometheus.Counter

	// CollaboratorCalls counts outbound calls to external collaborators.
	// Labels: collaborator (generation, embedding), result (ok, retry, timeout, error)
	CollaboratorCalls *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		KarmaChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "karma",
			Name:      "checks_total",
			Help:      "Total Karma Checks by result",
		}, []string{"result"}),
		KarmaDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "karma",
			Name:      "check_duration_seconds",
			Help:      "Karma Check latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "karma",
			Name:      "cache_lookups_total",
			Help:      "Karma score cache lookups by result",
		}, []string{"result"}),
		ExcludedCases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scorer",
			Name:      "excluded_cases_total",
			Help:      "Cases excluded from scoring by reason",
		}, []string{"reason"}),
		RemappedFields: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalizer",
			Name:      "remapped_fields_total",
			Help:      "Finding fields coerced to a known value",
		}, []string{"field", "method"}),
		SkippedFindings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalizer",
			Name:      "skipped_findings_total",
			Help:      "Findings skipped because they were unusable",
		}),
		CollaboratorCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collaborator",
			Name:      "calls_total",
			Help:      "Outbound collaborator calls by result",
		}, []string{"collaborator", "result"}),
	}
}

// ObserveKarmaCheck records one Karma Check outcome and its latency
func (m *Metrics) ObserveKarmaCheck(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.KarmaChecks.WithLabelValues(result).Inc()
	m.KarmaDuration.Observe(elapsed.Seconds())
}

// CacheLookup records a cache hit or miss
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// CaseExcluded records a case dropped by the scorer
func (m *Metrics) CaseExcluded(reason string) {
	if m == nil {
		return
	}
	m.ExcludedCases.WithLabelValues(reason).Inc()
}

// FieldRemapped records a coerced finding field
func (m *Metrics) FieldRemapped(field, method string) {
	if m == nil {
		return
	}
	m.RemappedFields.WithLabelValues(field, method).Inc()
}

// FindingSkipped records a discarded finding
func (m *Metrics) FindingSkipped() {
	if m == nil {
		return
	}
	m.SkippedFindings.Inc()
}

// CollaboratorCall records one outbound call attempt
func (m *Metrics) CollaboratorCall(collaborator, result string) {
	if m == nil {
		return
	}
	m.CollaboratorCalls.WithLabelValues(collaborator, result).Inc()
}
