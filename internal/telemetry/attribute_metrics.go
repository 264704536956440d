package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AttributeMetrics holds Prometheus metrics for the address attributes codec
// and the catalog behind it.
// A nil *AttributeMetrics is valid and records nothing.
type AttributeMetrics struct {
	// Codec
	ParseFailures    *prometheus.CounterVec
	WriteFailures    *prometheus.CounterVec
	UnresolvedIDs    *prometheus.CounterVec
	RequiredWarnings prometheus.Counter

	// Catalog cache
	CacheRequests      *prometheus.CounterVec
	CacheInvalidations prometheus.Counter
}

// NewAttributeMetrics creates the metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewAttributeMetrics(namespace string, reg prometheus.Registerer) *AttributeMetrics {
	if namespace == "" {
		namespace = "addressattr"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &AttributeMetrics{
		// =======================================================================
		// Codec
		// =======================================================================
		ParseFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "parse_failures_total",
				Help:      "Attributes documents that could not be parsed",
			},
			[]string{"op"},
		),
		WriteFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "write_failures_total",
				Help:      "Attributes documents that could not be rewritten",
			},
			[]string{"op", "outcome"}, // outcome: kept, discarded
		),
		UnresolvedIDs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "unresolved_ids_total",
				Help:      "Identifiers in stored documents that the catalog does not know",
			},
			[]string{"kind"}, // kind: attribute, value
		),
		RequiredWarnings: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "required_warnings_total",
				Help:      "Required attributes reported as missing",
			},
		),

		// =======================================================================
		// Catalog cache
		// =======================================================================
		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "cache_requests_total",
				Help:      "Catalog cache lookups",
			},
			[]string{"result"}, // result: hit, miss
		),
		CacheInvalidations: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "cache_invalidations_total",
				Help:      "Catalog cache flushes triggered by change notifications",
			},
		),
	}
}

// ParseFailed records a document that failed to parse during op.
func (m *AttributeMetrics) ParseFailed(op string) {
	if m == nil {
		return
	}
	m.ParseFailures.WithLabelValues(op).Inc()
}

// WriteFailed records a failed rewrite and whether the caller's document was kept.
func (m *AttributeMetrics) WriteFailed(op string, discarded bool) {
	if m == nil {
		return
	}
	outcome := "kept"
	if discarded {
		outcome = "discarded"
	}
	m.WriteFailures.WithLabelValues(op, outcome).Inc()
}

// Unresolved records an identifier the catalog could not resolve.
func (m *AttributeMetrics) Unresolved(kind string) {
	if m == nil {
		return
	}
	m.UnresolvedIDs.WithLabelValues(kind).Inc()
}

// Warned records n missing required attributes.
func (m *AttributeMetrics) Warned(n int) {
	if m == nil || n == 0 {
		return
	}
	m.RequiredWarnings.Add(float64(n))
}

// CacheLookup records a catalog cache hit or miss.
func (m *AttributeMetrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheRequests.WithLabelValues("hit").Inc()
		return
	}
	m.CacheRequests.WithLabelValues("miss").Inc()
}

// CacheInvalidated records a catalog cache flush.
func (m *AttributeMetrics) CacheInvalidated() {
	if m == nil {
		return
	}
	m.CacheInvalidations.Inc()
}
