// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the roster engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the roster engine.
type Metrics struct {
	// Extraction metrics
	IdentitiesExtractedTotal *prometheus.CounterVec

	// Matching metrics
	LookupsTotal  *prometheus.CounterVec
	MatchesTotal  *prometheus.CounterVec
	LookupSeconds *prometheus.HistogramVec

	// Batch reconciliation metrics
	BatchContactsTotal *prometheus.CounterVec

	// Presence cache metrics
	PresenceCacheHitsTotal   prometheus.Counter
	PresenceCacheMissesTotal prometheus.Counter
	PresenceChunksTotal      prometheus.Counter
}

// DefaultMetrics creates metrics registered with the default registerer.
func DefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// NewMetrics creates a new set of roster engine metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		IdentitiesExtractedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_identities_extracted_total",
				Help: "Total identities extracted from transcript text",
			},
			[]string{"origin"},
		),

		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_directory_lookups_total",
				Help: "Total directory lookups by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		MatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_matches_total",
				Help: "Total participant matches by confidence tier",
			},
			[]string{"confidence"},
		),
		LookupSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roster_directory_lookup_seconds",
				Help:    "Directory lookup latency",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"operation"},
		),

		BatchContactsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_batch_contacts_total",
				Help: "Total batch-reconciled contacts by result",
			},
			[]string{"result"},
		),

		PresenceCacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "roster_presence_cache_hits_total",
				Help: "Presence lookups served from cache",
			},
		),
		PresenceCacheMissesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "roster_presence_cache_misses_total",
				Help: "Presence lookups that required a fetch",
			},
		),
		PresenceChunksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "roster_presence_chunks_total",
				Help: "Batched presence requests issued",
			},
		),
	}
}
