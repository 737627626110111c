package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_events_ingested_total",
			Help: "Total number of events accepted for storage",
		},
		[]string{"event"},
	)

	IngestRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_ingest_rejected_total",
			Help: "Total number of ingestion requests rejected before storage",
		},
		[]string{"reason"},
	)

	// Auth gate metrics
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_auth_failures_total",
			Help: "Total number of API key validation failures",
		},
		[]string{"reason"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"view"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"view"},
	)

	CacheErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitepulse_cache_errors_total",
			Help: "Total number of swallowed cache failures",
		},
	)

	// Aggregation metrics
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitepulse_query_duration_seconds",
			Help:    "Duration of aggregation queries against the event store",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view"},
	)
)
