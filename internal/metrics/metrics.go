// Package metrics exposes Prometheus instrumentation for the analysis
// pipeline. Collectors are registered on the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskmap_fetch_attempts_total",
		Help: "Total number of POI fetch attempts against the upstream source.",
	})

	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskmap_fetch_failures_total",
		Help: "Total number of POI fetches that degraded to an empty result.",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskmap_cache_hits_total",
		Help: "Total number of fetch-cache hits.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskmap_cache_misses_total",
		Help: "Total number of fetch-cache misses.",
	})

	AnalysisRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riskmap_analysis_runs_total",
		Help: "Total number of completed analysis pipeline runs.",
	})

	ExposureRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskmap_exposure_records_total",
		Help: "Total risk exposure records emitted, labelled by risk type.",
	}, []string{"risk_type"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "riskmap_run_duration_seconds",
		Help:    "End-to-end analysis run latency in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
)
