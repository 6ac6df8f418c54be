// Package metrics exposes Prometheus instrumentation for the four core
// subsystems: ingestion, prescheduler+scheduler, analytics ETL, and the
// query engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// IngestDuration tracks time spent parsing+normalizing+persisting one
	// schedule document.
	IngestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "obsforge_ingest_duration_seconds",
		Help:    "Duration of schedule ingestion, including normalization and persistence.",
		Buckets: prometheus.DefBuckets,
	})

	// IngestErrorsTotal counts ingestion failures by error kind.
	IngestErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "obsforge_ingest_errors_total",
		Help: "Ingestion failures, labeled by error kind.",
	}, []string{"kind"})

	// SchedulerDuration tracks one scheduling pass (accumulative or hybrid).
	SchedulerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "obsforge_scheduler_duration_seconds",
		Help:    "Duration of a scheduling pass.",
		Buckets: prometheus.DefBuckets,
	}, []string{"algorithm"})

	// SchedulerFitness records the fitness of the schedule a pass produced.
	SchedulerFitness = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "obsforge_scheduler_fitness",
		Help:    "Fitness (priority-weighted scheduled fraction) of produced schedules.",
		Buckets: []float64{0, 0.25, 0.5, 0.75, 0.9, 0.95, 1.0},
	})

	// ETLDuration tracks one analytics-ETL run for a schedule.
	ETLDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "obsforge_analytics_etl_duration_seconds",
		Help:    "Duration of the analytics ETL for one schedule.",
		Buckets: prometheus.DefBuckets,
	})

	// QueryDuration tracks one query-engine operation.
	QueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "obsforge_query_duration_seconds",
		Help:    "Duration of a query-engine operation, labeled by operation name.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// RepositoryRetriesTotal counts repository I/O retries by operation.
	RepositoryRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "obsforge_repository_retries_total",
		Help: "Repository I/O retries, labeled by operation.",
	}, []string{"operation"})

	// CircuitBreakerState reports the repository circuit breaker's state
	// (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "obsforge_repository_circuit_breaker_state",
		Help: "Repository circuit breaker state: 0=closed, 1=half-open, 2=open.",
	})
)

// Registry is the process-wide collector registry. A fresh registry (rather
// than the global default) keeps tests hermetic.
func Registry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(
		IngestDuration,
		IngestErrorsTotal,
		SchedulerDuration,
		SchedulerFitness,
		ETLDuration,
		QueryDuration,
		RepositoryRetriesTotal,
		CircuitBreakerState,
	)
	return r
}

// Timer returns a function that observes elapsed time into obs when called:
// callers defer it with `defer metrics.Timer(obs)()`.
func Timer(obs prometheus.Observer) func() {
	start := time.Now()
	return func() {
		obs.Observe(time.Since(start).Seconds())
	}
}
