package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crew_jobs_submitted_total",
		Help: "Total number of crew jobs submitted",
	})

	JobsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crew_jobs_completed_total",
		Help: "Total number of crew jobs completed successfully",
	})

	JobsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crew_jobs_failed_total",
		Help: "Total number of crew jobs that failed",
	})

	JobProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crew_job_processing_duration_seconds",
		Help:    "Time taken to run the crew pipeline in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crew_stage_duration_seconds",
		Help:    "Time taken per pipeline stage in seconds",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"stage"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crew_active_workers",
		Help: "Current number of active workers",
	})

	ConnectedObservers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crew_connected_observers",
		Help: "Current number of connected websocket clients",
	})
)
