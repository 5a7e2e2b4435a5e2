// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_processed_total",
			Help: "Total number of submissions reconciled, by form kind and action",
		},
		[]string{"kind", "action"},
	)

	SubmissionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_failed_total",
			Help: "Total number of submissions that failed with a store or pipeline error",
		},
		[]string{"kind", "error_code"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "intake_submission_duration_seconds",
			Help: "Duration of submission reconciliation in seconds",
		},
		[]string{"kind"},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_status_transitions_total",
			Help: "Lifecycle status transitions applied to client records",
		},
		[]string{"from", "to"},
	)

	DuplicateKeyRecoveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_duplicate_key_recoveries_total",
			Help: "Create races converted to updates after a duplicate-key response",
		},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "intake_worker_jobs_active",
			Help: "Jobs currently being processed, by task type",
		},
		[]string{"task_type"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_worker_jobs_completed_total",
			Help: "Jobs completed successfully, by task type",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_worker_jobs_failed_total",
			Help: "Jobs failed, by task type and error code",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "intake_worker_job_duration_seconds",
			Help: "Job processing duration in seconds, by task type",
		},
		[]string{"task_type"},
	)
)
