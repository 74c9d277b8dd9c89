// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	EwayBillExtensions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ewaybill_extensions_total",
			Help: "Extension attempts by outcome (succeeded, rejected, error, cancelled, invalid)",
		},
		[]string{"outcome"},
	)

	EwayBillBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ewaybill_batch_documents",
			Help:    "Number of documents per bulk extension batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	EwayBillAPICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ewaybill_api_call_duration_seconds",
			Help: "Latency of compliance API calls",
		},
		[]string{"operation"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Dashboard API requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
)
