package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fotoboek_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fotoboek_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fotoboek_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fotoboek_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fotoboek_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fotoboek_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Task queue metrics
var (
	TasksEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fotoboek_tasks_enqueued_total",
			Help: "Total number of tasks inserted into the queue",
		},
		[]string{"module"},
	)

	TaskClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fotoboek_task_claims_total",
			Help: "Total number of successful task claims",
		},
		[]string{"module"},
	)

	TaskClaimConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fotoboek_task_claim_conflicts_total",
			Help: "Claims lost to another worker (compare-and-swap affected zero rows)",
		},
	)

	TaskExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fotoboek_task_executions_total",
			Help: "Total number of task executions by module and outcome",
		},
		[]string{"module", "status"},
	)

	TaskExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fotoboek_task_execution_duration_seconds",
			Help:    "Task execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 1800},
		},
		[]string{"module"},
	)

	TaskDeleteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fotoboek_task_delete_failures_total",
			Help: "Finished tasks whose row could not be deleted",
		},
	)

	TasksPending = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fotoboek_tasks_pending",
			Help: "Number of task rows currently in the queue",
		},
		[]string{"module"},
	)

	MediaFilesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fotoboek_media_files_total",
			Help: "Number of registered media files by type",
		},
		[]string{"type"},
	)
)

// Worker metrics
var (
	WorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fotoboek_workers_busy",
			Help: "Number of workers currently executing a task",
		},
	)

	WorkerIdlePolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fotoboek_worker_idle_polls_total",
			Help: "Number of polls that found no claimable task",
		},
	)
)

// Preview and transcode metrics
var (
	PreviewsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fotoboek_previews_generated_total",
			Help: "Preview images written, by source type and size tier",
		},
		[]string{"type", "size"},
	)

	PreviewsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fotoboek_previews_skipped_total",
			Help: "Videos for which no frame could be read and no preview was written",
		},
	)

	TranscodePassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fotoboek_transcode_pass_duration_seconds",
			Help:    "Duration of each encoder pass in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"pass"},
	)

	BlobMirrorUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fotoboek_blob_mirror_uploads_total",
			Help: "Uploads of generated blobs to the object storage mirror",
		},
		[]string{"status"},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fotoboek_filesystem_retry_attempts_total",
			Help: "Retries of filesystem operations after a stale NFS handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fotoboek_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fotoboek_filesystem_retry_failures_total",
			Help: "Filesystem operations that still failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fotoboek_filesystem_stale_errors_total",
			Help: "ESTALE errors seen by filesystem operations",
		},
		[]string{"operation", "volume"},
	)
)

// Memory backpressure metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fotoboek_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fotoboek_memory_paused",
			Help: "1 while task claiming is paused for memory pressure",
		},
	)

	MemoryPauseEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fotoboek_memory_pause_events_total",
			Help: "Times task claiming was paused for memory pressure",
		},
	)
)
