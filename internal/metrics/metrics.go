package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashcam_viewer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashcam_viewer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Catalog metrics
var (
	CatalogEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashcam_viewer_catalog_events",
			Help: "Number of events currently in the catalog",
		},
	)

	CatalogScanDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashcam_viewer_catalog_scan_duration_seconds",
			Help: "Duration of the initial catalog scan in seconds",
		},
	)

	CatalogScanFolders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_catalog_scan_folders_total",
			Help: "Folders seen by the initial scan by outcome",
		},
		[]string{"result"}, // "accepted", "ignored", "error"
	)

	CatalogMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_catalog_mutations_total",
			Help: "Catalog mutations applied by kind",
		},
		[]string{"kind"}, // "create", "remove", "file_added"
	)

	CatalogQueuedNotifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_catalog_queued_notifications_total",
			Help: "Watcher notifications deferred until the initial scan completed",
		},
	)

	CatalogReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashcam_viewer_catalog_ready",
			Help: "Whether the initial scan has completed (1 = ready)",
		},
	)

	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_watcher_events_total",
			Help: "Total number of filesystem watcher events",
		},
		[]string{"event_type"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)

	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashcam_viewer_watched_directories",
			Help: "Number of directories currently being watched",
		},
	)
)

// Export metrics
var (
	ExportJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_export_jobs_total",
			Help: "Total number of export jobs by outcome",
		},
		[]string{"status"},
	)

	ExportJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dashcam_viewer_export_job_duration_seconds",
			Help:    "Export engine run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ExportJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashcam_viewer_export_jobs_in_progress",
			Help: "Number of export jobs currently running",
		},
	)

	ExportCameras = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dashcam_viewer_export_cameras",
			Help:    "Number of resolved cameras per export",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8},
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dashcam_viewer_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_auth_attempts_total",
			Help: "Total number of basic auth checks by outcome",
		},
		[]string{"status"},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_filesystem_retry_attempts_total",
			Help: "Retries issued after an NFS stale file handle error",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_filesystem_stale_errors_total",
			Help: "NFS stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashcam_viewer_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried filesystem operations",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashcam_viewer_memory_usage_ratio",
			Help: "Go heap in use as a fraction of the memory limit",
		},
	)

	MemoryUnderPressure = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashcam_viewer_memory_under_pressure",
			Help: "Whether in-process thumbnail decoding is paused (1 = paused)",
		},
	)

	MemoryPressureEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashcam_viewer_memory_pressure_events_total",
			Help: "Number of times heap usage crossed the pressure threshold",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dashcam_viewer_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
