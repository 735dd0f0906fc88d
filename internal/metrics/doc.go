// Package metrics declares the Prometheus collectors exported by the dashcam
// viewer on the metrics port.
//
// Collectors are grouped by subsystem:
//   - HTTP: request counts, latency and in-flight requests
//   - Catalog: event count, initial scan, watcher activity
//   - Export: ffmpeg job outcomes, duration and concurrency
//   - Thumbnail: generation outcomes and cache efficiency
//   - Filesystem: NFS stale handle retries
//
// All collectors are registered with the default registry through promauto.
// InitializeMetrics pre-creates label combinations so dashboards have series
// before the first event of each kind.
package metrics
