// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - CLIPS_DIR: Directory holding the dashcam clips (default: /teslacam)
//   - CLIP_TYPES: Comma separated clip roots under CLIPS_DIR (default: RecentClips,SavedClips,SentryClips)
//   - SINGLE_ROOT: Event folders sit directly in CLIPS_DIR (default: false)
//   - CACHE_DIR: Working directory; exports are written to CACHE_DIR/exports (default: /cache)
//   - PORT: HTTP server port (default: 3001)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - APP_USERNAME, APP_PASSWORD: Basic auth credentials (default: admin/password)
//   - APP_PASSWORD_HASH: bcrypt hash used instead of APP_PASSWORD
//   - FFMPEG_PATH: FFmpeg binary (default: ffmpeg)
//   - EXPORT_TIMEOUT: Maximum duration of one export (default: 10m)
//   - EXPORT_WORKERS: Concurrent exports (default: CPU based)
//   - SCAN_WORKERS: Folders listed concurrently by the initial scan (default: CPU based)
//   - THUMBNAIL_CACHE_SIZE, THUMBNAIL_TTL: Thumbnail cache bounds (default: 512, 1h)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// The clips directory is expected to be mounted and is never created. The
// export directory is created on demand; exports are disabled when it is
// not writable.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
