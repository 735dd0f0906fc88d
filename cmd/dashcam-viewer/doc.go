// Package main provides the entry point for the dashcam viewer.
//
// The dashcam viewer catalogs timestamped dashcam event folders, streams
// individual camera clips with HTTP range support and composites several
// cameras of an event into a single downloadable video using FFmpeg.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads environment variables and validates directories
//  2. Metrics: Registers Prometheus collectors and the filesystem retry observer
//  3. Transcoder: Locates FFmpeg and clears leftover exports
//  4. Catalog: Starts the filesystem watcher, then runs the initial scan in the background
//  5. HTTP Server Setup: Configures routes and middleware, and starts serving
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM and stops all components
//
// The HTTP server is available immediately. Routes that read the catalog
// answer 503 until the initial scan and the replay of changes observed
// during it have completed; /readyz reports the same state.
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 3001):
//     - GET  /api/events: cataloged events, newest first
//     - GET  /api/video/{eventId}/{camera}: clip with range support
//     - GET  /api/thumbnail/{eventId}/{camera}: cached JPEG still
//     - POST /api/export: composited multi-camera download
//     - GET  /api/health, /api/directory-status, /health, /livez, /readyz, /version
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// All routes except the health and version probes require HTTP basic
// authentication.
//
// # Environment Variables
//
//   - CLIPS_DIR: Directory containing the clip roots (default: /teslacam)
//   - CLIP_TYPES: Comma separated clip roots (default: RecentClips,SavedClips,SentryClips)
//   - SINGLE_ROOT: Event folders sit directly in CLIPS_DIR (default: false)
//   - CACHE_DIR: Directory for temporary exports (default: /cache)
//   - PORT / METRICS_PORT / METRICS_ENABLED
//   - APP_USERNAME / APP_PASSWORD / APP_PASSWORD_HASH
//   - FFMPEG_PATH, EXPORT_TIMEOUT, EXPORT_WORKERS
//   - THUMBNAIL_CACHE_SIZE, THUMBNAIL_TTL
//   - LOG_LEVEL, LOG_STATIC_FILES, LOG_HEALTH_CHECKS
//
// # Graceful Shutdown
//
//  1. Cancel a running initial scan and stop the watcher
//  2. Kill running FFmpeg processes
//  3. Shutdown metrics server (if running)
//  4. Shutdown main HTTP server (30s timeout)
//
// # Related Packages
//
//   - [dashcam-viewer/internal/catalog]: Event catalog and filesystem watcher
//   - [dashcam-viewer/internal/exporter]: Multi-camera export composition
//   - [dashcam-viewer/internal/handlers]: HTTP request handlers
//   - [dashcam-viewer/internal/middleware]: HTTP middleware (auth, logging, metrics)
//   - [dashcam-viewer/internal/startup]: Configuration and initialization
//   - [dashcam-viewer/internal/transcoder]: FFmpeg process management
package main
