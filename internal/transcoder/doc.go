// Package transcoder runs FFmpeg on behalf of the exporter and the
// thumbnail service.
//
// It supports:
//   - Running an FFmpeg job to completion with a caller supplied context
//   - Capturing stdout for single-frame extraction
//   - Killing in-flight processes on shutdown
//   - Clearing leftover export artifacts
//
// FFmpeg must be installed; its path is configurable.
package transcoder
