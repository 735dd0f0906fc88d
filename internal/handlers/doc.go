// Package handlers provides HTTP request handlers for the dashcam viewer API.
//
// It includes handlers for:
//   - Listing cataloged events and checking the clips directory
//   - Range-capable streaming of individual camera clips
//   - Composited multi-camera exports delivered as downloads
//   - Cached JPEG thumbnails of camera clips
//   - Health, liveness, readiness and version probes
package handlers
