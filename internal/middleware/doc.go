// Package middleware provides HTTP middleware for the dashcam viewer.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Response compression (gzip) for JSON and text payloads
//   - Prometheus request metrics labeled by route template
//   - HTTP basic authentication with a cache of verified credentials
//   - A readiness gate for routes that depend on the event catalog
package middleware
