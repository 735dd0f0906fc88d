package handlers

import (
	"net/http"
	"runtime"

	"dashcam-viewer/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status       string `json:"status"`
	Ready        bool   `json:"ready"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	Scanning     bool   `json:"scanning"`
	LastScan     string `json:"lastScan,omitempty"`
	ScanDuration string `json:"scanDuration,omitempty"`

	Events        int  `json:"events"`
	QueuedUpdates int  `json:"queuedUpdates"`
	Exports       bool `json:"exports"`
	Thumbnails    bool `json:"thumbnails"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	status := h.catalog.HealthStatus()

	response := HealthResponse{
		Status:        statusStarting,
		Ready:         status.Ready,
		Version:       startup.Version,
		Uptime:        status.Uptime,
		Scanning:      status.Scanning,
		ScanDuration:  status.ScanDuration,
		Events:        status.Events,
		QueuedUpdates: status.QueuedUpdates,
		Exports:       h.composer != nil,
		Thumbnails:    h.thumbnails != nil,
		GoVersion:     runtime.Version(),
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
	}
	if status.Ready {
		response.Status = statusHealthy
	}
	if !status.LastScan.IsZero() {
		response.LastScan = status.LastScan.Format("2006-01-02T15:04:05Z07:00")
	}

	w.Header().Set("Content-Type", "application/json")
	if status.Ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only once the event catalog is loaded
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.catalog.IsReady() {
		writeJSONStatus(w, http.StatusOK, "ready")
		return
	}
	writeJSONStatus(w, http.StatusServiceUnavailable, "not_ready")
}

// APIHealth answers the plain-text probe used by the web client
func (h *Handlers) APIHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
