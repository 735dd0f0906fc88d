package handlers

import (
	"net/http"

	"dashcam-viewer/internal/filesystem"
	"dashcam-viewer/internal/logging"
)

// DirectoryStatusResponse reports whether the clips directory is usable
type DirectoryStatusResponse struct {
	IsDirectory bool `json:"isDirectory"`
	HasAccess   bool `json:"hasAccess"`
}

// ListEvents returns every cataloged event, newest first
func (h *Handlers) ListEvents(w http.ResponseWriter, _ *http.Request) {
	events := h.catalog.List()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, events)
}

// DirectoryStatus checks the configured clips directory
func (h *Handlers) DirectoryStatus(w http.ResponseWriter, _ *http.Request) {
	info, err := filesystem.StatWithRetry(h.clipsDir, h.retry)
	if err != nil {
		logging.Warn("Directory status check failed for %s: %v", h.clipsDir, err)
		writeJSONError(w, "Error checking directory status.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, DirectoryStatusResponse{
		IsDirectory: info.IsDir(),
		HasAccess:   true,
	})
}
