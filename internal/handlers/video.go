package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"dashcam-viewer/internal/catalog"
	"dashcam-viewer/internal/filesystem"
	"dashcam-viewer/internal/logging"
)

// StreamVideo serves one camera clip of an event with HTTP range support
func (h *Handlers) StreamVideo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID := vars["eventId"]
	camera := vars["camera"]

	path, err := h.catalog.ResolveCamera(eventID, camera)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrMalformed):
			http.Error(w, "Invalid clip type.", http.StatusNotFound)
		case errors.Is(err, catalog.ErrNotFound):
			http.Error(w, "Video file not found.", http.StatusNotFound)
		default:
			logging.Error("Video lookup failed for %s/%s: %v", eventID, camera, err)
			http.Error(w, "Failed to access video", http.StatusInternalServerError)
		}
		return
	}

	file, err := filesystem.OpenWithRetry(path, h.retry)
	if err != nil {
		logging.Warn("Video open failed for %s: %v", path, err)
		http.Error(w, "Video file not found.", http.StatusNotFound)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		logging.Error("Video stat failed for %s: %v", path, err)
		http.Error(w, "Failed to access video", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}
