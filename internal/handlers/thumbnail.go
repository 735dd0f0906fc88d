package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"dashcam-viewer/internal/catalog"
	"dashcam-viewer/internal/logging"
	"dashcam-viewer/internal/thumbnail"
)

// GetThumbnail returns a JPEG still of one camera of an event
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	if h.thumbnails == nil {
		http.Error(w, "Thumbnails disabled", http.StatusServiceUnavailable)
		return
	}

	vars := mux.Vars(r)
	eventID := vars["eventId"]
	camera := vars["camera"]

	thumb, err := h.thumbnails.Get(r.Context(), eventID, camera)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrMalformed), errors.Is(err, catalog.ErrNotFound):
			http.Error(w, "Video file not found.", http.StatusNotFound)
		case errors.Is(err, thumbnail.ErrBusy):
			w.Header().Set("Retry-After", "5")
			http.Error(w, "Server busy, retry shortly", http.StatusServiceUnavailable)
		case r.Context().Err() != nil:
			logging.Debug("Thumbnail request for %s/%s abandoned", eventID, camera)
		default:
			logging.Error("Thumbnail for %s/%s failed: %v", eventID, camera, err)
			http.Error(w, "Failed to generate thumbnail", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(thumb)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(thumb); err != nil {
		logging.Debug("Thumbnail write failed: %v", err)
	}
}
