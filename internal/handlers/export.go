package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"dashcam-viewer/internal/catalog"
	"dashcam-viewer/internal/exporter"
	"dashcam-viewer/internal/filesystem"
	"dashcam-viewer/internal/logging"
	"dashcam-viewer/internal/streaming"
)

const maxExportBody = 64 << 10

// ExportEvent composites the requested cameras of an event into one video,
// streams it as a download and deletes it afterwards.
func (h *Handlers) ExportEvent(w http.ResponseWriter, r *http.Request) {
	if h.composer == nil {
		http.Error(w, "Exports are disabled", http.StatusServiceUnavailable)
		return
	}

	var req exporter.Request
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxExportBody))
	if err := decoder.Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	artifact, err := h.composer.Compose(r.Context(), req)
	if err != nil {
		h.writeExportError(w, req, err)
		return
	}
	defer func() {
		if err := artifact.Remove(); err != nil {
			logging.Warn("Failed to remove export %s: %v", artifact.Path, err)
		}
	}()

	file, err := filesystem.OpenWithRetry(artifact.Path, h.retry)
	if err != nil {
		logging.Error("Failed to open export %s: %v", artifact.Path, err)
		http.Error(w, "Error creating video export.", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Length", strconv.FormatInt(artifact.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Name}))
	w.WriteHeader(http.StatusOK)

	written, err := streaming.Copy(r.Context(), w, file, h.stream)
	if err != nil {
		logging.Warn("Export download of %s interrupted after %d bytes: %v", artifact.Name, written, err)
	}
}

func (h *Handlers) writeExportError(w http.ResponseWriter, req exporter.Request, err error) {
	switch {
	case errors.Is(err, exporter.ErrInvalidRequest), errors.Is(err, catalog.ErrMalformed):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, catalog.ErrNotFound):
		http.Error(w, "Event or camera clips not found.", http.StatusNotFound)
	case errors.Is(err, exporter.ErrPrecondition):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, exporter.ErrTranscode):
		logging.Error("Export of %s failed: %v", req.EventID, err)
		http.Error(w, "Error creating video export.", http.StatusInternalServerError)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logging.Info("Export of %s abandoned: %v", req.EventID, err)
		http.Error(w, "Export canceled", http.StatusServiceUnavailable)
	default:
		logging.Error("Export of %s failed: %v", req.EventID, err)
		http.Error(w, "Error creating video export.", http.StatusInternalServerError)
	}
}
