package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"dashcam-viewer/internal/filesystem"
)

// ResolveCameraFile returns the path of the first file in dir, in name
// order, whose name ends in "-{camera}.mp4". A missing folder or camera is
// reported as ErrNotFound.
func ResolveCameraFile(dir, camera string, retry filesystem.RetryConfig) (string, error) {
	if !validCameraName(camera) {
		return "", fmt.Errorf("camera %q: %w", camera, ErrNotFound)
	}

	entries, err := filesystem.ReadDirWithRetry(dir, retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("event folder %s: %w", dir, ErrNotFound)
		}
		return "", fmt.Errorf("failed to list %s: %w", dir, err)
	}

	suffix := "-" + camera + videoExt
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), suffix) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("camera %q in %s: %w", camera, dir, ErrNotFound)
}
