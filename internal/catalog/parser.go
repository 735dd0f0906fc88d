package catalog

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// idSeparator joins clip type and folder name in multi-root event ids.
	idSeparator = "__"

	videoExt = ".mp4"
)

var eventFolderPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}$`)

// IsEventFolder reports whether name is a timestamped event folder
// (YYYY-MM-DD_HH-MM-SS). Anything else is ignored by the catalog.
func IsEventFolder(name string) bool {
	return eventFolderPattern.MatchString(name)
}

// CameraOf extracts the camera identifier from a clip filename: the token
// after the last "-" with the .mp4 extension removed.
func CameraOf(filename string) (string, bool) {
	if !strings.HasSuffix(filename, videoExt) {
		return "", false
	}
	stem := strings.TrimSuffix(filename, videoExt)

	idx := strings.LastIndex(stem, "-")
	if idx == -1 {
		return "", false
	}

	camera := stem[idx+1:]
	if camera == "" {
		return "", false
	}
	return camera, true
}

// EventID builds the catalog id of a folder. Single-root deployments pass an
// empty clip type and get the bare folder name.
func EventID(clipType, folder string) string {
	if clipType == "" {
		return folder
	}
	return clipType + idSeparator + folder
}

// SplitEventID is the inverse of EventID. It rejects ids that could escape
// the clips directory.
func SplitEventID(id string, multiRoot bool) (clipType, folder string, err error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", "", fmt.Errorf("%w: event id %q", ErrMalformed, id)
	}

	if !multiRoot {
		return "", id, nil
	}

	clipType, folder, ok := strings.Cut(id, idSeparator)
	if !ok || clipType == "" || folder == "" {
		return "", "", fmt.Errorf("%w: event id %q has no clip type", ErrMalformed, id)
	}
	return clipType, folder, nil
}

// TimestampOf returns the sortable timestamp of an event folder,
// "YYYY-MM-DD HH-MM-SS". The format is fixed width and zero padded so
// lexical order is chronological order.
func TimestampOf(folder string) string {
	return strings.Replace(folder, "_", " ", 1)
}

// validCameraName guards lookups built from request parameters.
func validCameraName(camera string) bool {
	if camera == "" || camera == "." || camera == ".." {
		return false
	}
	return !strings.ContainsAny(camera, `/\`) && camera == filepath.Base(camera)
}
