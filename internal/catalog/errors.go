package catalog

import "errors"

var (
	// ErrNotFound is returned for unknown events, cameras and missing folders.
	ErrNotFound = errors.New("not found")

	// ErrMalformed is returned for ids that do not decode to a configured clip root.
	ErrMalformed = errors.New("malformed event id")
)
