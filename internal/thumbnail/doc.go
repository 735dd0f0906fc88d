// Package thumbnail renders one JPEG still per event camera.
//
// A frame one second into the clip (or the first frame of shorter clips) is
// extracted with ffmpeg, fitted into 320x240 and kept in an expiring LRU
// cache. Concurrent requests for the same still share a single extraction.
// While a [PressureReporter] reports memory pressure, only cached stills are
// served and misses fail with [ErrBusy].
package thumbnail
