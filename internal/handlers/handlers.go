package handlers

import (
	"dashcam-viewer/internal/catalog"
	"dashcam-viewer/internal/exporter"
	"dashcam-viewer/internal/filesystem"
	"dashcam-viewer/internal/startup"
	"dashcam-viewer/internal/streaming"
	"dashcam-viewer/internal/thumbnail"
)

type Handlers struct {
	catalog    *catalog.Catalog
	composer   *exporter.Composer
	thumbnails *thumbnail.Service
	clipsDir   string
	retry      filesystem.RetryConfig
	stream     streaming.Config
}

// New creates the HTTP handlers. composer and thumbs may be nil when
// ffmpeg or the cache directory is unavailable.
func New(cat *catalog.Catalog, composer *exporter.Composer, thumbs *thumbnail.Service, config *startup.Config) *Handlers {
	return &Handlers{
		catalog:    cat,
		composer:   composer,
		thumbnails: thumbs,
		clipsDir:   config.ClipsDir,
		retry:      filesystem.DefaultRetryConfig(),
		stream:     streaming.DefaultConfig(),
	}
}
