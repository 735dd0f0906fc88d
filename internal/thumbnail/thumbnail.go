package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"dashcam-viewer/internal/logging"
	"dashcam-viewer/internal/metrics"
)

const (
	defaultCacheSize = 512
	defaultTTL       = time.Hour
	defaultOffset    = time.Second
	defaultWidth     = 320
	defaultHeight    = 240
	defaultQuality   = 80

	// Generation outlives a single request so that callers sharing it are
	// not failed by the first one disconnecting.
	generateTimeout = 30 * time.Second
)

// ErrBusy is returned for an uncached thumbnail while the process is short
// on memory.
var ErrBusy = errors.New("thumbnail generation paused under memory pressure")

// PressureReporter reports whether new decoding work should be deferred.
type PressureReporter interface {
	UnderPressure() bool
}

// FrameExtractor decodes a single frame of a video as an encoded image.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, path string, offset time.Duration) ([]byte, error)
}

// CameraResolver finds the clip of one camera within an event.
type CameraResolver interface {
	ResolveCamera(id, camera string) (string, error)
}

// Config holds thumbnail settings. Zero values use the defaults.
type Config struct {
	CacheSize int
	TTL       time.Duration
	Offset    time.Duration
	Width     int
	Height    int
	Quality   int
}

// Service produces JPEG stills for event cameras and caches them in memory.
type Service struct {
	resolver CameraResolver
	frames   FrameExtractor
	config   Config
	cache    *expirable.LRU[string, []byte]
	group    singleflight.Group
	pressure PressureReporter
}

// New creates a thumbnail Service.
func New(resolver CameraResolver, frames FrameExtractor, config Config) *Service {
	if config.CacheSize <= 0 {
		config.CacheSize = defaultCacheSize
	}
	if config.TTL <= 0 {
		config.TTL = defaultTTL
	}
	if config.Offset <= 0 {
		config.Offset = defaultOffset
	}
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = defaultWidth, defaultHeight
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = defaultQuality
	}

	return &Service{
		resolver: resolver,
		frames:   frames,
		config:   config,
		cache:    expirable.NewLRU[string, []byte](config.CacheSize, nil, config.TTL),
	}
}

// SetPressure makes Get refuse cache misses while p reports pressure.
// Must be called before the service handles requests.
func (s *Service) SetPressure(p PressureReporter) {
	s.pressure = p
}

func cacheKey(eventID, camera string) string {
	return eventID + "/" + camera
}

// Get returns the JPEG thumbnail of camera in the given event.
func (s *Service) Get(ctx context.Context, eventID, camera string) ([]byte, error) {
	key := cacheKey(eventID, camera)
	if data, ok := s.cache.Get(key); ok {
		metrics.ThumbnailCacheHits.Inc()
		return data, nil
	}
	metrics.ThumbnailCacheMisses.Inc()

	if s.pressure != nil && s.pressure.UnderPressure() {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("throttled").Inc()
		return nil, ErrBusy
	}

	result := s.group.DoChan(key, func() (any, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), generateTimeout)
		defer cancel()
		return s.generate(genCtx, eventID, camera)
	})

	select {
	case r := <-result:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) generate(ctx context.Context, eventID, camera string) ([]byte, error) {
	path, err := s.resolver.ResolveCamera(eventID, camera)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := s.render(ctx, path)
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		logging.Warn("Thumbnail generation failed for %s: %v", path, err)
		return nil, err
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()

	s.cache.Add(cacheKey(eventID, camera), data)
	logging.Debug("Thumbnail generated for %s/%s (%d bytes)", eventID, camera, len(data))
	return data, nil
}

func (s *Service) render(ctx context.Context, path string) ([]byte, error) {
	frame, err := s.frames.ExtractFrame(ctx, path, s.config.Offset)
	if err != nil {
		return nil, fmt.Errorf("frame extraction failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	thumb := imaging.Fit(img, s.config.Width, s.config.Height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(s.config.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// Evict drops every cached thumbnail of an event.
func (s *Service) Evict(eventID string) {
	prefix := eventID + "/"
	for _, key := range s.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Remove(key)
		}
	}
}

// Len returns the number of cached thumbnails.
func (s *Service) Len() int {
	return s.cache.Len()
}

// Purge empties the cache.
func (s *Service) Purge() {
	s.cache.Purge()
}
