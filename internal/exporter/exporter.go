package exporter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"dashcam-viewer/internal/catalog"
	"dashcam-viewer/internal/filesystem"
	"dashcam-viewer/internal/logging"
	"dashcam-viewer/internal/metrics"
	"dashcam-viewer/internal/workers"
)

const defaultTimeout = 10 * time.Minute

var (
	// ErrInvalidRequest is returned for requests that fail validation.
	ErrInvalidRequest = errors.New("invalid export request")

	// ErrPrecondition is returned when the reference camera has no clip.
	ErrPrecondition = errors.New("export precondition failed")

	// ErrTranscode is returned when the engine fails or exceeds its timeout.
	ErrTranscode = errors.New("export transcoding failed")
)

// Request selects a time window of an event and the cameras to composite.
// Start and End are seconds from the beginning of the clips.
type Request struct {
	EventID   string   `json:"eventId"`
	Start     float64  `json:"startTime"`
	End       float64  `json:"endTime"`
	Cameras   []string `json:"cameras"`
	Reference string   `json:"mainCamera"`
}

// Validate checks the request without touching the filesystem.
func (r Request) Validate() error {
	switch {
	case r.EventID == "":
		return fmt.Errorf("%w: eventId is required", ErrInvalidRequest)
	case !(r.Start >= 0):
		return fmt.Errorf("%w: startTime must not be negative", ErrInvalidRequest)
	case !(r.End > r.Start):
		return fmt.Errorf("%w: endTime must be after startTime", ErrInvalidRequest)
	case len(r.Cameras) == 0:
		return fmt.Errorf("%w: at least one camera is required", ErrInvalidRequest)
	case r.Reference == "":
		return fmt.Errorf("%w: mainCamera is required", ErrInvalidRequest)
	case !slices.Contains(r.Cameras, r.Reference):
		return fmt.Errorf("%w: mainCamera %q is not among the requested cameras", ErrInvalidRequest, r.Reference)
	}
	return nil
}

// Duration is the length of the requested window in seconds.
func (r Request) Duration() float64 {
	return r.End - r.Start
}

// Artifact is a finished export. The caller owns the file and must Remove it.
type Artifact struct {
	Name    string
	Path    string
	Size    int64
	Cameras []string
}

// Remove deletes the artifact file.
func (a *Artifact) Remove() error {
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Engine runs one transcoding job to completion.
type Engine interface {
	Run(ctx context.Context, jobID string, args []string) error
}

// EventResolver maps an event id to its folder.
type EventResolver interface {
	EventDir(id string) (string, error)
}

// Config holds Composer settings.
type Config struct {
	OutputDir string
	Timeout   time.Duration
	Workers   int
	Retry     filesystem.RetryConfig
}

// Composer turns export requests into composited video files.
type Composer struct {
	events    EventResolver
	engine    Engine
	outputDir string
	timeout   time.Duration
	retry     filesystem.RetryConfig
	slots     *semaphore.Weighted
}

// New creates a Composer. Zero config values fall back to a ten minute
// timeout and a CPU-sized worker count.
func New(events EventResolver, engine Engine, config Config) *Composer {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.Workers <= 0 {
		config.Workers = workers.ForCPU(2)
	}
	if config.Retry.MaxRetries == 0 {
		config.Retry = filesystem.DefaultRetryConfig()
	}

	return &Composer{
		events:    events,
		engine:    engine,
		outputDir: config.OutputDir,
		timeout:   config.Timeout,
		retry:     config.Retry,
		slots:     semaphore.NewWeighted(int64(config.Workers)),
	}
}

// Plan validates req, resolves its cameras and builds the composition graph
// without running the engine.
func (c *Composer) Plan(req Request) (Graph, error) {
	if err := req.Validate(); err != nil {
		return Graph{}, err
	}

	dir, err := c.events.EventDir(req.EventID)
	if err != nil {
		if errors.Is(err, catalog.ErrMalformed) {
			return Graph{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return Graph{}, err
	}

	var inputs []Input
	seen := make(map[string]bool, len(req.Cameras))
	for _, camera := range req.Cameras {
		if seen[camera] {
			continue
		}
		seen[camera] = true

		path, err := catalog.ResolveCameraFile(dir, camera, c.retry)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				logging.Debug("Export of %s: dropping camera %s: %v", req.EventID, camera, err)
				continue
			}
			return Graph{}, err
		}

		inputs = append(inputs, Input{
			Camera:   camera,
			Path:     path,
			Start:    req.Start,
			Duration: req.Duration(),
		})
	}

	if len(inputs) == 0 {
		return Graph{}, fmt.Errorf("no clips for requested cameras of %s: %w", req.EventID, catalog.ErrNotFound)
	}

	return BuildGraph(inputs, req.Reference)
}

// Compose produces the export for req. It waits for a free worker slot
// until ctx ends, then runs the engine bounded by the configured timeout.
func (c *Composer) Compose(ctx context.Context, req Request) (*Artifact, error) {
	graph, err := c.Plan(req)
	if err != nil {
		metrics.ExportJobsTotal.WithLabelValues(planStatus(err)).Inc()
		return nil, err
	}

	if err := c.slots.Acquire(ctx, 1); err != nil {
		metrics.ExportJobsTotal.WithLabelValues("canceled").Inc()
		return nil, fmt.Errorf("waiting for export slot: %w", err)
	}
	defer c.slots.Release(1)

	metrics.ExportJobsInProgress.Inc()
	defer metrics.ExportJobsInProgress.Dec()

	cameras := make([]string, 0, len(graph.Inputs))
	for _, in := range graph.Inputs {
		cameras = append(cameras, in.Camera)
	}
	metrics.ExportCameras.Observe(float64(len(cameras)))

	name := fmt.Sprintf("%s-export-%s.mp4", req.EventID, uuid.NewString())
	artifact := &Artifact{
		Name:    name,
		Path:    filepath.Join(c.outputDir, name),
		Cameras: cameras,
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	logging.Info("Exporting %s: cameras=%v reference=%s window=%.2fs-%.2fs",
		req.EventID, cameras, req.Reference, req.Start, req.End)

	start := time.Now()
	err = c.engine.Run(runCtx, name, graph.Args(artifact.Path))
	metrics.ExportJobDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if rmErr := artifact.Remove(); rmErr != nil {
			logging.Warn("failed to remove partial export %s: %v", artifact.Path, rmErr)
		}
		if ctx.Err() != nil {
			metrics.ExportJobsTotal.WithLabelValues("canceled").Inc()
			return nil, fmt.Errorf("export of %s: %w", req.EventID, ctx.Err())
		}
		metrics.ExportJobsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrTranscode, err)
	}

	info, err := filesystem.StatWithRetry(artifact.Path, c.retry)
	if err != nil {
		metrics.ExportJobsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: output missing: %w", ErrTranscode, err)
	}
	artifact.Size = info.Size()

	metrics.ExportJobsTotal.WithLabelValues("success").Inc()
	logging.Info("Export %s complete: %d bytes in %v", name, artifact.Size, time.Since(start).Round(time.Millisecond))
	return artifact, nil
}

func planStatus(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, ErrPrecondition):
		return "precondition"
	case errors.Is(err, catalog.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
