package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"dashcam-viewer/internal/filesystem"
	"dashcam-viewer/internal/logging"
	"dashcam-viewer/internal/metrics"
	"dashcam-viewer/internal/workers"
)

// Event is one timestamped dashcam event folder.
type Event struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	ClipType  string   `json:"clipType,omitempty"`
	Cameras   []string `json:"cameras"`
}

// record is the stored form of an Event. Cameras are kept as a set.
type record struct {
	id       string
	clipType string
	folder   string
	dir      string
	cameras  map[string]struct{}
}

func newRecord(root Root, folder string) *record {
	return &record{
		id:       EventID(root.ClipType, folder),
		clipType: root.ClipType,
		folder:   folder,
		dir:      filepath.Join(root.Dir, folder),
		cameras:  make(map[string]struct{}),
	}
}

func (r *record) addCamera(camera string) bool {
	if _, ok := r.cameras[camera]; ok {
		return false
	}
	r.cameras[camera] = struct{}{}
	return true
}

func (r *record) snapshot() Event {
	cameras := make([]string, 0, len(r.cameras))
	for c := range r.cameras {
		cameras = append(cameras, c)
	}
	slices.Sort(cameras)

	return Event{
		ID:        r.id,
		Timestamp: TimestampOf(r.folder),
		ClipType:  r.clipType,
		Cameras:   cameras,
	}
}

type notificationKind int

const (
	folderCreated notificationKind = iota
	folderRemoved
	fileAdded
)

func (k notificationKind) String() string {
	switch k {
	case folderCreated:
		return "create"
	case folderRemoved:
		return "remove"
	case fileAdded:
		return "file_added"
	default:
		return "unknown"
	}
}

// notification is a watcher observation deferred while the initial scan runs.
type notification struct {
	kind notificationKind
	path string
}

// Catalog is the in-memory index of event folders. It is populated by
// InitialScan and kept current through FolderCreated, FolderRemoved and
// FileAdded. Notifications that arrive before the scan completes are queued
// and replayed in arrival order once the scan has been merged.
type Catalog struct {
	layout      Layout
	retry       filesystem.RetryConfig
	scanWorkers int
	onRemove    func(id string)

	mu           sync.RWMutex
	events       map[string]*record
	pending      []notification
	ready        bool
	scanning     bool
	startTime    time.Time
	lastScan     time.Time
	scanDuration time.Duration

	readyCh     chan struct{}
	populations sync.WaitGroup
}

// New creates an empty catalog for layout. Until InitialScan completes every
// notification is queued.
func New(layout Layout) *Catalog {
	return &Catalog{
		layout:      layout,
		retry:       filesystem.DefaultRetryConfig(),
		scanWorkers: workers.ForIO(8),
		events:      make(map[string]*record),
		startTime:   time.Now(),
		readyCh:     make(chan struct{}),
	}
}

// SetScanWorkers sets the number of folders listed concurrently during the
// initial scan.
func (c *Catalog) SetScanWorkers(n int) {
	if n < 1 {
		n = 1
	}
	c.scanWorkers = n
}

// SetRetryConfig overrides the stale-handle retry policy for directory listings.
func (c *Catalog) SetRetryConfig(config filesystem.RetryConfig) {
	c.retry = config
}

// SetOnRemove registers a callback invoked after an event leaves the catalog.
func (c *Catalog) SetOnRemove(callback func(id string)) {
	c.onRemove = callback
}

// Layout returns the folder layout the catalog was built for.
func (c *Catalog) Layout() Layout {
	return c.layout
}

// InitialScan lists every root, admits matching event folders and lists
// their camera files. It returns once all folders have been processed and
// queued notifications replayed; the catalog is ready afterwards.
func (c *Catalog) InitialScan(ctx context.Context) error {
	c.mu.Lock()
	if c.ready || c.scanning {
		c.mu.Unlock()
		return fmt.Errorf("initial scan already started")
	}
	c.scanning = true
	c.mu.Unlock()

	start := time.Now()
	logging.Info("Starting initial scan of %s", c.layout.BaseDir)

	scanned, err := c.scan(ctx)
	if err != nil {
		c.mu.Lock()
		c.scanning = false
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	for id, rec := range scanned {
		c.events[id] = rec
	}

	pending := c.pending
	c.pending = nil

	var removed []string
	for _, n := range pending {
		ids, _ := c.applyLocked(n)
		removed = append(removed, ids...)
	}

	c.scanning = false
	c.ready = true
	c.lastScan = time.Now()
	c.scanDuration = time.Since(start)
	count := len(c.events)
	close(c.readyCh)
	c.mu.Unlock()

	c.notifyRemoved(removed)

	metrics.CatalogEvents.Set(float64(count))
	metrics.CatalogScanDuration.Set(c.scanDuration.Seconds())
	metrics.CatalogReady.Set(1)

	logging.Info("Initial scan complete: %d events in %v (%d queued notifications replayed)",
		count, c.scanDuration.Round(time.Millisecond), len(pending))
	return nil
}

type folderJob struct {
	root   Root
	folder string
}

func (c *Catalog) scan(ctx context.Context) (map[string]*record, error) {
	var jobs []folderJob
	for _, root := range c.layout.Roots() {
		entries, err := filesystem.ReadDirWithRetry(root.Dir, c.retry)
		if err != nil {
			logging.Warn("Skipping clip root %s: %v", root.Dir, err)
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			if !entry.IsDir() || strings.HasPrefix(name, ".") {
				continue
			}
			if !IsEventFolder(name) {
				logging.Debug("Ignoring non-event folder %s", filepath.Join(root.Dir, name))
				metrics.CatalogScanFolders.WithLabelValues("ignored").Inc()
				continue
			}
			jobs = append(jobs, folderJob{root: root, folder: name})
		}
	}

	results := make(map[string]*record, len(jobs))
	var resultsMu sync.Mutex

	jobCh := make(chan folderJob)
	var wg sync.WaitGroup

	numWorkers := min(c.scanWorkers, max(len(jobs), 1))
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				rec := newRecord(job.root, job.folder)
				cameras, err := c.listCameras(rec.dir)
				if err != nil {
					logging.Warn("Failed to list event folder %s: %v", rec.dir, err)
					metrics.CatalogScanFolders.WithLabelValues("error").Inc()
				} else {
					metrics.CatalogScanFolders.WithLabelValues("accepted").Inc()
				}
				for _, cam := range cameras {
					rec.addCamera(cam)
				}

				resultsMu.Lock()
				results[rec.id] = rec
				resultsMu.Unlock()
			}
		}()
	}

	var cancelled error
feed:
	for _, job := range jobs {
		select {
		case jobCh <- job:
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		}
	}
	close(jobCh)
	wg.Wait()

	if cancelled != nil {
		return nil, fmt.Errorf("initial scan interrupted: %w", cancelled)
	}
	return results, nil
}

// listCameras returns the camera identifiers of the clip files in dir.
func (c *Catalog) listCameras(dir string) ([]string, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, c.retry)
	if err != nil {
		return nil, err
	}

	var cameras []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if cam, ok := CameraOf(entry.Name()); ok {
			cameras = append(cameras, cam)
		}
	}
	return cameras, nil
}

// FolderCreated admits a newly observed event folder. The record is inserted
// with no cameras and populated asynchronously. Creating an already known
// folder is a no-op.
func (c *Catalog) FolderCreated(path string) {
	c.submit(notification{kind: folderCreated, path: path})
}

// FolderRemoved drops the event for path. A removed clip root drops every
// event beneath it. Unknown paths are ignored.
func (c *Catalog) FolderRemoved(path string) {
	c.submit(notification{kind: folderRemoved, path: path})
}

// FileAdded merges the camera of a clip file written into a known event folder.
func (c *Catalog) FileAdded(path string) {
	c.submit(notification{kind: fileAdded, path: path})
}

func (c *Catalog) submit(n notification) {
	c.mu.Lock()
	if !c.ready {
		c.pending = append(c.pending, n)
		c.mu.Unlock()
		metrics.CatalogQueuedNotifications.Inc()
		logging.Debug("Queued %s notification for %s until initial scan completes", n.kind, n.path)
		return
	}

	removed, changed := c.applyLocked(n)
	count := len(c.events)
	c.mu.Unlock()

	if changed {
		metrics.CatalogEvents.Set(float64(count))
	}
	c.notifyRemoved(removed)
}

// applyLocked performs one mutation. It returns the ids of removed events
// and whether the catalog changed. Callers must hold c.mu for writing.
func (c *Catalog) applyLocked(n notification) ([]string, bool) {
	switch n.kind {
	case folderCreated:
		return nil, c.createLocked(n.path)
	case folderRemoved:
		removed := c.removeLocked(n.path)
		return removed, len(removed) > 0
	case fileAdded:
		return nil, c.addFileLocked(n.path)
	}
	return nil, false
}

func (c *Catalog) createLocked(path string) bool {
	clipType, folder, ok := c.layout.Classify(path)
	if !ok {
		logging.Debug("Ignoring created folder %s", path)
		return false
	}

	root, _ := c.layout.RootFor(filepath.Dir(filepath.Clean(path)))
	id := EventID(clipType, folder)
	if _, exists := c.events[id]; exists {
		return false
	}

	rec := newRecord(root, folder)
	c.events[id] = rec
	metrics.CatalogMutations.WithLabelValues(folderCreated.String()).Inc()
	logging.Debug("Event %s added", id)

	c.populations.Add(1)
	go c.populate(rec)

	return true
}

// populate lists the files of a freshly created folder and merges the
// cameras into rec, provided rec is still the catalog's record for its id.
func (c *Catalog) populate(rec *record) {
	defer c.populations.Done()

	cameras, err := c.listCameras(rec.dir)
	if err != nil {
		logging.Warn("Failed to list new event folder %s: %v", rec.dir, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.events[rec.id] != rec {
		return
	}
	for _, cam := range cameras {
		rec.addCamera(cam)
	}
}

func (c *Catalog) removeLocked(path string) []string {
	if root, ok := c.layout.RootFor(path); ok {
		var removed []string
		for id, rec := range c.events {
			if rec.clipType == root.ClipType {
				delete(c.events, id)
				removed = append(removed, id)
			}
		}
		if len(removed) > 0 {
			logging.Warn("Clip root %s disappeared, dropped %d events", root.Dir, len(removed))
			metrics.CatalogMutations.WithLabelValues(folderRemoved.String()).Add(float64(len(removed)))
		}
		return removed
	}

	clipType, folder, ok := c.layout.Classify(path)
	if !ok {
		return nil
	}

	id := EventID(clipType, folder)
	if _, exists := c.events[id]; !exists {
		return nil
	}

	delete(c.events, id)
	metrics.CatalogMutations.WithLabelValues(folderRemoved.String()).Inc()
	logging.Debug("Event %s removed", id)
	return []string{id}
}

func (c *Catalog) addFileLocked(path string) bool {
	camera, ok := CameraOf(filepath.Base(path))
	if !ok {
		return false
	}

	clipType, folder, ok := c.layout.Classify(filepath.Dir(filepath.Clean(path)))
	if !ok {
		return false
	}

	rec, exists := c.events[EventID(clipType, folder)]
	if !exists || !rec.addCamera(camera) {
		return false
	}

	metrics.CatalogMutations.WithLabelValues(fileAdded.String()).Inc()
	return true
}

func (c *Catalog) notifyRemoved(ids []string) {
	if c.onRemove == nil {
		return
	}
	for _, id := range ids {
		c.onRemove(id)
	}
}

// WaitForPopulation blocks until every asynchronous folder population has finished.
func (c *Catalog) WaitForPopulation() {
	c.populations.Wait()
}

// List returns a copy of every event, newest first. Events with equal
// timestamps are ordered by id.
func (c *Catalog) List() []Event {
	c.mu.RLock()
	events := make([]Event, 0, len(c.events))
	for _, rec := range c.events {
		events = append(events, rec.snapshot())
	}
	c.mu.RUnlock()

	slices.SortFunc(events, func(a, b Event) int {
		if a.Timestamp != b.Timestamp {
			return strings.Compare(b.Timestamp, a.Timestamp)
		}
		return strings.Compare(a.ID, b.ID)
	})
	return events
}

// Get returns a copy of the event with the given id.
func (c *Catalog) Get(id string) (Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.events[id]
	if !ok {
		return Event{}, false
	}
	return rec.snapshot(), true
}

// Len returns the number of cataloged events.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.events)
}

// EventDir returns the folder of a known event.
func (c *Catalog) EventDir(id string) (string, error) {
	if _, err := c.layout.FolderPath(id); err != nil {
		return "", err
	}

	c.mu.RLock()
	rec, ok := c.events[id]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("event %q: %w", id, ErrNotFound)
	}
	return rec.dir, nil
}

// ResolveCamera returns the clip file of camera within a known event.
func (c *Catalog) ResolveCamera(id, camera string) (string, error) {
	dir, err := c.EventDir(id)
	if err != nil {
		return "", err
	}
	return ResolveCameraFile(dir, camera, c.retry)
}

// IsReady reports whether the initial scan and replay have completed.
func (c *Catalog) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Ready is closed once the catalog becomes ready.
func (c *Catalog) Ready() <-chan struct{} {
	return c.readyCh
}

// HealthStatus contains catalog health information.
type HealthStatus struct {
	Ready         bool      `json:"ready"`
	Scanning      bool      `json:"scanning"`
	StartTime     time.Time `json:"startTime"`
	Uptime        string    `json:"uptime"`
	LastScan      time.Time `json:"lastScan,omitempty"`
	ScanDuration  string    `json:"scanDuration,omitempty"`
	Events        int       `json:"events"`
	QueuedUpdates int       `json:"queuedUpdates"`
}

// HealthStatus returns detailed health information.
func (c *Catalog) HealthStatus() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := HealthStatus{
		Ready:         c.ready,
		Scanning:      c.scanning,
		StartTime:     c.startTime,
		Uptime:        time.Since(c.startTime).String(),
		LastScan:      c.lastScan,
		Events:        len(c.events),
		QueuedUpdates: len(c.pending),
	}
	if c.ready {
		status.ScanDuration = c.scanDuration.String()
	}
	return status
}
