package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"dashcam-viewer/internal/filesystem"
	"dashcam-viewer/internal/logging"
	"dashcam-viewer/internal/metrics"
)

// Watcher feeds filesystem notifications into a Catalog. It watches the
// clip roots for event folders appearing or disappearing and every event
// folder for clip files being written.
type Watcher struct {
	catalog *Catalog
	layout  Layout
	fsw     *fsnotify.Watcher
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher for c. Call Start before InitialScan so no
// change between listing and watching is missed.
func NewWatcher(c *Catalog) *Watcher {
	return &Watcher{
		catalog: c,
		layout:  c.Layout(),
	}
}

// Start registers the watches and begins delivering notifications.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrors.Inc()
		return err
	}
	w.fsw = fsw

	watchCount := 0
	if w.layout.MultiRoot() {
		// Roots created after startup are picked up from the base directory.
		if w.add(w.layout.BaseDir) {
			watchCount++
		}
	}
	for _, root := range w.layout.Roots() {
		watchCount += w.watchRoot(root, false)
	}

	metrics.WatchedDirectories.Set(float64(watchCount))
	logging.Info("Catalog watcher started, watching %d directories", watchCount)

	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop closes the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	if w.fsw == nil {
		return
	}
	if err := w.fsw.Close(); err != nil {
		logging.Error("failed to close catalog watcher: %v", err)
	}
	w.wg.Wait()
}

func (w *Watcher) add(path string) bool {
	if err := w.fsw.Add(path); err != nil {
		logging.Warn("failed to add path to watcher %s: %v", path, err)
		metrics.WatcherErrors.Inc()
		return false
	}
	return true
}

// watchRoot watches a clip root and each event folder inside it. With
// announce set, the folders found are also reported to the catalog.
func (w *Watcher) watchRoot(root Root, announce bool) int {
	if !w.add(root.Dir) {
		return 0
	}
	count := 1

	entries, err := filesystem.ReadDirWithRetry(root.Dir, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Warn("failed to list %s for watcher: %v", root.Dir, err)
		return count
	}

	for _, entry := range entries {
		if !entry.IsDir() || !IsEventFolder(entry.Name()) {
			continue
		}
		path := filepath.Join(root.Dir, entry.Name())
		if w.add(path) {
			count++
		}
		if announce {
			w.catalog.FolderCreated(path)
		}
	}
	return count
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	switch {
	case event.Has(fsnotify.Create):
		w.handleCreate(event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.handleRemove(event.Name)
	}
}

func (w *Watcher) handleCreate(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	if !info.IsDir() {
		w.catalog.FileAdded(path)
		return
	}

	if root, ok := w.layout.RootFor(path); ok {
		logging.Info("Clip root %s appeared", root.Dir)
		w.watchRoot(root, true)
		w.updateWatchCount()
		return
	}

	if _, _, ok := w.layout.Classify(path); !ok {
		return
	}

	// Watch before announcing so files written during population are seen.
	w.add(path)
	w.updateWatchCount()
	w.catalog.FolderCreated(path)
}

func (w *Watcher) handleRemove(path string) {
	if _, ok := w.layout.RootFor(path); ok {
		w.catalog.FolderRemoved(path)
		return
	}
	if _, _, ok := w.layout.Classify(path); ok {
		w.catalog.FolderRemoved(path)
		w.updateWatchCount()
	}
}

func (w *Watcher) updateWatchCount() {
	metrics.WatchedDirectories.Set(float64(len(w.fsw.WatchList())))
}

// eventType returns a string representation of the fsnotify operation.
func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
