package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"dashcam-viewer/internal/filesystem"
)

var testClipTypes = []string{"RecentClips", "SavedClips", "SentryClips"}

// makeEvent creates an event folder with one empty clip per camera.
func makeEvent(t *testing.T, root, folder string, cameras ...string) string {
	t.Helper()

	dir := filepath.Join(root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	for _, cam := range cameras {
		writeClip(t, dir, folder+"-"+cam+".mp4")
	}
	return dir
}

func writeClip(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("clip"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func newMultiRoot(t *testing.T) (*Catalog, string) {
	t.Helper()

	base := t.TempDir()
	for _, ct := range testClipTypes {
		if err := os.MkdirAll(filepath.Join(base, ct), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return New(Layout{BaseDir: base, ClipTypes: testClipTypes}), base
}

func scan(t *testing.T, c *Catalog) {
	t.Helper()

	if err := c.InitialScan(context.Background()); err != nil {
		t.Fatalf("InitialScan() error = %v", err)
	}
}

func ids(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func TestInitialScan(t *testing.T) {
	c, base := newMultiRoot(t)

	makeEvent(t, filepath.Join(base, "RecentClips"), "2024-01-15_10-30-00", "front", "back")
	makeEvent(t, filepath.Join(base, "SavedClips"), "2024-02-01_08-00-00", "front")
	makeEvent(t, filepath.Join(base, "RecentClips"), "not-an-event", "front")
	writeClip(t, filepath.Join(base, "RecentClips"), "stray-front.mp4")

	scan(t, c)

	events := c.List()
	want := []string{"SavedClips__2024-02-01_08-00-00", "RecentClips__2024-01-15_10-30-00"}
	if got := ids(events); !slices.Equal(got, want) {
		t.Fatalf("List() ids = %v, want %v", got, want)
	}

	if events[0].Timestamp != "2024-02-01 08-00-00" {
		t.Errorf("Timestamp = %q", events[0].Timestamp)
	}
	if events[0].ClipType != "SavedClips" {
		t.Errorf("ClipType = %q", events[0].ClipType)
	}
	if !slices.Equal(events[1].Cameras, []string{"back", "front"}) {
		t.Errorf("Cameras = %v, want [back front]", events[1].Cameras)
	}
	if !c.IsReady() {
		t.Error("catalog not ready after scan")
	}
}

func TestInitialScanSingleRoot(t *testing.T) {
	base := t.TempDir()
	makeEvent(t, base, "2024-01-15_10-30-00", "front")
	makeEvent(t, base, "2024-01-16_10-30-00", "front", "left_repeater")

	c := New(Layout{BaseDir: base})
	scan(t, c)

	events := c.List()
	want := []string{"2024-01-16_10-30-00", "2024-01-15_10-30-00"}
	if got := ids(events); !slices.Equal(got, want) {
		t.Fatalf("List() ids = %v, want %v", got, want)
	}
	if events[0].ClipType != "" {
		t.Errorf("ClipType = %q, want empty", events[0].ClipType)
	}
}

func TestInitialScanMissingRoot(t *testing.T) {
	base := t.TempDir()
	makeEvent(t, filepath.Join(base, "SentryClips"), "2024-03-01_12-00-00", "front")

	c := New(Layout{BaseDir: base, ClipTypes: testClipTypes})
	scan(t, c)

	if got := ids(c.List()); !slices.Equal(got, []string{"SentryClips__2024-03-01_12-00-00"}) {
		t.Errorf("List() ids = %v", got)
	}
}

func TestInitialScanOnlyOnce(t *testing.T) {
	c, _ := newMultiRoot(t)
	scan(t, c)

	if err := c.InitialScan(context.Background()); err == nil {
		t.Error("second InitialScan() should fail")
	}
}

func TestInitialScanCanceled(t *testing.T) {
	c, base := newMultiRoot(t)
	for _, folder := range []string{"2024-01-01_00-00-00", "2024-01-02_00-00-00"} {
		makeEvent(t, filepath.Join(base, "RecentClips"), folder, "front")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c.SetScanWorkers(1)
	if err := c.InitialScan(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("InitialScan() error = %v", err)
	}
}

func TestFolderCreatedIsIdempotent(t *testing.T) {
	c, base := newMultiRoot(t)
	scan(t, c)

	root := filepath.Join(base, "RecentClips")
	dir := makeEvent(t, root, "2024-01-15_10-30-00", "front", "back")
	writeClip(t, dir, "2024-01-15_10-31-00-front.mp4")

	c.FolderCreated(dir)
	c.FolderCreated(dir)
	c.WaitForPopulation()

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}

	event, ok := c.Get("RecentClips__2024-01-15_10-30-00")
	if !ok {
		t.Fatal("event missing")
	}
	if !slices.Equal(event.Cameras, []string{"back", "front"}) {
		t.Errorf("Cameras = %v, want [back front]", event.Cameras)
	}
}

func TestFolderCreatedIgnoresForeignPaths(t *testing.T) {
	c, base := newMultiRoot(t)
	scan(t, c)

	c.FolderCreated(filepath.Join(base, "RecentClips", "thumbnails"))
	c.FolderCreated(filepath.Join(base, "Other", "2024-01-15_10-30-00"))
	c.FolderCreated(filepath.Join(base, "2024-01-15_10-30-00"))
	c.WaitForPopulation()

	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestFolderRemoved(t *testing.T) {
	c, base := newMultiRoot(t)
	dir := makeEvent(t, filepath.Join(base, "SavedClips"), "2024-01-15_10-30-00", "front")
	scan(t, c)

	var removed []string
	c.SetOnRemove(func(id string) { removed = append(removed, id) })

	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	c.FolderRemoved(dir)
	c.FolderRemoved(dir)

	if _, ok := c.Get("SavedClips__2024-01-15_10-30-00"); ok {
		t.Error("event still present after removal")
	}
	if !slices.Equal(removed, []string{"SavedClips__2024-01-15_10-30-00"}) {
		t.Errorf("removal hook calls = %v", removed)
	}

	c.FolderRemoved(filepath.Join(base, "SavedClips", "2030-01-01_00-00-00"))
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestRootRemovedDropsItsEvents(t *testing.T) {
	c, base := newMultiRoot(t)
	makeEvent(t, filepath.Join(base, "SavedClips"), "2024-01-15_10-30-00", "front")
	makeEvent(t, filepath.Join(base, "SavedClips"), "2024-01-16_10-30-00", "front")
	makeEvent(t, filepath.Join(base, "RecentClips"), "2024-01-17_10-30-00", "front")
	scan(t, c)

	var removed []string
	c.SetOnRemove(func(id string) { removed = append(removed, id) })

	c.FolderRemoved(filepath.Join(base, "SavedClips"))

	if got := ids(c.List()); !slices.Equal(got, []string{"RecentClips__2024-01-17_10-30-00"}) {
		t.Errorf("List() ids = %v", got)
	}
	if len(removed) != 2 {
		t.Errorf("removal hook called %d times, want 2", len(removed))
	}
}

func TestRemovalDuringScanIsNotLost(t *testing.T) {
	c, base := newMultiRoot(t)
	dir := makeEvent(t, filepath.Join(base, "RecentClips"), "2024-01-15_10-30-00", "front")
	makeEvent(t, filepath.Join(base, "RecentClips"), "2024-01-16_10-30-00", "front")

	// Delivered before the scan merges its results, as if the folder was
	// deleted right after being listed.
	c.FolderRemoved(dir)

	if status := c.HealthStatus(); status.QueuedUpdates != 1 || status.Ready {
		t.Fatalf("HealthStatus() = %+v, want one queued update and not ready", status)
	}

	scan(t, c)

	if got := ids(c.List()); !slices.Equal(got, []string{"RecentClips__2024-01-16_10-30-00"}) {
		t.Errorf("List() ids = %v", got)
	}
}

func TestCreationDuringScanIsReplayed(t *testing.T) {
	c, base := newMultiRoot(t)
	root := filepath.Join(base, "SentryClips")

	early := makeEvent(t, root, "2024-01-15_10-30-00", "front")
	c.FolderCreated(early)

	scan(t, c)

	late := makeEvent(t, root, "2024-01-16_10-30-00", "back")
	c.FolderCreated(late)
	c.WaitForPopulation()

	if got := ids(c.List()); !slices.Equal(got, []string{
		"SentryClips__2024-01-16_10-30-00",
		"SentryClips__2024-01-15_10-30-00",
	}) {
		t.Errorf("List() ids = %v", got)
	}
}

func TestFileAdded(t *testing.T) {
	c, base := newMultiRoot(t)
	dir := makeEvent(t, filepath.Join(base, "RecentClips"), "2024-01-15_10-30-00", "front")
	scan(t, c)

	c.FileAdded(writeClip(t, dir, "2024-01-15_10-30-00-back.mp4"))
	c.FileAdded(writeClip(t, dir, "2024-01-15_10-31-00-back.mp4"))
	c.FileAdded(writeClip(t, dir, "event.json"))
	c.FileAdded(filepath.Join(base, "RecentClips", "2030-01-01_00-00-00", "x-front.mp4"))

	event, _ := c.Get("RecentClips__2024-01-15_10-30-00")
	if !slices.Equal(event.Cameras, []string{"back", "front"}) {
		t.Errorf("Cameras = %v, want [back front]", event.Cameras)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestListOrderAndCopies(t *testing.T) {
	c, base := newMultiRoot(t)
	makeEvent(t, filepath.Join(base, "SentryClips"), "2024-01-15_10-30-00", "front")
	makeEvent(t, filepath.Join(base, "RecentClips"), "2024-01-15_10-30-00", "front")
	makeEvent(t, filepath.Join(base, "SavedClips"), "2023-06-01_10-30-00", "front")
	scan(t, c)

	events := c.List()
	want := []string{
		"RecentClips__2024-01-15_10-30-00",
		"SentryClips__2024-01-15_10-30-00",
		"SavedClips__2023-06-01_10-30-00",
	}
	if got := ids(events); !slices.Equal(got, want) {
		t.Fatalf("List() ids = %v, want %v", got, want)
	}

	events[0].Cameras[0] = "tampered"
	again, _ := c.Get(events[0].ID)
	if again.Cameras[0] != "front" {
		t.Error("List() returned shared camera slice")
	}
}

func TestEventDirAndResolveCamera(t *testing.T) {
	c, base := newMultiRoot(t)
	dir := makeEvent(t, filepath.Join(base, "SavedClips"), "2024-01-15_10-30-00", "front", "back")
	scan(t, c)

	id := "SavedClips__2024-01-15_10-30-00"
	got, err := c.EventDir(id)
	if err != nil || got != dir {
		t.Fatalf("EventDir() = (%q, %v), want %q", got, err, dir)
	}

	path, err := c.ResolveCamera(id, "back")
	if err != nil {
		t.Fatalf("ResolveCamera() error = %v", err)
	}
	if want := filepath.Join(dir, "2024-01-15_10-30-00-back.mp4"); path != want {
		t.Errorf("ResolveCamera() = %q, want %q", path, want)
	}

	tests := []struct {
		name    string
		id      string
		camera  string
		wantErr error
	}{
		{"unknown camera", id, "left_repeater", ErrNotFound},
		{"traversal camera", id, "../front", ErrNotFound},
		{"unknown event", "SavedClips__2030-01-01_00-00-00", "front", ErrNotFound},
		{"unknown clip type", "Other__2024-01-15_10-30-00", "front", ErrMalformed},
		{"no clip type", "2024-01-15_10-30-00", "front", ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.ResolveCamera(tt.id, tt.camera); !errors.Is(err, tt.wantErr) {
				t.Errorf("ResolveCamera(%q, %q) error = %v, want %v", tt.id, tt.camera, err, tt.wantErr)
			}
		})
	}
}

func TestResolveCameraFilePicksFirstMatch(t *testing.T) {
	dir := t.TempDir()
	writeClip(t, dir, "2024-01-15_10-31-00-front.mp4")
	writeClip(t, dir, "2024-01-15_10-30-00-front.mp4")
	writeClip(t, dir, "2024-01-15_10-30-00-back.mp4")

	path, err := ResolveCameraFile(dir, "front", filesystem.DefaultRetryConfig())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "2024-01-15_10-30-00-front.mp4" {
		t.Errorf("ResolveCameraFile() = %q", path)
	}

	if _, err := ResolveCameraFile(filepath.Join(dir, "missing"), "front", filesystem.DefaultRetryConfig()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing folder error = %v, want ErrNotFound", err)
	}
}

func TestReadySignal(t *testing.T) {
	c, _ := newMultiRoot(t)

	select {
	case <-c.Ready():
		t.Fatal("ready before scan")
	default:
	}

	scan(t, c)

	select {
	case <-c.Ready():
	default:
		t.Fatal("not ready after scan")
	}

	status := c.HealthStatus()
	if !status.Ready || status.ScanDuration == "" || status.QueuedUpdates != 0 {
		t.Errorf("HealthStatus() = %+v", status)
	}
}

func TestConcurrentMutationsAndReads(t *testing.T) {
	c, base := newMultiRoot(t)
	scan(t, c)

	root := filepath.Join(base, "RecentClips")
	folders := []string{
		"2024-01-01_00-00-00", "2024-01-02_00-00-00", "2024-01-03_00-00-00",
		"2024-01-04_00-00-00", "2024-01-05_00-00-00",
	}
	for _, f := range folders {
		makeEvent(t, root, f, "front")
	}

	var wg sync.WaitGroup
	for _, f := range folders {
		f := f
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.FolderCreated(filepath.Join(root, f))
		}()
		go func() {
			defer wg.Done()
			_ = c.List()
		}()
	}
	wg.Wait()
	c.WaitForPopulation()

	if c.Len() != len(folders) {
		t.Errorf("Len() = %d, want %d", c.Len(), len(folders))
	}
}
