package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"dashcam-viewer/internal/logging"
)

// stderrTailSize bounds how much ffmpeg diagnostic output is kept per run.
const stderrTailSize = 4096

// ErrDisabled is returned when the engine is unavailable.
var ErrDisabled = errors.New("transcoder disabled")

// ExitError reports a failed ffmpeg run together with the end of its stderr.
type ExitError struct {
	JobID  string
	Err    error
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("ffmpeg job %s failed: %v", e.JobID, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Transcoder runs ffmpeg jobs and tracks the running processes so they can
// be killed on shutdown.
type Transcoder struct {
	ffmpegPath string
	outputDir  string
	enabled    bool
	processes  map[string]*exec.Cmd
	processMu  sync.Mutex
}

// New creates a Transcoder. outputDir holds export artifacts; when enabled
// is false every run fails with ErrDisabled.
func New(ffmpegPath, outputDir string, enabled bool) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Transcoder{
		ffmpegPath: ffmpegPath,
		outputDir:  outputDir,
		enabled:    enabled,
		processes:  make(map[string]*exec.Cmd),
	}
}

// IsEnabled returns whether ffmpeg jobs can run.
func (t *Transcoder) IsEnabled() bool {
	return t.enabled
}

// OutputDir returns the directory artifacts are written to.
func (t *Transcoder) OutputDir() string {
	return t.outputDir
}

// Run executes ffmpeg with args and waits for it to exit. jobID names the
// process in logs and in the process table.
func (t *Transcoder) Run(ctx context.Context, jobID string, args []string) error {
	_, err := t.run(ctx, jobID, args, false)
	return err
}

// Output executes ffmpeg with args and returns what it wrote to stdout.
func (t *Transcoder) Output(ctx context.Context, jobID string, args []string) ([]byte, error) {
	return t.run(ctx, jobID, args, true)
}

func (t *Transcoder) run(ctx context.Context, jobID string, args []string, captureStdout bool) ([]byte, error) {
	if !t.enabled {
		return nil, ErrDisabled
	}

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)

	var stdout bytes.Buffer
	if captureStdout {
		cmd.Stdout = &stdout
	}
	stderr := &tailBuffer{limit: stderrTailSize}
	cmd.Stderr = stderr

	if err := t.track(jobID, cmd); err != nil {
		return nil, err
	}
	defer t.untrack(jobID)

	start := time.Now()
	logging.Debug("Starting ffmpeg job %s: %s %v", jobID, t.ffmpegPath, args)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logging.Warn("ffmpeg job %s stopped after %v: %v", jobID, time.Since(start).Round(time.Millisecond), ctxErr)
			return nil, fmt.Errorf("ffmpeg job %s: %w", jobID, ctxErr)
		}
		logging.Error("FFmpeg stderr for job %s: %s", jobID, stderr.String())
		return nil, &ExitError{JobID: jobID, Err: err, Stderr: stderr.String()}
	}

	logging.Debug("ffmpeg job %s finished in %v", jobID, time.Since(start).Round(time.Millisecond))
	return stdout.Bytes(), nil
}

func (t *Transcoder) track(jobID string, cmd *exec.Cmd) error {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	if _, exists := t.processes[jobID]; exists {
		return fmt.Errorf("ffmpeg job %s already running", jobID)
	}
	t.processes[jobID] = cmd
	return nil
}

func (t *Transcoder) untrack(jobID string) {
	t.processMu.Lock()
	delete(t.processes, jobID)
	t.processMu.Unlock()
}

// Running returns the number of ffmpeg processes in flight.
func (t *Transcoder) Running() int {
	t.processMu.Lock()
	defer t.processMu.Unlock()
	return len(t.processes)
}

// ExtractFrame decodes one frame of the video at path as PNG. When nothing
// can be decoded at offset (clips shorter than offset) the first frame is
// used instead.
func (t *Transcoder) ExtractFrame(ctx context.Context, path string, offset time.Duration) ([]byte, error) {
	jobID := "frame:" + path

	frame, err := t.Output(ctx, jobID, frameArgs(path, offset))
	if err == nil && len(frame) > 0 {
		return frame, nil
	}
	if offset == 0 || ctx.Err() != nil {
		if err == nil {
			err = fmt.Errorf("ffmpeg produced no frame for %s", path)
		}
		return nil, err
	}

	logging.Debug("No frame at %v for %s, falling back to first frame", offset, path)
	frame, err = t.Output(ctx, jobID, frameArgs(path, 0))
	if err != nil {
		return nil, err
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame for %s", path)
	}
	return frame, nil
}

func frameArgs(path string, offset time.Duration) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(offset.Seconds(), 'f', -1, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

// Cleanup stops all active ffmpeg processes.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for jobID, cmd := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing ffmpeg process for job: %s", jobID)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill ffmpeg process for %s: %v", jobID, err)
			}
		}
	}
}

// ClearCache removes leftover artifacts from the output directory and
// returns the number of bytes freed.
func (t *Transcoder) ClearCache() (int64, error) {
	if t.outputDir == "" {
		return 0, nil
	}

	var freedBytes int64

	entries, err := os.ReadDir(t.outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read export directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(t.outputDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			logging.Warn("failed to get info for %s: %v", path, err)
			continue
		}

		if entry.IsDir() {
			dirSize, _ := getDirSize(path)
			if err := os.RemoveAll(path); err != nil {
				logging.Warn("failed to remove directory %s: %v", path, err)
				continue
			}
			freedBytes += dirSize
		} else {
			if err := os.Remove(path); err != nil {
				logging.Warn("failed to remove file %s: %v", path, err)
				continue
			}
			freedBytes += info.Size()
		}
	}

	logging.Info("Cleared export directory: freed %d bytes", freedBytes)
	return freedBytes, nil
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(bytes.TrimSpace(b.buf))
}
