package workers

import (
	"os"
	"runtime"
	"strconv"

	"dashcam-viewer/internal/logging"
)

// Count returns the number of workers for a task type.
// It respects container CPU limits via GOMAXPROCS.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks (ffmpeg exports)
//   - 2.0 for I/O-bound tasks (directory listings)
//
// The limit parameter caps the worker count. Use 0 for no limit.
func Count(multiplier float64, limit int) int {
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// FromEnv returns the positive integer in the environment variable key,
// or fallback when it is unset or invalid.
func FromEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	count, err := strconv.Atoi(value)
	if err != nil || count < 1 {
		logging.Warn("Invalid worker count for %s: %q, using default: %d", key, value, fallback)
		return fallback
	}
	return count
}
