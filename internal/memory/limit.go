package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"dashcam-viewer/internal/logging"
)

// DefaultRatio is the share of the container limit given to the Go heap.
// The remainder is left to the ffmpeg processes started for exports and
// thumbnails.
const DefaultRatio = 0.80

// Limit describes the heap limit applied at startup.
type Limit struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none"
	Source string

	// ContainerBytes is the container memory limit (0 if unknown)
	ContainerBytes int64

	// HeapBytes is the effective GOMEMLIMIT (0 if none)
	HeapBytes int64

	// Ratio is the share of ContainerBytes used for the heap
	Ratio float64
}

// ApplyLimit sets GOMEMLIMIT from the container memory limit. Call it early
// in main, before significant allocations.
//
// Environment variables:
//   - GOMEMLIMIT: standard Go variable, wins when set
//   - MEMORY_LIMIT: container limit in bytes or with a Ki/Mi/Gi suffix
//   - MEMORY_RATIO: heap share of MEMORY_LIMIT (default 0.80)
func ApplyLimit() Limit {
	return applyLimit(os.Getenv)
}

func applyLimit(getenv func(string) string) Limit {
	if env := getenv("GOMEMLIMIT"); env != "" {
		limit := Limit{Source: "GOMEMLIMIT"}
		if current := debug.SetMemoryLimit(-1); current > 0 && current < math.MaxInt64 {
			limit.HeapBytes = current
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return limit
	}

	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT left unconfigured")
		return Limit{Source: "none"}
	}

	containerBytes, err := parseBytes(raw)
	if err != nil {
		logging.Warn("Ignoring MEMORY_LIMIT: %v", err)
		return Limit{Source: "none"}
	}

	ratio := DefaultRatio
	if rawRatio := getenv("MEMORY_RATIO"); rawRatio != "" {
		parsed, err := strconv.ParseFloat(rawRatio, 64)
		switch {
		case err != nil:
			logging.Warn("Failed to parse MEMORY_RATIO %q, using %.2f", rawRatio, DefaultRatio)
		case parsed <= 0 || parsed > 1:
			logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0], using %.2f", rawRatio, DefaultRatio)
		default:
			ratio = parsed
		}
	}

	heapBytes := int64(float64(containerBytes) * ratio)
	debug.SetMemoryLimit(heapBytes)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		formatBytes(heapBytes), ratio*100, formatBytes(containerBytes))

	return Limit{
		Source:         "MEMORY_LIMIT",
		ContainerBytes: containerBytes,
		HeapBytes:      heapBytes,
		Ratio:          ratio,
	}
}

var byteSuffixes = []struct {
	suffix string
	factor int64
}{
	{"Ki", 1 << 10},
	{"Mi", 1 << 20},
	{"Gi", 1 << 30},
	{"Ti", 1 << 40},
}

// parseBytes accepts a plain byte count or a binary-suffixed quantity as
// written in Kubernetes resource limits.
func parseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	factor := int64(1)
	for _, bs := range byteSuffixes {
		if strings.HasSuffix(s, bs.suffix) {
			s = strings.TrimSuffix(s, bs.suffix)
			factor = bs.factor
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory quantity %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("memory quantity must be positive, got %d", n)
	}
	if n > math.MaxInt64/factor {
		return 0, fmt.Errorf("memory quantity %q overflows", s)
	}
	return n * factor, nil
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
