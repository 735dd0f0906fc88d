package memory

import (
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"dashcam-viewer/internal/logging"
	"dashcam-viewer/internal/metrics"
)

// Config holds pressure monitor settings
type Config struct {
	// LimitBytes is the reference heap size (0 = use GOMEMLIMIT)
	LimitBytes int64

	// EnterRatio is the heap share at which pressure is reported
	EnterRatio float64

	// LeaveRatio is the heap share below which pressure clears
	LeaveRatio float64

	// Interval is how often the heap is sampled
	Interval time.Duration
}

// DefaultConfig returns the monitor defaults
func DefaultConfig() Config {
	return Config{
		EnterRatio: 0.85,
		LeaveRatio: 0.70,
		Interval:   5 * time.Second,
	}
}

// Monitor samples the Go heap and reports when it is close to the limit so
// in-process image decoding can back off.
type Monitor struct {
	config Config
	limit  int64
	sample func() uint64

	mu       sync.RWMutex
	usage    float64
	pressure bool

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewMonitor creates a monitor. Without an explicit or runtime memory
// limit the monitor never reports pressure.
func NewMonitor(config Config) *Monitor {
	defaults := DefaultConfig()
	if config.EnterRatio <= 0 || config.EnterRatio > 1 {
		config.EnterRatio = defaults.EnterRatio
	}
	if config.LeaveRatio <= 0 || config.LeaveRatio >= config.EnterRatio {
		config.LeaveRatio = config.EnterRatio - 0.15
	}
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}

	limit := config.LimitBytes
	if limit == 0 {
		if current := debug.SetMemoryLimit(-1); current > 0 && current < math.MaxInt64 {
			limit = current
		}
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no limit configured, thumbnail throttling disabled")
	}

	return &Monitor{
		config: config,
		limit:  limit,
		sample: heapInUse,
		stopCh: make(chan struct{}),
	}
}

func heapInUse() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Start begins periodic sampling
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.check()
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Stop ends sampling and waits for the sampler to exit
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

func (m *Monitor) check() {
	if m.limit == 0 {
		return
	}
	usage := float64(m.sample()) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	m.usage = usage
	entered := !m.pressure && usage >= m.config.EnterRatio
	left := m.pressure && usage < m.config.LeaveRatio
	if entered {
		m.pressure = true
	}
	if left {
		m.pressure = false
	}
	m.mu.Unlock()

	switch {
	case entered:
		logging.Warn("Memory pressure (%.1f%% of limit), pausing thumbnail generation", usage*100)
		metrics.MemoryUnderPressure.Set(1)
		metrics.MemoryPressureEvents.Inc()
		go runtime.GC()
	case left:
		logging.Info("Memory recovered (%.1f%% of limit), resuming thumbnail generation", usage*100)
		metrics.MemoryUnderPressure.Set(0)
	}
}

// UnderPressure reports whether heap usage is above the threshold
func (m *Monitor) UnderPressure() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pressure
}

// Usage returns the last sampled heap share of the limit (0 without a limit)
func (m *Monitor) Usage() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usage
}

// Limit returns the reference heap size in bytes
func (m *Monitor) Limit() int64 {
	return m.limit
}
