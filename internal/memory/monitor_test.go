package memory

import (
	"testing"
	"time"
)

func newTestMonitor(heap *uint64) *Monitor {
	m := NewMonitor(Config{LimitBytes: 1000, EnterRatio: 0.85, LeaveRatio: 0.70, Interval: time.Hour})
	m.sample = func() uint64 { return *heap }
	return m
}

func TestMonitorHysteresis(t *testing.T) {
	var heap uint64
	m := newTestMonitor(&heap)

	steps := []struct {
		heap uint64
		want bool
	}{
		{500, false},
		{850, true},
		{750, true},
		{690, false},
		{800, false},
		{900, true},
	}

	for i, step := range steps {
		heap = step.heap
		m.check()
		if got := m.UnderPressure(); got != step.want {
			t.Errorf("step %d (heap %d): UnderPressure() = %v, want %v", i, step.heap, got, step.want)
		}
	}

	if got := m.Usage(); got != 0.9 {
		t.Errorf("Usage() = %v, want 0.9", got)
	}
}

func TestMonitorWithoutLimit(t *testing.T) {
	restoreMemoryLimit(t)

	m := NewMonitor(Config{})
	if m.Limit() != 0 {
		t.Skip("runtime memory limit configured in this environment")
	}

	m.check()
	if m.UnderPressure() {
		t.Error("Expected no pressure without a limit")
	}

	m.Start()
	m.Stop()
}

func TestMonitorDefaults(t *testing.T) {
	m := NewMonitor(Config{LimitBytes: 1, EnterRatio: 2, LeaveRatio: 0.95})

	if m.config.EnterRatio != 0.85 {
		t.Errorf("EnterRatio = %v, want 0.85", m.config.EnterRatio)
	}
	if m.config.LeaveRatio >= m.config.EnterRatio {
		t.Errorf("LeaveRatio %v must be below EnterRatio %v", m.config.LeaveRatio, m.config.EnterRatio)
	}
	if m.config.Interval != 5*time.Second {
		t.Errorf("Interval = %v, want 5s", m.config.Interval)
	}
}

func TestMonitorStartStop(t *testing.T) {
	var heap uint64 = 100
	m := NewMonitor(Config{LimitBytes: 1000, Interval: time.Millisecond})
	m.sample = func() uint64 { return heap }

	m.Start()
	time.Sleep(20 * time.Millisecond)
	m.Stop()
	m.Stop()

	if got := m.Usage(); got != 0.1 {
		t.Errorf("Usage() = %v, want 0.1", got)
	}
}
