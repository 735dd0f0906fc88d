package memory

import (
	"runtime/debug"
	"testing"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func restoreMemoryLimit(t *testing.T) {
	t.Helper()
	previous := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(previous) })
}

func TestApplyLimit(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantSource string
		wantHeap   int64
		wantRatio  float64
	}{
		{
			name:       "Nothing configured",
			env:        map[string]string{},
			wantSource: "none",
		},
		{
			name:       "Plain bytes with default ratio",
			env:        map[string]string{"MEMORY_LIMIT": "1000000000"},
			wantSource: "MEMORY_LIMIT",
			wantHeap:   800000000,
			wantRatio:  DefaultRatio,
		},
		{
			name:       "Suffixed quantity with custom ratio",
			env:        map[string]string{"MEMORY_LIMIT": "1Gi", "MEMORY_RATIO": "0.5"},
			wantSource: "MEMORY_LIMIT",
			wantHeap:   512 << 20,
			wantRatio:  0.5,
		},
		{
			name:       "Out of range ratio falls back",
			env:        map[string]string{"MEMORY_LIMIT": "1000", "MEMORY_RATIO": "1.5"},
			wantSource: "MEMORY_LIMIT",
			wantHeap:   800,
			wantRatio:  DefaultRatio,
		},
		{
			name:       "Unparseable limit",
			env:        map[string]string{"MEMORY_LIMIT": "lots"},
			wantSource: "none",
		},
		{
			name:       "GOMEMLIMIT wins",
			env:        map[string]string{"GOMEMLIMIT": "1GiB", "MEMORY_LIMIT": "2Gi"},
			wantSource: "GOMEMLIMIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreMemoryLimit(t)

			got := applyLimit(envMap(tt.env))
			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
			if tt.wantSource != "MEMORY_LIMIT" {
				return
			}
			if got.HeapBytes != tt.wantHeap {
				t.Errorf("HeapBytes = %d, want %d", got.HeapBytes, tt.wantHeap)
			}
			if got.Ratio != tt.wantRatio {
				t.Errorf("Ratio = %v, want %v", got.Ratio, tt.wantRatio)
			}
			if current := debug.SetMemoryLimit(-1); current != tt.wantHeap {
				t.Errorf("runtime limit = %d, want %d", current, tt.wantHeap)
			}
		})
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"512Mi", 512 << 20, false},
		{" 2Gi ", 2 << 30, false},
		{"4Ki", 4096, false},
		{"0", 0, true},
		{"-5Mi", 0, true},
		{"1.5Gi", 0, true},
		{"9223372036854775807Ki", 0, true},
	}

	for _, tt := range tests {
		got, err := parseBytes(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseBytes(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseBytes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{512 << 20, "512.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
