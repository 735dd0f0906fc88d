package catalog

import (
	"errors"
	"testing"
)

func TestIsEventFolder(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"2024-01-15_10-30-00", true},
		{"1999-12-31_23-59-59", true},
		{"2024-01-15 10-30-00", false},
		{"2024-01-15_10-30", false},
		{"2024-1-15_10-30-00", false},
		{"2024-01-15_10-30-00x", false},
		{"x2024-01-15_10-30-00", false},
		{"notes", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEventFolder(tt.name); got != tt.want {
				t.Errorf("IsEventFolder(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCameraOf(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		wantOK   bool
	}{
		{"2024-01-15_10-30-00-front.mp4", "front", true},
		{"2024-01-15_10-30-00-left_repeater.mp4", "left_repeater", true},
		{"clip-back.mp4", "back", true},
		{"front.mp4", "", false},
		{"clip-.mp4", "", false},
		{"clip-front.mov", "", false},
		{"clip-front.mp4.tmp", "", false},
		{"event.json", "", false},
		{"thumb.png", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, ok := CameraOf(tt.filename)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("CameraOf(%q) = (%q, %v), want (%q, %v)", tt.filename, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEventIDRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		clipType  string
		folder    string
		multiRoot bool
		wantID    string
	}{
		{"multi root", "SavedClips", "2024-01-15_10-30-00", true, "SavedClips__2024-01-15_10-30-00"},
		{"single root", "", "2024-01-15_10-30-00", false, "2024-01-15_10-30-00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := EventID(tt.clipType, tt.folder)
			if id != tt.wantID {
				t.Fatalf("EventID() = %q, want %q", id, tt.wantID)
			}

			clipType, folder, err := SplitEventID(id, tt.multiRoot)
			if err != nil {
				t.Fatalf("SplitEventID(%q) error = %v", id, err)
			}
			if clipType != tt.clipType || folder != tt.folder {
				t.Errorf("SplitEventID(%q) = (%q, %q), want (%q, %q)", id, clipType, folder, tt.clipType, tt.folder)
			}
		})
	}
}

func TestSplitEventIDRejectsMalformed(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		multiRoot bool
	}{
		{"empty", "", false},
		{"no separator", "2024-01-15_10-30-00", true},
		{"empty clip type", "__2024-01-15_10-30-00", true},
		{"empty folder", "SavedClips__", true},
		{"path separator", "SavedClips__../etc", true},
		{"parent reference", "..", false},
		{"slash single root", "a/b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := SplitEventID(tt.id, tt.multiRoot)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("SplitEventID(%q) error = %v, want ErrMalformed", tt.id, err)
			}
		})
	}
}

func TestTimestampOf(t *testing.T) {
	got := TimestampOf("2024-01-15_10-30-00")
	if got != "2024-01-15 10-30-00" {
		t.Errorf("TimestampOf() = %q", got)
	}

	older, newer := TimestampOf("2023-12-31_23-59-59"), TimestampOf("2024-01-01_00-00-00")
	if !(older < newer) {
		t.Errorf("expected %q < %q", older, newer)
	}
}

func TestValidCameraName(t *testing.T) {
	for _, name := range []string{"front", "left_repeater", "back"} {
		if !validCameraName(name) {
			t.Errorf("validCameraName(%q) = false", name)
		}
	}
	for _, name := range []string{"", ".", "..", "../front", "a/b", `a\b`} {
		if validCameraName(name) {
			t.Errorf("validCameraName(%q) = true", name)
		}
	}
}
