package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("stat", "clips"))
	obs.ObserveRetryAttempt("stat", "clips")
	obs.ObserveRetryAttempt("stat", "clips")
	after := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("stat", "clips"))

	if after-before != 2 {
		t.Errorf("retry attempts increased by %v, want 2", after-before)
	}

	staleBefore := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("open", "cache"))
	obs.ObserveStaleError("open", "cache")
	if got := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("open", "cache")) - staleBefore; got != 1 {
		t.Errorf("stale errors increased by %v, want 1", got)
	}
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()

	if n := testutil.CollectAndCount(ExportJobsTotal); n < 6 {
		t.Errorf("expected export job series to be pre-populated, got %d", n)
	}
	if n := testutil.CollectAndCount(CatalogMutations); n != 3 {
		t.Errorf("expected 3 catalog mutation series, got %d", n)
	}
	if n := testutil.CollectAndCount(FilesystemRetryAttempts); n < 9 {
		t.Errorf("expected at least 9 retry attempt series, got %d", n)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc123", "go1.25")

	if got := testutil.ToFloat64(AppInfo.WithLabelValues("1.2.3", "abc123", "go1.25")); got != 1 {
		t.Errorf("app info = %v, want 1", got)
	}
}
