package metrics

// InitializeMetrics pre-populates the expected label combinations so that
// every series is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, result := range []string{"accepted", "ignored", "error"} {
		CatalogScanFolders.WithLabelValues(result)
	}

	for _, kind := range []string{"create", "remove", "file_added"} {
		CatalogMutations.WithLabelValues(kind)
	}

	for _, eventType := range []string{"create", "write", "remove", "rename", "chmod"} {
		WatcherEventsTotal.WithLabelValues(eventType)
	}

	for _, status := range []string{"success", "error", "invalid", "not_found", "precondition", "canceled"} {
		ExportJobsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"success", "error", "throttled"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"success", "failure"} {
		AuthAttemptsTotal.WithLabelValues(status)
	}

	for _, op := range []string{"stat", "open", "readdir"} {
		for _, vol := range []string{"clips", "cache", "unknown"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
