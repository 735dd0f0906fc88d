package filesystem

// Observer records retry metrics. The metrics package provides the
// Prometheus-backed implementation; keeping the interface here avoids an
// import cycle between filesystem and metrics.
type Observer interface {
	// retryOp is one of "stat", "open", "readdir".
	// volume is the resolved mount label (e.g., "clips", "cache").
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)
}

// nopObserver is used until SetObserver is called (tests, tools).
type nopObserver struct{}

func (nopObserver) ObserveRetryAttempt(string, string)           {}
func (nopObserver) ObserveRetrySuccess(string, string)           {}
func (nopObserver) ObserveRetryFailure(string, string)           {}
func (nopObserver) ObserveRetryDuration(string, string, float64) {}
func (nopObserver) ObserveStaleError(string, string)             {}

var defaultObserver Observer = nopObserver{}

// SetObserver sets the package-level metrics observer.
// Call this once at startup before serving requests.
func SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	defaultObserver = o
}
