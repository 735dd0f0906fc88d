package middleware

import "net/http"

// ReadinessChecker reports whether a dependency has finished loading.
type ReadinessChecker interface {
	IsReady() bool
}

// RequireReady answers 503 until checker is ready.
func RequireReady(checker ReadinessChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !checker.IsReady() {
				w.Header().Set("Retry-After", "5")
				http.Error(w, "Event catalog is still loading", http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
