package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/bcrypt"

	"dashcam-viewer/internal/logging"
	"dashcam-viewer/internal/metrics"
)

// AuthConfig holds the single set of credentials accepted by BasicAuth.
type AuthConfig struct {
	Realm        string
	Username     string
	PasswordHash []byte
	// SkipPaths are served without credentials
	SkipPaths []string
	// CacheSize and CacheTTL bound the cache of verified credentials so
	// bcrypt runs once per client rather than once per range request.
	CacheSize int
	CacheTTL  time.Duration
}

// NewAuthConfig builds an AuthConfig for username. A non-empty
// passwordHash must be a bcrypt hash and wins over password.
func NewAuthConfig(username, password, passwordHash string) (AuthConfig, error) {
	config := AuthConfig{
		Realm:     "DashcamViewer",
		Username:  username,
		SkipPaths: []string{"/health", "/healthz", "/livez", "/readyz", "/version", "/api/health"},
		CacheSize: 64,
		CacheTTL:  10 * time.Minute,
	}

	if username == "" {
		return config, errors.New("username must not be empty")
	}

	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return config, err
		}
		config.PasswordHash = []byte(passwordHash)
		return config, nil
	}

	if password == "" {
		return config, errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return config, err
	}
	config.PasswordHash = hash
	return config, nil
}

// BasicAuth returns a middleware that gates every request behind HTTP basic
// authentication except the configured skip paths.
func BasicAuth(config AuthConfig) func(http.Handler) http.Handler {
	size := config.CacheSize
	if size <= 0 {
		size = 64
	}
	verified := expirable.NewLRU[string, struct{}](size, nil, config.CacheTTL)
	challenge := `Basic realm="` + config.Realm + `", charset="UTF-8"`

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if r.URL.Path == path {
					next.ServeHTTP(w, r)
					return
				}
			}

			username, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", challenge)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			key := credentialKey(username, password)
			if _, hit := verified.Get(key); hit {
				next.ServeHTTP(w, r)
				return
			}

			if !checkCredentials(config, username, password) {
				metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
				logging.Warn("Failed login for user %q from %s", sanitizeLogField(username), getClientIP(r))
				w.Header().Set("WWW-Authenticate", challenge)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
			verified.Add(key, struct{}{})
			next.ServeHTTP(w, r)
		})
	}
}

func checkCredentials(config AuthConfig, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(config.Username)) == 1
	// Always run bcrypt so an unknown username costs the same as a wrong password.
	passOK := bcrypt.CompareHashAndPassword(config.PasswordHash, []byte(password)) == nil
	return userOK && passOK
}

// credentialKey avoids keeping plaintext passwords in the cache
func credentialKey(username, password string) string {
	sum := sha256.Sum256([]byte(username + "\x00" + password))
	return hex.EncodeToString(sum[:])
}
