package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"dashcam-viewer/internal/catalog"
	"dashcam-viewer/internal/handlers"
	"dashcam-viewer/internal/middleware"
	"dashcam-viewer/internal/startup"
)

func newTestRouter(t *testing.T, scan bool) (*mux.Router, *handlers.Handlers) {
	t.Helper()

	clipsDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(clipsDir, "2024-05-01_09-15-00"), 0o755); err != nil {
		t.Fatal(err)
	}

	cat := catalog.New(catalog.Layout{BaseDir: clipsDir})
	if scan {
		if err := cat.InitialScan(context.Background()); err != nil {
			t.Fatalf("InitialScan failed: %v", err)
		}
	}

	h := handlers.New(cat, nil, nil, &startup.Config{ClipsDir: clipsDir})
	return setupRouter(h, cat), h
}

func TestSetupRouter(t *testing.T) {
	router, _ := newTestRouter(t, true)

	routes := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/healthz"},
		{"GET", "/livez"},
		{"GET", "/readyz"},
		{"GET", "/version"},
		{"GET", "/api/health"},
		{"GET", "/api/directory-status"},
		{"GET", "/api/events"},
		{"GET", "/api/video/2024-05-01_09-15-00/front"},
		{"GET", "/api/thumbnail/2024-05-01_09-15-00/front"},
		{"POST", "/api/export"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, http.NoBody)
			var match mux.RouteMatch
			if !router.Match(req, &match) {
				t.Errorf("Expected route for %s %s", rt.method, rt.path)
			}
		})
	}
}

func TestCatalogRoutesWaitForScan(t *testing.T) {
	router, _ := newTestRouter(t, false)

	tests := []struct {
		path string
		want int
	}{
		{"/api/events", http.StatusServiceUnavailable},
		{"/api/video/2024-05-01_09-15-00/front", http.StatusServiceUnavailable},
		{"/api/health", http.StatusOK},
		{"/api/directory-status", http.StatusOK},
		{"/livez", http.StatusOK},
		{"/readyz", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestCatalogRoutesAfterScan(t *testing.T) {
	router, _ := newTestRouter(t, true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"id":"2024-05-01_09-15-00"`) {
		t.Errorf("Expected single-root event in listing, got %s", w.Body.String())
	}
}

func TestBuildHandlerRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t, true)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	authConfig, err := middleware.NewAuthConfig("viewer", "", string(hash))
	if err != nil {
		t.Fatal(err)
	}
	handler := buildHandler(router, &startup.Config{}, authConfig)

	tests := []struct {
		name string
		path string
		auth bool
		want int
	}{
		{"Events without credentials", "/api/events", false, http.StatusUnauthorized},
		{"Events with credentials", "/api/events", true, http.StatusOK},
		{"Liveness without credentials", "/livez", false, http.StatusOK},
		{"Plain health without credentials", "/api/health", false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			if tt.auth {
				req.SetBasicAuth("viewer", "hunter2")
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestServerTimeouts(t *testing.T) {
	srv := newServer("3001", http.NotFoundHandler())

	if srv.Addr != ":3001" {
		t.Errorf("Expected addr :3001, got %q", srv.Addr)
	}
	if srv.WriteTimeout != 0 {
		t.Errorf("Expected no write timeout for streaming, got %v", srv.WriteTimeout)
	}
	if srv.ReadHeaderTimeout != 10*time.Second {
		t.Errorf("Expected 10s read header timeout, got %v", srv.ReadHeaderTimeout)
	}
	if srv.IdleTimeout != 60*time.Second {
		t.Errorf("Expected 60s idle timeout, got %v", srv.IdleTimeout)
	}
}

func TestMetricsServer(t *testing.T) {
	_, h := newTestRouter(t, true)
	srv := newMetricsServer("9090", h)

	if srv.WriteTimeout != 30*time.Second {
		t.Errorf("Expected 30s write timeout, got %v", srv.WriteTimeout)
	}

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "dashcam_viewer_") {
		t.Error("Expected application metrics in output")
	}
}
