package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"dashcam-viewer/internal/catalog"
	"dashcam-viewer/internal/exporter"
	"dashcam-viewer/internal/filesystem"
	"dashcam-viewer/internal/handlers"
	"dashcam-viewer/internal/logging"
	"dashcam-viewer/internal/memory"
	"dashcam-viewer/internal/metrics"
	"dashcam-viewer/internal/middleware"
	"dashcam-viewer/internal/startup"
	"dashcam-viewer/internal/thumbnail"
	"dashcam-viewer/internal/transcoder"
)

const (
	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

func main() {
	startTime := time.Now()

	// Must run before significant allocations
	memory.ApplyLimit()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.SetAppInfo(startup.Version, startup.Commit, runtime.Version())
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"clips": config.ClipsDir,
		"cache": config.CacheDir,
	}))

	// Transcoder
	startup.LogTranscoderInit(config.ExportsEnabled, config.FFmpegAvailable, config.FFmpegPath)
	trans := transcoder.New(config.FFmpegPath, config.ExportDir, config.FFmpegAvailable)
	if config.ExportsEnabled {
		if _, err := trans.ClearCache(); err != nil {
			logging.Warn("Failed to clear export directory: %v", err)
		}
	}

	// Catalog
	startup.LogCatalogInit(config.ClipsDir, config.ClipTypes)
	cat := catalog.New(catalog.Layout{BaseDir: config.ClipsDir, ClipTypes: config.ClipTypes})
	if config.ScanWorkers > 0 {
		cat.SetScanWorkers(config.ScanWorkers)
	}

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	var thumbs *thumbnail.Service
	if config.FFmpegAvailable {
		startup.LogThumbnailInit(config.ThumbnailCacheSize, config.ThumbnailTTL)
		thumbs = thumbnail.New(cat, trans, thumbnail.Config{
			CacheSize: config.ThumbnailCacheSize,
			TTL:       config.ThumbnailTTL,
		})
		thumbs.SetPressure(monitor)
		cat.SetOnRemove(thumbs.Evict)
	}

	var composer *exporter.Composer
	if config.ExportsEnabled && config.FFmpegAvailable {
		startup.LogExporterInit(config.ExportWorkers, config.ExportTimeout)
		composer = exporter.New(cat, trans, exporter.Config{
			OutputDir: config.ExportDir,
			Timeout:   config.ExportTimeout,
			Workers:   config.ExportWorkers,
		})
	}

	// The watcher starts before the scan so no change in between is lost;
	// notifications are held by the catalog until the scan completes.
	watcher := catalog.NewWatcher(cat)
	if err := watcher.Start(); err != nil {
		logging.Error("Failed to start catalog watcher, live updates disabled: %v", err)
	}

	scanCtx, cancelScan := context.WithCancel(context.Background())
	go func() {
		scanStart := time.Now()
		if err := cat.InitialScan(scanCtx); err != nil {
			logging.Error("Initial catalog scan failed: %v", err)
			return
		}
		startup.LogCatalogReady(cat.Len(), time.Since(scanStart))
	}()

	// Authentication
	authConfig, err := middleware.NewAuthConfig(config.Username, config.Password, config.PasswordHash)
	if err != nil {
		startup.LogFatal("Invalid credentials configuration: %v", err)
	}
	startup.LogAuthInit(config.Username, config.PasswordHash != "",
		config.PasswordHash == "" && config.Password == startup.DefaultPassword)

	h := handlers.New(cat, composer, thumbs, config)
	router := setupRouter(h, cat)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	srv := newServer(config.Port, buildHandler(router, config, authConfig))

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, cancelScan, watcher, trans, monitor)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, cat *catalog.Catalog) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	r.HandleFunc("/api/health", h.APIHealth).Methods("GET")
	r.HandleFunc("/api/directory-status", h.DirectoryStatus).Methods("GET")

	// Routes that read the catalog wait for the initial scan
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.RequireReady(cat))
	api.HandleFunc("/events", h.ListEvents).Methods("GET")
	api.HandleFunc("/video/{eventId}/{camera}", h.StreamVideo).Methods("GET", "HEAD")
	api.HandleFunc("/thumbnail/{eventId}/{camera}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/export", h.ExportEvent).Methods("POST")

	return r
}

// buildHandler wraps the router with authentication, access logging and
// compression, outermost last.
func buildHandler(router http.Handler, config *startup.Config, authConfig middleware.AuthConfig) http.Handler {
	authed := middleware.BasicAuth(authConfig)(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	logged := middleware.Logger(loggingConfig)(authed)

	return middleware.Compression(middleware.DefaultCompressionConfig())(logged)
}

func newServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		// Clip downloads and exports are long-lived; streaming applies its own deadlines.
		WriteTimeout: 0,
		IdleTimeout:  idleTimeout,
	}
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", h.MetricsHandler())
	metricsMux.HandleFunc("/health", h.LivenessCheck)

	return &http.Server{
		Addr:              ":" + port,
		Handler:           metricsMux,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       idleTimeout,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, cancelScan context.CancelFunc, watcher *catalog.Watcher, trans *transcoder.Transcoder, monitor *memory.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Stopping catalog")
	cancelScan()
	watcher.Stop()
	startup.LogShutdownStepComplete("Catalog stopped")

	startup.LogShutdownStep("Stopping ffmpeg processes")
	trans.Cleanup()
	startup.LogShutdownStepComplete("Transcoder cleanup complete")

	monitor.Stop()

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
