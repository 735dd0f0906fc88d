package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"dashcam-viewer/internal/logging"
	"dashcam-viewer/internal/workers"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// Default credentials. A warning is logged when they are left unchanged.
const (
	DefaultUsername = "admin"
	DefaultPassword = "password"
)

var defaultClipTypes = []string{"RecentClips", "SavedClips", "SentryClips"}

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	ClipsDir   string
	ClipTypes  []string
	SingleRoot bool
	CacheDir   string

	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogStaticFiles  bool
	LogHealthChecks bool

	Username     string
	Password     string
	PasswordHash string

	FFmpegPath         string
	ExportTimeout      time.Duration
	ExportWorkers      int
	ScanWorkers        int
	ThumbnailCacheSize int
	ThumbnailTTL       time.Duration

	// Derived paths
	ExportDir string

	// Feature flags based on directory and tool availability
	ExportsEnabled  bool
	FFmpegAvailable bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	clipsDir := getEnv("CLIPS_DIR", "/teslacam")
	singleRoot := getEnvBool("SINGLE_ROOT", false)
	clipTypes := getEnvList("CLIP_TYPES", defaultClipTypes)
	cacheDir := getEnv("CACHE_DIR", "/cache")
	port := getEnv("PORT", "3001")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	logStaticFiles := getEnvBool("LOG_STATIC_FILES", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	username := getEnv("APP_USERNAME", DefaultUsername)
	password := getEnv("APP_PASSWORD", DefaultPassword)
	passwordHash := os.Getenv("APP_PASSWORD_HASH")
	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")
	exportTimeout := getEnvDuration("EXPORT_TIMEOUT", 10*time.Minute)
	exportWorkers := workers.FromEnv("EXPORT_WORKERS", workers.ForCPU(2))
	scanWorkers := workers.FromEnv("SCAN_WORKERS", workers.ForIO(8))
	thumbnailCacheSize := getEnvInt("THUMBNAIL_CACHE_SIZE", 512)
	thumbnailTTL := getEnvDuration("THUMBNAIL_TTL", time.Hour)

	if singleRoot {
		clipTypes = nil
	}

	logging.Info("  CLIPS_DIR:             %s", clipsDir)
	if singleRoot {
		logging.Info("  SINGLE_ROOT:           true")
	} else {
		logging.Info("  CLIP_TYPES:            %s", strings.Join(clipTypes, ","))
	}
	logging.Info("  CACHE_DIR:             %s", cacheDir)
	logging.Info("  PORT:                  %s", port)
	logging.Info("  METRICS_PORT:          %s", metricsPort)
	logging.Info("  METRICS_ENABLED:       %v", metricsEnabled)
	logging.Info("  APP_USERNAME:          %s", username)
	logging.Info("  FFMPEG_PATH:           %s", ffmpegPath)
	logging.Info("  EXPORT_TIMEOUT:        %v", exportTimeout)
	logging.Info("  EXPORT_WORKERS:        %d", exportWorkers)
	logging.Info("  SCAN_WORKERS:          %d", scanWorkers)
	logging.Info("  THUMBNAIL_CACHE_SIZE:  %d", thumbnailCacheSize)
	logging.Info("  THUMBNAIL_TTL:         %v", thumbnailTTL)
	logging.Info("  LOG_STATIC_FILES:      %v", logStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:     %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:             %s", logging.GetLevel())

	// Resolve paths
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	clipsDir, err := filepath.Abs(clipsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve clips directory path: %w", err)
	}
	logging.Info("  Clips directory (absolute): %s", clipsDir)

	cacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute): %s", cacheDir)

	// The clips directory is mounted, never created; problems are reported
	// through /api/directory-status.
	if err := checkDirectory(clipsDir); err != nil {
		logging.Warn("  Clips directory issue: %v", err)
	}

	config := &Config{
		ClipsDir:           clipsDir,
		ClipTypes:          clipTypes,
		SingleRoot:         singleRoot,
		CacheDir:           cacheDir,
		Port:               port,
		MetricsPort:        metricsPort,
		MetricsEnabled:     metricsEnabled,
		LogStaticFiles:     logStaticFiles,
		LogHealthChecks:    logHealthChecks,
		Username:           username,
		Password:           password,
		PasswordHash:       passwordHash,
		FFmpegPath:         ffmpegPath,
		ExportTimeout:      exportTimeout,
		ExportWorkers:      exportWorkers,
		ScanWorkers:        scanWorkers,
		ThumbnailCacheSize: thumbnailCacheSize,
		ThumbnailTTL:       thumbnailTTL,
		ExportDir:          filepath.Join(cacheDir, "exports"),
	}

	config.ExportsEnabled = setupOptionalDir(config.ExportDir, "exports")
	config.FFmpegAvailable = checkFFmpeg(config.FFmpegPath) == nil

	// Summary
	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Exports:     %s", enabledString(config.ExportsEnabled && config.FFmpegAvailable))
	logging.Info("    Thumbnails:  %s", enabledString(config.FFmpegAvailable))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogCatalogInit logs the catalog layout before the initial scan
func LogCatalogInit(clipsDir string, clipTypes []string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CATALOG INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if len(clipTypes) == 0 {
		logging.Info("  Layout: single root (%s)", clipsDir)
	} else {
		logging.Info("  Layout: %d clip roots under %s", len(clipTypes), clipsDir)
	}
	logging.Info("  Starting watcher and initial scan...")
}

// LogCatalogReady logs completion of the initial scan
func LogCatalogReady(events int, duration time.Duration) {
	logging.Info("  [OK] Catalog ready: %d events in %v", events, duration.Round(time.Millisecond))
}

// LogTranscoderInit logs transcoder initialization and FFmpeg availability
func LogTranscoderInit(exportsEnabled, ffmpegAvailable bool, ffmpegPath string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRANSCODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if !ffmpegAvailable {
		logging.Warn("  FFmpeg not usable at %s", ffmpegPath)
		logging.Warn("  Exports and thumbnails will fail")
		return
	}
	logging.Info("  [OK] FFmpeg is available")

	if !exportsEnabled {
		logging.Warn("  Exports disabled (export directory not writable)")
	}
}

// LogExporterInit logs export concurrency settings
func LogExporterInit(workers int, timeout time.Duration) {
	logging.Info("  Export workers: %d, timeout: %v", workers, timeout)
}

// LogThumbnailInit logs thumbnail cache configuration
func LogThumbnailInit(cacheSize int, ttl time.Duration) {
	logging.Info("  Thumbnail cache: %d entries, TTL %v", cacheSize, ttl)
}

// LogAuthInit logs the credential gate configuration
func LogAuthInit(username string, usingHash, defaultPassword bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("AUTHENTICATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Basic auth user: %s", username)
	if usingHash {
		logging.Info("  Password source: APP_PASSWORD_HASH")
	} else {
		logging.Info("  Password source: APP_PASSWORD")
	}
	if defaultPassword {
		logging.Warn("  Default password in use; set APP_PASSWORD or APP_PASSWORD_HASH")
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Catalog routes answer 503 until the initial scan completes")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____             __                        _    ___
   / __ \____ ______/ /_  _________ _____ ___ | |  / (_)__ _      __
  / / / / __ '/ ___/ __ \/ ___/ __ '/ __ '__ \| | / / / _ \ | /| / /
 / /_/ / /_/ (__  ) / / / /__/ /_/ / / / / / /| |/ / /  __/ |/ |/ /
/_____/\__,_/____/_/ /_/\___/\__,_/_/ /_/ /_/ |___/_/\___/|__/|__/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func checkDirectory(path string) error {
	logging.Debug("  Checking clips directory: %s", path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				}
			}
			logging.Debug("    Contents: %d directories (top level)", dirCount)
		}
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkFFmpeg(ffmpegPath string) error {
	path, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", ffmpegPath)
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	if first, _, _ := strings.Cut(string(output), "\n"); first != "" {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(first))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return items
}
