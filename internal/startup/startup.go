package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"fotoboek/internal/logging"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

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

// RouteInfo describes one registered route.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// PrintBanner prints the banner, build details and host information.
func PrintBanner() {
	fmt.Println(`
------------------------------------------------------------
    ____      __        __                 __
   / __/___  / /_____  / /_  ____  ___  / /__
  / /_/ __ \/ __/ __ \/ __ \/ __ \/ _ \/ //_/
 / __/ /_/ / /_/ /_/ / /_/ / /_/ /  __/ ,<
/_/  \____/\__/\____/_.___/\____/\___/_/|_|

------------------------------------------------------------`)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
	logSystemInfo()
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
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
}

func section(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

// LogDatabaseInit logs database initialization.
func LogDatabaseInit(duration time.Duration, schemaVersion uint) {
	section("DATABASE INITIALIZATION")
	logging.Info("  [OK] Database ready in %v (schema version %d)", duration, schemaVersion)
}

// LogMediaToolsInit logs the state of the external media tooling. A missing
// ffmpeg is not fatal: video tasks fail and stay queued until it appears.
func LogMediaToolsInit(ffmpegPath string, vipsAvailable bool) {
	section("MEDIA TOOLS")

	if version, err := CheckFFmpeg(context.Background(), ffmpegPath); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Video previews and transcodes will be retried until it is available")
	} else {
		logging.Info("  [OK] %s", version)
	}

	if vipsAvailable {
		logging.Info("  [OK] libvips available for HEIC and RAW decoding")
	} else {
		logging.Warn("  libvips unavailable, only formats with Go decoders are supported")
	}
}

// LogStorageInit logs where derived files go.
func LogStorageInit(root string, mirrorBucket string) {
	section("STORAGE")
	logging.Info("  Local root:      %s", root)
	if mirrorBucket != "" {
		logging.Info("  S3 mirror:       %s", mirrorBucket)
	} else {
		logging.Info("  S3 mirror:       DISABLED")
	}
}

// WorkerInfo holds the values logged by LogWorkersInit.
type WorkerInfo struct {
	InstanceID   string
	Workers      int
	LockTimeout  time.Duration
	IdleInterval time.Duration
	MemoryLimit  int64
}

// LogWorkersInit logs the task worker pool configuration.
func LogWorkersInit(info WorkerInfo) {
	section("TASK WORKERS")
	logging.Info("  Instance:        %s", info.InstanceID)
	logging.Info("  Workers:         %d (transcodes run on worker 0 only)", info.Workers)
	logging.Info("  Lock timeout:    %v", info.LockTimeout)
	logging.Info("  Idle interval:   %v", info.IdleInterval)
	if info.MemoryLimit > 0 {
		logging.Info("  Memory limit:    %s", humanize.IBytes(uint64(info.MemoryLimit)))
	} else {
		logging.Info("  Memory limit:    none (backpressure disabled)")
	}
}

// CheckFFmpeg verifies that the ffmpeg binary runs and returns the first
// line of its version banner.
func CheckFFmpeg(ctx context.Context, ffmpegPath string) (string, error) {
	path, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return "", fmt.Errorf("%s not found: %w", ffmpegPath, err)
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	first, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(first), nil
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

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered routes, grouped by prefix, at debug
// level.
func LogHTTPRoutes(router *mux.Router) {
	section("HTTP SERVER SETUP")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Info("  %d routes registered", len(routes))

	if !logging.IsDebugEnabled() {
		return
	}

	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		g := getRouteGroup(route.Path)
		groups[g] = append(groups[g], route)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, group := range keys {
		if group == "" {
			logging.Debug("  [root]")
		} else {
			logging.Debug("  [%s]", group)
		}
		for _, route := range groups[group] {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}
}

// getRouteGroup returns the first path segment, or "api/<segment>" for API
// routes.
func getRouteGroup(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 3)
	if parts[0] == "api" && len(parts) > 1 {
		return "api/" + parts[1]
	}
	return parts[0]
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	StartupDuration time.Duration
}

// LogServerStarted logs the listening endpoints.
func LogServerStarted(config ServerConfig) {
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	logging.Info("    Health:        http://0.0.0.0:%s/healthz", config.Port)
	logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.Port)
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(reason string) {
	section(fmt.Sprintf("SHUTDOWN INITIATED (%s)", reason))
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
