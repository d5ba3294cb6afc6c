// Package startup holds build information and the lifecycle logging shared
// by the fotoboek commands.
//
// Build-time variables are injected via ldflags and exposed via
// [GetBuildInfo]:
//
//	go build -ldflags "-X fotoboek/internal/startup.Version=1.2.0 \
//	    -X fotoboek/internal/startup.Commit=$(git rev-parse --short HEAD)"
//
// The Log functions print one banner-delimited section per subsystem so
// that a server log reads top to bottom as the startup sequence:
//
//	startup.PrintBanner()
//	startup.LogDatabaseInit(time.Since(t0), version)
//	startup.LogMediaToolsInit(cfg.FFmpegPath, media.IsVipsAvailable())
//	startup.LogWorkersInit(info)
//	startup.LogHTTPRoutes(router)
//	startup.LogServerStarted(startup.ServerConfig{Port: cfg.Port})
package startup
