package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fotoboek/internal/handlers"
	"fotoboek/internal/logging"
	"fotoboek/internal/media"
	"fotoboek/internal/memory"
	"fotoboek/internal/metrics"
	"fotoboek/internal/startup"
	"fotoboek/internal/worker"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var scanOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the task workers and the admin HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			startTime := time.Now()
			startup.PrintBanner()
			memory.ConfigureFromEnv()

			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := media.InitVips(); err != nil {
				logging.Warn("libvips unavailable: %v", err)
			}
			defer media.ShutdownVips()
			startup.LogMediaToolsInit(a.cfg.FFmpegPath, media.IsVipsAvailable())

			return serve(cmd.Context(), a, scanOnStart, startTime)
		},
	}
	cmd.Flags().BoolVar(&scanOnStart, "scan", true, "scan the media directory once at startup")
	return cmd
}

func serve(ctx context.Context, a *app, scanOnStart bool, startTime time.Time) error {
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	defer monitor.Stop()

	scheduler := worker.NewScheduler(a.db, a.dispatcher, worker.Config{
		Workers:      a.cfg.NumWorkerThreads,
		LockTimeout:  a.cfg.TaskLockTimeout,
		IdleInterval: a.cfg.IdleInterval,
		Gate:         monitor,
	})
	startup.LogWorkersInit(startup.WorkerInfo{
		InstanceID:   scheduler.InstanceID(),
		Workers:      a.cfg.NumWorkerThreads,
		LockTimeout:  a.cfg.TaskLockTimeout,
		IdleInterval: a.cfg.IdleInterval,
		MemoryLimit:  monitor.Limit(),
	})

	collector := metrics.NewCollector(a.db, a.cfg.MetricsInterval)
	collector.Start()
	defer collector.Stop()

	router := handlers.NewRouter(handlers.New(a.db, a.registrar, a.store.Layout()))
	startup.LogHTTPRoutes(router)

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	if scanOnStart {
		g.Go(func() error {
			result, err := a.registrar.Scan(gctx)
			if err != nil && gctx.Err() == nil {
				logging.Error("Initial scan failed: %v", err)
			} else if err == nil {
				logging.Info("Initial scan: %d files, %d added, %d failed in %v",
					result.Total, result.Added, result.Failed, result.Duration)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			startup.LogShutdownInitiated("signal received")
		} else {
			startup.LogShutdownInitiated("component failed")
		}

		startup.LogShutdownStep("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Server shutdown error: %v", err)
			return nil
		}
		startup.LogShutdownStepComplete("HTTP server stopped")
		return nil
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            a.cfg.Port,
		StartupDuration: time.Since(startTime),
	})

	err := g.Wait()
	startup.LogShutdownStepComplete("Workers stopped")
	startup.LogShutdownComplete()
	return err
}
