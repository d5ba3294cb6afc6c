package main

import (
	"context"
	"fmt"
	"time"

	"fotoboek/internal/config"
	"fotoboek/internal/database"
	"fotoboek/internal/filesystem"
	"fotoboek/internal/metadata"
	"fotoboek/internal/metrics"
	"fotoboek/internal/modules"
	"fotoboek/internal/preview"
	"fotoboek/internal/scanner"
	"fotoboek/internal/startup"
	"fotoboek/internal/storage"
	"fotoboek/internal/transcoder"
)

// app is the wired pipeline shared by every command.
type app struct {
	cfg        *config.Config
	db         *database.Database
	store      *storage.Store
	dispatcher *modules.Dispatcher
	registrar  *scanner.Registrar
}

// loadApp reads the configuration and wires the pipeline.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.PrepareDirectories(); err != nil {
		return nil, err
	}
	return newApp(ctx, cfg)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"media":   cfg.MediaSourcePath,
		"storage": cfg.FileStoragePath,
	}))

	dbStart := time.Now()
	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart), db.SchemaVersion())

	var mirror storage.Mirror
	mirrorName := ""
	if cfg.S3.Enabled() {
		s3, err := storage.NewS3Mirror(cfg.S3)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			db.Close()
			return nil, err
		}
		mirror = s3
		mirrorName = cfg.S3.Endpoint + "/" + cfg.S3.Bucket
	}

	store := storage.NewStore(storage.Layout{Root: cfg.FileStoragePath}, mirror)
	if err := store.Init(); err != nil {
		db.Close()
		return nil, err
	}
	startup.LogStorageInit(cfg.FileStoragePath, mirrorName)

	dispatcher := modules.NewDispatcher(map[string]modules.Runner{
		modules.Metadata:  metadata.NewExtractor(db, cfg.MediaSourcePath),
		modules.Preview:   preview.NewGenerator(db, store, cfg.MediaSourcePath, cfg.FFmpegPath),
		modules.Transcode: transcoder.New(db, store, cfg.MediaSourcePath, cfg.FFmpegPath, cfg.TranscodeThreads),
	})

	return &app{
		cfg:        cfg,
		db:         db,
		store:      store,
		dispatcher: dispatcher,
		registrar:  scanner.NewRegistrar(db, dispatcher, cfg.MediaSourcePath),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
