package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"fotoboek/internal/filesystem"
	"fotoboek/internal/logging"
	"fotoboek/internal/metrics"
)

// Mirror receives a copy of every blob written to the local store.
type Mirror interface {
	Upload(ctx context.Context, key, localPath, contentType string) error
}

// Store writes previews and transcoded videos into a Layout and forwards
// them to an optional Mirror. The local layout is authoritative; mirror
// failures are logged and counted but do not fail the write.
type Store struct {
	layout Layout
	mirror Mirror
}

// NewStore creates a Store. mirror may be nil.
func NewStore(layout Layout, mirror Mirror) *Store {
	return &Store{layout: layout, mirror: mirror}
}

// Layout returns the path layout of the store.
func (s *Store) Layout() Layout {
	return s.layout
}

// Init creates the top-level blob directories.
func (s *Store) Init() error {
	for _, dir := range []string{previewsDir, videosDir} {
		if err := os.MkdirAll(filepath.Join(s.layout.Root, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}
	return nil
}

// WritePreview atomically stores an encoded preview and returns its path.
func (s *Store) WritePreview(ctx context.Context, hash string, size PreviewSize, data []byte) (string, error) {
	path, err := s.layout.PreviewPath(hash, size)
	if err != nil {
		return "", err
	}
	if err := filesystem.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store %s preview: %w", size, err)
	}

	s.mirrorBlob(ctx, path, "image/jpeg")
	return path, nil
}

// PrepareVideo creates the shard directory for hash and returns the final
// path together with a temporary path the encoder should write to.
func (s *Store) PrepareVideo(hash string) (final, tmp string, err error) {
	final, err = s.layout.VideoPath(hash)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create video directory: %w", err)
	}
	return final, filesystem.TempSibling(final), nil
}

// FinishVideo moves a completed encode from tmp to final.
func (s *Store) FinishVideo(ctx context.Context, tmp, final string) error {
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move transcoded video into place: %w", err)
	}

	s.mirrorBlob(ctx, final, "video/webm")
	return nil
}

func (s *Store) mirrorBlob(ctx context.Context, path, contentType string) {
	if s.mirror == nil {
		return
	}

	key, err := s.layout.Key(path)
	if err == nil {
		err = s.mirror.Upload(ctx, key, path, contentType)
	}
	if err != nil {
		metrics.BlobMirrorUploads.WithLabelValues("error").Inc()
		logging.Warn("Failed to mirror %s: %v", path, err)
		return
	}
	metrics.BlobMirrorUploads.WithLabelValues("success").Inc()
}
