package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"

	"fotoboek/internal/database"
	"fotoboek/internal/logging"
	"fotoboek/internal/mediatypes"
)

var (
	// ErrAlreadyRegistered is returned when the relative path is already in
	// the file registry.
	ErrAlreadyRegistered = errors.New("file already registered")
	// ErrNotMedia is returned for paths without a known image or video
	// extension.
	ErrNotMedia = errors.New("not a media file")
	// ErrInvalidPath is returned for paths outside the media root.
	ErrInvalidPath = errors.New("invalid relative path")
)

// TaskCreator enqueues the module tasks of a newly registered file on q.
type TaskCreator interface {
	CreateTasks(ctx context.Context, q database.TaskQueue, file *database.File) ([]*database.Task, error)
}

// Registrar is the ingestion entry point: it records new files and hands
// them to the module pipeline.
type Registrar struct {
	db        *database.Database
	tasks     TaskCreator
	mediaRoot string
}

// NewRegistrar creates a Registrar for files below mediaRoot.
func NewRegistrar(db *database.Database, tasks TaskCreator, mediaRoot string) *Registrar {
	return &Registrar{db: db, tasks: tasks, mediaRoot: mediaRoot}
}

// Register inserts the file at relPath and creates its tasks in one
// transaction. When task creation fails the file stays unregistered, so a
// later Register or Scan offers it again.
func (r *Registrar) Register(ctx context.Context, relPath string) (*database.File, error) {
	relPath, err := normalize(relPath)
	if err != nil {
		return nil, err
	}

	fileType, ok := mediatypes.ClassifyPath(relPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotMedia, relPath)
	}

	file, err := r.db.RegisterFile(ctx, relPath, fileType, path.Base(relPath),
		func(ctx context.Context, q database.TaskQueue, file *database.File) error {
			_, err := r.tasks.CreateTasks(ctx, q, file)
			return err
		})
	if errors.Is(err, database.ErrFileExists) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, relPath)
	}
	if err != nil {
		return nil, err
	}

	logging.Info("Registered %s %s (id %d)", fileType, relPath, file.ID)
	return file, nil
}

// normalize cleans relPath to slash form and rejects paths that leave the
// media root.
func normalize(relPath string) (string, error) {
	p := path.Clean(filepath.ToSlash(relPath))
	if p == "." || path.IsAbs(p) || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, relPath)
	}
	return p, nil
}

// Result summarizes a directory scan.
type Result struct {
	Total    int           `json:"total"`
	Added    int           `json:"added"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Scan walks the media root and registers every media file that is not in
// the registry yet. Hidden files and directories are skipped.
func (r *Registrar) Scan(ctx context.Context) (Result, error) {
	start := time.Now()
	var result Result

	known, err := r.db.RegisteredPaths(ctx)
	if err != nil {
		return result, err
	}

	var found []string
	err = filepath.WalkDir(r.mediaRoot, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logging.Warn("Error accessing path %s: %v", p, err)
			return nil
		}

		if p != r.mediaRoot && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := mediatypes.ClassifyPath(p); !ok {
			return nil
		}

		rel, err := filepath.Rel(r.mediaRoot, p)
		if err != nil {
			return nil
		}
		found = append(found, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to walk %s: %w", r.mediaRoot, err)
	}

	result.Total = len(found)
	for _, rel := range found {
		if _, ok := known[rel]; ok {
			continue
		}
		if _, err := r.Register(ctx, rel); err != nil {
			if errors.Is(err, ErrAlreadyRegistered) {
				continue
			}
			result.Failed++
			logging.Error("Failed to register %s: %v", rel, err)
			continue
		}
		result.Added++
	}

	result.Duration = time.Since(start)
	logging.Info("Scan of %s complete: %d media files, %d added, %d failed in %v",
		r.mediaRoot, result.Total, result.Added, result.Failed, result.Duration)
	return result, nil
}
