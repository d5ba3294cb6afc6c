package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"fotoboek/internal/mediatypes"
	"fotoboek/internal/metrics"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertFile registers a new file. It returns ErrFileExists when relPath is
// already registered.
func (d *Database) InsertFile(ctx context.Context, relPath string, fileType mediatypes.FileType, fileName string) (file *File, err error) {
	start := time.Now()
	defer func() { recordQuery("insert_file", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return insertFile(ctx, d.db, relPath, fileType, fileName)
}

func insertFile(ctx context.Context, ex execer, relPath string, fileType mediatypes.FileType, fileName string) (*File, error) {
	if !fileType.Valid() {
		return nil, fmt.Errorf("invalid file type %q for %s", fileType, relPath)
	}

	result, err := ex.ExecContext(ctx,
		`INSERT INTO files (rel_path, file_type, file_name) VALUES (?, ?, ?)`,
		relPath, string(fileType), fileName,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("%s: %w", relPath, ErrFileExists)
		}
		return nil, fmt.Errorf("failed to insert file %s: %w", relPath, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read file id: %w", err)
	}

	return &File{ID: id, RelPath: relPath, FileType: fileType, FileName: fileName}, nil
}

// TaskQueue enqueues tasks. It is implemented by *Database and by the
// transaction RegisterFile hands to its callback.
type TaskQueue interface {
	EnqueueTask(ctx context.Context, fileID int64, module string, priority, maxWorkerID int) (*Task, error)
}

// txQueue enqueues inside a registration transaction.
type txQueue struct {
	tx      *sql.Tx
	modules []string
}

func (q *txQueue) EnqueueTask(ctx context.Context, fileID int64, module string, priority, maxWorkerID int) (*Task, error) {
	task, err := enqueueTask(ctx, q.tx, fileID, module, priority, maxWorkerID)
	if err != nil {
		return nil, err
	}
	q.modules = append(q.modules, module)
	return task, nil
}

// RegisterFile inserts a file and runs createTasks against a queue in the
// same transaction. Either the file and all of its tasks are committed or
// nothing is.
func (d *Database) RegisterFile(ctx context.Context, relPath string, fileType mediatypes.FileType, fileName string,
	createTasks func(ctx context.Context, q TaskQueue, file *File) error,
) (file *File, err error) {
	start := time.Now()
	defer func() { recordQuery("register_file", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin registration of %s: %w", relPath, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	file, err = insertFile(ctx, tx, relPath, fileType, fileName)
	if err != nil {
		return nil, err
	}

	q := &txQueue{tx: tx}
	if err = createTasks(ctx, q, file); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration of %s: %w", relPath, err)
	}

	for _, module := range q.modules {
		metrics.TasksEnqueuedTotal.WithLabelValues(module).Inc()
	}
	return file, nil
}

// GetFile returns the file with the given id or ErrNotFound.
func (d *Database) GetFile(ctx context.Context, id int64) (file *File, err error) {
	start := time.Now()
	defer func() { recordQuery("get_file", start, err) }()

	return d.getFile(ctx, `SELECT id, rel_path, file_type, file_name FROM files WHERE id = ?`, id)
}

// GetFileByPath returns the file registered under relPath or ErrNotFound.
func (d *Database) GetFileByPath(ctx context.Context, relPath string) (file *File, err error) {
	start := time.Now()
	defer func() { recordQuery("get_file_by_path", start, err) }()

	return d.getFile(ctx, `SELECT id, rel_path, file_type, file_name FROM files WHERE rel_path = ?`, relPath)
}

func (d *Database) getFile(ctx context.Context, query string, arg any) (*File, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var file File
	var fileType string
	err := d.db.QueryRowContext(ctx, query, arg).Scan(&file.ID, &file.RelPath, &fileType, &file.FileName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load file %v: %w", arg, err)
	}

	file.FileType, err = mediatypes.ParseFileType(fileType)
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// RegisteredPaths returns the set of relative paths already registered.
func (d *Database) RegisteredPaths(ctx context.Context) (paths map[string]struct{}, err error) {
	start := time.Now()
	defer func() { recordQuery("registered_paths", start, err) }()

	rows, err := d.db.QueryContext(ctx, `SELECT rel_path FROM files`)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	paths = make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths[p] = struct{}{}
	}
	return paths, rows.Err()
}

// FileCountsByType returns the number of registered files per type.
func (d *Database) FileCountsByType(ctx context.Context) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `SELECT file_type, COUNT(*) FROM files GROUP BY file_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var fileType string
		var count int
		if err := rows.Scan(&fileType, &count); err != nil {
			return nil, err
		}
		counts[fileType] = count
	}
	return counts, rows.Err()
}
