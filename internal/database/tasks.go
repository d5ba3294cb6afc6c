package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fotoboek/internal/logging"
	"fotoboek/internal/metrics"
)

const taskColumns = `id, file_id, module, priority, work_started_at, max_worker_id, attempts`

// EnqueueTask inserts a task that is immediately eligible. There is no
// deduplication: enqueuing the same (file, module) twice creates two tasks.
func (d *Database) EnqueueTask(ctx context.Context, fileID int64, module string, priority, maxWorkerID int) (task *Task, err error) {
	start := time.Now()
	defer func() { recordQuery("enqueue_task", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	task, err = enqueueTask(ctx, d.db, fileID, module, priority, maxWorkerID)
	if err != nil {
		return nil, err
	}

	metrics.TasksEnqueuedTotal.WithLabelValues(module).Inc()
	return task, nil
}

func enqueueTask(ctx context.Context, ex execer, fileID int64, module string, priority, maxWorkerID int) (*Task, error) {
	result, err := ex.ExecContext(ctx,
		`INSERT INTO tasks (file_id, module, priority, work_started_at, max_worker_id) VALUES (?, ?, ?, 0, ?)`,
		fileID, module, priority, maxWorkerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue %s task for file %d: %w", module, fileID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read task id: %w", err)
	}

	return &Task{
		ID:            id,
		FileID:        fileID,
		Module:        module,
		Priority:      priority,
		WorkStartedAt: time.Unix(0, 0),
		MaxWorkerID:   maxWorkerID,
	}, nil
}

// ClaimNextTask claims the most urgent task that workerID may run and whose
// lock has expired. It returns (nil, nil) when there is no such task.
func (d *Database) ClaimNextTask(ctx context.Context, workerID int, lockTimeout time.Duration) (*Task, error) {
	if lockTimeout <= 0 {
		return nil, fmt.Errorf("lock timeout must be positive, got %v", lockTimeout)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		now := d.now()
		cutoff := now.Add(-lockTimeout)

		candidate, err := d.nextCandidate(ctx, workerID, cutoff)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			return nil, nil
		}

		claimed, err := d.tryLockTask(ctx, candidate, now)
		if err != nil {
			return nil, err
		}
		if claimed {
			metrics.TaskClaimsTotal.WithLabelValues(candidate.Module).Inc()
			return candidate, nil
		}

		metrics.TaskClaimConflicts.Inc()
		logging.Debug("worker %d lost claim race for task %d, retrying", workerID, candidate.ID)
	}
}

// nextCandidate returns the task ClaimNextTask would attempt to lock, or nil.
func (d *Database) nextCandidate(ctx context.Context, workerID int, cutoff time.Time) (task *Task, err error) {
	start := time.Now()
	defer func() { recordQuery("next_task", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE work_started_at <= ? AND max_worker_id >= ?
		ORDER BY priority ASC, id ASC
		LIMIT 1
	`, cutoff.UnixNano(), workerID)

	task, err = scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query next task: %w", err)
	}
	return task, nil
}

// tryLockTask moves task.WorkStartedAt to now if nobody else has changed it
// since task was read. On success task is updated in place.
func (d *Database) tryLockTask(ctx context.Context, task *Task, now time.Time) (claimed bool, err error) {
	start := time.Now()
	defer func() { recordQuery("lock_task", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		`UPDATE tasks SET work_started_at = ?, attempts = attempts + 1 WHERE id = ? AND work_started_at = ?`,
		now.UnixNano(), task.ID, task.WorkStartedAt.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to lock task %d: %w", task.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows != 1 {
		return false, nil
	}

	task.WorkStartedAt = time.Unix(0, now.UnixNano())
	task.Attempts++
	return true, nil
}

// DeleteTask removes a task and returns the number of rows affected. Zero
// means the row was already gone.
func (d *Database) DeleteTask(ctx context.Context, id int64) (rows int64, err error) {
	start := time.Now()
	defer func() { recordQuery("delete_task", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	return result.RowsAffected()
}

// ListTasks returns every task in claim order.
func (d *Database) ListTasks(ctx context.Context) (tasks []Task, err error) {
	start := time.Now()
	defer func() { recordQuery("list_tasks", start, err) }()

	return d.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY priority ASC, id ASC`)
}

// TasksForFile returns the tasks still pending for one file.
func (d *Database) TasksForFile(ctx context.Context, fileID int64) (tasks []Task, err error) {
	start := time.Now()
	defer func() { recordQuery("tasks_for_file", start, err) }()

	return d.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE file_id = ? ORDER BY priority ASC, id ASC`, fileID)
}

// TaskCountsByModule returns the number of pending tasks per module.
func (d *Database) TaskCountsByModule(ctx context.Context) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `SELECT module, COUNT(*) FROM tasks GROUP BY module`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var module string
		var count int
		if err := rows.Scan(&module, &count); err != nil {
			return nil, err
		}
		counts[module] = count
	}
	return counts, rows.Err()
}

func (d *Database) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*Task, error) {
	var task Task
	var startedAt int64
	if err := s.Scan(&task.ID, &task.FileID, &task.Module, &task.Priority, &startedAt, &task.MaxWorkerID, &task.Attempts); err != nil {
		return nil, err
	}
	task.WorkStartedAt = time.Unix(0, startedAt)
	return &task, nil
}
