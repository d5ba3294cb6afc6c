package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fotoboek/internal/database"
	"fotoboek/internal/mediatypes"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func enqueue(t *testing.T, db *database.Database, relPath, module string, priority, maxWorkerID int) *database.Task {
	t.Helper()

	ctx := context.Background()
	file, err := db.GetFileByPath(ctx, relPath)
	if errors.Is(err, database.ErrNotFound) {
		file, err = db.InsertFile(ctx, relPath, mediatypes.FileTypeVideo, filepath.Base(relPath))
	}
	if err != nil {
		t.Fatal(err)
	}
	task, err := db.EnqueueTask(ctx, file.ID, module, priority, maxWorkerID)
	if err != nil {
		t.Fatal(err)
	}
	return task
}

// recordingExecutor records every task it runs and fails modules listed in
// fail.
type recordingExecutor struct {
	mu   sync.Mutex
	ran  []int64
	fail map[string]bool
}

func (e *recordingExecutor) Run(_ context.Context, task *database.Task) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ran = append(e.ran, task.ID)
	if e.fail[task.Module] {
		return errors.New("module failed")
	}
	return nil
}

func (e *recordingExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.ran)
}

func TestRunOnce_NoWork(t *testing.T) {
	db := setupTestDB(t)
	s := NewScheduler(db, &recordingExecutor{}, Config{Workers: 1, LockTimeout: time.Hour})

	worked, err := s.RunOnce(context.Background(), 0)
	if err != nil {
		t.Fatalf("RunOnce() failed: %v", err)
	}
	if worked {
		t.Error("RunOnce() reported work on an empty queue")
	}
}

func TestRunOnce_SuccessRetiresTask(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	exec := &recordingExecutor{}
	s := NewScheduler(db, exec, Config{Workers: 1, LockTimeout: time.Hour})

	task := enqueue(t, db, "a.mp4", "metadata", 100, database.UnrestrictedLane)

	worked, err := s.RunOnce(ctx, 0)
	if err != nil || !worked {
		t.Fatalf("RunOnce() = %v, %v; want true, nil", worked, err)
	}
	if len(exec.ran) != 1 || exec.ran[0] != task.ID {
		t.Errorf("executed %v, want [%d]", exec.ran, task.ID)
	}

	remaining, err := db.ListTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Errorf("%d tasks remain after success, want 0", len(remaining))
	}
}

func TestRunOnce_FailureKeepsTaskUntilLockExpires(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	db.SetClock(clock.Now)

	exec := &recordingExecutor{fail: map[string]bool{"preview": true}}
	s := NewScheduler(db, exec, Config{Workers: 1, LockTimeout: time.Hour})

	task := enqueue(t, db, "a.mp4", "preview", 200, database.UnrestrictedLane)

	if worked, err := s.RunOnce(ctx, 0); err != nil || !worked {
		t.Fatalf("RunOnce() = %v, %v; want true, nil", worked, err)
	}

	tasks, err := db.ListTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Fatalf("tasks after failure = %v, want the failed task", tasks)
	}
	if !tasks[0].WorkStartedAt.Equal(clock.Now()) {
		t.Errorf("WorkStartedAt = %v, want %v", tasks[0].WorkStartedAt, clock.Now())
	}

	clock.Advance(30 * time.Minute)
	if worked, _ := s.RunOnce(ctx, 0); worked {
		t.Error("failed task was reclaimed before its lock expired")
	}

	clock.Advance(30 * time.Minute)
	exec.fail = nil
	if worked, err := s.RunOnce(ctx, 0); err != nil || !worked {
		t.Fatalf("RunOnce() after expiry = %v, %v; want true, nil", worked, err)
	}
	if len(exec.ran) != 2 {
		t.Errorf("task executed %d times, want 2", len(exec.ran))
	}

	tasks, _ = db.ListTasks(ctx)
	if len(tasks) != 0 {
		t.Errorf("%d tasks remain after retry succeeded, want 0", len(tasks))
	}
}

func TestRunOnce_WorkerLane(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	exec := &recordingExecutor{}
	s := NewScheduler(db, exec, Config{Workers: 2, LockTimeout: time.Hour})

	transcode := enqueue(t, db, "a.mp4", "transcode", 300, 0)

	if worked, _ := s.RunOnce(ctx, 1); worked {
		t.Fatal("worker 1 claimed a task restricted to worker 0")
	}
	if worked, err := s.RunOnce(ctx, 0); err != nil || !worked {
		t.Fatalf("worker 0 RunOnce() = %v, %v; want true, nil", worked, err)
	}
	if len(exec.ran) != 1 || exec.ran[0] != transcode.ID {
		t.Errorf("executed %v, want [%d]", exec.ran, transcode.ID)
	}
}

// failingDeleteQueue wraps a store and fails every delete.
type failingDeleteQueue struct {
	*database.Database
	rows int64
	err  error
}

func (q *failingDeleteQueue) DeleteTask(context.Context, int64) (int64, error) {
	return q.rows, q.err
}

func TestRunOnce_DeleteFailureIsNotFatal(t *testing.T) {
	tests := []struct {
		name string
		rows int64
		err  error
	}{
		{"delete error", 0, errors.New("database is locked")},
		{"already deleted", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			enqueue(t, db, "a.mp4", "metadata", 100, database.UnrestrictedLane)

			q := &failingDeleteQueue{Database: db, rows: tt.rows, err: tt.err}
			s := NewScheduler(q, &recordingExecutor{}, Config{Workers: 1, LockTimeout: time.Hour})

			worked, err := s.RunOnce(context.Background(), 0)
			if err != nil || !worked {
				t.Errorf("RunOnce() = %v, %v; want true, nil", worked, err)
			}
		})
	}
}

func TestRunOnce_InvalidLockTimeout(t *testing.T) {
	db := setupTestDB(t)
	enqueue(t, db, "a.mp4", "metadata", 100, database.UnrestrictedLane)
	s := NewScheduler(db, &recordingExecutor{}, Config{Workers: 1})

	if _, err := s.RunOnce(context.Background(), 0); err == nil {
		t.Error("RunOnce() succeeded with a zero lock timeout")
	}
}

func TestRun_ProcessesQueueAndStops(t *testing.T) {
	db := setupTestDB(t)
	exec := &recordingExecutor{}

	const numTasks = 20
	for i := 0; i < numTasks; i++ {
		enqueue(t, db, "a.mp4", "metadata", 100, database.UnrestrictedLane)
	}

	s := NewScheduler(db, exec, Config{Workers: 4, LockTimeout: time.Hour, IdleInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(10 * time.Second)
	for exec.count() < numTasks && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}

	if exec.count() != numTasks {
		t.Errorf("executed %d tasks, want %d", exec.count(), numTasks)
	}
	seen := make(map[int64]bool)
	for _, id := range exec.ran {
		if seen[id] {
			t.Errorf("task %d executed twice", id)
		}
		seen[id] = true
	}
}

// blockingExecutor holds a task until released and reports whether its
// context was cancelled while it ran.
type blockingExecutor struct {
	started   chan struct{}
	release   chan struct{}
	cancelled atomic.Bool
}

func (e *blockingExecutor) Run(ctx context.Context, _ *database.Task) error {
	close(e.started)
	<-e.release
	e.cancelled.Store(ctx.Err() != nil)
	return nil
}

func TestRun_InFlightTaskSurvivesShutdown(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	enqueue(t, db, "a.mp4", "transcode", 300, 0)

	exec := &blockingExecutor{started: make(chan struct{}), release: make(chan struct{})}
	s := NewScheduler(db, exec, Config{Workers: 1, LockTimeout: time.Hour, IdleInterval: time.Hour})

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- s.Run(runCtx) }()

	select {
	case <-exec.started:
	case <-time.After(5 * time.Second):
		t.Fatal("task never started")
	}
	cancel()
	close(exec.release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}

	if exec.cancelled.Load() {
		t.Error("in-flight task saw a cancelled context")
	}
	tasks, err := db.ListTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 0 {
		t.Errorf("%d tasks remain, want the finished task retired", len(tasks))
	}
}

// chanGate blocks claims until open is closed.
type chanGate struct {
	open chan struct{}
}

func (g *chanGate) Wait(ctx context.Context) error {
	select {
	case <-g.open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestRun_GateHoldsClaims(t *testing.T) {
	db := setupTestDB(t)
	enqueue(t, db, "a.jpg", "metadata", 100, database.UnrestrictedLane)

	exec := &recordingExecutor{}
	gate := &chanGate{open: make(chan struct{})}
	s := NewScheduler(db, exec, Config{Workers: 2, LockTimeout: time.Hour, IdleInterval: 10 * time.Millisecond, Gate: gate})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	if exec.count() != 0 {
		t.Fatalf("executed %d tasks through a closed gate", exec.count())
	}

	close(gate.open)
	deadline := time.Now().Add(5 * time.Second)
	for exec.count() < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
	if exec.count() != 1 {
		t.Errorf("executed %d tasks, want 1", exec.count())
	}
}

func TestRun_ClosedGateStopsOnCancel(t *testing.T) {
	db := setupTestDB(t)
	s := NewScheduler(db, &recordingExecutor{}, Config{Workers: 3, LockTimeout: time.Hour, Gate: &chanGate{open: make(chan struct{})}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() blocked in a closed gate after cancellation")
	}
}
