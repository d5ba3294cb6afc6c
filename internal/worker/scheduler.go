package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fotoboek/internal/database"
	"fotoboek/internal/logging"
	"fotoboek/internal/metrics"

	"github.com/google/uuid"
)

// DefaultIdleInterval is how long a worker sleeps after finding no work.
const DefaultIdleInterval = 60 * time.Second

// Queue is the part of the task store the scheduler needs.
type Queue interface {
	ClaimNextTask(ctx context.Context, workerID int, lockTimeout time.Duration) (*database.Task, error)
	DeleteTask(ctx context.Context, id int64) (int64, error)
}

// Executor runs a claimed task.
type Executor interface {
	Run(ctx context.Context, task *database.Task) error
}

// Gate holds workers back before they claim, e.g. under memory pressure.
type Gate interface {
	Wait(ctx context.Context) error
}

// Config configures a Scheduler.
type Config struct {
	// Workers is the number of worker loops; ids are 0..Workers-1.
	Workers int
	// LockTimeout is how long a claimed task stays invisible to other
	// workers before it may be claimed again.
	LockTimeout time.Duration
	// IdleInterval is the sleep after a poll that found no work.
	IdleInterval time.Duration
	// Gate, when set, is consulted before every claim.
	Gate Gate
}

// Scheduler runs worker loops that claim, execute and retire tasks.
type Scheduler struct {
	queue      Queue
	executor   Executor
	config     Config
	instanceID string
}

// NewScheduler creates a Scheduler. Zero config values fall back to one
// worker and DefaultIdleInterval.
func NewScheduler(queue Queue, executor Executor, config Config) *Scheduler {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.IdleInterval <= 0 {
		config.IdleInterval = DefaultIdleInterval
	}
	return &Scheduler{
		queue:      queue,
		executor:   executor,
		config:     config,
		instanceID: uuid.NewString(),
	}
}

// InstanceID identifies this scheduler in logs.
func (s *Scheduler) InstanceID() string {
	return s.instanceID
}

// Run starts the worker loops and blocks until ctx is cancelled and every
// loop has returned. A task already executing when ctx is cancelled runs to
// completion.
func (s *Scheduler) Run(ctx context.Context) error {
	logging.Info("Starting %d workers (instance %s, lock timeout %v, idle interval %v)",
		s.config.Workers, s.instanceID, s.config.LockTimeout, s.config.IdleInterval)

	var wg sync.WaitGroup
	for id := 0; id < s.config.Workers; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.loop(ctx, id)
		}(id)
	}
	wg.Wait()

	logging.Info("All workers stopped")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, workerID int) {
	log := logging.Named(fmt.Sprintf("worker-%d", workerID))
	log.Debug("started")

	for {
		if ctx.Err() != nil {
			log.Debug("stopping")
			return
		}
		if s.config.Gate != nil {
			if err := s.config.Gate.Wait(ctx); err != nil {
				log.Debug("stopping")
				return
			}
		}

		worked, err := s.runOnce(ctx, workerID, log)
		if err != nil && ctx.Err() == nil {
			log.Error("failed to claim task: %v", err)
		}
		if worked {
			continue
		}

		metrics.WorkerIdlePolls.Inc()
		log.Debug("no workable tasks, sleeping for %v", s.config.IdleInterval)
		select {
		case <-ctx.Done():
			log.Debug("stopping")
			return
		case <-time.After(s.config.IdleInterval):
		}
	}
}

// RunOnce performs one claim, execute and retire cycle for workerID. It
// reports whether a task was claimed. Task failures are logged and leave
// the task in the queue; only a failed claim is returned as an error.
func (s *Scheduler) RunOnce(ctx context.Context, workerID int) (bool, error) {
	return s.runOnce(ctx, workerID, logging.Named(fmt.Sprintf("worker-%d", workerID)))
}

func (s *Scheduler) runOnce(ctx context.Context, workerID int, log *logging.Logger) (bool, error) {
	task, err := s.queue.ClaimNextTask(ctx, workerID, s.config.LockTimeout)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}

	log.Debug("claimed task %d (%s, file %d, attempt %d)", task.ID, task.Module, task.FileID, task.Attempts)

	metrics.WorkersBusy.Inc()
	// Shutdown does not interrupt a running task.
	runErr := s.executor.Run(context.WithoutCancel(ctx), task)
	metrics.WorkersBusy.Dec()

	if runErr != nil {
		log.Error("task %d (%s, file %d) failed: %v", task.ID, task.Module, task.FileID, runErr)
		return true, nil
	}

	s.retire(context.WithoutCancel(ctx), task, log)
	return true, nil
}

// retire deletes a finished task. A failed or empty delete is not fatal: the
// task will be claimed again after the lock timeout and its module rerun.
func (s *Scheduler) retire(ctx context.Context, task *database.Task, log *logging.Logger) {
	rows, err := s.queue.DeleteTask(ctx, task.ID)
	switch {
	case err != nil:
		metrics.TaskDeleteFailures.Inc()
		log.Error("failed to delete finished task %d: %v", task.ID, err)
	case rows == 0:
		metrics.TaskDeleteFailures.Inc()
		log.Warn("finished task %d was already deleted", task.ID)
	}
}
