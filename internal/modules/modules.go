package modules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fotoboek/internal/database"
	"fotoboek/internal/logging"
	"fotoboek/internal/mediatypes"
	"fotoboek/internal/metrics"
)

// Module names as stored in tasks.module.
const (
	Metadata  = "metadata"
	Preview   = "preview"
	Transcode = "transcode"
)

// ErrUnknownModule is returned for tasks naming a module that is not
// registered.
var ErrUnknownModule = errors.New("unknown module")

// Runner executes one task of a module.
type Runner interface {
	Run(ctx context.Context, task *database.Task) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, task *database.Task) error

func (f RunnerFunc) Run(ctx context.Context, task *database.Task) error {
	return f(ctx, task)
}

// Definition describes how tasks of a module are created.
type Definition struct {
	Name     string
	Priority int
	// MaxWorkerID restricts the module to workers with id <= MaxWorkerID.
	MaxWorkerID int
	// Applies reports whether the module handles files of the given type.
	Applies func(mediatypes.FileType) bool
}

func allFiles(mediatypes.FileType) bool { return true }

func videosOnly(t mediatypes.FileType) bool { return t == mediatypes.FileTypeVideo }

// Catalog lists the modules in priority order. Transcoding is confined to
// worker 0 so at most one encode runs per process.
var Catalog = []Definition{
	{Name: Metadata, Priority: 100, MaxWorkerID: database.UnrestrictedLane, Applies: allFiles},
	{Name: Preview, Priority: 200, MaxWorkerID: database.UnrestrictedLane, Applies: allFiles},
	{Name: Transcode, Priority: 300, MaxWorkerID: 0, Applies: videosOnly},
}

// Dispatcher creates tasks for new files and routes claimed tasks to their
// module.
type Dispatcher struct {
	defs    []Definition
	runners map[string]Runner
}

// NewDispatcher creates a Dispatcher over Catalog. runners maps module names
// to their implementation.
func NewDispatcher(runners map[string]Runner) *Dispatcher {
	return &Dispatcher{defs: Catalog, runners: runners}
}

// CreateTasks enqueues one task per module that applies to file on q.
func (d *Dispatcher) CreateTasks(ctx context.Context, q database.TaskQueue, file *database.File) ([]*database.Task, error) {
	var tasks []*database.Task
	for _, def := range d.defs {
		if !def.Applies(file.FileType) {
			continue
		}
		task, err := q.EnqueueTask(ctx, file.ID, def.Name, def.Priority, def.MaxWorkerID)
		if err != nil {
			return tasks, fmt.Errorf("failed to create %s task for %s: %w", def.Name, file.RelPath, err)
		}
		tasks = append(tasks, task)
	}

	logging.Debug("Created %d tasks for %s", len(tasks), file.RelPath)
	return tasks, nil
}

// Run executes task with its module and records the outcome.
func (d *Dispatcher) Run(ctx context.Context, task *database.Task) error {
	runner, ok := d.runners[task.Module]
	if !ok {
		metrics.TaskExecutionsTotal.WithLabelValues(task.Module, "unknown").Inc()
		return fmt.Errorf("%w %q in task %d", ErrUnknownModule, task.Module, task.ID)
	}

	start := time.Now()
	err := runner.Run(ctx, task)
	elapsed := time.Since(start)

	metrics.TaskExecutionDuration.WithLabelValues(task.Module).Observe(elapsed.Seconds())
	if err != nil {
		metrics.TaskExecutionsTotal.WithLabelValues(task.Module, "error").Inc()
		return err
	}

	metrics.TaskExecutionsTotal.WithLabelValues(task.Module, "success").Inc()
	logging.Info("Task %d (%s, file %d) finished after %s", task.ID, task.Module, task.FileID, elapsed.Round(time.Millisecond))
	return nil
}
