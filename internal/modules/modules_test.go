package modules

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fotoboek/internal/database"
	"fotoboek/internal/mediatypes"
	"fotoboek/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateTasks(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	d := NewDispatcher(nil)

	tests := []struct {
		name     string
		relPath  string
		fileType mediatypes.FileType
		want     []Definition
	}{
		{
			name:     "image",
			relPath:  "a.jpg",
			fileType: mediatypes.FileTypeImage,
			want: []Definition{
				{Name: Metadata, Priority: 100, MaxWorkerID: database.UnrestrictedLane},
				{Name: Preview, Priority: 200, MaxWorkerID: database.UnrestrictedLane},
			},
		},
		{
			name:     "video",
			relPath:  "b.mp4",
			fileType: mediatypes.FileTypeVideo,
			want: []Definition{
				{Name: Metadata, Priority: 100, MaxWorkerID: database.UnrestrictedLane},
				{Name: Preview, Priority: 200, MaxWorkerID: database.UnrestrictedLane},
				{Name: Transcode, Priority: 300, MaxWorkerID: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := db.InsertFile(ctx, tt.relPath, tt.fileType, tt.relPath)
			if err != nil {
				t.Fatal(err)
			}

			if _, err := d.CreateTasks(ctx, db, file); err != nil {
				t.Fatalf("CreateTasks() failed: %v", err)
			}

			tasks, err := db.TasksForFile(ctx, file.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(tasks) != len(tt.want) {
				t.Fatalf("got %d tasks, want %d", len(tasks), len(tt.want))
			}
			for i, want := range tt.want {
				got := tasks[i]
				if got.Module != want.Name || got.Priority != want.Priority || got.MaxWorkerID != want.MaxWorkerID {
					t.Errorf("task %d = {%s %d %d}, want {%s %d %d}",
						i, got.Module, got.Priority, got.MaxWorkerID, want.Name, want.Priority, want.MaxWorkerID)
				}
				if !got.NeverStarted() {
					t.Errorf("task %d already started at %v", i, got.WorkStartedAt)
				}
			}
		})
	}
}

func TestDispatcherRun(t *testing.T) {
	ctx := context.Background()

	var ran []string
	failure := errors.New("boom")
	d := NewDispatcher(map[string]Runner{
		Metadata: RunnerFunc(func(_ context.Context, task *database.Task) error {
			ran = append(ran, task.Module)
			return nil
		}),
		Preview: RunnerFunc(func(context.Context, *database.Task) error {
			return failure
		}),
	})

	t.Run("success", func(t *testing.T) {
		before := testutil.ToFloat64(metrics.TaskExecutionsTotal.WithLabelValues(Metadata, "success"))
		if err := d.Run(ctx, &database.Task{ID: 1, Module: Metadata}); err != nil {
			t.Fatalf("Run() failed: %v", err)
		}
		if len(ran) != 1 || ran[0] != Metadata {
			t.Errorf("ran = %v, want [metadata]", ran)
		}
		after := testutil.ToFloat64(metrics.TaskExecutionsTotal.WithLabelValues(Metadata, "success"))
		if after != before+1 {
			t.Errorf("success counter = %v, want %v", after, before+1)
		}
	})

	t.Run("module error is returned", func(t *testing.T) {
		if err := d.Run(ctx, &database.Task{ID: 2, Module: Preview}); !errors.Is(err, failure) {
			t.Errorf("Run() error = %v, want %v", err, failure)
		}
	})

	t.Run("unknown module", func(t *testing.T) {
		for _, module := range []string{Transcode, "thumbnails"} {
			if err := d.Run(ctx, &database.Task{ID: 3, Module: module}); !errors.Is(err, ErrUnknownModule) {
				t.Errorf("Run(%s) error = %v, want ErrUnknownModule", module, err)
			}
		}
	})
}
