package transcoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"fotoboek/internal/database"
	"fotoboek/internal/mediatypes"
	"fotoboek/internal/metadata"
	"fotoboek/internal/storage"
)

const testHash = "0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"

func TestPassArgs(t *testing.T) {
	pass1 := PassArgs(1, "/media/in.mp4", "/tmp/log/task-7", os.DevNull, 4)
	pass2 := PassArgs(2, "/media/in.mp4", "/tmp/log/task-7", "/store/out.webm", 4)

	tests := []struct {
		name    string
		args    []string
		present [][]string
		absent  []string
		last    string
	}{
		{
			name: "pass 1",
			args: pass1,
			present: [][]string{
				{"-i", "/media/in.mp4"},
				{"-c:v", "libvpx-vp9"},
				{"-pass", "1"},
				{"-passlogfile", "/tmp/log/task-7"},
				{"-b:v", "1000K"},
				{"-threads", "4"},
				{"-speed", "4"},
				{"-tile-columns", "6"},
				{"-frame-parallel", "1"},
				{"-f", "webm"},
			},
			absent: []string{"-c:a", "-auto-alt-ref"},
			last:   os.DevNull,
		},
		{
			name: "pass 2",
			args: pass2,
			present: [][]string{
				{"-pass", "2"},
				{"-passlogfile", "/tmp/log/task-7"},
				{"-b:v", "1000K"},
				{"-speed", "1"},
				{"-auto-alt-ref", "1"},
				{"-lag-in-frames", "25"},
				{"-c:a", "libopus"},
				{"-b:a", "64k"},
				{"-f", "webm"},
			},
			absent: []string{"-an"},
			last:   "/store/out.webm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, pair := range tt.present {
				i := slices.Index(tt.args, pair[0])
				if i < 0 || i+1 >= len(tt.args) || tt.args[i+1] != pair[1] {
					t.Errorf("args missing %s %s: %v", pair[0], pair[1], tt.args)
				}
			}
			for _, flag := range tt.absent {
				if slices.Contains(tt.args, flag) {
					t.Errorf("args unexpectedly contain %s: %v", flag, tt.args)
				}
			}
			if got := tt.args[len(tt.args)-1]; got != tt.last {
				t.Errorf("output = %s, want %s", got, tt.last)
			}
			if tt.args[len(tt.args)-2] != "-y" {
				t.Errorf("output must be preceded by -y: %v", tt.args)
			}
		})
	}
}

// fakeRunner records invocations and writes the output file of a
// successful pass 2 like ffmpeg would.
type fakeRunner struct {
	calls    [][]string
	failPass int
	stderr   string
}

func (f *fakeRunner) Run(_ context.Context, _ string, args []string) ([]byte, error) {
	f.calls = append(f.calls, args)
	pass := args[slices.Index(args, "-pass")+1]

	if f.failPass > 0 && pass == strconv.Itoa(f.failPass) {
		return []byte(f.stderr), errors.New("exit status 1")
	}
	if pass == "2" {
		if err := os.WriteFile(args[len(args)-1], []byte("webm"), 0o644); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

type testEnv struct {
	ctx   context.Context
	db    *database.Database
	store *storage.Store
	tc    *Transcoder
	fake  *fakeRunner
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()
	db, err := database.New(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := storage.NewStore(storage.Layout{Root: t.TempDir()}, nil)
	fake := &fakeRunner{}
	tc := New(db, store, t.TempDir(), "ffmpeg", 2)
	tc.SetRunner(fake)

	return &testEnv{ctx: ctx, db: db, store: store, tc: tc, fake: fake}
}

func (e *testEnv) addFile(t *testing.T, relPath string, fileType mediatypes.FileType, withMetadata bool) *database.File {
	t.Helper()

	file, err := e.db.InsertFile(e.ctx, relPath, fileType, filepath.Base(relPath))
	if err != nil {
		t.Fatal(err)
	}
	if withMetadata {
		now := time.Now().UTC().Truncate(time.Second)
		err := e.db.ReplaceFileMetadata(e.ctx, &database.FileMetadata{
			FileID: file.ID, Hash: testHash, FileDate: now, EffectiveDate: now,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return file
}

func TestTranscoderRun(t *testing.T) {
	env := setupTestEnv(t)
	file := env.addFile(t, "clip.mp4", mediatypes.FileTypeVideo, true)

	if err := env.tc.Run(env.ctx, &database.Task{ID: 7, FileID: file.ID, Module: "transcode"}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if len(env.fake.calls) != 2 {
		t.Fatalf("runner called %d times, want 2", len(env.fake.calls))
	}
	passlog1 := env.fake.calls[0][slices.Index(env.fake.calls[0], "-passlogfile")+1]
	passlog2 := env.fake.calls[1][slices.Index(env.fake.calls[1], "-passlogfile")+1]
	if passlog1 != passlog2 || !strings.HasSuffix(passlog1, "task-7") {
		t.Errorf("passlog prefixes = %q, %q; want the same per-task prefix", passlog1, passlog2)
	}

	final, err := env.store.Layout().VideoPath(testHash)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(final); err != nil {
		t.Errorf("transcoded video not stored at %s: %v", final, err)
	}
	if _, err := os.Stat(filepath.Dir(passlog1)); !os.IsNotExist(err) {
		t.Errorf("passlog directory not cleaned up: %v", err)
	}
}

func TestTranscoderRun_PassFailure(t *testing.T) {
	for _, failPass := range []int{1, 2} {
		t.Run("pass "+strconv.Itoa(failPass), func(t *testing.T) {
			env := setupTestEnv(t)
			env.fake.failPass = failPass
			env.fake.stderr = "Unknown encoder 'libvpx-vp9'"
			file := env.addFile(t, "clip.mp4", mediatypes.FileTypeVideo, true)

			err := env.tc.Run(env.ctx, &database.Task{ID: 1, FileID: file.ID})
			if err == nil {
				t.Fatal("Run() succeeded despite a failing pass")
			}
			if !strings.Contains(err.Error(), "Unknown encoder") {
				t.Errorf("error %q does not carry encoder stderr", err)
			}
			if len(env.fake.calls) != failPass {
				t.Errorf("runner called %d times, want %d", len(env.fake.calls), failPass)
			}

			final, _ := env.store.Layout().VideoPath(testHash)
			if _, err := os.Stat(final); !os.IsNotExist(err) {
				t.Errorf("final video exists after failed transcode: %v", err)
			}
		})
	}
}

func TestTranscoderRun_Preconditions(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("metadata not ready", func(t *testing.T) {
		file := env.addFile(t, "early.mp4", mediatypes.FileTypeVideo, false)
		err := env.tc.Run(env.ctx, &database.Task{FileID: file.ID})
		if !errors.Is(err, metadata.ErrMetadataNotReady) {
			t.Errorf("Run() error = %v, want ErrMetadataNotReady", err)
		}
	})

	t.Run("image file", func(t *testing.T) {
		file := env.addFile(t, "photo.jpg", mediatypes.FileTypeImage, true)
		err := env.tc.Run(env.ctx, &database.Task{FileID: file.ID})
		if !errors.Is(err, metadata.ErrUnsupportedFileType) {
			t.Errorf("Run() error = %v, want ErrUnsupportedFileType", err)
		}
	})

	if len(env.fake.calls) != 0 {
		t.Errorf("runner invoked %d times for rejected tasks", len(env.fake.calls))
	}
}
