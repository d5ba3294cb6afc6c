package worker_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fotoboek/internal/database"
	"fotoboek/internal/metadata"
	"fotoboek/internal/modules"
	"fotoboek/internal/preview"
	"fotoboek/internal/scanner"
	"fotoboek/internal/storage"
	"fotoboek/internal/transcoder"
	"fotoboek/internal/worker"
)

// requireFFmpeg returns the ffmpeg path or skips when it or the encoders the
// transcode module needs are unavailable.
func requireFFmpeg(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping ffmpeg pipeline test in short mode")
	}
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not available")
	}
	out, err := exec.Command(ffmpeg, "-hide_banner", "-encoders").Output()
	if err != nil {
		t.Skipf("cannot list ffmpeg encoders: %v", err)
	}
	for _, enc := range []string{"libvpx-vp9", "libopus", "mpeg4", "aac"} {
		if !strings.Contains(string(out), enc) {
			t.Skipf("ffmpeg lacks the %s encoder", enc)
		}
	}
	return ffmpeg
}

func TestPipeline_Video(t *testing.T) {
	ffmpeg := requireFFmpeg(t)
	ctx := context.Background()

	mediaRoot := t.TempDir()
	src := filepath.Join(mediaRoot, "VID_20200102_030405.mp4")
	gen := exec.Command(ffmpeg, "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration=1:size=320x240:rate=10",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=1",
		"-c:v", "mpeg4", "-c:a", "aac", "-shortest", "-y", src)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Fatalf("failed to generate test video: %v: %s", err, out)
	}

	db, err := database.New(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	store := storage.NewStore(storage.Layout{Root: t.TempDir()}, nil)
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	dispatcher := modules.NewDispatcher(map[string]modules.Runner{
		modules.Metadata:  metadata.NewExtractor(db, mediaRoot),
		modules.Preview:   preview.NewGenerator(db, store, mediaRoot, ffmpeg),
		modules.Transcode: transcoder.New(db, store, mediaRoot, ffmpeg, 2),
	})
	registrar := scanner.NewRegistrar(db, dispatcher, mediaRoot)

	file, err := registrar.Register(ctx, filepath.Base(src))
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	sched := worker.NewScheduler(db, dispatcher, worker.Config{Workers: 1, LockTimeout: time.Hour})
	for i := 0; i < 3; i++ {
		worked, err := sched.RunOnce(ctx, 0)
		if err != nil || !worked {
			t.Fatalf("RunOnce() #%d = %v, %v; want true, nil", i, worked, err)
		}
	}

	tasks, err := db.ListTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 0 {
		t.Fatalf("%d tasks remain, want all three modules to succeed: %+v", len(tasks), tasks)
	}

	meta, err := db.GetFileMetadata(ctx, file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.ResolutionX != 320 || meta.ResolutionY != 240 {
		t.Errorf("resolution = %dx%d, want 320x240", meta.ResolutionX, meta.ResolutionY)
	}
	if meta.DurationSeconds == nil || *meta.DurationSeconds < 0.9 || *meta.DurationSeconds > 1.2 {
		t.Errorf("duration = %v, want about 1s", meta.DurationSeconds)
	}

	layout := store.Layout()
	for _, size := range storage.PreviewSizes {
		path, _ := layout.PreviewPath(meta.Hash, size)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s preview missing: %v", size, err)
		}
	}
	video, _ := layout.VideoPath(meta.Hash)
	info, err := os.Stat(video)
	if err != nil {
		t.Fatalf("transcoded video missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("transcoded video is empty")
	}
}
