package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"fotoboek/internal/database"
	"fotoboek/internal/logging"
	"fotoboek/internal/mediatypes"
	"fotoboek/internal/metadata"
	"fotoboek/internal/metrics"
	"fotoboek/internal/storage"
)

const (
	videoBitrate = "1000K"
	audioBitrate = "64k"
	// maxStderr bounds how much encoder output is carried in an error.
	maxStderr = 4096
)

// Runner executes an external command and returns its standard error.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// Transcoder runs the transcode module: a two-pass VP9/Opus WebM encode of
// every video, stored by content hash.
type Transcoder struct {
	db         *database.Database
	store      *storage.Store
	mediaRoot  string
	ffmpegPath string
	threads    int
	runner     Runner
}

// New creates a Transcoder. threads is passed to the encoder as -threads.
func New(db *database.Database, store *storage.Store, mediaRoot, ffmpegPath string, threads int) *Transcoder {
	if threads < 1 {
		threads = 1
	}
	return &Transcoder{
		db:         db,
		store:      store,
		mediaRoot:  mediaRoot,
		ffmpegPath: ffmpegPath,
		threads:    threads,
		runner:     ExecRunner{},
	}
}

// SetRunner replaces the command runner.
func (t *Transcoder) SetRunner(r Runner) {
	t.runner = r
}

// Run transcodes the task's video. It fails with
// metadata.ErrMetadataNotReady until the metadata module has run.
func (t *Transcoder) Run(ctx context.Context, task *database.Task) error {
	file, err := t.db.GetFile(ctx, task.FileID)
	if err != nil {
		return err
	}
	if file.FileType != mediatypes.FileTypeVideo {
		return fmt.Errorf("%w: cannot transcode %s file %s", metadata.ErrUnsupportedFileType, file.FileType, file.RelPath)
	}

	meta, err := metadata.Require(ctx, t.db, file.ID)
	if err != nil {
		return err
	}

	final, tmp, err := t.store.PrepareVideo(meta.Hash)
	if err != nil {
		return err
	}

	passDir, err := os.MkdirTemp("", "fotoboek-passlog-")
	if err != nil {
		return fmt.Errorf("failed to create passlog directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(passDir); err != nil {
			logging.Warn("Failed to remove passlog directory %s: %v", passDir, err)
		}
	}()

	src := filepath.Join(t.mediaRoot, file.RelPath)
	passlog := filepath.Join(passDir, "task-"+strconv.FormatInt(task.ID, 10))

	for pass := 1; pass <= 2; pass++ {
		out := os.DevNull
		if pass == 2 {
			out = tmp
		}
		if err := t.runPass(ctx, pass, PassArgs(pass, src, passlog, out, t.threads)); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("transcoding %s: %w", file.RelPath, err)
		}
	}

	if err := t.store.FinishVideo(ctx, tmp, final); err != nil {
		return err
	}

	logging.Info("Transcoded %s to %s", file.RelPath, final)
	return nil
}

func (t *Transcoder) runPass(ctx context.Context, pass int, args []string) error {
	logging.Debug("Starting transcode pass %d: %s %v", pass, t.ffmpegPath, args)

	start := time.Now()
	stderr, err := t.runner.Run(ctx, t.ffmpegPath, args)
	metrics.TranscodePassDuration.WithLabelValues(strconv.Itoa(pass)).Observe(time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("pass %d failed: %w: %s", pass, err, tail(stderr, maxStderr))
	}
	return nil
}

// PassArgs builds the ffmpeg arguments for one pass of the two-pass VP9
// encode. Pass 1 only analyzes video and writes the pass log; pass 2 encodes
// video and audio into out.
func PassArgs(pass int, src, passlog, out string, threads int) []string {
	args := []string{
		"-hide_banner",
		"-i", src,
		"-c:v", "libvpx-vp9",
		"-pass", strconv.Itoa(pass),
		"-passlogfile", passlog,
		"-b:v", videoBitrate,
		"-threads", strconv.Itoa(threads),
	}

	if pass == 1 {
		args = append(args,
			"-speed", "4",
			"-tile-columns", "6",
			"-frame-parallel", "1",
			"-an",
		)
	} else {
		args = append(args,
			"-speed", "1",
			"-tile-columns", "6",
			"-frame-parallel", "1",
			"-auto-alt-ref", "1",
			"-lag-in-frames", "25",
			"-c:a", "libopus",
			"-b:a", audioBitrate,
		)
	}

	return append(args, "-f", "webm", "-y", out)
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(bytes.TrimSpace(b))
}
