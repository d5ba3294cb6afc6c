package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"

	"fotoboek/internal/logging"
)

// ErrNoFrame is returned when ffmpeg produced no decodable frame.
var ErrNoFrame = errors.New("no readable video frame")

// FirstFrame extracts the first decodable frame of the video at path as a
// PNG piped out of ffmpeg.
func FirstFrame(ctx context.Context, ffmpegPath, path string) (image.Image, error) {
	logging.Debug("Extracting video frame: %s", path)

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-v", "error",
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: ffmpeg exited with %d: %s", ErrNoFrame, exitErr.ExitCode(), stderr.String())
		}
		return nil, fmt.Errorf("failed to run ffmpeg: %w", err)
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no output for %s", ErrNoFrame, path)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode ffmpeg output: %v", ErrNoFrame, err)
	}
	return img, nil
}
