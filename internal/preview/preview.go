package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"

	"fotoboek/internal/database"
	"fotoboek/internal/logging"
	"fotoboek/internal/media"
	"fotoboek/internal/mediatypes"
	"fotoboek/internal/metadata"
	"fotoboek/internal/metrics"
	"fotoboek/internal/storage"

	"github.com/disintegration/imaging"
)

// Generator runs the preview module. It writes a large and a small JPEG
// preview for each file, keyed by content hash.
type Generator struct {
	db         *database.Database
	store      *storage.Store
	mediaRoot  string
	ffmpegPath string
}

// NewGenerator creates a Generator.
func NewGenerator(db *database.Database, store *storage.Store, mediaRoot, ffmpegPath string) *Generator {
	return &Generator{
		db:         db,
		store:      store,
		mediaRoot:  mediaRoot,
		ffmpegPath: ffmpegPath,
	}
}

// Run generates both preview tiers for the task's file. It fails with
// metadata.ErrMetadataNotReady until the metadata module has run.
func (g *Generator) Run(ctx context.Context, task *database.Task) error {
	file, err := g.db.GetFile(ctx, task.FileID)
	if err != nil {
		return err
	}
	meta, err := metadata.Require(ctx, g.db, file.ID)
	if err != nil {
		return err
	}

	absPath := filepath.Join(g.mediaRoot, file.RelPath)

	switch file.FileType {
	case mediatypes.FileTypeImage:
		return g.imagePreviews(ctx, absPath, meta.Hash)
	case mediatypes.FileTypeVideo:
		return g.videoPreviews(ctx, absPath, meta.Hash)
	default:
		return fmt.Errorf("%w: %q", metadata.ErrUnsupportedFileType, file.FileType)
	}
}

// imagePreviews renders the large tier from the source and the small tier
// from the encoded large tier.
func (g *Generator) imagePreviews(ctx context.Context, path, hash string) error {
	src, err := media.Open(path)
	if err != nil {
		return err
	}

	large, err := g.writeTier(ctx, src, hash, storage.PreviewLarge, "image")
	if err != nil {
		return err
	}

	largeImg, err := media.Decode(bytes.NewReader(large))
	if err != nil {
		return fmt.Errorf("failed to decode large preview: %w", err)
	}
	_, err = g.writeTier(ctx, largeImg, hash, storage.PreviewSmall, "image")
	return err
}

// videoPreviews renders both tiers from the first frame. Videos without a
// readable frame complete without previews.
func (g *Generator) videoPreviews(ctx context.Context, path, hash string) error {
	frame, err := media.FirstFrame(ctx, g.ffmpegPath, path)
	if errors.Is(err, media.ErrNoFrame) {
		logging.Warn("No preview for %s: %v", path, err)
		metrics.PreviewsSkippedTotal.Inc()
		return nil
	}
	if err != nil {
		return err
	}

	for _, size := range storage.PreviewSizes {
		if _, err := g.writeTier(ctx, frame, hash, size, "video"); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) writeTier(ctx context.Context, img image.Image, hash string, size storage.PreviewSize, kind string) ([]byte, error) {
	data, err := media.EncodeJPEG(Fit(img, size.MaxPixels()))
	if err != nil {
		return nil, err
	}

	path, err := g.store.WritePreview(ctx, hash, size, data)
	if err != nil {
		return nil, err
	}

	metrics.PreviewsGeneratedTotal.WithLabelValues(kind, string(size)).Inc()
	logging.Debug("Wrote %s preview %s (%d bytes)", size, path, len(data))
	return data, nil
}

// ScaleFactor is the factor that fits a width x height image into a square
// box of the given edge without upscaling.
func ScaleFactor(width, height, box int) float64 {
	if width <= 0 || height <= 0 {
		return 1
	}
	b := float64(box)
	return math.Min(math.Min(b/float64(width), b/float64(height)), 1)
}

// Fit scales img into a box x box square preserving the aspect ratio.
// Images that already fit are returned unchanged.
func Fit(img image.Image, box int) image.Image {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	s := ScaleFactor(w, h, box)
	if s >= 1 {
		return img
	}

	nw := max(int(math.Round(float64(w)*s)), 1)
	nh := max(int(math.Round(float64(h)*s)), 1)
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}
