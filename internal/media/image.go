package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"fotoboek/internal/filesystem"
	"fotoboek/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// JPEGQuality is the fixed quality of every encoded preview.
const JPEGQuality = 85

// Open decodes the image at path with EXIF auto-orientation. Formats the Go
// decoders cannot read are handed to libvips when it is available.
func Open(path string) (image.Image, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	logging.Debug("imaging.Decode failed for %s: %v, trying libvips", path, err)

	img, vipsErr := decodeWithVips(path)
	if vipsErr != nil {
		return nil, fmt.Errorf("cannot decode image %s: %w (libvips: %v)", path, err, vipsErr)
	}
	return img, nil
}

// Dimensions returns the stored pixel size of the image at path without
// decoding the pixel data.
func Dimensions(path string) (width, height int, err error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err == nil {
		return cfg.Width, cfg.Height, nil
	}

	w, h, vipsErr := dimensionsWithVips(path)
	if vipsErr != nil {
		return 0, 0, fmt.Errorf("cannot decode image %s: %w (libvips: %v)", path, err, vipsErr)
	}
	return w, h, nil
}

// Decode decodes an in-memory image.
func Decode(r io.Reader) (image.Image, error) {
	return imaging.Decode(r)
}

// EncodeJPEG encodes img at JPEGQuality.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
