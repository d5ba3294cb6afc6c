package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PreviewSize is a preview tier.
type PreviewSize string

const (
	PreviewLarge PreviewSize = "large"
	PreviewSmall PreviewSize = "small"
)

// PreviewSizes lists the tiers in generation order. Small previews are
// derived from the large one.
var PreviewSizes = []PreviewSize{PreviewLarge, PreviewSmall}

const (
	// PreviewExt is the extension of stored previews.
	PreviewExt = "jpg"
	// VideoExt is the extension of transcoded videos.
	VideoExt = "webm"

	previewsDir = "previews"
	videosDir   = "videos"
)

// MaxPixels is the bounding box edge of the tier.
func (s PreviewSize) MaxPixels() int {
	switch s {
	case PreviewLarge:
		return 2000
	case PreviewSmall:
		return 200
	default:
		return 0
	}
}

// ParsePreviewSize validates a tier name.
func ParsePreviewSize(s string) (PreviewSize, error) {
	switch PreviewSize(s) {
	case PreviewLarge, PreviewSmall:
		return PreviewSize(s), nil
	default:
		return "", fmt.Errorf("unknown preview size %q", s)
	}
}

// Layout resolves content hashes to blob paths below Root:
//
//	<root>/previews/<hash[0:2]>/<size>-<hash>.jpg
//	<root>/videos/<hash[0:2]>/<hash>.webm
type Layout struct {
	Root string
}

// PreviewPath returns the path of the preview of the given tier.
func (l Layout) PreviewPath(hash string, size PreviewSize) (string, error) {
	if err := validateHash(hash); err != nil {
		return "", err
	}
	if size.MaxPixels() == 0 {
		return "", fmt.Errorf("unknown preview size %q", size)
	}
	return filepath.Join(l.Root, previewsDir, hash[:2], fmt.Sprintf("%s-%s.%s", size, hash, PreviewExt)), nil
}

// VideoPath returns the path of the transcoded video.
func (l Layout) VideoPath(hash string) (string, error) {
	if err := validateHash(hash); err != nil {
		return "", err
	}
	return filepath.Join(l.Root, videosDir, hash[:2], fmt.Sprintf("%s.%s", hash, VideoExt)), nil
}

// Key returns path relative to Root with forward slashes, for use as an
// object storage key.
func (l Layout) Key(path string) (string, error) {
	rel, err := filepath.Rel(l.Root, path)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside storage root %s", path, l.Root)
	}
	return filepath.ToSlash(rel), nil
}

// validateHash accepts lower-case hex strings of at least two characters so
// a hash can never escape its shard directory.
func validateHash(hash string) error {
	if len(hash) < 2 {
		return fmt.Errorf("invalid content hash %q", hash)
	}
	for _, c := range hash {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return fmt.Errorf("invalid content hash %q", hash)
		}
	}
	return nil
}
