package metadata

import (
	"fmt"
	"path/filepath"
	"time"

	"fotoboek/internal/mediatypes"
)

// Analyzer exposes what could be learned about one media file. Optional
// values are nil when the file does not carry them.
type Analyzer interface {
	Resolution() (width, height int)
	CreationDate() *time.Time
	FilenameDate() *time.Time
	CameraManufacturer() *string
	CameraModel() *string
	Aperture() *float64
	ExposureTime() *string
	ISO() *int
	GPSLatLon() (lat, lon *float64)
	Duration() *float64
}

// NewAnalyzer opens path with the analyzer matching fileType.
func NewAnalyzer(fileType mediatypes.FileType, path string) (Analyzer, error) {
	switch fileType {
	case mediatypes.FileTypeImage:
		return NewImageAnalyzer(path)
	case mediatypes.FileTypeVideo:
		return NewVideoAnalyzer(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, fileType)
	}
}

// baseAnalyzer holds the fields every file type has and answers nil for the
// camera specific ones.
type baseAnalyzer struct {
	name   string
	width  int
	height int
}

func newBaseAnalyzer(path string) baseAnalyzer {
	return baseAnalyzer{name: filepath.Base(path)}
}

func (b *baseAnalyzer) Resolution() (int, int) {
	return b.width, b.height
}

func (b *baseAnalyzer) FilenameDate() *time.Time {
	return FilenameDate(b.name)
}

func (b *baseAnalyzer) CameraManufacturer() *string { return nil }
func (b *baseAnalyzer) CameraModel() *string { return nil }
func (b *baseAnalyzer) Aperture() *float64 { return nil }
func (b *baseAnalyzer) ExposureTime() *string { return nil }
func (b *baseAnalyzer) ISO() *int { return nil }
func (b *baseAnalyzer) GPSLatLon() (*float64, *float64) { return nil, nil }
func (b *baseAnalyzer) Duration() *float64 { return nil }
