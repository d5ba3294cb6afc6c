package metadata

import (
	"fmt"
	"math"
	"strings"
	"time"

	"fotoboek/internal/filesystem"
	"fotoboek/internal/logging"
	"fotoboek/internal/media"

	"github.com/rwcarlsen/goexif/exif"
)

const exifDateLayout = "2006:01:02 15:04:05"

// ImageAnalyzer reads resolution from the image header and camera details
// from EXIF.
type ImageAnalyzer struct {
	baseAnalyzer
	exif *exif.Exif
}

// NewImageAnalyzer analyzes the image at path. Images without EXIF are
// valid; only an undecodable image is an error.
func NewImageAnalyzer(path string) (*ImageAnalyzer, error) {
	a := &ImageAnalyzer{baseAnalyzer: newBaseAnalyzer(path)}

	w, h, err := media.Dimensions(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image resolution: %w", err)
	}
	a.width, a.height = w, h

	a.exif = readExif(path)
	if a.exif == nil {
		logging.Info("No EXIF data found for image %s", path)
		return a, nil
	}

	// Orientations 5-8 rotate by 90 degrees, so the displayed size is the
	// stored size transposed.
	if o := a.intTag(exif.Orientation); o != nil && *o >= 5 && *o <= 8 {
		a.width, a.height = a.height, a.width
	}
	return a, nil
}

func readExif(path string) *exif.Exif {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		logging.Debug("EXIF decode for %s: %v", path, err)
		return nil
	}
	return x
}

// CreationDate returns DateTimeOriginal, falling back to DateTime. EXIF
// dates carry no zone and are read as UTC.
func (a *ImageAnalyzer) CreationDate() *time.Time {
	for _, name := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		s := a.stringTag(name)
		if s == nil {
			continue
		}
		t, err := time.ParseInLocation(exifDateLayout, *s, time.UTC)
		if err != nil {
			logging.Debug("Unparsable EXIF %s %q: %v", name, *s, err)
			continue
		}
		return &t
	}
	return nil
}

func (a *ImageAnalyzer) CameraManufacturer() *string {
	return a.stringTag(exif.Make)
}

func (a *ImageAnalyzer) CameraModel() *string {
	return a.stringTag(exif.Model)
}

// Aperture returns the f-number. ApertureValue is stored in APEX units and
// converted with f = 2^(AV/2).
func (a *ImageAnalyzer) Aperture() *float64 {
	if v := a.ratTag(exif.FNumber); v != nil {
		return v
	}
	if av := a.ratTag(exif.ApertureValue); av != nil {
		f := math.Round(math.Pow(2, *av/2)*10) / 10
		return &f
	}
	return nil
}

// ExposureTime keeps the rational as written, e.g. "1/250".
func (a *ImageAnalyzer) ExposureTime() *string {
	if a.exif == nil {
		return nil
	}
	tag, err := a.exif.Get(exif.ExposureTime)
	if err != nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return nil
	}

	var s string
	switch {
	case num == 0:
		return nil
	case den == 1:
		s = fmt.Sprintf("%d", num)
	case num == 1:
		s = fmt.Sprintf("1/%d", den)
	case num >= den:
		s = fmt.Sprintf("%g", float64(num)/float64(den))
	default:
		s = fmt.Sprintf("1/%d", int64(math.Round(float64(den)/float64(num))))
	}
	return &s
}

func (a *ImageAnalyzer) ISO() *int {
	return a.intTag(exif.ISOSpeedRatings)
}

func (a *ImageAnalyzer) GPSLatLon() (*float64, *float64) {
	if a.exif == nil {
		return nil, nil
	}
	lat, lon, err := a.exif.LatLong()
	if err != nil || math.IsNaN(lat) || math.IsNaN(lon) {
		return nil, nil
	}
	return &lat, &lon
}

func (a *ImageAnalyzer) stringTag(name exif.FieldName) *string {
	if a.exif == nil {
		return nil
	}
	tag, err := a.exif.Get(name)
	if err != nil {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil {
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, "\x00"))
	if s == "" {
		return nil
	}
	return &s
}

func (a *ImageAnalyzer) intTag(name exif.FieldName) *int {
	if a.exif == nil {
		return nil
	}
	tag, err := a.exif.Get(name)
	if err != nil {
		return nil
	}
	v, err := tag.Int(0)
	if err != nil {
		return nil
	}
	return &v
}

func (a *ImageAnalyzer) ratTag(name exif.FieldName) *float64 {
	if a.exif == nil {
		return nil
	}
	tag, err := a.exif.Get(name)
	if err != nil {
		return nil
	}
	r, err := tag.Rat(0)
	if err != nil {
		return nil
	}
	v, _ := r.Float64()
	if v <= 0 {
		return nil
	}
	return &v
}
