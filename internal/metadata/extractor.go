package metadata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"fotoboek/internal/database"
	"fotoboek/internal/filesystem"
	"fotoboek/internal/logging"
)

// ErrUnsupportedFileType is returned for files whose type has no analyzer.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// Extractor runs the metadata module: it hashes a file, analyzes it and
// replaces its FileMetadata row.
type Extractor struct {
	db        *database.Database
	mediaRoot string
}

// NewExtractor creates an Extractor resolving relative paths under mediaRoot.
func NewExtractor(db *database.Database, mediaRoot string) *Extractor {
	return &Extractor{db: db, mediaRoot: mediaRoot}
}

// Run extracts and stores metadata for the task's file.
func (e *Extractor) Run(ctx context.Context, task *database.Task) error {
	file, err := e.db.GetFile(ctx, task.FileID)
	if err != nil {
		return err
	}
	absPath := filepath.Join(e.mediaRoot, file.RelPath)

	info, err := filesystem.StatWithRetry(absPath, filesystem.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", absPath, err)
	}

	hash, err := hashFile(absPath)
	if err != nil {
		return err
	}

	analyzer, err := NewAnalyzer(file.FileType, absPath)
	if err != nil {
		return err
	}

	m := Build(file.ID, info.Size(), hash, filesystem.CreationTime(absPath, info), analyzer)
	if err := e.db.ReplaceFileMetadata(ctx, m); err != nil {
		return err
	}

	logging.Debug("Stored metadata for %s: %dx%d, effective date %s",
		file.RelPath, m.ResolutionX, m.ResolutionY, m.EffectiveDate.Format(time.RFC3339))
	return nil
}

// Build assembles a FileMetadata row from filesystem facts and an analyzer.
func Build(fileID, size int64, hash string, fileDate time.Time, a Analyzer) *database.FileMetadata {
	fileDate = fileDate.UTC().Truncate(time.Second)
	w, h := a.Resolution()
	lat, lon := a.GPSLatLon()
	exifDate := a.CreationDate()
	filenameDate := a.FilenameDate()

	return &database.FileMetadata{
		FileID:             fileID,
		Size:               size,
		Hash:               hash,
		FileDate:           fileDate,
		ResolutionX:        w,
		ResolutionY:        h,
		ExifDate:           exifDate,
		CameraManufacturer: a.CameraManufacturer(),
		CameraModel:        a.CameraModel(),
		Aperture:           a.Aperture(),
		ExposureTime:       a.ExposureTime(),
		ISO:                a.ISO(),
		GPSLat:             lat,
		GPSLon:             lon,
		FilenameDate:       filenameDate,
		DurationSeconds:    a.Duration(),
		EffectiveDate:      ResolveEffectiveDate(exifDate, filenameDate, fileDate),
	}
}

// ResolveEffectiveDate picks the embedded date, then the filename date, then
// the filesystem date.
func ResolveEffectiveDate(exifDate, filenameDate *time.Time, fileDate time.Time) time.Time {
	if exifDate != nil {
		return *exifDate
	}
	if filenameDate != nil {
		return *filenameDate
	}
	return fileDate
}

// hashFile streams the file through SHA-256 and returns the lower-case hex
// digest.
func hashFile(path string) (string, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ErrMetadataNotReady is returned by modules that depend on a file's
// metadata when the metadata module has not stored it yet.
var ErrMetadataNotReady = errors.New("metadata not ready")

// Require loads the stored metadata of fileID, mapping a missing row to
// ErrMetadataNotReady.
func Require(ctx context.Context, db *database.Database, fileID int64) (*database.FileMetadata, error) {
	m, err := db.GetFileMetadata(ctx, fileID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: file %d", ErrMetadataNotReady, fileID)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
