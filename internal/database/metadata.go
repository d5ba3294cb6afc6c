package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ReplaceFileMetadata overwrites the metadata row of m.FileID.
func (d *Database) ReplaceFileMetadata(ctx context.Context, m *FileMetadata) (err error) {
	start := time.Now()
	defer func() { recordQuery("replace_file_metadata", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err = replaceMetadataTx(ctx, tx, m); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metadata for file %d: %w", m.FileID, err)
	}
	return nil
}

func replaceMetadataTx(ctx context.Context, tx *sql.Tx, m *FileMetadata) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM file_metadata WHERE file_id = ?`, m.FileID); err != nil {
		return fmt.Errorf("failed to delete old metadata for file %d: %w", m.FileID, err)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO file_metadata (
			file_id, size, hash, file_date, resolution_x, resolution_y,
			exif_date, camera_manufacturer, camera_model, aperture, exposure_time, iso,
			gps_lat, gps_lon, filename_date, duration_seconds, effective_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.FileID, m.Size, m.Hash, m.FileDate.Unix(), m.ResolutionX, m.ResolutionY,
		nullTime(m.ExifDate), m.CameraManufacturer, m.CameraModel, m.Aperture, m.ExposureTime, m.ISO,
		m.GPSLat, m.GPSLon, nullTime(m.FilenameDate), m.DurationSeconds, m.EffectiveDate.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert metadata for file %d: %w", m.FileID, err)
	}
	return nil
}

// GetFileMetadata returns the metadata of fileID or ErrNotFound when the
// metadata module has not completed for it yet.
func (d *Database) GetFileMetadata(ctx context.Context, fileID int64) (m *FileMetadata, err error) {
	start := time.Now()
	defer func() { recordQuery("get_file_metadata", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		meta                     FileMetadata
		fileDate, effectiveDate  int64
		exifDate, filenameDate   sql.NullInt64
		manufacturer, model, exp sql.NullString
		aperture, lat, lon, dur  sql.NullFloat64
		iso                      sql.NullInt64
	)

	err = d.db.QueryRowContext(ctx, `
		SELECT file_id, size, hash, file_date, resolution_x, resolution_y,
			exif_date, camera_manufacturer, camera_model, aperture, exposure_time, iso,
			gps_lat, gps_lon, filename_date, duration_seconds, effective_date
		FROM file_metadata WHERE file_id = ?
	`, fileID).Scan(
		&meta.FileID, &meta.Size, &meta.Hash, &fileDate, &meta.ResolutionX, &meta.ResolutionY,
		&exifDate, &manufacturer, &model, &aperture, &exp, &iso,
		&lat, &lon, &filenameDate, &dur, &effectiveDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("metadata for file %d: %w", fileID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata for file %d: %w", fileID, err)
	}

	meta.FileDate = time.Unix(fileDate, 0).UTC()
	meta.EffectiveDate = time.Unix(effectiveDate, 0).UTC()
	meta.ExifDate = timePtr(exifDate)
	meta.FilenameDate = timePtr(filenameDate)
	meta.CameraManufacturer = stringPtr(manufacturer)
	meta.CameraModel = stringPtr(model)
	meta.ExposureTime = stringPtr(exp)
	meta.Aperture = floatPtr(aperture)
	meta.GPSLat = floatPtr(lat)
	meta.GPSLon = floatPtr(lon)
	meta.DurationSeconds = floatPtr(dur)
	if iso.Valid {
		v := int(iso.Int64)
		meta.ISO = &v
	}

	return &meta, nil
}

// CountFileMetadata returns the number of metadata rows for fileID.
func (d *Database) CountFileMetadata(ctx context.Context, fileID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM file_metadata WHERE file_id = ?`, fileID).Scan(&n)
	return n, err
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
