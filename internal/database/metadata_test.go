package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"fotoboek/internal/mediatypes"
)

func ptr[T any](v T) *T { return &v }

func TestReplaceFileMetadata_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := insertTestFile(t, db, "IMG_20190704_120000.jpg", mediatypes.FileTypeImage)

	fileDate := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	first := &FileMetadata{
		FileID:        f.ID,
		Size:          100,
		Hash:          "aa11",
		FileDate:      fileDate,
		ResolutionX:   4000,
		ResolutionY:   3000,
		FilenameDate:  ptr(time.Date(2019, 7, 4, 12, 0, 0, 0, time.UTC)),
		EffectiveDate: time.Date(2019, 7, 4, 12, 0, 0, 0, time.UTC),
	}
	if err := db.ReplaceFileMetadata(ctx, first); err != nil {
		t.Fatalf("first ReplaceFileMetadata() failed: %v", err)
	}

	exif := time.Date(2019, 7, 4, 11, 59, 58, 0, time.UTC)
	second := &FileMetadata{
		FileID:             f.ID,
		Size:               200,
		Hash:               "bb22",
		FileDate:           fileDate,
		ResolutionX:        2000,
		ResolutionY:        1500,
		ExifDate:           &exif,
		CameraManufacturer: ptr("FUJIFILM"),
		CameraModel:        ptr("X-T3"),
		Aperture:           ptr(2.8),
		ExposureTime:       ptr("1/250"),
		ISO:                ptr(400),
		GPSLat:             ptr(52.37),
		GPSLon:             ptr(4.89),
		FilenameDate:       ptr(time.Date(2019, 7, 4, 12, 0, 0, 0, time.UTC)),
		EffectiveDate:      exif,
	}
	if err := db.ReplaceFileMetadata(ctx, second); err != nil {
		t.Fatalf("second ReplaceFileMetadata() failed: %v", err)
	}

	n, err := db.CountFileMetadata(ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("metadata rows = %d, want 1", n)
	}

	got, err := db.GetFileMetadata(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetFileMetadata() failed: %v", err)
	}
	if got.Size != 200 || got.Hash != "bb22" || got.ResolutionX != 2000 || got.ResolutionY != 1500 {
		t.Errorf("GetFileMetadata() = %+v, want second run's values", got)
	}
	if got.ExifDate == nil || !got.ExifDate.Equal(exif) {
		t.Errorf("ExifDate = %v, want %v", got.ExifDate, exif)
	}
	if !got.EffectiveDate.Equal(exif) {
		t.Errorf("EffectiveDate = %v, want %v", got.EffectiveDate, exif)
	}
	if !got.FileDate.Equal(fileDate) {
		t.Errorf("FileDate = %v, want %v", got.FileDate, fileDate)
	}
	if got.CameraModel == nil || *got.CameraModel != "X-T3" {
		t.Errorf("CameraModel = %v, want X-T3", got.CameraModel)
	}
	if got.ISO == nil || *got.ISO != 400 {
		t.Errorf("ISO = %v, want 400", got.ISO)
	}
	if got.GPSLat == nil || *got.GPSLat != 52.37 {
		t.Errorf("GPSLat = %v, want 52.37", got.GPSLat)
	}
	if got.DurationSeconds != nil {
		t.Errorf("DurationSeconds = %v, want nil for an image", *got.DurationSeconds)
	}
}

func TestGetFileMetadata_NotFound(t *testing.T) {
	db := setupTestDB(t)
	f := insertTestFile(t, db, "a.jpg", mediatypes.FileTypeImage)

	_, err := db.GetFileMetadata(context.Background(), f.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetFileMetadata() error = %v, want ErrNotFound", err)
	}
}

func TestReplaceFileMetadata_UnknownFile(t *testing.T) {
	db := setupTestDB(t)

	err := db.ReplaceFileMetadata(context.Background(), &FileMetadata{FileID: 999, Hash: "x"})
	if err == nil {
		t.Error("ReplaceFileMetadata() accepted metadata for an unregistered file")
	}
}
