package database

import (
	"math"
	"time"

	"fotoboek/internal/mediatypes"
)

// UnrestrictedLane is the max_worker_id of tasks any worker may claim.
const UnrestrictedLane = math.MaxInt32

// File is a media file registered by ingestion. Files are immutable once
// inserted.
type File struct {
	ID       int64               `json:"id"`
	RelPath  string              `json:"relPath"`
	FileType mediatypes.FileType `json:"fileType"`
	FileName string              `json:"fileName"`
}

// FileMetadata is the result of the metadata module for one file. It is
// replaced wholesale on every run.
type FileMetadata struct {
	FileID             int64      `json:"fileId"`
	Size               int64      `json:"size"`
	Hash               string     `json:"hash"`
	FileDate           time.Time  `json:"fileDate"`
	ResolutionX        int        `json:"resolutionX"`
	ResolutionY        int        `json:"resolutionY"`
	ExifDate           *time.Time `json:"exifDate,omitempty"`
	CameraManufacturer *string    `json:"cameraManufacturer,omitempty"`
	CameraModel        *string    `json:"cameraModel,omitempty"`
	Aperture           *float64   `json:"aperture,omitempty"`
	ExposureTime       *string    `json:"exposureTime,omitempty"`
	ISO                *int       `json:"iso,omitempty"`
	GPSLat             *float64   `json:"gpsLat,omitempty"`
	GPSLon             *float64   `json:"gpsLon,omitempty"`
	FilenameDate       *time.Time `json:"filenameDate,omitempty"`
	DurationSeconds    *float64   `json:"durationSeconds,omitempty"`
	EffectiveDate      time.Time  `json:"effectiveDate"`
}

// Task is a unit of pending work for one file and one module.
type Task struct {
	ID       int64  `json:"id"`
	FileID   int64  `json:"fileId"`
	Module   string `json:"module"`
	Priority int    `json:"priority"`
	// WorkStartedAt is the zero Unix time for tasks that were never claimed.
	WorkStartedAt time.Time `json:"workStartedAt"`
	// MaxWorkerID is the lane ceiling: only workers with id <= MaxWorkerID
	// may claim the task.
	MaxWorkerID int `json:"maxWorkerId"`
	// Attempts counts successful claims. It is informational and never
	// prevents a claim.
	Attempts int `json:"attempts"`
}

// NeverStarted reports whether the task has not been claimed yet.
func (t *Task) NeverStarted() bool {
	return t.WorkStartedAt.UnixNano() == 0
}
