package handlers

import (
	"context"
	"sync/atomic"
	"time"

	"fotoboek/internal/database"
	"fotoboek/internal/scanner"
	"fotoboek/internal/storage"
)

// Scanner registers new files below the media root.
type Scanner interface {
	Scan(ctx context.Context) (scanner.Result, error)
}

type Handlers struct {
	db        *database.Database
	scanner   Scanner
	layout    storage.Layout
	startTime time.Time
	scanning  atomic.Bool
}

func New(db *database.Database, scan Scanner, layout storage.Layout) *Handlers {
	return &Handlers{
		db:        db,
		scanner:   scan,
		layout:    layout,
		startTime: time.Now(),
	}
}
