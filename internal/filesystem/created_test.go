package filesystem

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCreationTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	after := time.Now().Add(time.Second)

	modTime := time.Date(2015, 6, 7, 8, 9, 10, 0, time.UTC)
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	got := CreationTime(path, info)
	// Either the recorded birth time, which Chtimes does not touch, or the
	// modification time where the filesystem has none.
	if !got.Equal(modTime) && (got.Before(before) || got.After(after)) {
		t.Errorf("CreationTime() = %v, want %v or a time between %v and %v", got, modTime, before, after)
	}
}

func TestCreationTime_MissingFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	if got := CreationTime(path, info); got.IsZero() {
		t.Error("CreationTime() returned the zero time for a removed file")
	}
}
