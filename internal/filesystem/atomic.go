package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// WriteFileAtomic writes data to path by way of a temporary sibling file,
// creating parent directories as needed. An existing file at path is
// replaced.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp := TempSibling(path)
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename into place: %w", err)
	}

	return nil
}

// TempSibling returns a unique temporary file name in the same directory as
// path. The extension of path is preserved so that tools that sniff by
// extension (ffmpeg) still see it.
func TempSibling(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp%s", base[:len(base)-len(ext)], uuid.NewString(), ext))
}
