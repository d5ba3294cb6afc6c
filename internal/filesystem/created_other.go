//go:build !linux && !darwin

package filesystem

import (
	"os"
	"time"
)

// CreationTime returns info's modification time; this platform exposes no
// portable birth time.
func CreationTime(_ string, info os.FileInfo) time.Time {
	return info.ModTime()
}
