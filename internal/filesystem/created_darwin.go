package filesystem

import (
	"os"
	"syscall"
	"time"
)

// CreationTime returns the birth time of path from info. It falls back to the
// modification time when info carries no stat data.
func CreationTime(_ string, info os.FileInfo) time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(st.Birthtimespec.Unix())
}
