package mediatypes

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileType is the type tag stored on every registered file.
type FileType string

const (
	// FileTypeImage represents a still image.
	FileTypeImage FileType = "IMAGE"
	// FileTypeVideo represents a video in an ISO base media container.
	FileTypeVideo FileType = "VIDEO"
)

// Valid reports whether t is one of the known type tags.
func (t FileType) Valid() bool {
	return t == FileTypeImage || t == FileTypeVideo
}

// ParseFileType converts a stored tag back to a FileType.
func ParseFileType(s string) (FileType, error) {
	t := FileType(strings.ToUpper(s))
	if !t.Valid() {
		return "", fmt.Errorf("unknown file type %q", s)
	}
	return t, nil
}

// ImageExtensions maps lower-case extensions to whether they are ingested as images.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// VideoExtensions maps lower-case extensions to whether they are ingested as videos.
var VideoExtensions = map[string]bool{
	".mp4": true,
	".m4v": true,
	".mov": true,
	".3gp": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",

	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".3gp":  "video/3gpp",
	".webm": "video/webm",
}

// ClassifyPath returns the FileType for path based on its extension. The
// second result is false for files that are not ingested.
func ClassifyPath(path string) (FileType, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ImageExtensions[ext]:
		return FileTypeImage, true
	case VideoExtensions[ext]:
		return FileTypeVideo, true
	default:
		return "", false
	}
}

// GetMimeType returns the MIME type for an extension, defaulting to
// application/octet-stream.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[strings.ToLower(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}
