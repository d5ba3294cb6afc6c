// Package metadata implements the metadata module.
//
// For every file it records size, filesystem date, a SHA-256 content hash
// and what an Analyzer can read from the content: EXIF fields for images
// (github.com/rwcarlsen/goexif) and the movie header of ISO base media
// containers for videos (github.com/abema/go-mp4). Both analyzers also try
// to read a capture date from the file name.
//
// The effective date of a file is the embedded date when present, otherwise
// the file name date, otherwise the filesystem date.
package metadata
