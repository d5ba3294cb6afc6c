// Package mediatypes holds the dependency-free type tags and extension tables
// shared by the scanner, the analyzers and the HTTP handlers.
//
// A registered file is either an IMAGE or a VIDEO:
//
//	ft, ok := mediatypes.ClassifyPath("2019/IMG_20190704_120000.jpg")
//	// ft == mediatypes.FileTypeImage, ok == true
//
// Video support is limited to ISO base media containers (mp4, m4v, mov, 3gp)
// because the video analyzer reads the moov box directly.
package mediatypes
