// Package scanner feeds new files into the pipeline.
//
// Register records a single file, identified by its path relative to the
// media root, and creates its module tasks. Scan walks the media root and
// registers every image or video that is not yet known.
package scanner
