// Package storage maps content hashes to blob paths and writes generated
// previews and transcoded videos.
//
// Blobs are sharded by the first two hex characters of the content hash:
//
//	<root>/previews/ab/large-ab12....jpg
//	<root>/previews/ab/small-ab12....jpg
//	<root>/videos/ab/ab12....webm
//
// Writes go through a temporary file and a rename. When S3 settings are
// configured, every blob is also uploaded with minio-go under the same
// relative key.
package storage
