/*
Package filesystem wraps the filesystem operations fotoboek performs on the
media source and the blob store.

# Retries

Media libraries frequently live on NFS. StatWithRetry and OpenWithRetry retry
os.Stat and os.Open when the kernel reports ESTALE (stale file handle), with
exponential backoff:

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Any other error is returned immediately. Retry metrics are reported through
the Observer set with SetObserver; paths are labeled with the volume name
resolved by a VolumeResolver ("source", "storage", "database").

# Atomic writes

WriteFileAtomic writes to a uniquely named temporary file in the destination
directory and renames it into place, so readers never observe a partially
written preview.
*/
package filesystem
