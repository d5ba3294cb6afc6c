// Package database provides the SQLite store shared by every fotoboek worker.
//
// It holds three tables:
//   - files: registered media files, unique by relative path
//   - file_metadata: one row per file, replaced by every metadata run
//   - tasks: the persistent work queue
//
// # Claim protocol
//
// Workers never hold task state in memory. ClaimNextTask selects the most
// urgent eligible task (lowest priority number, then lowest id) whose
// work_started_at is at or before now minus the lock timeout and whose
// max_worker_id is at least the worker id, then claims it with a
// compare-and-swap:
//
//	UPDATE tasks SET work_started_at = :now WHERE id = :id AND work_started_at = :old
//
// Zero affected rows means another worker won the race and the query is
// repeated. A task that fails keeps its work_started_at and becomes eligible
// again once the lock timeout has elapsed. Timestamps are Unix nanoseconds.
//
// The schema is managed by golang-migrate with migrations embedded from the
// migrations directory. The database runs in WAL mode with a busy timeout so
// several processes can share one file.
package database
