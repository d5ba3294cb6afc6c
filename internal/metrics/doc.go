// Package metrics provides Prometheus instrumentation for fotoboek.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "fotoboek_". The main groups are:
//
//   - HTTP: request counts, durations and in-flight requests of the admin API
//   - Database: query counts and durations per operation
//   - Task queue: enqueues, claims, claim conflicts, executions per module and
//     outcome, pending rows per module
//   - Workers: busy workers and idle polls
//   - Previews and transcodes: generated previews per tier, skipped videos,
//     encoder pass durations, object storage mirror uploads
//   - Filesystem: NFS stale handle retries
//
// Gauges that reflect stored state (pending tasks, registered files) are
// refreshed by a Collector that polls a QueueStatsProvider.
package metrics
