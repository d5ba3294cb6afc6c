// Package modules ties the pipeline modules to the task queue.
//
// The Catalog fixes each module's priority and worker lane: metadata runs
// first, previews second and transcoding last, on worker 0 only. A
// Dispatcher enqueues the applicable tasks when a file is registered and
// dispatches claimed tasks by module name.
package modules
