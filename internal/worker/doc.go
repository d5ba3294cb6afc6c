// Package worker runs the task queue.
//
// A Scheduler starts one goroutine per worker id. Each loop claims the most
// urgent task its id may run, executes it, and deletes it on success. Failed
// tasks stay in the queue and become claimable again once their lock times
// out. Workers coordinate only through the store's compare-and-swap claim,
// so several processes can share one database.
package worker
