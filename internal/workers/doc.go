/*
Package workers sizes worker pools from the CPU budget the process actually
has.

Go sets GOMAXPROCS from the container CPU limit, while runtime.NumCPU still
reports the host. Count uses GOMAXPROCS so that the default number of queue
workers and encoder threads follows the container limit:

	numWorkers := workers.QueueWorkers(8)
	threads := workers.EncoderThreads(16)

Both can be overridden explicitly through configuration (NUM_WORKER_THREADS,
TRANSCODE_THREADS); these helpers only supply the defaults.
*/
package workers
