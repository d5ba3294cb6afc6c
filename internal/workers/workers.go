package workers

import "runtime"

const (
	queueWorkersPerCPU   = 2.0
	encoderThreadsPerCPU = 1.0
)

// Count returns perCPU workers for every CPU the scheduler may use, clamped
// to [1, limit]. A limit of 0 means unbounded.
func Count(perCPU float64, limit int) int {
	n := max(int(float64(runtime.GOMAXPROCS(0))*perCPU), 1)
	if limit > 0 {
		n = min(n, limit)
	}
	return n
}

// QueueWorkers is the default number of task queue workers. Tasks spend most
// of their time in file reads and ffmpeg, so the pool is oversubscribed.
func QueueWorkers(limit int) int {
	return Count(queueWorkersPerCPU, limit)
}

// EncoderThreads is the default libvpx thread count of a transcode.
func EncoderThreads(limit int) int {
	return Count(encoderThreadsPerCPU, limit)
}
