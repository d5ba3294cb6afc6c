// Package memory keeps image and video work inside the container's memory
// budget.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from a MEMORY_LIMIT value (typically
// injected through the Kubernetes Downward API) and MEMORY_RATIO. It should
// run before any large allocation.
//
// [Monitor] samples heap allocation against that limit. When usage crosses
// the critical water mark it pauses, and [Monitor.Wait] blocks the caller
// until usage falls back below the high water mark. Task workers call Wait
// before claiming, so a burst of large decodes cannot stack up.
//
//	mon := memory.NewMonitor(memory.DefaultConfig())
//	mon.Start()
//	defer mon.Stop()
package memory
