package metrics

import (
	"context"
	"time"

	"fotoboek/internal/logging"
)

// QueueStats is a snapshot of stored queue and file counts.
type QueueStats struct {
	PendingByModule map[string]int
	FilesByType     map[string]int
}

// QueueStatsProvider supplies QueueStats, typically backed by the database.
type QueueStatsProvider interface {
	QueueStats(ctx context.Context) (QueueStats, error)
}

// Collector periodically refreshes the gauges derived from stored state.
type Collector struct {
	provider QueueStatsProvider
	interval time.Duration
	stopChan chan struct{}
	seen     map[string]bool
}

// NewCollector creates a new metrics collector
func NewCollector(provider QueueStatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stopChan: make(chan struct{}),
		seen:     make(map[string]bool),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := c.provider.QueueStats(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	// Modules that drained since the last run must drop to zero, not keep
	// their last value.
	for module := range c.seen {
		if _, ok := stats.PendingByModule[module]; !ok {
			TasksPending.WithLabelValues(module).Set(0)
		}
	}
	for module, count := range stats.PendingByModule {
		c.seen[module] = true
		TasksPending.WithLabelValues(module).Set(float64(count))
	}
	for fileType, count := range stats.FilesByType {
		MediaFilesTotal.WithLabelValues(fileType).Set(float64(count))
	}

	logging.Debug("Metrics collected: pending=%v files=%v", stats.PendingByModule, stats.FilesByType)
}
