package memory

import (
	"context"
	"errors"
	"math"
	"runtime/debug"
	"testing"
	"time"
)

func newTestMonitor(limit int64, alloc *uint64) *Monitor {
	m := NewMonitor(Config{
		LimitBytes:        limit,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Hour,
	})
	m.readAlloc = func() uint64 { return *alloc }
	return m
}

func TestMonitorHysteresis(t *testing.T) {
	var alloc uint64
	m := newTestMonitor(1000, &alloc)

	steps := []struct {
		alloc  uint64
		paused bool
	}{
		{500, false},
		{849, false},
		{850, true},
		{800, true},
		{700, true},
		{699, false},
		{900, true},
	}

	for _, s := range steps {
		alloc = s.alloc
		m.sample()
		if m.Paused() != s.paused {
			t.Errorf("alloc %d: Paused() = %v, want %v", s.alloc, m.Paused(), s.paused)
		}
	}

	if got := m.Usage(); got != 0.9 {
		t.Errorf("Usage() = %v, want 0.9", got)
	}
}

func TestMonitorWait(t *testing.T) {
	alloc := uint64(950)
	m := newTestMonitor(1000, &alloc)
	defer m.Stop()

	if err := m.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() before any sample = %v", err)
	}

	m.sample()
	if !m.Paused() {
		t.Fatal("monitor did not pause")
	}

	done := make(chan error, 1)
	go func() { done <- m.Wait(context.Background()) }()

	select {
	case err := <-done:
		t.Fatalf("Wait() returned %v while paused", err)
	case <-time.After(50 * time.Millisecond):
	}

	alloc = 100
	m.sample()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() = %v after resume", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return after resume")
	}
}

func TestMonitorWaitCancelled(t *testing.T) {
	alloc := uint64(990)
	m := newTestMonitor(1000, &alloc)
	m.sample()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() = %v, want context.Canceled", err)
	}

	m.Stop()
	m.Stop()
	if err := m.Wait(context.Background()); err != nil {
		t.Errorf("Wait() after Stop = %v, want nil", err)
	}
}

func TestMonitorWithoutLimit(t *testing.T) {
	prev := debug.SetMemoryLimit(math.MaxInt64)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })

	alloc := uint64(1 << 40)
	m := newTestMonitor(0, &alloc)
	m.Start()
	defer m.Stop()

	m.sample()
	if m.Paused() {
		t.Error("monitor without a limit paused")
	}
	if m.Limit() != 0 || m.Usage() != 0 {
		t.Errorf("Limit() = %d, Usage() = %v, want zeros", m.Limit(), m.Usage())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	tests := []struct {
		name       string
		limit      string
		ratio      string
		wantSource string
		wantLimit  int64
	}{
		{"unset", "", "", SourceNone, 0},
		{"default ratio", "1000000000", "", SourceMemoryLimit, 850000000},
		{"custom ratio", "1000000000", "0.5", SourceMemoryLimit, 500000000},
		{"ratio out of range", "1000000000", "1.5", SourceMemoryLimit, 850000000},
		{"ratio not a number", "1000000000", "half", SourceMemoryLimit, 850000000},
		{"invalid limit", "lots", "", SourceNone, 0},
		{"negative limit", "-5", "", SourceNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := debug.SetMemoryLimit(-1)
			t.Cleanup(func() { debug.SetMemoryLimit(prev) })

			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", tt.limit)
			t.Setenv("MEMORY_RATIO", tt.ratio)

			got := ConfigureFromEnv()
			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
			if got.GoMemLimit != tt.wantLimit {
				t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, tt.wantLimit)
			}
			if tt.wantLimit > 0 && debug.SetMemoryLimit(-1) != tt.wantLimit {
				t.Errorf("runtime limit = %d, want %d", debug.SetMemoryLimit(-1), tt.wantLimit)
			}
		})
	}
}
