package telemetry

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// PerformanceMonitor samples runtime health of a long-running process, such
// as the simulator, into the collector.
type PerformanceMonitor struct {
	mu          sync.Mutex
	enabled     bool
	collector   *Collector
	startTime   time.Time
	lastMetrics runtime.MemStats
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewPerformanceMonitor creates a monitor and, when enabled, starts its
// sampling loop.
func NewPerformanceMonitor(collector *Collector, enabled bool) *PerformanceMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	pm := &PerformanceMonitor{
		enabled:   enabled,
		collector: collector,
		startTime: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}

	if enabled {
		go pm.collectSystemMetrics()
	}

	return pm
}

// collectSystemMetrics samples runtime metrics every 10 seconds.
func (pm *PerformanceMonitor) collectSystemMetrics() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-pm.ctx.Done():
			return
		case <-ticker.C:
			pm.recordSystemMetrics()
		}
	}
}

func (pm *PerformanceMonitor) recordSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	pm.mu.Lock()
	defer pm.mu.Unlock()

	labels := map[string]string{"component": "system"}

	pm.collector.Gauge("msax_memory_heap_bytes", float64(m.HeapAlloc), labels)
	pm.collector.Gauge("msax_memory_heap_sys_bytes", float64(m.HeapSys), labels)
	pm.collector.Gauge("msax_memory_gc_pause_ns", float64(m.PauseNs[(m.NumGC+255)%256]), labels)

	pm.collector.Counter("msax_gc_total", float64(m.NumGC-pm.lastMetrics.NumGC), labels)
	pm.collector.Gauge("msax_gc_cpu_fraction", m.GCCPUFraction*100, labels)

	pm.collector.Gauge("msax_goroutines_total", float64(runtime.NumGoroutine()), labels)
	pm.collector.Gauge("msax_uptime_seconds", time.Since(pm.startTime).Seconds(), labels)

	pm.lastMetrics = m
}

// Shutdown stops the sampling loop.
func (pm *PerformanceMonitor) Shutdown() {
	if pm.cancel != nil {
		pm.cancel()
	}
}

// TimerScope measures one span of work into the global collector.
type TimerScope struct {
	startTime time.Time
	name      string
	labels    map[string]string
	collector *Collector
}

// NewTimerScope starts a scoped timer.
func NewTimerScope(name string, labels map[string]string) *TimerScope {
	return &TimerScope{
		startTime: time.Now(),
		name:      name,
		labels:    labels,
		collector: GetGlobal(),
	}
}

// End records the elapsed duration and returns it.
func (ts *TimerScope) End() time.Duration {
	duration := time.Since(ts.startTime)
	ts.collector.Timer(ts.name, duration, ts.labels)
	return duration
}
