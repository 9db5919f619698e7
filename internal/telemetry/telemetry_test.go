package telemetry

import (
	"testing"
	"time"
)

// TestCollectorDisabled tests that a disabled collector records nothing
func TestCollectorDisabled(t *testing.T) {
	c := NewCollector(false, "")
	c.Counter("requests", 1, nil)
	c.Gauge("depth", 3, nil)

	if got := len(c.GetMetrics()); got != 0 {
		t.Fatalf("expected 0 metrics, got %d", got)
	}
}

func TestCollectorRecords(t *testing.T) {
	c := NewCollector(true, "")
	defer func() { _ = c.Shutdown() }()

	c.Counter("requests", 1, map[string]string{"op": "execute"})
	c.Gauge("depth", 3, nil)
	c.Timer("duration", 1500*time.Millisecond, nil)

	metrics := c.GetMetrics()
	if len(metrics) != 3 {
		t.Fatalf("expected 3 metrics, got %d", len(metrics))
	}
	if metrics[0].Type != Counter || metrics[0].Labels["op"] != "execute" {
		t.Errorf("unexpected counter %+v", metrics[0])
	}
	if metrics[2].Type != Timer || metrics[2].Value != 1500 || metrics[2].Unit != "ms" {
		t.Errorf("timer must record milliseconds, got %+v", metrics[2])
	}
}

func TestFlushDrains(t *testing.T) {
	c := NewCollector(true, "")
	defer func() { _ = c.Shutdown() }()

	c.Counter("requests", 1, nil)
	if err := c.FlushMetrics(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := len(c.GetMetrics()); got != 0 {
		t.Fatalf("expected empty buffer after flush, got %d", got)
	}
}

// TestTimerScope tests the scoped timer helper
func TestTimerScope(t *testing.T) {
	InitGlobal(true, "")
	defer func() { _ = Shutdown() }()

	scope := NewTimerScope("span", map[string]string{"component": "test"})
	elapsed := scope.End()
	if elapsed < 0 {
		t.Fatalf("negative duration %v", elapsed)
	}

	found := false
	for _, m := range GetGlobal().GetMetrics() {
		if m.Name == "span" && m.Type == Timer {
			found = true
		}
	}
	if !found {
		t.Fatalf("timer scope did not record")
	}
}

// TestHealthRegistry tests the default runtime checks
func TestHealthRegistry(t *testing.T) {
	r := NewHealthRegistry()

	status, checks := r.Run()
	if status != HealthHealthy {
		t.Fatalf("Expected healthy status, got %s", status)
	}
	if len(checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(checks))
	}
	// Sorted by name for stable output.
	if checks[0].Name != "goroutines" || checks[1].Name != "memory" {
		t.Errorf("unexpected check order %v", checks)
	}
	for _, check := range checks {
		if check.LastChecked.IsZero() {
			t.Errorf("check %s missing timestamp", check.Name)
		}
	}
}

func TestHealthRegistryReducesWorstStatus(t *testing.T) {
	r := NewHealthRegistry()
	r.Register("degraded", func() HealthCheck {
		return HealthCheck{Name: "degraded", Status: HealthDegraded}
	})

	status, _ := r.Run()
	if status != HealthDegraded {
		t.Fatalf("Expected degraded overall status, got %s", status)
	}

	r.Register("down", func() HealthCheck {
		return HealthCheck{Name: "down", Status: HealthUnhealthy}
	})
	status, _ = r.Run()
	if status != HealthUnhealthy {
		t.Fatalf("Expected unhealthy overall status, got %s", status)
	}
}

func TestCaptureRuntimeStats(t *testing.T) {
	stats := CaptureRuntimeStats()
	if stats.Goroutines <= 0 {
		t.Errorf("Expected positive goroutine count, got %d", stats.Goroutines)
	}
	if stats.GoVersion == "" {
		t.Errorf("expected go version")
	}
	if stats.Timestamp.IsZero() {
		t.Errorf("expected timestamp")
	}
}
