package telemetry

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"
)

// HealthStatus grades a component check.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck is one component check result.
type HealthCheck struct {
	Name        string            `json:"name"`
	Status      HealthStatus      `json:"status"`
	Message     string            `json:"message"`
	LastChecked time.Time         `json:"last_checked"`
	Duration    time.Duration     `json:"duration"`
	Details     map[string]string `json:"details,omitempty"`
}

// HealthRegistry holds named health checks and runs them on demand.
type HealthRegistry struct {
	mu     sync.Mutex
	checks map[string]func() HealthCheck
}

// NewHealthRegistry creates a registry preloaded with the default runtime
// checks.
func NewHealthRegistry() *HealthRegistry {
	r := &HealthRegistry{checks: make(map[string]func() HealthCheck)}
	for name, fn := range DefaultHealthChecks() {
		r.Register(name, fn)
	}
	return r
}

// Register adds or replaces a health check.
func (r *HealthRegistry) Register(name string, fn func() HealthCheck) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = fn
}

// Run executes every check and reduces them to an overall status: unhealthy
// beats degraded beats healthy. Results come back sorted by name.
func (r *HealthRegistry) Run() (HealthStatus, []HealthCheck) {
	r.mu.Lock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	fns := make([]func() HealthCheck, len(names))
	for i, name := range names {
		fns[i] = r.checks[name]
	}
	r.mu.Unlock()

	overall := HealthHealthy
	checks := make([]HealthCheck, 0, len(fns))
	for _, fn := range fns {
		start := time.Now()
		check := fn()
		check.Duration = time.Since(start)
		check.LastChecked = time.Now()
		checks = append(checks, check)

		switch check.Status {
		case HealthUnhealthy:
			overall = HealthUnhealthy
		case HealthDegraded:
			if overall == HealthHealthy {
				overall = HealthDegraded
			}
		}
	}
	return overall, checks
}

// DefaultHealthChecks watches process memory and goroutine count.
func DefaultHealthChecks() map[string]func() HealthCheck {
	return map[string]func() HealthCheck{
		"memory": func() HealthCheck {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			heapMB := float64(m.HeapAlloc) / (1024 * 1024)
			status := HealthHealthy
			message := fmt.Sprintf("heap %.2f MB", heapMB)
			if heapMB > 1000 {
				status = HealthDegraded
				message = fmt.Sprintf("high memory usage: %.2f MB", heapMB)
			}
			if heapMB > 2000 {
				status = HealthUnhealthy
				message = fmt.Sprintf("critical memory usage: %.2f MB", heapMB)
			}

			return HealthCheck{
				Name:    "memory",
				Status:  status,
				Message: message,
				Details: map[string]string{
					"heap_mb": fmt.Sprintf("%.2f", heapMB),
				},
			}
		},
		"goroutines": func() HealthCheck {
			count := runtime.NumGoroutine()
			status := HealthHealthy
			message := fmt.Sprintf("goroutines: %d", count)
			if count > 1000 {
				status = HealthDegraded
				message = fmt.Sprintf("high goroutine count: %d", count)
			}
			if count > 5000 {
				status = HealthUnhealthy
				message = fmt.Sprintf("critical goroutine count: %d", count)
			}

			return HealthCheck{
				Name:    "goroutines",
				Status:  status,
				Message: message,
				Details: map[string]string{
					"count": fmt.Sprintf("%d", count),
				},
			}
		},
	}
}
