package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
)

// DebugServer serves pprof and runtime statistics on a side port, kept off
// the simulated API surface.
type DebugServer struct {
	srv *http.Server
}

// NewDebugServer builds a debug server for the given address.
func NewDebugServer(addr string) *DebugServer {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/stats", statsHandler)

	return &DebugServer{srv: &http.Server{Addr: addr, Handler: mux}}
}

// Start serves until Shutdown.
func (d *DebugServer) Start() error {
	log.Info().Str("addr", d.srv.Addr).Msg("starting debug server")
	return d.srv.ListenAndServe()
}

// Shutdown stops the debug server.
func (d *DebugServer) Shutdown(ctx context.Context) error {
	return d.srv.Shutdown(ctx)
}

// RuntimeStats is a point-in-time snapshot of process health.
type RuntimeStats struct {
	AllocMB       float64   `json:"alloc_mb"`
	TotalAllocMB  float64   `json:"total_alloc_mb"`
	SysMB         float64   `json:"sys_mb"`
	HeapAllocMB   float64   `json:"heap_alloc_mb"`
	HeapSysMB     float64   `json:"heap_sys_mb"`
	NumGC         uint32    `json:"num_gc"`
	GCCPUFraction float64   `json:"gc_cpu_fraction"`
	Goroutines    int       `json:"goroutines"`
	CPUCores      int       `json:"cpu_cores"`
	GoVersion     string    `json:"go_version"`
	Timestamp     time.Time `json:"timestamp"`
}

// CaptureRuntimeStats reads the current runtime counters.
func CaptureRuntimeStats() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return RuntimeStats{
		AllocMB:       bToMb(m.Alloc),
		TotalAllocMB:  bToMb(m.TotalAlloc),
		SysMB:         bToMb(m.Sys),
		HeapAllocMB:   bToMb(m.HeapAlloc),
		HeapSysMB:     bToMb(m.HeapSys),
		NumGC:         m.NumGC,
		GCCPUFraction: m.GCCPUFraction,
		Goroutines:    runtime.NumGoroutine(),
		CPUCores:      runtime.NumCPU(),
		GoVersion:     runtime.Version(),
		Timestamp:     time.Now(),
	}
}

func statsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(CaptureRuntimeStats())
}

func bToMb(b uint64) float64 {
	return float64(b) / 1024 / 1024
}
