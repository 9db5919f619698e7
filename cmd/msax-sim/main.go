package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/3cpo-dev/msax/internal/sim"
	"github.com/3cpo-dev/msax/internal/telemetry"
)

func main() {
	addr := os.Getenv("MSAX_SIM_ADDR")
	if addr == "" {
		addr = ":8480"
	}
	enableTelemetry := os.Getenv("MSAX_SIM_TELEMETRY") == "true"
	telemetry.InitGlobal(enableTelemetry, os.Getenv("MSAX_SIM_OTLP"))
	perfMon := telemetry.NewPerformanceMonitor(telemetry.GetGlobal(), enableTelemetry)

	var dbg *telemetry.DebugServer
	if dbgAddr := os.Getenv("MSAX_SIM_PPROF"); dbgAddr != "" {
		dbg = telemetry.NewDebugServer(dbgAddr)
		go func() {
			if err := dbg.Start(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintln(os.Stderr, err)
			}
		}()
	}

	srv := &sim.Server{Version: "1.1.0", Token: os.Getenv("MSAX_SIM_TOKEN")}
	go func() {
		if err := srv.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}()
	fmt.Fprintf(os.Stdout, "msax-sim listening on %s\n", addr)
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	fmt.Fprintln(os.Stdout, "msax-sim shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	if dbg != nil {
		_ = dbg.Shutdown(ctx)
	}
	perfMon.Shutdown()
	_ = telemetry.Shutdown()
}
