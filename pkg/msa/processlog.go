package msa

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ProcessLog appends to the per-process log files the orchestrator tails
// alongside a workflow instance. The directory must already exist; files are
// created on first append.
type ProcessLog struct {
	Dir string
}

// Append writes message as an ISO timestamped DEBUG line to the log file of
// the given process instance.
func (p ProcessLog) Append(processID, message string) error {
	name := filepath.Join(p.Dir, fmt.Sprintf("process-%s.log", processID))
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("process log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s:%s:DEBUG:%s\n",
		time.Now().Format("2006-01-02T15:04:05.000000"),
		filepath.Base(os.Args[0]),
		message)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("process log: %w", err)
	}
	return nil
}
