package msa

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestProcessLogAppend tests the per-process log file format
func TestProcessLogAppend(t *testing.T) {
	dir := t.TempDir()
	plog := ProcessLog{Dir: dir}

	if err := plog.Append("3212", "first message"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := plog.Append("3212", "second message"); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "process-3212.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], ":DEBUG:first message") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], ":DEBUG:second message") {
		t.Errorf("unexpected second line %q", lines[1])
	}
}

func TestProcessLogMissingDir(t *testing.T) {
	plog := ProcessLog{Dir: filepath.Join(t.TempDir(), "absent")}
	if err := plog.Append("1", "x"); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
