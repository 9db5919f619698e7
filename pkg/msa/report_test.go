package msa

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// TestReportHelper is the subprocess body for the process-exit tests. It does
// nothing unless re-executed with MSAX_REPORT_MODE set.
func TestReportHelper(t *testing.T) {
	switch os.Getenv("MSAX_REPORT_MODE") {
	case "success":
		ReportSuccess("done", Params{"x": 1})
	case "failure":
		ReportFailure("broken", Params{})
	}
}

// runReportProcess re-executes the test binary so the os.Exit path can run
// for real, and captures its stdout and exit code.
func runReportProcess(t *testing.T, mode string) (string, int) {
	t.Helper()

	cmd := exec.Command(os.Args[0], "-test.run=^TestReportHelper$")
	cmd.Env = append(os.Environ(), "MSAX_REPORT_MODE="+mode)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	err := cmd.Run()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("run helper process: %v", err)
		}
		code = exitErr.ExitCode()
	}
	return stdout.String(), code
}

// TestReportSuccessProcess tests the full stdout plus exit code contract
func TestReportSuccessProcess(t *testing.T) {
	out, code := runReportProcess(t, "success")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	want := `{"wo_status":"ENDED","wo_comment":"done","wo_newparams":{"x":1}}` + "\n"
	if out != want {
		t.Fatalf("stdout %q, want %q", out, want)
	}
}

func TestReportFailureProcess(t *testing.T) {
	out, code := runReportProcess(t, "failure")
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	want := `{"wo_status":"FAILED","wo_comment":"broken","wo_newparams":{}}` + "\n"
	if out != want {
		t.Fatalf("stdout %q, want %q", out, want)
	}
}

// TestOutcomeReportWriter tests the non-terminating report path
func TestOutcomeReportWriter(t *testing.T) {
	var buf bytes.Buffer
	o := Outcome{Status: StatusRunning, Comment: "halfway", Params: Params{"step": "2"}}
	if err := o.Report(&buf, false); err != nil {
		t.Fatalf("report: %v", err)
	}

	line := buf.String()
	if strings.Count(line, "\n") != 1 || !strings.HasSuffix(line, "\n") {
		t.Fatalf("expected exactly one line, got %q", line)
	}
	var env Envelope
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Status != StatusRunning || env.Comment != "halfway" {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestOutcomeReportEncodeFallback(t *testing.T) {
	var buf bytes.Buffer
	o := Outcome{Status: StatusEnded, Comment: "x", Params: Params{"bad": make(chan int)}}

	err := o.Report(&buf, false)
	if err == nil {
		t.Fatalf("expected the encode error to surface")
	}

	// The orchestrator must still receive valid JSON.
	var env Envelope
	if uerr := json.Unmarshal(buf.Bytes(), &env); uerr != nil {
		t.Fatalf("fallback line is not valid JSON: %v", uerr)
	}
	if _, ok := env.NewParams["encode_error"]; !ok {
		t.Fatalf("fallback envelope must name the encoding problem, got %v", env.NewParams)
	}
}

func TestOutcomeConstructors(t *testing.T) {
	s := Success("done", nil)
	if s.Status != StatusEnded || s.ExitCode != 0 {
		t.Errorf("unexpected success outcome %+v", s)
	}
	f := Failure("broken", nil)
	if f.Status != StatusFailed || f.ExitCode != 1 {
		t.Errorf("unexpected failure outcome %+v", f)
	}
}
