package msa

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TestEncodeContentRoundTrip tests that encoded envelopes parse back intact
func TestEncodeContentRoundTrip(t *testing.T) {
	text, err := EncodeContent(StatusEnded, "done", Params{"x": "1", "y": "2"}, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Status != StatusEnded {
		t.Errorf("Expected status ENDED, got %s", env.Status)
	}
	if env.Comment != "done" {
		t.Errorf("Expected comment 'done', got '%s'", env.Comment)
	}
	if env.NewParams["x"] != "1" || env.NewParams["y"] != "2" {
		t.Errorf("new params did not round-trip: %v", env.NewParams)
	}
}

func TestEncodeContentNilParams(t *testing.T) {
	text, err := EncodeContent(StatusFailed, "broken", nil, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(text, `"wo_newparams":{}`) {
		t.Fatalf("nil params must encode as empty object, got %s", text)
	}
}

// TestStatusTokens tests that the status vocabulary matches the orchestrator's
func TestStatusTokens(t *testing.T) {
	tokens := map[Status]string{
		StatusEnded:   "ENDED",
		StatusFailed:  "FAILED",
		StatusRunning: "RUNNING",
		StatusWarning: "WARNING",
		StatusPaused:  "PAUSED",
	}
	for status, want := range tokens {
		if string(status) != want {
			t.Errorf("Expected token %q, got %q", want, string(status))
		}
	}
}

// TestTokenNeverLogged tests that the bearer token is stripped from the log
// line while the returned payload keeps it.
func TestTokenNeverLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	text, err := EncodeContent(StatusEnded, "ok", Params{
		KeyToken: "secret-bearer-value",
		"device": "42",
	}, true)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if strings.Contains(buf.String(), "secret-bearer-value") {
		t.Fatalf("token leaked into the log sink: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "device") {
		t.Fatalf("sanitized params missing from the log sink: %s", buf.String())
	}
	if !strings.Contains(text, "secret-bearer-value") {
		t.Fatalf("returned payload must keep the token, got %s", text)
	}
}

func TestEncodeContentUnserializable(t *testing.T) {
	if _, err := EncodeContent(StatusEnded, "x", Params{"ch": make(chan int)}, false); err == nil {
		t.Fatalf("expected error for unserializable params")
	}
}
