package msa

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Trace propagation headers attached to every API call.
const (
	HeaderTraceParent = "traceparent"
	HeaderB3TraceID   = "X-B3-TraceId"
	HeaderB3SpanID    = "X-B3-SpanId"
)

// EnsureTrace returns the task's trace and span ids, minting and persisting
// them in the context on first use. An id already present is never
// regenerated, so every call a task makes correlates under the same pair.
func EnsureTrace(t *TaskContext) (traceID, spanID string) {
	traceID = t.Get(KeyTraceID)
	spanID = t.Get(KeySpanID)
	if traceID != "" && spanID != "" {
		return traceID, spanID
	}

	minted := false
	if traceID == "" {
		u := uuid.New()
		traceID = hex.EncodeToString(u[:])
		t.Set(KeyTraceID, traceID)
		minted = true
	}
	if spanID == "" {
		u := uuid.New()
		spanID = hex.EncodeToString(u[:8])
		t.Set(KeySpanID, spanID)
		minted = true
	}
	if minted {
		log.Info().Str("trace_id", traceID).Str("span_id", spanID).Msg("created trace context")
	}
	return traceID, spanID
}

// TraceHeaders renders the outbound propagation headers for a trace pair:
// the W3C traceparent in version 00 with the sampled flag set, plus the
// legacy B3 pair older collectors still read.
func TraceHeaders(traceID, spanID string) map[string]string {
	return map[string]string{
		HeaderTraceParent: fmt.Sprintf("00-%s-%s-01", traceID, spanID),
		HeaderB3TraceID:   traceID,
		HeaderB3SpanID:    spanID,
	}
}
