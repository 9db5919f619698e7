package msa

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Well-known task context keys injected by the orchestrator.
const (
	KeyToken             = "TOKEN"
	KeyTraceID           = "TRACEID"
	KeySpanID            = "SPANID"
	KeyServiceInstanceID = "SERVICEINSTANCEID"
	KeyProcessInstanceID = "PROCESSINSTANCEID"
)

// Params is a JSON object payload, used for request bodies and for the
// new-params of a completion envelope.
type Params map[string]any

// TaskContext holds the key/value parameters the orchestrator hands to a
// task process: credentials, correlation ids and workflow variables. It is
// not safe for concurrent mutation; establish the trace pair before sharing
// it across goroutines.
type TaskContext struct {
	values Params
}

// NewTaskContext wraps the given values. A nil map is allowed.
func NewTaskContext(values Params) *TaskContext {
	if values == nil {
		values = Params{}
	}
	return &TaskContext{values: values}
}

// ParseTaskContext decodes a task context from its JSON object form, the
// shape the orchestrator passes on the task command line. Numbers keep their
// exact representation.
func ParseTaskContext(text string) (*TaskContext, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var values Params
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("parse task context: %w", err)
	}
	return NewTaskContext(values), nil
}

// LoadTaskContext reads a JSON task context from a file.
func LoadTaskContext(path string) (*TaskContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task context: %w", err)
	}
	tc, err := ParseTaskContext(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tc, nil
}

// Get returns the value for key rendered as a string, or "" when absent.
func (t *TaskContext) Get(key string) string {
	v, ok := t.values[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Set stores a value under key, replacing any previous one.
func (t *TaskContext) Set(key string, value any) {
	t.values[key] = value
}

// Token returns the bearer token the orchestrator injected, if any.
func (t *TaskContext) Token() string { return t.Get(KeyToken) }

// Params returns a shallow copy of the context values, suitable as the
// new-params of an envelope.
func (t *TaskContext) Params() Params {
	out := make(Params, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}
