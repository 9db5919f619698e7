// Package msa is a client for the MSA orchestration REST API. It covers the
// surface the orchestrator exposes to task processes: bearer-token calls
// against /ubi-api-rest with trace header propagation, uniform failure
// normalization, and the stdout completion protocol tasks answer with.
package msa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/3cpo-dev/msax/internal/telemetry"
)

// basePath is the fixed prefix every orchestrator endpoint lives under.
const basePath = "/ubi-api-rest"

// DefaultPostTimeout bounds POST calls when the caller does not pick one.
const DefaultPostTimeout = 60 * time.Second

var (
	// ErrMissingToken means the task context carries no bearer token.
	ErrMissingToken = errors.New("msa: task context has no token")

	// ErrInvalidPayload means a request body cannot be sent as JSON.
	ErrInvalidPayload = errors.New("msa: invalid request body")
)

// Client performs calls against one orchestrator endpoint on behalf of one
// task. Every call is a single attempt; the orchestrator owns retry policy.
// The client itself holds no per-call state, but it shares the task context,
// so the trace pair should be established before use across goroutines.
type Client struct {
	baseURL string
	token   string
	vars    *TaskContext
	client  *http.Client
}

// New builds a client from the task context, resolving the endpoint from
// the environment, the default vars context file or the localhost default.
func New(vars *TaskContext) (*Client, error) {
	host, port := ResolveHostPort("")
	return NewWithBase(vars, host, port)
}

// NewWithBase builds a client against an explicit host and port. The task
// context must carry the bearer token the orchestrator injected.
func NewWithBase(vars *TaskContext, host, port string) (*Client, error) {
	if vars == nil || vars.Token() == "" {
		return nil, ErrMissingToken
	}
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%s%s", host, port, basePath),
		token:   vars.Token(),
		vars:    vars,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// BaseURL returns the resolved endpoint prefix including the API base path.
func (c *Client) BaseURL() string { return c.baseURL }

// Request describes one call against the API. Action is the human label
// failure envelopes carry; empty defaults to "<method> <path>".
type Request struct {
	Method  string
	Path    string
	Action  string
	Body    any
	Query   url.Values
	Timeout time.Duration
}

// Result is the outcome of one call that reached the API. Content holds the
// response body exactly as received on success, or a normalized FAILED
// envelope when the API answered outside the 2xx range.
type Result struct {
	StatusCode int
	OK         bool
	Content    string
}

// Decode parses the result content as JSON into v.
func (r *Result) Decode(v any) error {
	if err := json.Unmarshal([]byte(r.Content), v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// Envelope decodes the content as a completion envelope. Failed results
// always carry one.
func (r *Result) Envelope() (Envelope, error) {
	var env Envelope
	if err := r.Decode(&env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Post sends a JSON object to path. A nil body is sent as an empty object.
// A zero timeout applies DefaultPostTimeout.
func (c *Client) Post(ctx context.Context, path string, body Params, timeout time.Duration) (*Result, error) {
	if timeout <= 0 {
		timeout = DefaultPostTimeout
	}
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Timeout: timeout})
}

// Get fetches path, optionally narrowed by query parameters. No timeout is
// enforced unless the caller sets one.
func (c *Client) Get(ctx context.Context, path string, query url.Values, timeout time.Duration) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Timeout: timeout})
}

// Put sends a JSON body to path. Unlike Post the body may be any JSON value.
func (c *Client) Put(ctx context.Context, path string, body any) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, path string) (*Result, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Do performs a single request and classifies its outcome. Bodies that do
// not serialize, or POST bodies that are not JSON objects, fail with
// ErrInvalidPayload before any network activity. Transport failures come
// back as errors, untried a second time. Responses outside 2xx come back as
// a failed Result whose content is a FAILED envelope quoting the remote
// message.
func (c *Client) Do(ctx context.Context, req Request) (*Result, error) {
	action := req.Action
	if action == "" {
		action = req.Method + " " + req.Path
	}

	payload, err := marshalBody(req.Method, req.Body)
	if err != nil {
		return nil, err
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	for k, v := range TraceHeaders(EnsureTrace(c.vars)) {
		httpReq.Header.Set(k, v)
	}

	labels := map[string]string{"method": req.Method, "action": action}
	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		telemetry.CounterGlobal("msax_api_transport_errors", 1, labels)
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.CounterGlobal("msax_api_transport_errors", 1, labels)
		return nil, fmt.Errorf("%s: read response: %w", action, err)
	}

	elapsed := time.Since(start)
	telemetry.CounterGlobal("msax_api_calls", 1, labels)
	telemetry.TimerGlobal("msax_api_call_duration", elapsed, labels)
	log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("api call")

	res := &Result{
		StatusCode: resp.StatusCode,
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		Content:    string(raw),
	}
	if !res.OK {
		telemetry.CounterGlobal("msax_api_call_failures", 1, labels)
		log.Warn().Str("action", action).Int("status", resp.StatusCode).Msg("api call failed")
		res.Content = failedContent(action, raw)
	}
	return res, nil
}

// marshalBody serializes a request body, enforcing the object shape POST
// requires. A nil return means the request carries no body at all.
func marshalBody(method string, body any) ([]byte, error) {
	post := method == http.MethodPost
	if body == nil {
		if post {
			return []byte("{}"), nil
		}
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if string(payload) == "null" {
		if post {
			return []byte("{}"), nil
		}
		return nil, nil
	}
	if post && payload[0] != '{' {
		return nil, fmt.Errorf("%w: post body must be an object, got %s", ErrInvalidPayload, jsonKind(payload))
	}
	return payload, nil
}

// jsonKind names the top-level JSON type of an encoded value for error text.
func jsonKind(payload []byte) string {
	switch payload[0] {
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	default:
		return "number"
	}
}

// failedContent normalizes a non-2xx response into a FAILED envelope: the
// remote message field becomes the comment, with the raw body as fallback,
// and the failing action rides along in the new-params.
func failedContent(action string, raw []byte) string {
	var remote struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &remote); err == nil && remote.Message != "" {
		msg = remote.Message
	}
	text, _ := EncodeContent(StatusFailed, msg, Params{"action": action}, false)
	return text
}
