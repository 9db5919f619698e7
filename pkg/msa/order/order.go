// Package order drives order commands against a managed entity through the
// MSA API: command execution, configuration generation, state
// synchronization and object inspection.
package order

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/3cpo-dev/msax/pkg/msa"
)

// DefaultCommandTimeout bounds Execute, Call and Synchronize when the caller
// does not pick a timeout. Provisioning commands routinely outlive the plain
// POST default.
const DefaultCommandTimeout = 300 * time.Second

// Client scopes order commands to one managed entity.
type Client struct {
	api    *msa.Client
	device int
}

// New returns an order client for the given device id.
func New(api *msa.Client, device int) *Client {
	return &Client{api: api, device: device}
}

// Execute runs a command on the device with the given parameters.
func (c *Client) Execute(ctx context.Context, command string, params msa.Params, timeout time.Duration) (*msa.Result, error) {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return c.api.Do(ctx, msa.Request{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("/ordercommand/execute/%d/%s", c.device, command),
		Action:  "Command execute",
		Body:    params,
		Timeout: timeout,
	})
}

// GenerateConfiguration renders the configuration a command would push to
// the device, without executing it.
func (c *Client) GenerateConfiguration(ctx context.Context, command string, params msa.Params) (*msa.Result, error) {
	return c.api.Do(ctx, msa.Request{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("/ordercommand/get/configuration/%d/%s", c.device, command),
		Action:  "Command generate configuration",
		Body:    params,
		Timeout: msa.DefaultPostTimeout,
	})
}

// Synchronize reimports the device state into the orchestrator.
func (c *Client) Synchronize(ctx context.Context, timeout time.Duration) (*msa.Result, error) {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return c.api.Do(ctx, msa.Request{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("/ordercommand/synchronize/%d", c.device),
		Action:  "Command synchronize",
		Timeout: timeout,
	})
}

// Call invokes a command in the given provisioning mode.
func (c *Client) Call(ctx context.Context, command string, mode int, params msa.Params, timeout time.Duration) (*msa.Result, error) {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return c.api.Do(ctx, msa.Request{
		Method:  http.MethodPost,
		Path:    fmt.Sprintf("/ordercommand/call/%d/%s/%d", c.device, command, mode),
		Action:  "Call command",
		Body:    params,
		Timeout: timeout,
	})
}

// Objects lists the object names available on the device.
func (c *Client) Objects(ctx context.Context) ([]string, error) {
	res, err := c.api.Do(ctx, msa.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/ordercommand/objects/%d", c.device),
		Action: "Get objects",
	})
	if err != nil {
		return nil, err
	}
	if !res.OK {
		env, err := res.Envelope()
		if err != nil {
			return nil, fmt.Errorf("get objects: status %d", res.StatusCode)
		}
		return nil, fmt.Errorf("get objects: %s", env.Comment)
	}
	var names []string
	if err := res.Decode(&names); err != nil {
		return nil, fmt.Errorf("get objects: %w", err)
	}
	return names, nil
}

// ObjectInstances fetches the instances of one object type. The payload
// shape is object specific, so the raw result is returned for the caller to
// decode.
func (c *Client) ObjectInstances(ctx context.Context, name string) (*msa.Result, error) {
	return c.api.Do(ctx, msa.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/ordercommand/objects/%d/%s", c.device, name),
		Action: "Get object instances",
	})
}

// ObjectDetails fetches one object instance document.
func (c *Client) ObjectDetails(ctx context.Context, name, objectID string) (*msa.Result, error) {
	return c.api.Do(ctx, msa.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/ordercommand/objects/%d/%s/%s", c.device, name, objectID),
		Action: "Get object details",
	})
}
