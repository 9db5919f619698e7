package sim

import "time"

// TokenRequest is the credential exchange body.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// APIError is the body every endpoint answers failures with. Clients lift
// the message into their FAILED envelopes.
type APIError struct {
	Message string `json:"message"`
}

type StatusResponse struct {
	Time    time.Time `json:"time"`
	Host    string    `json:"host"`
	Version string    `json:"version"`
}

// CommandResponse acknowledges an order command, echoing the parameters the
// caller posted.
type CommandResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Device  int            `json:"device_id"`
	Command string         `json:"command,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}
