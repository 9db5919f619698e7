package msa

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Status is a workflow status token understood by the orchestrator.
type Status string

// The complete status vocabulary. The orchestrator matches these byte for
// byte; they are never localized or extended.
const (
	StatusEnded   Status = "ENDED"
	StatusFailed  Status = "FAILED"
	StatusRunning Status = "RUNNING"
	StatusWarning Status = "WARNING"
	StatusPaused  Status = "PAUSED"
)

// Envelope is the completion payload a task reports on stdout and the shape
// failed API responses are normalized into.
type Envelope struct {
	Status    Status `json:"wo_status"`
	Comment   string `json:"wo_comment"`
	NewParams Params `json:"wo_newparams"`
}

// EncodeContent renders the completion payload for a status, comment and
// new-params mapping. A nil mapping encodes as an empty object, never null.
// When logParams is set the mapping is also logged at info level with the
// bearer token removed; the returned payload itself keeps every entry.
func EncodeContent(status Status, comment string, newParams Params, logParams bool) (string, error) {
	if newParams == nil {
		newParams = Params{}
	}
	env := Envelope{Status: status, Comment: comment, NewParams: newParams}
	buf, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode content: %w", err)
	}
	if logParams {
		logSanitizedParams(newParams)
	}
	return string(buf), nil
}

// logSanitizedParams logs a new-params mapping without its credential entry.
func logSanitizedParams(p Params) {
	clean := make(Params, len(p))
	for k, v := range p {
		if k == KeyToken {
			continue
		}
		clean[k] = v
	}
	pretty, err := json.MarshalIndent(clean, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("task parameters not loggable")
		return
	}
	log.Info().Str("params", string(pretty)).Msg("task parameters")
}
