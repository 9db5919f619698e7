package msa

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

// Outcome is a terminal task report: the envelope the orchestrator reads on
// stdout paired with the exit code it expects alongside.
type Outcome struct {
	Status   Status
	Comment  string
	Params   Params
	ExitCode int
}

// Success is a completed-task outcome, exit code 0.
func Success(comment string, params Params) Outcome {
	return Outcome{Status: StatusEnded, Comment: comment, Params: params, ExitCode: 0}
}

// Failure is a failed-task outcome, exit code 1.
func Failure(comment string, params Params) Outcome {
	return Outcome{Status: StatusFailed, Comment: comment, Params: params, ExitCode: 1}
}

// Encode renders the outcome's envelope without logging it.
func (o Outcome) Encode() (string, error) {
	return EncodeContent(o.Status, o.Comment, o.Params, false)
}

// Report writes the outcome envelope to w as a single line. When the params
// cannot be encoded, a reduced envelope naming the encoding problem is
// written instead, so the orchestrator always receives valid JSON.
func (o Outcome) Report(w io.Writer, logParams bool) error {
	text, err := EncodeContent(o.Status, o.Comment, o.Params, logParams)
	if err != nil {
		text, _ = EncodeContent(o.Status, o.Comment, Params{"encode_error": err.Error()}, false)
	}
	if _, werr := fmt.Fprintln(w, text); werr != nil {
		return fmt.Errorf("report outcome: %w", werr)
	}
	return err
}

// Exit reports the outcome on stdout and terminates the process with the
// outcome's exit code. Only the outermost task entry point should call it.
func (o Outcome) Exit(logParams bool) {
	if err := o.Report(os.Stdout, logParams); err != nil {
		log.Error().Err(err).Msg("report outcome")
	}
	os.Exit(o.ExitCode)
}

// ReportSuccess prints an ENDED envelope and exits 0, logging the sanitized
// parameters.
func ReportSuccess(comment string, params Params) {
	Success(comment, params).Exit(true)
}

// ReportFailure prints a FAILED envelope and exits 1, logging the sanitized
// parameters.
func ReportFailure(comment string, params Params) {
	Failure(comment, params).Exit(true)
}
