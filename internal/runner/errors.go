package runner

import (
	"errors"
	"fmt"

	"github.com/petasbytes/go-assistant/internal/provider"
)

var (
	// ErrUnregisteredFunction means the assistant asked for a function the
	// client does not provide. It is a deployment defect and is never retried.
	ErrUnregisteredFunction = errors.New("unregistered function")
	// ErrRunMismatch means outputs were submitted for a run that is not the
	// one awaiting them.
	ErrRunMismatch = errors.New("run is not awaiting tool outputs")
	// ErrEmptyToolOutputs means a continuation carried no outputs.
	ErrEmptyToolOutputs = errors.New("no tool outputs to submit")
	// ErrTurnInProgress means a second turn was started on a busy thread.
	ErrTurnInProgress = errors.New("turn already in progress")
	// ErrSessionClosed means the session was closed.
	ErrSessionClosed = errors.New("session closed")

	errAttemptsExhausted = errors.New("attempts exhausted")
)

// ProtocolError reports a run state the client does not understand.
type ProtocolError struct {
	RunID        string
	Status       provider.RunStatus
	ToolCallType string
	Detail       string
}

func (e *ProtocolError) Error() string {
	switch {
	case e.ToolCallType != "":
		return fmt.Sprintf("run %s: unsupported tool call type %q", e.RunID, e.ToolCallType)
	case e.Detail != "":
		return fmt.Sprintf("run %s: %s", e.RunID, e.Detail)
	default:
		return fmt.Sprintf("run %s: unexpected status %q", e.RunID, e.Status)
	}
}

// IsFatal reports whether err must terminate the caller rather than be shown
// to the user as text.
func IsFatal(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe) ||
		errors.Is(err, ErrUnregisteredFunction) ||
		errors.Is(err, ErrRunMismatch) ||
		errors.Is(err, ErrEmptyToolOutputs)
}
