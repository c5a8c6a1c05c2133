package agent

import "errors"

// Sentinel errors returned by the session engine.
var (
	// ErrIterationCapReached is returned when the cycle budget is exhausted
	// before the goal completes. The session is abandoned, never extended.
	ErrIterationCapReached = errors.New("iteration cap reached")

	// ErrAwaitingApproval reports a session suspended at review with no
	// decision source attached. The caller keeps the state and hands it to
	// ResumeSession once an approver exists.
	ErrAwaitingApproval = errors.New("awaiting external approval")

	// ErrSessionTerminal is returned when Step is called on a session that
	// already reached a terminal phase.
	ErrSessionTerminal = errors.New("session is terminal")
)

// ValidationError reports malformed state or plan input. It maps to the
// validation error kind when folded into the error stack.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// Kind returns the error-stack classification for a validation failure.
func (e *ValidationError) Kind() ErrorKind {
	return ErrorKindValidation
}

// TransitionError reports an attempt to traverse an edge the cognitive
// graph does not define.
type TransitionError struct {
	From Phase
	To   Phase
}

func (e *TransitionError) Error() string {
	return "invalid transition from " + e.From.String() + " to " + e.To.String()
}
