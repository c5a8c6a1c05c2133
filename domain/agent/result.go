package agent

import "time"

// ExecutionResult is the captured outcome of a single sandbox run.
// Immutable once constructed; the session state appends it, never edits it.
type ExecutionResult struct {
	ExitCode        int           `json:"exit_code"`
	Stdout          string        `json:"stdout"`
	Stderr          string        `json:"stderr"`
	Duration        time.Duration `json:"duration"`
	StdoutTruncated bool          `json:"stdout_truncated,omitempty"`
	StderrTruncated bool          `json:"stderr_truncated,omitempty"`
}

// Succeeded reports whether the execution exited cleanly.
func (r ExecutionResult) Succeeded() bool {
	return r.ExitCode == 0
}

// ErrorKind classifies a failure folded into the session's error stack.
type ErrorKind string

const (
	ErrorKindValidation    ErrorKind = "validation"
	ErrorKindAuthorization ErrorKind = "authorization"
	ErrorKindResource      ErrorKind = "resource"
	ErrorKindTimeout       ErrorKind = "timeout"
	ErrorKindRuntime       ErrorKind = "runtime"
	ErrorKindReasoner      ErrorKind = "reasoner"
	ErrorKindSecurity      ErrorKind = "security"
	ErrorKindLedger        ErrorKind = "ledger"
)

// Recoverable reports whether a failure of this kind may be retried by
// routing back to planning.
func (k ErrorKind) Recoverable() bool {
	switch k {
	case ErrorKindSecurity, ErrorKindLedger:
		return false
	default:
		return true
	}
}

// ErrorEntry is a single failure record in the append-only error stack.
// Reflection reads the stack to decide retry vs. escalate vs. abandon.
type ErrorEntry struct {
	Phase     Phase     `json:"phase"`
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	StepID    string    `json:"step_id,omitempty"`
	Iteration int       `json:"iteration"`
	Timestamp time.Time `json:"timestamp"`
}

// NewErrorEntry builds an error entry stamped with the current time.
func NewErrorEntry(phase Phase, kind ErrorKind, msg string, iteration int) ErrorEntry {
	return ErrorEntry{
		Phase:     phase,
		Kind:      kind,
		Message:   msg,
		Iteration: iteration,
		Timestamp: time.Now(),
	}
}
