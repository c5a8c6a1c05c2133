package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/praxis-agent/praxis/domain/agent"
	"github.com/praxis-agent/praxis/domain/capability"
	"github.com/praxis-agent/praxis/domain/ledger"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for session logging.

// SessionID adds a session ID field.
func SessionID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("session_id", id)
	}
}

// Phase adds a phase field.
func Phase(p agent.Phase) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("phase", string(p))
	}
}

// FromPhase adds a from_phase field for transitions.
func FromPhase(p agent.Phase) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from_phase", string(p))
	}
}

// ToPhase adds a to_phase field for transitions.
func ToPhase(p agent.Phase) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("to_phase", string(p))
	}
}

// StepID adds a plan step field.
func StepID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("step_id", id)
	}
}

// Iteration adds the cycle counter.
func Iteration(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("iteration", n)
	}
}

// Scope adds a capability scope field.
func Scope(s capability.Scope) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("scope", string(s))
	}
}

// Outcome adds an audit outcome field.
func Outcome(o ledger.Outcome) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("outcome", string(o))
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ExitCode adds a sandbox exit code field.
func ExitCode(code int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("exit_code", code)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Goal adds a goal field.
func Goal(goal string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("goal", goal)
	}
}

// Reason adds a reason field.
func Reason(reason string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reason", reason)
	}
}

// Cause adds a stop cause field.
func Cause(c agent.StopCause) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("cause", string(c))
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
