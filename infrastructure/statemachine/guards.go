package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/praxis-agent/praxis/domain/agent"
)

// guardCanTransition checks the edge against the cognitive graph topology.
// In statekit, guards receive the context by value; our context is
// *Context, so the guard receives *Context directly.
func guardCanTransition(ctx *Context, event statekit.Event) bool {
	if ctx == nil || ctx.State == nil || ctx.Transitions == nil {
		return false
	}

	from := ctx.State.CurrentPhase

	var to agent.Phase
	if payload, ok := event.Payload.(TransitionPayload); ok {
		to = payload.ToPhase
	} else {
		to = phaseFromEventType(event.Type)
	}

	return ctx.Transitions.CanTransition(from, to)
}
