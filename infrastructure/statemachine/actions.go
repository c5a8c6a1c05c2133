package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/praxis-agent/praxis/domain/agent"
	"github.com/praxis-agent/praxis/domain/ledger"
)

// recordTransition writes the phase change to the ledger and moves the
// session state. In statekit, actions receive a pointer to the context;
// our context is *Context, so actions receive **Context.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).State == nil {
		return
	}

	c := *ctx
	from := c.State.CurrentPhase

	var to agent.Phase
	var reason string
	if payload, ok := event.Payload.(TransitionPayload); ok {
		to = payload.ToPhase
		reason = payload.Reason
	} else {
		to = phaseFromEventType(event.Type)
	}

	if c.Ledger != nil {
		details := map[string]string{
			"session": c.State.SessionID,
			"from":    from.String(),
			"to":      to.String(),
		}
		if reason != "" {
			details["reason"] = reason
		}
		_, _ = c.Ledger.Append(ledger.Entry{
			Category: ledger.CategorySession,
			Action:   "phase.transition",
			Actor:    "engine",
			Outcome:  ledger.OutcomeAllowed,
			Details:  details,
		})
	}

	c.State.EnterPhase(to)
}
