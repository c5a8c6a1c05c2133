package statemachine

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/praxis-agent/praxis/domain/agent"
)

// TransitionPayload carries additional data with a transition event.
type TransitionPayload struct {
	ToPhase agent.Phase
	Reason  string
}

// Interpreter wraps the statekit interpreter with session-specific
// functionality, including resuming a suspended session at its saved phase.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates an interpreter for the cognitive machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// Start enters the initial phase.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.State.CurrentPhase = agent.Phase(i.interp.State().Value)
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// Phase returns the machine's current phase.
func (i *Interpreter) Phase() agent.Phase {
	return agent.Phase(i.interp.State().Value)
}

// Transition moves to the target phase, recording the hop in the ledger.
func (i *Interpreter) Transition(to agent.Phase, reason string) error {
	if !i.CanTransition(to) {
		return &agent.TransitionError{From: i.ctx.State.CurrentPhase, To: to}
	}

	i.interp.Send(statekit.Event{
		Type: EventForPhase(to),
		Payload: TransitionPayload{
			ToPhase: to,
			Reason:  reason,
		},
	})

	i.ctx.State.CurrentPhase = agent.Phase(i.interp.State().Value)
	return nil
}

// CanTransition checks the edge against the topology.
func (i *Interpreter) CanTransition(to agent.Phase) bool {
	return i.ctx.Transitions.CanTransition(i.ctx.State.CurrentPhase, to)
}

// IsTerminal reports whether the machine reached a final phase.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Matches checks whether the current phase matches the given one.
func (i *Interpreter) Matches(p agent.Phase) bool {
	return i.interp.Matches(statekit.StateID(p))
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}

// ResumeFrom restores the interpreter to a saved phase. Used when a
// session suspended at the review phase is picked up after an approval
// decision arrives.
func (i *Interpreter) ResumeFrom(phase agent.Phase) error {
	if !phase.IsValid() {
		return fmt.Errorf("resume: unknown phase %q", phase)
	}
	snapshot := statekit.Snapshot[*Context]{
		MachineID:    "cognitive",
		CurrentState: statekit.StateID(phase),
		Context:      i.ctx,
		CreatedAt:    time.Now(),
	}
	if err := i.interp.Restore(snapshot); err != nil {
		return fmt.Errorf("resume: restore state: %w", err)
	}
	i.ctx.State.CurrentPhase = phase
	return nil
}
