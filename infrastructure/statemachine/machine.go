// Package statemachine provides the statekit integration for the cognitive
// graph. The machine enforces the phase topology; what happens inside a
// phase belongs to the engine.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/praxis-agent/praxis/domain/agent"
	"github.com/praxis-agent/praxis/domain/ledger"
)

// Context carries session state through the state machine.
type Context struct {
	State       *agent.State
	Ledger      *ledger.Ledger
	Transitions *agent.Transitions
}

// NewContext creates a machine context for one session.
func NewContext(state *agent.State, audit *ledger.Ledger) *Context {
	return &Context{
		State:       state,
		Ledger:      audit,
		Transitions: agent.DefaultTransitions(),
	}
}

// Phase IDs as StateID type for statekit.
const (
	phaseGuard      statekit.StateID = statekit.StateID(agent.PhaseGuard)
	phasePerceive   statekit.StateID = statekit.StateID(agent.PhasePerceive)
	phasePlan       statekit.StateID = statekit.StateID(agent.PhasePlan)
	phaseSynthesize statekit.StateID = statekit.StateID(agent.PhaseSynthesize)
	phaseReview     statekit.StateID = statekit.StateID(agent.PhaseReview)
	phaseExecute    statekit.StateID = statekit.StateID(agent.PhaseExecute)
	phaseReflect    statekit.StateID = statekit.StateID(agent.PhaseReflect)
	phaseAbstract   statekit.StateID = statekit.StateID(agent.PhaseAbstract)
	phaseDone       statekit.StateID = statekit.StateID(agent.PhaseDone)
	phaseFailed     statekit.StateID = statekit.StateID(agent.PhaseFailed)
	phaseAbandoned  statekit.StateID = statekit.StateID(agent.PhaseAbandoned)
)

// NewCognitiveMachine creates the canonical cognitive statechart.
func NewCognitiveMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("cognitive").
		WithInitial(phaseGuard).
		WithContext(&Context{}).
		// Register actions
		WithAction("recordTransition", recordTransition).
		// Register guards
		WithGuard("canTransition", guardCanTransition).
		// Define phases
		State(phaseGuard).
			On("PERCEIVE").Target(phasePerceive).Guard("canTransition").Do("recordTransition").
			On("FAIL").Target(phaseFailed).Do("recordTransition").
			Done().
		State(phasePerceive).
			On("PLAN").Target(phasePlan).Guard("canTransition").Do("recordTransition").
			On("ABANDON").Target(phaseAbandoned).Do("recordTransition").
			On("FAIL").Target(phaseFailed).Do("recordTransition").
			Done().
		State(phasePlan).
			On("SYNTHESIZE").Target(phaseSynthesize).Guard("canTransition").Do("recordTransition").
			On("PLAN").Target(phasePlan).Guard("canTransition").Do("recordTransition"). // fault retry
			On("ABANDON").Target(phaseAbandoned).Do("recordTransition").
			On("FAIL").Target(phaseFailed).Do("recordTransition").
			Done().
		State(phaseSynthesize).
			On("REVIEW").Target(phaseReview).Guard("canTransition").Do("recordTransition").
			On("EXECUTE").Target(phaseExecute).Guard("canTransition").Do("recordTransition").
			On("PLAN").Target(phasePlan).Guard("canTransition").Do("recordTransition"). // fault retry
			On("ABANDON").Target(phaseAbandoned).Do("recordTransition").
			On("FAIL").Target(phaseFailed).Do("recordTransition").
			Done().
		State(phaseReview).
			On("EXECUTE").Target(phaseExecute).Guard("canTransition").Do("recordTransition").
			On("FAIL").Target(phaseFailed).Do("recordTransition").
			Done().
		State(phaseExecute).
			On("REFLECT").Target(phaseReflect).Guard("canTransition").Do("recordTransition").
			On("FAIL").Target(phaseFailed).Do("recordTransition").
			Done().
		State(phaseReflect).
			On("ABSTRACT").Target(phaseAbstract).Guard("canTransition").Do("recordTransition").
			On("PLAN").Target(phasePlan).Guard("canTransition").Do("recordTransition"). // next cycle
			On("DONE").Target(phaseDone).Do("recordTransition").
			On("ABANDON").Target(phaseAbandoned).Do("recordTransition").
			On("FAIL").Target(phaseFailed).Do("recordTransition").
			Done().
		State(phaseAbstract).
			On("PLAN").Target(phasePlan).Guard("canTransition").Do("recordTransition").
			On("DONE").Target(phaseDone).Do("recordTransition").
			On("ABANDON").Target(phaseAbandoned).Do("recordTransition").
			On("FAIL").Target(phaseFailed).Do("recordTransition").
			Done().
		State(phaseDone).
			Final().
			Done().
		State(phaseFailed).
			Final().
			Done().
		State(phaseAbandoned).
			Final().
			Done().
		Build()
}

// EventForPhase returns the event type that targets a phase.
func EventForPhase(to agent.Phase) statekit.EventType {
	switch to {
	case agent.PhasePerceive:
		return "PERCEIVE"
	case agent.PhasePlan:
		return "PLAN"
	case agent.PhaseSynthesize:
		return "SYNTHESIZE"
	case agent.PhaseReview:
		return "REVIEW"
	case agent.PhaseExecute:
		return "EXECUTE"
	case agent.PhaseReflect:
		return "REFLECT"
	case agent.PhaseAbstract:
		return "ABSTRACT"
	case agent.PhaseDone:
		return "DONE"
	case agent.PhaseFailed:
		return "FAIL"
	case agent.PhaseAbandoned:
		return "ABANDON"
	default:
		return statekit.EventType(to)
	}
}

// phaseFromEventType derives the target phase from an event type.
func phaseFromEventType(eventType statekit.EventType) agent.Phase {
	switch eventType {
	case "PERCEIVE":
		return agent.PhasePerceive
	case "PLAN":
		return agent.PhasePlan
	case "SYNTHESIZE":
		return agent.PhaseSynthesize
	case "REVIEW":
		return agent.PhaseReview
	case "EXECUTE":
		return agent.PhaseExecute
	case "REFLECT":
		return agent.PhaseReflect
	case "ABSTRACT":
		return agent.PhaseAbstract
	case "DONE":
		return agent.PhaseDone
	case "FAIL":
		return agent.PhaseFailed
	case "ABANDON":
		return agent.PhaseAbandoned
	default:
		return agent.Phase(eventType)
	}
}
