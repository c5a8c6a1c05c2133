// Package agent provides the core domain model for the cognitive session runtime.
package agent

// Phase represents a node in the cognitive graph. Phases are identified by
// stable strings, not behavioral definitions.
type Phase string

// Canonical phases of a cognitive cycle.
const (
	PhaseGuard      Phase = "guard"      // Sanitize raw input
	PhasePerceive   Phase = "perceive"   // Build the world model
	PhasePlan       Phase = "plan"       // Produce a step DAG
	PhaseSynthesize Phase = "synthesize" // Produce a code artifact
	PhaseReview     Phase = "review"     // Risk-classify the artifact, await approval
	PhaseExecute    Phase = "execute"    // Run the artifact in the sandbox
	PhaseReflect    Phase = "reflect"    // Judge the execution outcome
	PhaseAbstract   Phase = "abstract"   // Promote the artifact to a skill
	PhaseDone       Phase = "done"       // Terminal success
	PhaseFailed     Phase = "failed"     // Terminal failure
	PhaseAbandoned  Phase = "abandoned"  // Terminal: iteration cap exhausted
)

// IsTerminal returns true if this is a terminal phase.
func (p Phase) IsTerminal() bool {
	return p == PhaseDone || p == PhaseFailed || p == PhaseAbandoned
}

// IsValid returns true if the phase is a recognized canonical phase.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseGuard, PhasePerceive, PhasePlan, PhaseSynthesize, PhaseReview,
		PhaseExecute, PhaseReflect, PhaseAbstract, PhaseDone, PhaseFailed, PhaseAbandoned:
		return true
	default:
		return false
	}
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// AllPhases returns all canonical phases.
func AllPhases() []Phase {
	return []Phase{
		PhaseGuard,
		PhasePerceive,
		PhasePlan,
		PhaseSynthesize,
		PhaseReview,
		PhaseExecute,
		PhaseReflect,
		PhaseAbstract,
		PhaseDone,
		PhaseFailed,
		PhaseAbandoned,
	}
}

// TerminalPhases returns all terminal phases.
func TerminalPhases() []Phase {
	return []Phase{PhaseDone, PhaseFailed, PhaseAbandoned}
}

// Transitions is the allowed-edge policy for the cognitive graph.
type Transitions struct {
	allowed map[Phase][]Phase
}

// DefaultTransitions returns the canonical cognitive graph topology.
func DefaultTransitions() *Transitions {
	return &Transitions{
		allowed: map[Phase][]Phase{
			PhaseGuard:      {PhasePerceive, PhaseFailed},
			PhasePerceive:   {PhasePlan, PhaseFailed, PhaseAbandoned},
			PhasePlan:       {PhasePlan, PhaseSynthesize, PhaseFailed, PhaseAbandoned},
			PhaseSynthesize: {PhaseReview, PhaseExecute, PhasePlan, PhaseFailed, PhaseAbandoned},
			PhaseReview:     {PhaseExecute, PhaseFailed},
			PhaseExecute:    {PhaseReflect, PhaseFailed},
			PhaseReflect:    {PhaseAbstract, PhasePlan, PhaseDone, PhaseFailed, PhaseAbandoned},
			PhaseAbstract:   {PhasePlan, PhaseDone, PhaseFailed, PhaseAbandoned},
		},
	}
}

// CanTransition reports whether the edge from -> to exists in the graph.
func (t *Transitions) CanTransition(from, to Phase) bool {
	for _, next := range t.allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Successors returns the phases reachable from the given phase.
func (t *Transitions) Successors(from Phase) []Phase {
	next := make([]Phase, len(t.allowed[from]))
	copy(next, t.allowed[from])
	return next
}
