package agent

// Verdict is the reflection phase's judgment of the latest execution.
type Verdict struct {
	// Success reports whether the active step's outcome satisfied its intent.
	Success bool `json:"success"`
	// Generalizable reports whether the artifact is worth promoting to a
	// reusable skill. Only consulted when Success is true.
	Generalizable bool `json:"generalizable"`
	// Diagnosis explains a failure in terms the planner can act on.
	Diagnosis string `json:"diagnosis,omitempty"`
	// RevisedHypothesis replaces the working hypothesis on a retry.
	RevisedHypothesis string `json:"revised_hypothesis,omitempty"`
}

// RoutePolicy makes the branching decisions of the cognitive graph. It is
// pure: every decision is a function of the state and verdict passed in,
// so routing is testable without a machine or an engine.
type RoutePolicy struct {
	// MaxIterations is the hard cap on full cycles. Reaching it abandons
	// the session regardless of how promising the current plan looks.
	MaxIterations int
	// MaxRetriesPerStep bounds consecutive recoverable failures on a single
	// plan step before the session fails outright.
	MaxRetriesPerStep int
}

// DefaultRoutePolicy returns the stock tuning.
func DefaultRoutePolicy() RoutePolicy {
	return RoutePolicy{MaxIterations: 10, MaxRetriesPerStep: 3}
}

// AfterReflection decides where the graph goes once reflection has judged
// the latest execution. The decision order is fixed:
//
//  1. an unrecoverable error on the stack fails the session;
//  2. a step that failed MaxRetriesPerStep times fails the session;
//  3. success with remaining pending steps re-plans, consuming an iteration;
//  4. success on the final step goes to abstraction or done;
//  5. a recoverable failure re-plans, consuming an iteration;
//  6. re-planning past MaxIterations abandons the session instead.
func (p RoutePolicy) AfterReflection(s *State, v Verdict) Phase {
	for _, e := range s.ErrorStack {
		if !e.Kind.Recoverable() {
			return PhaseFailed
		}
	}

	if step := ActiveStep(s.Plan); step != nil && !v.Success {
		if s.StepFailureCount(step.ID) >= p.MaxRetriesPerStep {
			return PhaseFailed
		}
	}

	if v.Success {
		if HasPendingSteps(s.Plan) {
			return p.replanOrAbandon(s)
		}
		if v.Generalizable {
			return PhaseAbstract
		}
		return PhaseDone
	}

	return p.replanOrAbandon(s)
}

// AfterFault decides where the graph goes when a phase hits a recoverable
// infrastructure fault, such as the reasoner being unreachable. The retry
// consumes an iteration; a spent budget abandons the session.
func (p RoutePolicy) AfterFault(s *State) Phase {
	return p.replanOrAbandon(s)
}

// AfterAbstract decides where the graph goes once a skill candidate has been
// committed: back to planning if work remains, otherwise done.
func (p RoutePolicy) AfterAbstract(s *State) Phase {
	if HasPendingSteps(s.Plan) {
		return p.replanOrAbandon(s)
	}
	return PhaseDone
}

// replanOrAbandon consumes one iteration, or abandons when the budget is
// already spent. The cap is checked before the new cycle starts so a session
// never begins a cycle it has no budget for.
func (p RoutePolicy) replanOrAbandon(s *State) Phase {
	if s.Iteration+1 >= p.MaxIterations {
		return PhaseAbandoned
	}
	return PhasePlan
}
