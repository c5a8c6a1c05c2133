package agent

import "fmt"

// StepStatus tracks the lifecycle of a plan step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepActive  StepStatus = "active"
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
)

// PlanStep is a single step in the session's plan. Steps are created by the
// planning phase and consumed by synthesis/execution; they are never mutated
// after the owning plan is replaced.
type PlanStep struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
	DependsOn   []string   `json:"depends_on,omitempty"`
}

// ValidatePlan checks that the step set forms a DAG: every id is unique,
// every dependency refers to a declared step, and no dependency cycle exists.
// A cycle is a validation error, not a runtime loop.
func ValidatePlan(steps []PlanStep) error {
	byID := make(map[string]PlanStep, len(steps))
	for _, s := range steps {
		if s.ID == "" {
			return &ValidationError{Reason: "plan step has empty id"}
		}
		if _, dup := byID[s.ID]; dup {
			return &ValidationError{Reason: fmt.Sprintf("duplicate plan step id %q", s.ID)}
		}
		byID[s.ID] = s
	}

	for _, s := range steps {
		for _, dep := range s.DependsOn {
			if _, ok := byID[dep]; !ok {
				return &ValidationError{Reason: fmt.Sprintf("step %q depends on unknown step %q", s.ID, dep)}
			}
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	colors := make(map[string]int, len(steps))

	var visit func(id string) error
	visit = func(id string) error {
		switch colors[id] {
		case visiting:
			return &ValidationError{Reason: fmt.Sprintf("dependency cycle through step %q", id)}
		case visited:
			return nil
		}
		colors[id] = visiting
		for _, dep := range byID[id].DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		colors[id] = visited
		return nil
	}

	for _, s := range steps {
		if err := visit(s.ID); err != nil {
			return err
		}
	}
	return nil
}

// ActiveStep returns the step currently marked active, or nil.
func ActiveStep(steps []PlanStep) *PlanStep {
	for i := range steps {
		if steps[i].Status == StepActive {
			return &steps[i]
		}
	}
	return nil
}

// HasPendingSteps reports whether any step is still pending.
func HasPendingSteps(steps []PlanStep) bool {
	for _, s := range steps {
		if s.Status == StepPending {
			return true
		}
	}
	return false
}
