package reasoner

import (
	"context"
	"fmt"
	"time"

	"github.com/praxis-agent/praxis/domain/agent"
	"github.com/praxis-agent/praxis/domain/skill"
)

// Static is a deterministic reasoner with no external dependencies: one
// observation, one step, one trivial artifact, success on reflection. The
// CLI uses it so the full pipeline can be exercised without a model.
type Static struct {
	// Artifact is the code returned by synthesis. Defaults to a WAT-style
	// placeholder the sandbox fake accepts.
	Artifact string
}

// NewStatic creates the static reasoner.
func NewStatic() *Static {
	return &Static{}
}

// Reason implements Reasoner.
func (s *Static) Reason(ctx context.Context, in Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch in.Phase {
	case agent.PhasePerceive:
		return &Output{
			WorldModel: &agent.WorldModel{
				Observations: []string{fmt.Sprintf("goal: %s", in.State.Goal)},
			},
		}, nil
	case agent.PhasePlan:
		return &Output{
			Hypothesis: "a single direct step satisfies the goal",
			Plan: []agent.PlanStep{
				{ID: "step-1", Description: in.State.Goal, Status: agent.StepPending},
			},
		}, nil
	case agent.PhaseSynthesize:
		artifact := s.Artifact
		if artifact == "" {
			artifact = "func main() {}"
		}
		return &Output{Artifact: artifact}, nil
	case agent.PhaseReflect:
		success := true
		if last := in.State.LastExecution(); last != nil {
			success = last.Succeeded()
		}
		return &Output{Verdict: &agent.Verdict{Success: success}}, nil
	case agent.PhaseAbstract:
		return &Output{
			Skill: &skill.Candidate{
				Name:        "static-result",
				Code:        in.State.Artifact,
				TaskContext: in.State.Goal,
				CreatedAt:   time.Now(),
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoOutput, in.Phase)
	}
}
