// Package reasoner defines the boundary to the external reasoning
// collaborator. The core never prompts, parses model output, or knows what
// produced an answer; it hands a phase snapshot across this interface and
// gets structured results back.
package reasoner

import (
	"context"
	"errors"

	"github.com/praxis-agent/praxis/domain/agent"
	"github.com/praxis-agent/praxis/domain/skill"
)

// ErrNoOutput is returned when a reasoner has nothing for the given phase.
var ErrNoOutput = errors.New("reasoner: no output for phase")

// Input is the snapshot a reasoner sees for one phase. The state is shared
// for reading only; reasoners return results, they never mutate state.
type Input struct {
	Phase agent.Phase
	State *agent.State
}

// Output carries a reasoner's results. Only the fields the phase owns are
// consulted: perception reads WorldModel, planning reads Plan and
// Hypothesis, synthesis reads Artifact, reflection reads Verdict,
// abstraction reads Skill. Message, if set, joins the conversation log.
type Output struct {
	Message    string
	WorldModel *agent.WorldModel
	Hypothesis string
	Plan       []agent.PlanStep
	Artifact   string
	Verdict    *agent.Verdict
	Skill      *skill.Candidate
}

// Reasoner produces phase outputs. Implementations must honor ctx
// cancellation; a reasoner error is recoverable and folds into the error
// stack rather than crashing the session.
type Reasoner interface {
	Reason(ctx context.Context, in Input) (*Output, error)
}
