package reasoner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/praxis-agent/praxis/domain/agent"
	"github.com/praxis-agent/praxis/infrastructure/reasoner"
)

func TestScriptedReplaysInOrder(t *testing.T) {
	t.Parallel()

	r := reasoner.NewScripted().
		On(agent.PhasePlan, &reasoner.Output{Hypothesis: "first"}).
		On(agent.PhasePlan, &reasoner.Output{Hypothesis: "second"})

	ctx := context.Background()
	in := reasoner.Input{Phase: agent.PhasePlan, State: agent.NewState("s", "g")}

	for _, want := range []string{"first", "second", "second"} {
		out, err := r.Reason(ctx, in)
		if err != nil {
			t.Fatalf("Reason() error = %v", err)
		}
		if out.Hypothesis != want {
			t.Errorf("Hypothesis = %q, want %q", out.Hypothesis, want)
		}
	}
	if r.Calls(agent.PhasePlan) != 3 {
		t.Errorf("Calls = %d, want 3", r.Calls(agent.PhasePlan))
	}
}

func TestScriptedFailTimes(t *testing.T) {
	t.Parallel()

	fault := errors.New("model offline")
	r := reasoner.NewScripted().
		On(agent.PhaseReflect, &reasoner.Output{Verdict: &agent.Verdict{Success: true}}).
		FailTimes(agent.PhaseReflect, 2, fault)

	ctx := context.Background()
	in := reasoner.Input{Phase: agent.PhaseReflect, State: agent.NewState("s", "g")}

	for i := 0; i < 2; i++ {
		if _, err := r.Reason(ctx, in); !errors.Is(err, fault) {
			t.Fatalf("call %d: error = %v, want scripted fault", i, err)
		}
	}
	out, err := r.Reason(ctx, in)
	if err != nil {
		t.Fatalf("Reason() after failures error = %v", err)
	}
	if out.Verdict == nil || !out.Verdict.Success {
		t.Error("expected scripted verdict after failures drain")
	}
}

func TestScriptedUnscriptedPhase(t *testing.T) {
	t.Parallel()

	r := reasoner.NewScripted()
	_, err := r.Reason(context.Background(), reasoner.Input{Phase: agent.PhaseAbstract})
	if !errors.Is(err, reasoner.ErrNoOutput) {
		t.Fatalf("Reason() = %v, want ErrNoOutput", err)
	}
}

func TestStaticCoversCognitivePhases(t *testing.T) {
	t.Parallel()

	r := reasoner.NewStatic()
	state := agent.NewState("s", "add two numbers")
	ctx := context.Background()

	out, err := r.Reason(ctx, reasoner.Input{Phase: agent.PhasePerceive, State: state})
	if err != nil || out.WorldModel == nil {
		t.Fatalf("perceive: out=%+v err=%v", out, err)
	}

	out, err = r.Reason(ctx, reasoner.Input{Phase: agent.PhasePlan, State: state})
	if err != nil || len(out.Plan) != 1 {
		t.Fatalf("plan: out=%+v err=%v", out, err)
	}
	if err := agent.ValidatePlan(out.Plan); err != nil {
		t.Errorf("static plan invalid: %v", err)
	}

	out, err = r.Reason(ctx, reasoner.Input{Phase: agent.PhaseSynthesize, State: state})
	if err != nil || out.Artifact == "" {
		t.Fatalf("synthesize: out=%+v err=%v", out, err)
	}

	state.AppendExecution(agent.ExecutionResult{ExitCode: 0})
	out, err = r.Reason(ctx, reasoner.Input{Phase: agent.PhaseReflect, State: state})
	if err != nil || out.Verdict == nil || !out.Verdict.Success {
		t.Fatalf("reflect: out=%+v err=%v", out, err)
	}

	state.AppendExecution(agent.ExecutionResult{ExitCode: 1})
	out, err = r.Reason(ctx, reasoner.Input{Phase: agent.PhaseReflect, State: state})
	if err != nil || out.Verdict.Success {
		t.Fatal("reflect should report failure for a non-zero exit")
	}
}
