package statemachine_test

import (
	"errors"
	"testing"

	"github.com/praxis-agent/praxis/domain/agent"
	"github.com/praxis-agent/praxis/domain/ledger"
	"github.com/praxis-agent/praxis/infrastructure/statemachine"
)

func newInterpreter(t *testing.T) (*statemachine.Interpreter, *agent.State, *ledger.Ledger) {
	t.Helper()
	machine, err := statemachine.NewCognitiveMachine()
	if err != nil {
		t.Fatalf("NewCognitiveMachine() error = %v", err)
	}
	state := agent.NewState("sess-1", "test goal")
	audit := ledger.New()
	interp := statemachine.NewInterpreter(machine, statemachine.NewContext(state, audit))
	interp.Start()
	return interp, state, audit
}

func TestMachineStartsAtGuard(t *testing.T) {
	t.Parallel()

	interp, state, _ := newInterpreter(t)
	if interp.Phase() != agent.PhaseGuard {
		t.Errorf("initial phase = %s, want guard", interp.Phase())
	}
	if state.CurrentPhase != agent.PhaseGuard {
		t.Errorf("state phase = %s, want guard", state.CurrentPhase)
	}
}

func TestMachineHappyPath(t *testing.T) {
	t.Parallel()

	interp, state, _ := newInterpreter(t)

	path := []agent.Phase{
		agent.PhasePerceive,
		agent.PhasePlan,
		agent.PhaseSynthesize,
		agent.PhaseExecute,
		agent.PhaseReflect,
		agent.PhaseDone,
	}
	for _, to := range path {
		if err := interp.Transition(to, ""); err != nil {
			t.Fatalf("Transition(%s) error = %v", to, err)
		}
		if interp.Phase() != to {
			t.Fatalf("phase = %s, want %s", interp.Phase(), to)
		}
	}
	if !interp.IsTerminal() {
		t.Error("IsTerminal() = false at done")
	}
	if !state.IsTerminal() {
		t.Error("state not terminal at done")
	}
}

func TestMachineReviewDetour(t *testing.T) {
	t.Parallel()

	interp, _, _ := newInterpreter(t)

	for _, to := range []agent.Phase{
		agent.PhasePerceive, agent.PhasePlan, agent.PhaseSynthesize,
		agent.PhaseReview, agent.PhaseExecute,
	} {
		if err := interp.Transition(to, "high-risk artifact"); err != nil {
			t.Fatalf("Transition(%s) error = %v", to, err)
		}
	}
	if interp.Phase() != agent.PhaseExecute {
		t.Errorf("phase = %s, want execute after review", interp.Phase())
	}
}

func TestMachineRejectsIllegalEdges(t *testing.T) {
	t.Parallel()

	interp, _, _ := newInterpreter(t)

	var terr *agent.TransitionError
	if err := interp.Transition(agent.PhaseExecute, ""); !errors.As(err, &terr) {
		t.Fatalf("Transition(guard->execute) = %v, want TransitionError", err)
	}
	if interp.Phase() != agent.PhaseGuard {
		t.Errorf("phase moved to %s on a rejected edge", interp.Phase())
	}
}

func TestMachineReflectLoopsToPlan(t *testing.T) {
	t.Parallel()

	interp, _, _ := newInterpreter(t)

	for _, to := range []agent.Phase{
		agent.PhasePerceive, agent.PhasePlan, agent.PhaseSynthesize,
		agent.PhaseExecute, agent.PhaseReflect, agent.PhasePlan,
	} {
		if err := interp.Transition(to, ""); err != nil {
			t.Fatalf("Transition(%s) error = %v", to, err)
		}
	}
	if interp.Phase() != agent.PhasePlan {
		t.Errorf("phase = %s, want plan after reflect loop", interp.Phase())
	}
	if interp.IsTerminal() {
		t.Error("loop edge must not be terminal")
	}
}

func TestMachineReplanEdges(t *testing.T) {
	t.Parallel()

	t.Run("plan loops to itself", func(t *testing.T) {
		t.Parallel()

		interp, _, _ := newInterpreter(t)
		for _, to := range []agent.Phase{agent.PhasePerceive, agent.PhasePlan, agent.PhasePlan} {
			if err := interp.Transition(to, "reasoner fault"); err != nil {
				t.Fatalf("Transition(%s) error = %v", to, err)
			}
		}
		if interp.Phase() != agent.PhasePlan {
			t.Errorf("phase = %s, want plan", interp.Phase())
		}
	})

	t.Run("synthesize replans", func(t *testing.T) {
		t.Parallel()

		interp, _, _ := newInterpreter(t)
		for _, to := range []agent.Phase{
			agent.PhasePerceive, agent.PhasePlan, agent.PhaseSynthesize, agent.PhasePlan,
		} {
			if err := interp.Transition(to, "reasoner fault"); err != nil {
				t.Fatalf("Transition(%s) error = %v", to, err)
			}
		}
		if interp.Phase() != agent.PhasePlan {
			t.Errorf("phase = %s, want plan", interp.Phase())
		}
	})

	t.Run("perceive abandons at the cap", func(t *testing.T) {
		t.Parallel()

		interp, _, _ := newInterpreter(t)
		for _, to := range []agent.Phase{agent.PhasePerceive, agent.PhaseAbandoned} {
			if err := interp.Transition(to, "budget spent"); err != nil {
				t.Fatalf("Transition(%s) error = %v", to, err)
			}
		}
		if !interp.IsTerminal() {
			t.Error("IsTerminal() = false at abandoned")
		}
	})
}

func TestMachineAbandonFromReflect(t *testing.T) {
	t.Parallel()

	interp, state, _ := newInterpreter(t)

	for _, to := range []agent.Phase{
		agent.PhasePerceive, agent.PhasePlan, agent.PhaseSynthesize,
		agent.PhaseExecute, agent.PhaseReflect, agent.PhaseAbandoned,
	} {
		if err := interp.Transition(to, "iteration cap"); err != nil {
			t.Fatalf("Transition(%s) error = %v", to, err)
		}
	}
	if !interp.IsTerminal() || state.CurrentPhase != agent.PhaseAbandoned {
		t.Errorf("phase = %s, terminal = %v", state.CurrentPhase, interp.IsTerminal())
	}
}

func TestMachineRecordsTransitionsInLedger(t *testing.T) {
	t.Parallel()

	interp, _, audit := newInterpreter(t)
	if err := interp.Transition(agent.PhasePerceive, "input clean"); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}

	records := audit.Records()
	if len(records) != 1 {
		t.Fatalf("ledger records = %d, want 1", len(records))
	}
	r := records[0]
	if r.Action != "phase.transition" || r.Details["from"] != "guard" || r.Details["to"] != "perceive" {
		t.Errorf("unexpected transition record %+v", r)
	}
	if r.Details["reason"] != "input clean" {
		t.Errorf("reason = %q", r.Details["reason"])
	}
}

func TestInterpreterResumeFrom(t *testing.T) {
	t.Parallel()

	interp, state, _ := newInterpreter(t)

	// Simulate a session that suspended at review and is being picked up.
	if err := interp.ResumeFrom(agent.PhaseReview); err != nil {
		t.Fatalf("ResumeFrom() error = %v", err)
	}
	if interp.Phase() != agent.PhaseReview || state.CurrentPhase != agent.PhaseReview {
		t.Fatalf("phase = %s after resume, want review", interp.Phase())
	}
	if err := interp.Transition(agent.PhaseExecute, "approved"); err != nil {
		t.Fatalf("Transition after resume error = %v", err)
	}
}

func TestInterpreterResumeFromUnknownPhase(t *testing.T) {
	t.Parallel()

	interp, _, _ := newInterpreter(t)
	if err := interp.ResumeFrom(agent.Phase("limbo")); err == nil {
		t.Fatal("ResumeFrom(limbo) error = nil, want error")
	}
}
