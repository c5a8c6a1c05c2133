package resilience_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/praxis-agent/praxis/domain/agent"
	"github.com/praxis-agent/praxis/infrastructure/reasoner"
	"github.com/praxis-agent/praxis/infrastructure/resilience"
)

type flakyReasoner struct {
	calls    atomic.Int64
	failures int64
	out      *reasoner.Output
}

func (f *flakyReasoner) Reason(ctx context.Context, _ reasoner.Input) (*reasoner.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := f.calls.Add(1)
	if n <= f.failures {
		return nil, errors.New("transient reasoner fault")
	}
	return f.out, nil
}

func fastConfig() resilience.Config {
	cfg := resilience.DefaultConfig()
	cfg.RetryInitialDelay = time.Millisecond
	cfg.CallTimeout = time.Second
	return cfg
}

func TestExecutorRetriesTransientFaults(t *testing.T) {
	t.Parallel()

	inner := &flakyReasoner{failures: 2, out: &reasoner.Output{Hypothesis: "recovered"}}
	exec := resilience.NewExecutor(inner, fastConfig())

	out, err := exec.Reason(context.Background(), reasoner.Input{Phase: agent.PhasePlan})
	if err != nil {
		t.Fatalf("Reason() error = %v", err)
	}
	if out.Hypothesis != "recovered" {
		t.Errorf("Hypothesis = %q, want recovered output", out.Hypothesis)
	}
	if got := inner.calls.Load(); got != 3 {
		t.Errorf("inner calls = %d, want 3 (two failures, one success)", got)
	}
}

func TestExecutorGivesUpAfterRetryBudget(t *testing.T) {
	t.Parallel()

	inner := &flakyReasoner{failures: 100}
	exec := resilience.NewExecutor(inner, fastConfig())

	if _, err := exec.Reason(context.Background(), reasoner.Input{Phase: agent.PhasePlan}); err == nil {
		t.Fatal("Reason() error = nil, want failure after retry budget")
	}
	if got := inner.calls.Load(); got != 3 {
		t.Errorf("inner calls = %d, want retry budget of 3", got)
	}
}

func TestExecutorHonorsCancellation(t *testing.T) {
	t.Parallel()

	inner := &flakyReasoner{out: &reasoner.Output{}}
	exec := resilience.NewExecutor(inner, fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := exec.Reason(ctx, reasoner.Input{Phase: agent.PhasePlan}); err == nil {
		t.Fatal("Reason() error = nil on cancelled context")
	}
}
