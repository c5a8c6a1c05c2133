package reasoner

import (
	"context"
	"fmt"
	"sync"

	"github.com/praxis-agent/praxis/domain/agent"
)

// Scripted replays pre-recorded outputs per phase, in order. Tests and
// demos drive whole sessions through it deterministically.
type Scripted struct {
	mu      sync.Mutex
	outputs map[agent.Phase][]*Output
	calls   map[agent.Phase]int
	// Fail, when set for a phase, is returned instead of an output until
	// FailuresRemaining hits zero.
	failures map[agent.Phase]int
	failErr  error
}

// NewScripted creates an empty script.
func NewScripted() *Scripted {
	return &Scripted{
		outputs:  make(map[agent.Phase][]*Output),
		calls:    make(map[agent.Phase]int),
		failures: make(map[agent.Phase]int),
	}
}

// On queues an output for a phase. Repeated calls queue in order; the last
// queued output is sticky and replays forever.
func (s *Scripted) On(phase agent.Phase, out *Output) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[phase] = append(s.outputs[phase], out)
	return s
}

// FailTimes makes the next n calls for a phase return err before the
// scripted outputs resume.
func (s *Scripted) FailTimes(phase agent.Phase, n int, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[phase] = n
	s.failErr = err
	return s
}

// Calls reports how many times a phase was reasoned about.
func (s *Scripted) Calls(phase agent.Phase) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[phase]
}

// Reason implements Reasoner.
func (s *Scripted) Reason(ctx context.Context, in Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[in.Phase]++

	if s.failures[in.Phase] > 0 {
		s.failures[in.Phase]--
		return nil, s.failErr
	}

	queue := s.outputs[in.Phase]
	if len(queue) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoOutput, in.Phase)
	}
	out := queue[0]
	if len(queue) > 1 {
		s.outputs[in.Phase] = queue[1:]
	}
	return out, nil
}
