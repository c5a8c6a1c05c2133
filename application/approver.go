package application

import (
	"context"

	"github.com/praxis-agent/praxis/domain/agent"
)

// Approver resolves a review suspension. Implementations block until a
// decision exists or ctx ends; the engine applies the approval timeout and
// treats its expiry as denial.
type Approver interface {
	Decide(ctx context.Context, req agent.ApprovalRequest) (bool, error)
}

// AutoApprover approves every request. For tests and unattended demos.
type AutoApprover struct{}

// Decide implements Approver.
func (AutoApprover) Decide(context.Context, agent.ApprovalRequest) (bool, error) {
	return true, nil
}

// DenyApprover rejects every request. The default when no operator
// surface is wired: high-risk artifacts simply never run.
type DenyApprover struct{}

// Decide implements Approver.
func (DenyApprover) Decide(context.Context, agent.ApprovalRequest) (bool, error) {
	return false, nil
}

// PendingApprover has no decision source at all: every request suspends the
// session with agent.ErrAwaitingApproval. The caller persists the state and
// resumes it through Engine.ResumeSession once an approver exists.
type PendingApprover struct{}

// Decide implements Approver.
func (PendingApprover) Decide(context.Context, agent.ApprovalRequest) (bool, error) {
	return false, agent.ErrAwaitingApproval
}

// ChannelApprover resolves decisions from a channel, the way an operator
// surface (chat gateway, CLI prompt) feeds them in.
type ChannelApprover struct {
	Decisions <-chan bool
}

// Decide implements Approver.
func (a ChannelApprover) Decide(ctx context.Context, _ agent.ApprovalRequest) (bool, error) {
	select {
	case approved, ok := <-a.Decisions:
		if !ok {
			return false, nil
		}
		return approved, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
