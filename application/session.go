package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/praxis-agent/praxis/domain/agent"
	"github.com/praxis-agent/praxis/domain/capability"
	"github.com/praxis-agent/praxis/domain/ledger"
	"github.com/praxis-agent/praxis/infrastructure/reasoner"
	"github.com/praxis-agent/praxis/infrastructure/sandbox"
	"github.com/praxis-agent/praxis/infrastructure/security/guard"
	"github.com/praxis-agent/praxis/infrastructure/statemachine"
)

// Session is one goal being worked through the cognitive graph. Sessions
// are not safe for concurrent use; run each on a single goroutine.
type Session struct {
	engine *Engine
	state  *agent.State
	interp *statemachine.Interpreter
	cause  agent.StopCause
}

// State returns the session's live state.
func (s *Session) State() *agent.State {
	return s.state
}

// Phase returns the session's current phase.
func (s *Session) Phase() agent.Phase {
	return s.state.CurrentPhase
}

// Run steps the session until it reaches a terminal phase or the context
// ends. A context end fails the session; partial progress stays on the
// state and in the ledger. When review suspends with no decision source,
// Run returns agent.ErrAwaitingApproval and the state stays live for
// Engine.ResumeSession.
func (s *Session) Run(ctx context.Context) (agent.Report, error) {
	for !s.state.IsTerminal() {
		if err := ctx.Err(); err != nil {
			s.fail(agent.NewErrorEntry(s.state.CurrentPhase, agent.ErrorKindRuntime, "session cancelled", s.state.Iteration),
				agent.StopCancelled, "cancelled")
			s.finish()
			return s.state.ReportWith(s.cause), err
		}
		if err := s.Step(ctx); err != nil {
			return s.state.ReportWith(s.cause), err
		}
	}
	s.finish()
	return s.state.ReportWith(s.cause), nil
}

// Step performs the work of the current phase and transitions to the next
// one. Phase-level failures fold into the state and route through the
// graph. Step returns agent.ErrAwaitingApproval when review has no
// decision source, and agent.ErrSessionTerminal past a terminal phase.
func (s *Session) Step(ctx context.Context) error {
	switch s.state.CurrentPhase {
	case agent.PhaseGuard:
		s.stepGuard()
	case agent.PhasePerceive:
		s.stepPerceive(ctx)
	case agent.PhasePlan:
		s.stepPlan(ctx)
	case agent.PhaseSynthesize:
		s.stepSynthesize(ctx)
	case agent.PhaseReview:
		return s.stepReview(ctx)
	case agent.PhaseExecute:
		s.stepExecute(ctx)
	case agent.PhaseReflect:
		s.stepReflect(ctx)
	case agent.PhaseAbstract:
		s.stepAbstract(ctx)
	default:
		return agent.ErrSessionTerminal
	}
	return nil
}

func (s *Session) stepGuard() {
	res := s.engine.guard.Analyze(s.state.Goal)
	if res.Blocked {
		s.state.AppendMessage("agent", fmt.Sprintf(
			"input flagged as potential prompt injection (score %.2f); rephrase the request", res.SuspicionScore))
		s.fail(agent.NewErrorEntry(agent.PhaseGuard, agent.ErrorKindSecurity,
			fmt.Sprintf("input blocked: %v", res.FlaggedPatterns), s.state.Iteration),
			agent.StopSecurity, "injection detected")
		return
	}
	s.transition(agent.PhasePerceive, "input clean")
}

func (s *Session) stepPerceive(ctx context.Context) {
	out, err := s.engine.reasoner.Reason(ctx, reasoner.Input{Phase: agent.PhasePerceive, State: s.state})
	if err != nil {
		s.recoverFault(agent.NewErrorEntry(agent.PhasePerceive, agent.ErrorKindReasoner, err.Error(), s.state.Iteration))
		return
	}
	s.state.ReplaceWorldModel(out.WorldModel)
	if out.Message != "" {
		s.state.AppendMessage("agent", out.Message)
	}
	s.transition(agent.PhasePlan, "world model built")
}

func (s *Session) stepPlan(ctx context.Context) {
	out, err := s.engine.reasoner.Reason(ctx, reasoner.Input{Phase: agent.PhasePlan, State: s.state})
	if err != nil {
		s.recoverFault(agent.NewErrorEntry(agent.PhasePlan, agent.ErrorKindReasoner, err.Error(), s.state.Iteration))
		return
	}
	if err := agent.ValidatePlan(out.Plan); err != nil {
		s.recoverFault(agent.NewErrorEntry(agent.PhasePlan, agent.ErrorKindValidation, err.Error(), s.state.Iteration))
		return
	}
	if out.Hypothesis != "" {
		s.state.ReplaceHypothesis(out.Hypothesis)
	}
	s.state.ReplacePlan(activateNext(out.Plan))
	s.transition(agent.PhaseSynthesize, "plan ready")
}

func (s *Session) stepSynthesize(ctx context.Context) {
	out, err := s.engine.reasoner.Reason(ctx, reasoner.Input{Phase: agent.PhaseSynthesize, State: s.state})
	if err != nil {
		s.recoverFault(agent.NewErrorEntry(agent.PhaseSynthesize, agent.ErrorKindReasoner, err.Error(), s.state.Iteration))
		return
	}
	s.state.ReplaceArtifact(out.Artifact)

	report := guard.ClassifyArtifact(out.Artifact)
	if report.RequiresApproval {
		req := agent.ApprovalRequest{
			Artifact:  out.Artifact,
			RiskLevel: fmt.Sprintf("%d", report.Level),
			Reason:    fmt.Sprintf("matched rules: %v", report.MatchedRules),
			Requested: time.Now(),
		}
		if step := agent.ActiveStep(s.state.Plan); step != nil {
			req.StepID = step.ID
		}
		s.state.PendingApproval = &req
		s.transition(agent.PhaseReview, fmt.Sprintf("risk level %d requires approval", report.Level))
		return
	}
	s.transition(agent.PhaseExecute, "artifact within risk tolerance")
}

func (s *Session) stepReview(ctx context.Context) error {
	req := s.state.PendingApproval
	if req == nil {
		s.transition(agent.PhaseExecute, "nothing pending review")
		return nil
	}

	// The suspension has a hard deadline; an operator who never answers is
	// a denial, not a hang.
	waitCtx, cancel := context.WithTimeout(ctx, s.engine.approvalTimeout)
	defer cancel()

	approved, err := s.engine.approver.Decide(waitCtx, *req)
	if errors.Is(err, agent.ErrAwaitingApproval) {
		// No decision source is attached. The request stays pending so a
		// resumed session can ask again.
		return agent.ErrAwaitingApproval
	}
	reason := "approved by operator"
	if err != nil {
		approved = false
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "approval timed out"
		} else {
			reason = fmt.Sprintf("approval failed: %v", err)
		}
	} else if !approved {
		reason = "denied by operator"
	}

	outcome := ledger.OutcomeAllowed
	if !approved {
		outcome = ledger.OutcomeDenied
	}
	s.record(ledger.CategoryApproval, "approval.decide", outcome, map[string]string{
		"risk":   req.RiskLevel,
		"reason": reason,
	})

	s.state.PendingApproval = nil
	if !approved {
		s.fail(agent.NewErrorEntry(agent.PhaseReview, agent.ErrorKindAuthorization, reason, s.state.Iteration),
			agent.StopEscalated, reason)
		return nil
	}
	s.transition(agent.PhaseExecute, reason)
	return nil
}

func (s *Session) stepExecute(ctx context.Context) {
	var stepID string
	if step := agent.ActiveStep(s.state.Plan); step != nil {
		stepID = step.ID
	}

	token, err := s.engine.authority.Issue(capability.ScopeExecuteCode, s.engine.tokenTTL)
	if err != nil {
		s.fail(s.stepError(agent.PhaseExecute, agent.ErrorKindAuthorization, err.Error(), stepID),
			agent.StopEscalated, "could not mint execute capability")
		return
	}

	module, err := s.engine.compile(s.state.Artifact)
	if err != nil {
		s.fail(s.stepError(agent.PhaseExecute, agent.ErrorKindValidation, err.Error(), stepID),
			agent.StopEscalated, "artifact does not compile")
		return
	}

	result, err := s.engine.sandbox.Execute(ctx, token, sandbox.Request{
		SessionID: s.state.SessionID,
		StepID:    stepID,
		Artifact:  module,
	})

	switch {
	case err == nil:
		s.state.AppendExecution(result)
	case errors.Is(err, sandbox.ErrWallClockExceeded):
		// Partial output from the killed run still matters to reflection.
		s.state.AppendExecution(result)
		s.state.AppendError(s.stepError(agent.PhaseExecute, agent.ErrorKindTimeout, err.Error(), stepID))
	case errors.Is(err, sandbox.ErrProvisionFailed):
		s.state.AppendError(s.stepError(agent.PhaseExecute, agent.ErrorKindResource, err.Error(), stepID))
	default:
		var denied *capability.DeniedError
		kind := agent.ErrorKindRuntime
		if errors.As(err, &denied) {
			kind = agent.ErrorKindAuthorization
		} else {
			s.state.AppendExecution(result)
		}
		s.state.AppendError(s.stepError(agent.PhaseExecute, kind, err.Error(), stepID))
	}

	s.transition(agent.PhaseReflect, "execution finished")
}

func (s *Session) stepReflect(ctx context.Context) {
	out, err := s.engine.reasoner.Reason(ctx, reasoner.Input{Phase: agent.PhaseReflect, State: s.state})
	if err != nil {
		s.recoverFault(agent.NewErrorEntry(agent.PhaseReflect, agent.ErrorKindReasoner, err.Error(), s.state.Iteration))
		return
	}

	var verdict agent.Verdict
	if out.Verdict != nil {
		verdict = *out.Verdict
	}
	if verdict.RevisedHypothesis != "" {
		s.state.ReplaceHypothesis(verdict.RevisedHypothesis)
	}

	step := agent.ActiveStep(s.state.Plan)
	if verdict.Success {
		if step != nil {
			step.Status = agent.StepDone
		}
	} else {
		var stepID string
		if step != nil {
			stepID = step.ID
		}
		msg := verdict.Diagnosis
		if msg == "" {
			msg = "step outcome rejected"
		}
		s.state.AppendError(s.stepError(agent.PhaseReflect, agent.ErrorKindRuntime, msg, stepID))
	}

	s.route(s.engine.policy.AfterReflection(s.state, verdict), verdict)
}

func (s *Session) stepAbstract(ctx context.Context) {
	out, err := s.engine.reasoner.Reason(ctx, reasoner.Input{Phase: agent.PhaseAbstract, State: s.state})
	if err != nil {
		s.recoverFault(agent.NewErrorEntry(agent.PhaseAbstract, agent.ErrorKindReasoner, err.Error(), s.state.Iteration))
		return
	}

	if out.Skill != nil {
		s.state.ReplacePendingSkill(out.Skill)
		token, err := s.engine.authority.Issue(capability.ScopeSkillCommit, s.engine.tokenTTL)
		if err == nil {
			err = s.engine.authority.Validate(token, capability.ScopeSkillCommit)
		}
		if err == nil {
			err = s.engine.skills.Commit(ctx, *out.Skill)
		}
		if err != nil {
			// Losing a skill is a missed optimization, not a failed session.
			s.record(ledger.CategorySkill, "skill.commit", ledger.OutcomeError, map[string]string{
				"skill":  out.Skill.Name,
				"reason": err.Error(),
			})
		} else {
			s.record(ledger.CategorySkill, "skill.commit", ledger.OutcomeAllowed, map[string]string{
				"skill": out.Skill.Name,
			})
			s.state.ReplacePendingSkill(nil)
		}
	}

	s.route(s.engine.policy.AfterAbstract(s.state), agent.Verdict{Success: true})
}

// route applies a policy decision, handling the iteration bookkeeping a
// new cycle implies.
func (s *Session) route(next agent.Phase, verdict agent.Verdict) {
	switch next {
	case agent.PhasePlan:
		s.state.NextIteration()
		s.transition(agent.PhasePlan, fmt.Sprintf("cycle %d", s.state.Iteration))
	case agent.PhaseAbstract:
		s.transition(agent.PhaseAbstract, "artifact judged generalizable")
	case agent.PhaseDone:
		s.cause = agent.StopSuccess
		s.transition(agent.PhaseDone, "goal satisfied")
	case agent.PhaseAbandoned:
		s.cause = agent.StopCapExhausted
		s.state.AppendError(agent.NewErrorEntry(s.state.CurrentPhase, agent.ErrorKindResource,
			agent.ErrIterationCapReached.Error(), s.state.Iteration))
		s.transition(agent.PhaseAbandoned, "iteration cap reached")
	case agent.PhaseFailed:
		cause := agent.StopEscalated
		for _, e := range s.state.ErrorStack {
			if !e.Kind.Recoverable() {
				cause = agent.StopSecurity
				break
			}
		}
		s.cause = cause
		reason := "error escalation"
		if verdict.Diagnosis != "" {
			reason = verdict.Diagnosis
		}
		s.transition(agent.PhaseFailed, reason)
	}
}

// recoverFault folds a recoverable infrastructure fault into the state and
// retries the cycle, bounded by the iteration budget.
func (s *Session) recoverFault(entry agent.ErrorEntry) {
	s.state.AppendError(entry)
	s.route(s.engine.policy.AfterFault(s.state), agent.Verdict{Diagnosis: entry.Message})
}

func (s *Session) fail(entry agent.ErrorEntry, cause agent.StopCause, reason string) {
	s.state.AppendError(entry)
	s.cause = cause
	s.transition(agent.PhaseFailed, reason)
}

func (s *Session) transition(to agent.Phase, reason string) {
	if err := s.interp.Transition(to, reason); err != nil {
		// The graph rejected the edge; that is a programming error in the
		// engine, and the only safe place left is the failed phase.
		s.engine.log.Error().
			Str("session", s.state.SessionID).
			Str("to", to.String()).
			Err(err).
			Msg("illegal phase transition")
		if to != agent.PhaseFailed {
			s.cause = agent.StopEscalated
			_ = s.interp.Transition(agent.PhaseFailed, "illegal transition")
		}
	}
}

func (s *Session) finish() {
	if s.cause == "" {
		s.cause = agent.StopEscalated
	}
	s.record(ledger.CategorySession, "session.end", ledger.OutcomeAllowed, map[string]string{
		"phase":      s.state.CurrentPhase.String(),
		"cause":      string(s.cause),
		"iterations": fmt.Sprintf("%d", s.state.Iteration),
	})
	s.interp.Stop()
}

func (s *Session) record(category ledger.Category, action string, outcome ledger.Outcome, details map[string]string) {
	if details == nil {
		details = map[string]string{}
	}
	details["session"] = s.state.SessionID
	if _, err := s.engine.audit.Append(ledger.Entry{
		Category: category,
		Action:   action,
		Actor:    "engine",
		Outcome:  outcome,
		Details:  details,
	}); err != nil {
		s.engine.log.Error().Str("action", action).Err(err).Msg("audit append failed")
	}
}

func (s *Session) stepError(phase agent.Phase, kind agent.ErrorKind, msg, stepID string) agent.ErrorEntry {
	e := agent.NewErrorEntry(phase, kind, msg, s.state.Iteration)
	e.StepID = stepID
	return e
}

// activateNext marks the first runnable pending step active, leaving an
// already-active plan untouched.
func activateNext(steps []agent.PlanStep) []agent.PlanStep {
	if agent.ActiveStep(steps) != nil {
		return steps
	}
	done := make(map[string]bool, len(steps))
	for _, st := range steps {
		if st.Status == agent.StepDone {
			done[st.ID] = true
		}
	}
	for i := range steps {
		if steps[i].Status != agent.StepPending {
			continue
		}
		ready := true
		for _, dep := range steps[i].DependsOn {
			if !done[dep] {
				ready = false
				break
			}
		}
		if ready {
			steps[i].Status = agent.StepActive
			break
		}
	}
	return steps
}
