package agent

import (
	"time"

	"github.com/praxis-agent/praxis/domain/skill"
)

// Message is one entry in the append-only conversation history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// WorldModel is the structured snapshot of the environment, replaced
// wholesale by each perception phase.
type WorldModel struct {
	Files        map[string]string `json:"files,omitempty"`
	Resources    map[string]string `json:"resources,omitempty"`
	Constraints  []string          `json:"constraints,omitempty"`
	Observations []string          `json:"observations,omitempty"`
}

// ApprovalRequest is set on the state while the session is suspended at the
// review phase waiting for an external decision.
type ApprovalRequest struct {
	StepID    string    `json:"step_id,omitempty"`
	Artifact  string    `json:"artifact"`
	RiskLevel string    `json:"risk_level"`
	Reason    string    `json:"reason,omitempty"`
	Requested time.Time `json:"requested"`
}

// State is the single mutable record threaded through the cognitive graph.
//
// Fields fall into two merge classes. Append fields (Messages, ExecutionLog,
// ErrorStack) are concatenated in arrival order and never truncated here;
// callers may summarize them, the engine treats them as logs. Replace fields
// (WorldModel, Hypothesis, Plan, Artifact, PendingSkill, CurrentPhase) are
// overwritten wholesale each time their owning phase runs. Mixing the two
// classes silently corrupts state history, so mutation goes through the
// Append*/Replace* methods below.
type State struct {
	SessionID string `json:"session_id"`
	Goal      string `json:"goal"`

	Messages     []Message         `json:"messages"`       // append
	WorldModel   *WorldModel       `json:"world_model"`    // replace
	Hypothesis   string            `json:"hypothesis"`     // replace
	Plan         []PlanStep        `json:"plan"`           // replace
	Artifact     string            `json:"artifact"`       // replace
	ExecutionLog []ExecutionResult `json:"execution_log"`  // append
	PendingSkill *skill.Candidate  `json:"pending_skill"`  // replace
	ErrorStack   []ErrorEntry      `json:"error_stack"`    // append
	Iteration    int               `json:"iteration"`      // monotonic
	CurrentPhase Phase             `json:"current_phase"`  // replace

	PendingApproval *ApprovalRequest `json:"pending_approval,omitempty"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

// NewState creates a fresh state for a new session.
func NewState(sessionID, goal string) *State {
	return &State{
		SessionID:    sessionID,
		Goal:         goal,
		Messages:     make([]Message, 0),
		ExecutionLog: make([]ExecutionResult, 0),
		ErrorStack:   make([]ErrorEntry, 0),
		CurrentPhase: PhaseGuard,
		StartTime:    time.Now(),
	}
}

// AppendMessage adds a message to the conversation history.
func (s *State) AppendMessage(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, Timestamp: time.Now()})
}

// AppendExecution adds an execution result to the log.
func (s *State) AppendExecution(r ExecutionResult) {
	s.ExecutionLog = append(s.ExecutionLog, r)
}

// AppendError pushes a failure record onto the error stack. The stack is
// never cleared; Reflection uses it to detect repeated-failure loops.
func (s *State) AppendError(e ErrorEntry) {
	s.ErrorStack = append(s.ErrorStack, e)
}

// ReplaceWorldModel overwrites the world model wholesale.
func (s *State) ReplaceWorldModel(wm *WorldModel) {
	s.WorldModel = wm
}

// ReplaceHypothesis overwrites the working hypothesis.
func (s *State) ReplaceHypothesis(h string) {
	s.Hypothesis = h
}

// ReplacePlan overwrites the plan wholesale.
func (s *State) ReplacePlan(steps []PlanStep) {
	s.Plan = steps
}

// ReplaceArtifact overwrites the synthesized code artifact.
func (s *State) ReplaceArtifact(code string) {
	s.Artifact = code
}

// ReplacePendingSkill overwrites the skill candidate under evaluation.
func (s *State) ReplacePendingSkill(c *skill.Candidate) {
	s.PendingSkill = c
}

// EnterPhase records the phase the session is currently in.
func (s *State) EnterPhase(p Phase) {
	s.CurrentPhase = p
	if p.IsTerminal() {
		s.EndTime = time.Now()
	}
}

// NextIteration advances the monotonic iteration counter. It is called once
// per full cycle, when the graph routes back to planning.
func (s *State) NextIteration() {
	s.Iteration++
}

// LastExecution returns the most recent execution result, or nil.
func (s *State) LastExecution() *ExecutionResult {
	if len(s.ExecutionLog) == 0 {
		return nil
	}
	r := s.ExecutionLog[len(s.ExecutionLog)-1]
	return &r
}

// ErrorCount returns the number of stack entries recorded in the given phase.
func (s *State) ErrorCount(phase Phase) int {
	n := 0
	for _, e := range s.ErrorStack {
		if e.Phase == phase {
			n++
		}
	}
	return n
}

// StepFailureCount returns the number of failed attempts recorded against
// the given plan step. An attempt is judged once, at reflection; execution
// entries describe the same attempt and are not counted again.
func (s *State) StepFailureCount(stepID string) int {
	n := 0
	for _, e := range s.ErrorStack {
		if e.StepID == stepID && e.Phase == PhaseReflect && e.Kind.Recoverable() {
			n++
		}
	}
	return n
}

// IsTerminal reports whether the session has reached a terminal phase.
func (s *State) IsTerminal() bool {
	return s.CurrentPhase.IsTerminal()
}

// Duration returns how long the session has run.
func (s *State) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// StopCause explains why a session reached a terminal phase.
type StopCause string

const (
	StopSuccess      StopCause = "success"
	StopCapExhausted StopCause = "cap_exhausted"
	StopSecurity     StopCause = "security_fault"
	StopEscalated    StopCause = "error_escalation"
	StopCancelled    StopCause = "cancelled"
)

// Report summarizes a terminal session for the caller: where it stopped,
// why, and the accumulated error history.
type Report struct {
	Phase     Phase        `json:"phase"`
	Cause     StopCause    `json:"cause"`
	Iteration int          `json:"iteration"`
	Errors    []ErrorEntry `json:"errors"`
}

// ReportWith builds a terminal report with the given cause.
func (s *State) ReportWith(cause StopCause) Report {
	errs := make([]ErrorEntry, len(s.ErrorStack))
	copy(errs, s.ErrorStack)
	return Report{
		Phase:     s.CurrentPhase,
		Cause:     cause,
		Iteration: s.Iteration,
		Errors:    errs,
	}
}
