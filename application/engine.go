// Package application provides the application layer for the praxis
// runtime: the engine that drives sessions through the cognitive graph.
package application

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/google/uuid"

	"github.com/praxis-agent/praxis/domain/agent"
	"github.com/praxis-agent/praxis/domain/capability"
	"github.com/praxis-agent/praxis/domain/ledger"
	"github.com/praxis-agent/praxis/domain/skill"
	"github.com/praxis-agent/praxis/infrastructure/logging"
	"github.com/praxis-agent/praxis/infrastructure/reasoner"
	"github.com/praxis-agent/praxis/infrastructure/sandbox"
	"github.com/praxis-agent/praxis/infrastructure/security/guard"
	"github.com/praxis-agent/praxis/infrastructure/statemachine"
	"github.com/praxis-agent/praxis/infrastructure/storage/memory"
)

// Compiler translates a synthesized artifact into a module the sandbox can
// run. The default passes the artifact bytes through untouched.
type Compiler func(artifact string) ([]byte, error)

// Config contains the engine's collaborators and tuning.
type Config struct {
	Reasoner  reasoner.Reasoner
	Sandbox   *sandbox.Manager
	Authority *capability.Authority
	Ledger    *ledger.Ledger
	Guard     *guard.Guard
	Skills    skill.Store
	Approver  Approver
	Compiler  Compiler
	Policy    agent.RoutePolicy
	// ApprovalTimeout bounds a review suspension; expiry denies.
	ApprovalTimeout time.Duration
	// TokenTTL bounds the capability minted per execution.
	TokenTTL time.Duration
	Logger   *bolt.Logger
}

// Engine orchestrates sessions. It owns no session state itself; each
// NewSession call creates an isolated state machine over shared,
// concurrency-safe collaborators.
type Engine struct {
	reasoner        reasoner.Reasoner
	sandbox         *sandbox.Manager
	authority       *capability.Authority
	audit           *ledger.Ledger
	guard           *guard.Guard
	skills          skill.Store
	approver        Approver
	compile         Compiler
	policy          agent.RoutePolicy
	approvalTimeout time.Duration
	tokenTTL        time.Duration
	log             *bolt.Logger
}

// NewEngine creates an engine with the given configuration.
func NewEngine(config Config) (*Engine, error) {
	if config.Reasoner == nil {
		return nil, errors.New("reasoner is required")
	}
	if config.Sandbox == nil {
		return nil, errors.New("sandbox manager is required")
	}
	if config.Authority == nil {
		return nil, errors.New("capability authority is required")
	}
	if config.Ledger == nil {
		return nil, errors.New("ledger is required")
	}

	e := &Engine{
		reasoner:        config.Reasoner,
		sandbox:         config.Sandbox,
		authority:       config.Authority,
		audit:           config.Ledger,
		guard:           config.Guard,
		skills:          config.Skills,
		approver:        config.Approver,
		compile:         config.Compiler,
		policy:          config.Policy,
		approvalTimeout: config.ApprovalTimeout,
		tokenTTL:        config.TokenTTL,
		log:             config.Logger,
	}

	// Set defaults
	if e.guard == nil {
		e.guard = guard.New(e.audit)
	}
	if e.skills == nil {
		e.skills = memory.NewSkillStore()
	}
	if e.approver == nil {
		e.approver = DenyApprover{}
	}
	if e.compile == nil {
		e.compile = func(artifact string) ([]byte, error) {
			return []byte(artifact), nil
		}
	}
	if e.policy.MaxIterations <= 0 || e.policy.MaxRetriesPerStep <= 0 {
		e.policy = agent.DefaultRoutePolicy()
	}
	if e.approvalTimeout <= 0 {
		e.approvalTimeout = 5 * time.Minute
	}
	if e.tokenTTL <= 0 {
		e.tokenTTL = time.Minute
	}
	if e.log == nil {
		e.log = logging.Silent()
	}

	return e, nil
}

// NewSession creates a session for the given goal, positioned at the
// guard phase.
func (e *Engine) NewSession(goal string) (*Session, error) {
	machine, err := statemachine.NewCognitiveMachine()
	if err != nil {
		return nil, err
	}

	state := agent.NewState(uuid.NewString(), goal)
	state.AppendMessage("user", goal)

	interp := statemachine.NewInterpreter(machine, statemachine.NewContext(state, e.audit))
	interp.Start()

	if _, err := e.audit.Append(ledger.Entry{
		Category: ledger.CategorySession,
		Action:   "session.start",
		Actor:    "engine",
		Outcome:  ledger.OutcomeAllowed,
		Details:  map[string]string{"session": state.SessionID},
	}); err != nil {
		return nil, err
	}

	return &Session{engine: e, state: state, interp: interp}, nil
}

// ResumeSession rebuilds a session around a previously saved state, restoring
// the machine to the state's phase without replaying the path there. The
// usual caller holds a session that returned agent.ErrAwaitingApproval and
// now has a deciding approver attached.
func (e *Engine) ResumeSession(state *agent.State) (*Session, error) {
	if state == nil {
		return nil, errors.New("state is required")
	}
	if state.IsTerminal() {
		return nil, agent.ErrSessionTerminal
	}

	machine, err := statemachine.NewCognitiveMachine()
	if err != nil {
		return nil, err
	}

	// Start positions the machine at guard and overwrites the state's phase;
	// capture the saved phase first.
	phase := state.CurrentPhase
	interp := statemachine.NewInterpreter(machine, statemachine.NewContext(state, e.audit))
	interp.Start()
	if err := interp.ResumeFrom(phase); err != nil {
		return nil, err
	}

	if _, err := e.audit.Append(ledger.Entry{
		Category: ledger.CategorySession,
		Action:   "session.resume",
		Actor:    "engine",
		Outcome:  ledger.OutcomeAllowed,
		Details:  map[string]string{"session": state.SessionID, "phase": phase.String()},
	}); err != nil {
		return nil, err
	}

	return &Session{engine: e, state: state, interp: interp}, nil
}
