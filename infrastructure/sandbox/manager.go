package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/praxis-agent/praxis/domain/agent"
	"github.com/praxis-agent/praxis/domain/capability"
	"github.com/praxis-agent/praxis/domain/ledger"
)

// Manager drives the execution lifecycle: authorize, provision, run under
// the wall-clock ceiling, capture capped output, tear down exactly once,
// and audit each stage. A request that fails authorization never reaches
// the provisioner.
type Manager struct {
	provisioner Provisioner
	authority   *capability.Authority
	audit       *ledger.Ledger
	profile     Profile
	log         *bolt.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithProfile overrides the default resource profile. The profile is
// clamped to the hard ceilings regardless of what is passed.
func WithProfile(p Profile) ManagerOption {
	return func(m *Manager) { m.profile = p }
}

// WithLogger attaches a structured logger.
func WithLogger(log *bolt.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// NewManager wires a provisioner to the capability authority and ledger.
func NewManager(p Provisioner, authority *capability.Authority, audit *ledger.Ledger, opts ...ManagerOption) (*Manager, error) {
	if p == nil {
		return nil, errors.New("sandbox: nil provisioner")
	}
	if authority == nil {
		return nil, errors.New("sandbox: nil authority")
	}
	if audit == nil {
		return nil, errors.New("sandbox: nil ledger")
	}
	m := &Manager{
		provisioner: p,
		authority:   authority,
		audit:       audit,
		profile:     DefaultProfile(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.profile = m.profile.Clamp()
	if m.log == nil {
		m.log = bolt.New(bolt.NewJSONHandler(discard{}))
	}
	return m, nil
}

// Profile returns the clamped profile executions run under.
func (m *Manager) Profile() Profile {
	return m.profile
}

// Execute runs one artifact in a fresh environment. On a wall-clock kill
// the returned result carries the output captured so far and the error is
// ErrWallClockExceeded. Teardown runs on every path, including panics in
// the provisioned environment's Run.
func (m *Manager) Execute(ctx context.Context, token capability.Token, req Request) (agent.ExecutionResult, error) {
	start := time.Now()

	if err := m.authority.Validate(token, capability.ScopeExecuteCode); err != nil {
		return agent.ExecutionResult{}, err
	}

	env, err := m.provisioner.Provision(ctx, m.profile, req.Artifact)
	if err != nil {
		m.record("sandbox.provision", "", req, ledger.OutcomeError, err.Error())
		return agent.ExecutionResult{}, fmt.Errorf("%w: %v", ErrProvisionFailed, err)
	}
	m.record("sandbox.provision", env.ID(), req, ledger.OutcomeAllowed, "")

	// Teardown must happen exactly once on every path. The sync.Once guards
	// against an Environment that also tears itself down on kill.
	var once sync.Once
	teardown := func() {
		once.Do(func() {
			// Teardown gets its own context: the run context is usually
			// already expired when we arrive here after a timeout.
			tctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if terr := env.Teardown(tctx); terr != nil {
				m.record("sandbox.teardown", env.ID(), req, ledger.OutcomeError, terr.Error())
				m.log.Error().Str("environment", env.ID()).Err(terr).Msg("sandbox teardown failed")
				return
			}
			m.record("sandbox.teardown", env.ID(), req, ledger.OutcomeAllowed, "")
		})
	}
	defer teardown()

	stdout := NewCappedBuffer(m.profile.OutputBytes)
	stderr := NewCappedBuffer(m.profile.OutputBytes)

	runCtx, cancel := context.WithTimeout(ctx, m.profile.WallClock)
	defer cancel()

	exitCode, runErr := env.Run(runCtx, stdout, stderr)

	result := agent.ExecutionResult{
		ExitCode:        exitCode,
		Stdout:          stdout.String(),
		Stderr:          stderr.String(),
		Duration:        time.Since(start),
		StdoutTruncated: stdout.Truncated(),
		StderrTruncated: stderr.Truncated(),
	}

	if runErr != nil {
		if errors.Is(runErr, context.DeadlineExceeded) && ctx.Err() == nil {
			m.record("sandbox.run", env.ID(), req, ledger.OutcomeError, "wall clock exceeded")
			result.ExitCode = -1
			return result, ErrWallClockExceeded
		}
		m.record("sandbox.run", env.ID(), req, ledger.OutcomeError, runErr.Error())
		return result, fmt.Errorf("sandbox run: %w", runErr)
	}

	m.record("sandbox.run", env.ID(), req, ledger.OutcomeAllowed, "")
	m.log.Debug().
		Str("environment", env.ID()).
		Str("session", req.SessionID).
		Int("exit_code", result.ExitCode).
		Int64("duration_ms", result.Duration.Milliseconds()).
		Msg("sandbox run complete")
	return result, nil
}

func (m *Manager) record(action, envID string, req Request, outcome ledger.Outcome, reason string) {
	details := map[string]string{"session": req.SessionID}
	if req.StepID != "" {
		details["step"] = req.StepID
	}
	if envID != "" {
		details["environment"] = envID
	}
	if reason != "" {
		details["reason"] = reason
	}
	if _, err := m.audit.Append(ledger.Entry{
		Category: ledger.CategorySandbox,
		Action:   action,
		Actor:    "sandbox-manager",
		Outcome:  outcome,
		Details:  details,
	}); err != nil {
		m.log.Error().Str("action", action).Err(err).Msg("audit append failed")
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
