package sandbox

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Script tells a fake environment what to do when run. Used by tests and
// demos that need sandbox lifecycle behavior without a real runtime.
type Script struct {
	// Stdout and Stderr are written before Run returns.
	Stdout string
	Stderr string
	// ExitCode is the reported guest exit code.
	ExitCode int
	// Err, if set, is returned after the output is written.
	Err error
	// BlockUntilDeadline makes Run write Stdout and then hang until the
	// context ends, simulating a guest that never finishes.
	BlockUntilDeadline bool
}

// FakeProvisioner hands out scripted environments and counts lifecycle
// events, so tests can assert provision/teardown pairing.
type FakeProvisioner struct {
	mu           sync.Mutex
	script       Script
	provisionErr error

	provisioned atomic.Int64
	tornDown    atomic.Int64
}

// NewFakeProvisioner creates a provisioner whose environments follow the
// given script.
func NewFakeProvisioner(script Script) *FakeProvisioner {
	return &FakeProvisioner{script: script}
}

// FailProvision makes subsequent Provision calls fail with err.
func (p *FakeProvisioner) FailProvision(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.provisionErr = err
}

// SetScript replaces the script for subsequent environments.
func (p *FakeProvisioner) SetScript(s Script) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = s
}

// Provision implements Provisioner.
func (p *FakeProvisioner) Provision(_ context.Context, _ Profile, _ []byte) (Environment, error) {
	p.mu.Lock()
	script, perr := p.script, p.provisionErr
	p.mu.Unlock()
	if perr != nil {
		return nil, perr
	}
	n := p.provisioned.Add(1)
	return &fakeEnv{
		id:       fmt.Sprintf("fake-env-%d", n),
		script:   script,
		tornDown: &p.tornDown,
	}, nil
}

// Provisioned returns how many environments were created.
func (p *FakeProvisioner) Provisioned() int64 { return p.provisioned.Load() }

// TornDown returns how many environments were destroyed. Repeated teardown
// of the same environment counts once.
func (p *FakeProvisioner) TornDown() int64 { return p.tornDown.Load() }

type fakeEnv struct {
	id       string
	script   Script
	tornDown *atomic.Int64
	once     sync.Once
}

func (e *fakeEnv) ID() string { return e.id }

func (e *fakeEnv) Run(ctx context.Context, stdout, stderr io.Writer) (int, error) {
	if e.script.Stdout != "" {
		_, _ = io.WriteString(stdout, e.script.Stdout)
	}
	if e.script.Stderr != "" {
		_, _ = io.WriteString(stderr, e.script.Stderr)
	}
	if e.script.BlockUntilDeadline {
		<-ctx.Done()
		return -1, ctx.Err()
	}
	if e.script.Err != nil {
		return e.script.ExitCode, e.script.Err
	}
	return e.script.ExitCode, nil
}

func (e *fakeEnv) Teardown(context.Context) error {
	e.once.Do(func() { e.tornDown.Add(1) })
	return nil
}
