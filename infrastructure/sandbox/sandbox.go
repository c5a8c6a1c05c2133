// Package sandbox executes untrusted generated code inside disposable,
// resource-capped environments. Nothing runs without a validated
// execute-code capability, and every provision/teardown is audited.
package sandbox

import (
	"context"
	"errors"
	"io"
	"time"
)

// Ceilings no request may exceed. A caller-supplied profile is clamped to
// these, never the other way around.
const (
	MaxMemoryBytes = 256 * 1024 * 1024
	MaxCPUShares   = 1
	MaxProcesses   = 64
	MaxWallClock   = 30 * time.Second
	MaxOutputBytes = 64 * 1024
	DefaultScratch = "/scratch"
)

var (
	// ErrWallClockExceeded reports a run force-killed at the wall-clock
	// ceiling. Partial output captured before the kill is still returned.
	ErrWallClockExceeded = errors.New("sandbox: wall clock exceeded")

	// ErrProvisionFailed reports that no environment could be created.
	ErrProvisionFailed = errors.New("sandbox: provision failed")

	// ErrInvalidArtifact reports an artifact the runtime cannot load.
	ErrInvalidArtifact = errors.New("sandbox: invalid artifact")
)

// Profile is the resource envelope an environment runs under. The zero
// value is unusable; start from DefaultProfile.
type Profile struct {
	// MemoryBytes caps addressable memory.
	MemoryBytes int64 `json:"memory_bytes" yaml:"memory_bytes"`
	// CPUShares caps compute weight.
	CPUShares int `json:"cpu_shares" yaml:"cpu_shares"`
	// MaxProcesses caps concurrent processes/threads inside the environment.
	MaxProcesses int `json:"max_processes" yaml:"max_processes"`
	// WallClock caps total run time; the environment is force-killed at it.
	WallClock time.Duration `json:"wall_clock" yaml:"wall_clock"`
	// NetworkEnabled is always false for generated code.
	NetworkEnabled bool `json:"network_enabled" yaml:"network_enabled"`
	// ReadOnlyRoot mounts everything read-only except ScratchPath.
	ReadOnlyRoot bool `json:"read_only_root" yaml:"read_only_root"`
	// ScratchPath is the single writable path inside the environment.
	ScratchPath string `json:"scratch_path" yaml:"scratch_path"`
	// Privileged is always false: code runs as an unprivileged identity.
	Privileged bool `json:"privileged" yaml:"privileged"`
	// OutputBytes caps captured bytes per stream; excess is discarded and
	// the result flagged truncated.
	OutputBytes int `json:"output_bytes" yaml:"output_bytes"`
}

// DefaultProfile returns the standard envelope at the ceilings.
func DefaultProfile() Profile {
	return Profile{
		MemoryBytes:  MaxMemoryBytes,
		CPUShares:    MaxCPUShares,
		MaxProcesses: MaxProcesses,
		WallClock:    MaxWallClock,
		ReadOnlyRoot: true,
		ScratchPath:  DefaultScratch,
		OutputBytes:  MaxOutputBytes,
	}
}

// Clamp forces the profile inside the ceilings. Unset fields get defaults;
// oversized fields are cut down; network and privilege are always off.
func (p Profile) Clamp() Profile {
	d := DefaultProfile()
	if p.MemoryBytes <= 0 || p.MemoryBytes > d.MemoryBytes {
		p.MemoryBytes = d.MemoryBytes
	}
	if p.CPUShares <= 0 || p.CPUShares > d.CPUShares {
		p.CPUShares = d.CPUShares
	}
	if p.MaxProcesses <= 0 || p.MaxProcesses > d.MaxProcesses {
		p.MaxProcesses = d.MaxProcesses
	}
	if p.WallClock <= 0 || p.WallClock > d.WallClock {
		p.WallClock = d.WallClock
	}
	if p.OutputBytes <= 0 || p.OutputBytes > d.OutputBytes {
		p.OutputBytes = d.OutputBytes
	}
	if p.ScratchPath == "" {
		p.ScratchPath = d.ScratchPath
	}
	p.NetworkEnabled = false
	p.Privileged = false
	p.ReadOnlyRoot = true
	return p
}

// Request is one execution of an untrusted artifact. Immutable once built;
// results are delivered separately, the request is never annotated.
type Request struct {
	SessionID string
	StepID    string
	// Artifact is the compiled module to run.
	Artifact []byte
}

// Environment is a single-use execution container. Run may be called once;
// Teardown releases all resources and is safe to call more than once, but
// implementations release only on the first call.
type Environment interface {
	// ID identifies the environment in audit records.
	ID() string
	// Run executes the artifact, streaming output to the given writers.
	// It returns the guest exit code. A context deadline force-kills the
	// guest; Run then returns the context error.
	Run(ctx context.Context, stdout, stderr io.Writer) (int, error)
	// Teardown destroys the environment.
	Teardown(ctx context.Context) error
}

// Provisioner creates fresh environments. One request, one environment:
// implementations never pool or reuse.
type Provisioner interface {
	Provision(ctx context.Context, profile Profile, artifact []byte) (Environment, error)
}
