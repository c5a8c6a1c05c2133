package sandbox_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/praxis-agent/praxis/domain/capability"
	"github.com/praxis-agent/praxis/domain/ledger"
	"github.com/praxis-agent/praxis/infrastructure/sandbox"
)

func newManager(t *testing.T, p *sandbox.FakeProvisioner, opts ...sandbox.ManagerOption) (*sandbox.Manager, *capability.Authority, *ledger.Ledger) {
	t.Helper()
	audit := ledger.New()
	authority, err := capability.NewAuthority([]byte("key"), "test", audit)
	if err != nil {
		t.Fatalf("NewAuthority() error = %v", err)
	}
	m, err := sandbox.NewManager(p, authority, audit, opts...)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m, authority, audit
}

func executeToken(t *testing.T, a *capability.Authority) capability.Token {
	t.Helper()
	tok, err := a.Issue(capability.ScopeExecuteCode, time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return tok
}

func TestExecuteCapturesOutput(t *testing.T) {
	t.Parallel()

	prov := sandbox.NewFakeProvisioner(sandbox.Script{Stdout: "hello", Stderr: "warn", ExitCode: 0})
	m, authority, _ := newManager(t, prov)

	res, err := m.Execute(context.Background(), executeToken(t, authority), sandbox.Request{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Stdout != "hello" || res.Stderr != "warn" {
		t.Errorf("captured (%q, %q), want (hello, warn)", res.Stdout, res.Stderr)
	}
	if !res.Succeeded() {
		t.Error("exit 0 should succeed")
	}
}

func TestExecuteDeniedWithoutToken(t *testing.T) {
	t.Parallel()

	prov := sandbox.NewFakeProvisioner(sandbox.Script{})
	m, authority, _ := newManager(t, prov)

	// A token for the wrong scope must be rejected before anything is
	// provisioned.
	tok, err := authority.Issue(capability.ScopeFileWrite, time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	_, err = m.Execute(context.Background(), tok, sandbox.Request{SessionID: "s1"})
	var denied *capability.DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("Execute() = %v, want DeniedError", err)
	}
	if prov.Provisioned() != 0 {
		t.Errorf("provisioned %d environments after denial, want 0", prov.Provisioned())
	}
}

func TestTeardownMatchesProvision(t *testing.T) {
	t.Parallel()

	prov := sandbox.NewFakeProvisioner(sandbox.Script{Stdout: "ok"})
	m, authority, _ := newManager(t, prov)
	tok := executeToken(t, authority)

	const runs = 5
	for i := 0; i < runs; i++ {
		if _, err := m.Execute(context.Background(), tok, sandbox.Request{SessionID: "s1"}); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}
	if prov.Provisioned() != runs || prov.TornDown() != runs {
		t.Errorf("provisioned %d, torn down %d, want %d each", prov.Provisioned(), prov.TornDown(), runs)
	}
}

func TestTeardownRunsOnFailure(t *testing.T) {
	t.Parallel()

	prov := sandbox.NewFakeProvisioner(sandbox.Script{ExitCode: -1, Err: errors.New("guest crashed")})
	m, authority, _ := newManager(t, prov)

	_, err := m.Execute(context.Background(), executeToken(t, authority), sandbox.Request{SessionID: "s1"})
	if err == nil {
		t.Fatal("Execute() error = nil, want run failure")
	}
	if prov.TornDown() != 1 {
		t.Errorf("torn down %d, want 1 on the failure path", prov.TornDown())
	}
}

func TestWallClockKillReturnsPartialOutput(t *testing.T) {
	t.Parallel()

	prov := sandbox.NewFakeProvisioner(sandbox.Script{Stdout: "partial progress", BlockUntilDeadline: true})
	m, authority, _ := newManager(t, prov, sandbox.WithProfile(sandbox.Profile{WallClock: 50 * time.Millisecond}))

	start := time.Now()
	res, err := m.Execute(context.Background(), executeToken(t, authority), sandbox.Request{SessionID: "s1"})
	if !errors.Is(err, sandbox.ErrWallClockExceeded) {
		t.Fatalf("Execute() = %v, want ErrWallClockExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("kill took %v, ceiling not enforced", elapsed)
	}
	if res.Stdout != "partial progress" {
		t.Errorf("partial stdout = %q, want output captured before the kill", res.Stdout)
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1 for a killed guest", res.ExitCode)
	}
	if prov.TornDown() != 1 {
		t.Error("killed environment was not torn down")
	}
}

func TestOutputTruncation(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("x", sandbox.MaxOutputBytes+100)
	prov := sandbox.NewFakeProvisioner(sandbox.Script{Stdout: big})
	m, authority, _ := newManager(t, prov)

	res, err := m.Execute(context.Background(), executeToken(t, authority), sandbox.Request{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Stdout) != sandbox.MaxOutputBytes {
		t.Errorf("stdout length = %d, want capped at %d", len(res.Stdout), sandbox.MaxOutputBytes)
	}
	if !res.StdoutTruncated {
		t.Error("StdoutTruncated = false, want true")
	}
	if res.StderrTruncated {
		t.Error("StderrTruncated = true for empty stderr")
	}
}

func TestProvisionFailureIsAudited(t *testing.T) {
	t.Parallel()

	prov := sandbox.NewFakeProvisioner(sandbox.Script{})
	prov.FailProvision(errors.New("no capacity"))
	m, authority, audit := newManager(t, prov)

	_, err := m.Execute(context.Background(), executeToken(t, authority), sandbox.Request{SessionID: "s1"})
	if !errors.Is(err, sandbox.ErrProvisionFailed) {
		t.Fatalf("Execute() = %v, want ErrProvisionFailed", err)
	}

	var found bool
	for _, r := range audit.Records() {
		if r.Action == "sandbox.provision" && r.Outcome == ledger.OutcomeError {
			found = true
		}
	}
	if !found {
		t.Error("provision failure missing from audit chain")
	}
}

func TestProfileClamp(t *testing.T) {
	t.Parallel()

	oversized := sandbox.Profile{
		MemoryBytes:    1 << 40,
		CPUShares:      64,
		MaxProcesses:   10_000,
		WallClock:      time.Hour,
		OutputBytes:    1 << 30,
		NetworkEnabled: true,
		Privileged:     true,
	}
	p := oversized.Clamp()
	d := sandbox.DefaultProfile()

	if p.MemoryBytes != d.MemoryBytes || p.CPUShares != d.CPUShares ||
		p.MaxProcesses != d.MaxProcesses || p.WallClock != d.WallClock ||
		p.OutputBytes != d.OutputBytes {
		t.Errorf("Clamp() = %+v, ceilings not enforced", p)
	}
	if p.NetworkEnabled || p.Privileged || !p.ReadOnlyRoot {
		t.Error("Clamp() must force network off, privilege off, rootfs read-only")
	}

	// A manager created with an oversized profile runs under the ceilings.
	prov := sandbox.NewFakeProvisioner(sandbox.Script{})
	m, _, _ := newManager(t, prov, sandbox.WithProfile(oversized))
	if m.Profile().WallClock != d.WallClock {
		t.Error("manager accepted a wall clock above the ceiling")
	}
}

func TestCappedBuffer(t *testing.T) {
	t.Parallel()

	b := sandbox.NewCappedBuffer(8)
	n, err := b.Write([]byte("12345"))
	if n != 5 || err != nil {
		t.Fatalf("Write() = (%d, %v), want (5, nil)", n, err)
	}
	n, err = b.Write([]byte("67890"))
	if n != 5 || err != nil {
		t.Fatalf("Write() = (%d, %v), want full length consumed", n, err)
	}
	if got := b.String(); got != "12345678" {
		t.Errorf("String() = %q, want first 8 bytes", got)
	}
	if !b.Truncated() {
		t.Error("Truncated() = false after overflow")
	}
}
