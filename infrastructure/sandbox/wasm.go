package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

// WazeroProvisioner creates one disposable WASM runtime per request. The
// runtime has no network imports at all, memory is capped at the profile
// via the page limit, and the guest sees a read-only world plus a single
// writable scratch mount backed by a per-environment temp dir.
type WazeroProvisioner struct{}

// NewWazeroProvisioner creates the provisioner.
func NewWazeroProvisioner() *WazeroProvisioner {
	return &WazeroProvisioner{}
}

// Provision compiles the artifact inside a fresh runtime. The runtime is
// configured to close when the run context ends, which is what force-kills
// a guest at the wall-clock ceiling.
func (p *WazeroProvisioner) Provision(ctx context.Context, profile Profile, artifact []byte) (Environment, error) {
	pages := profile.MemoryBytes / (64 * 1024)
	if pages < 1 {
		pages = 1
	}
	if pages > math.MaxUint32 {
		pages = math.MaxUint32
	}

	runtimeConfig := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(uint32(pages)).
		WithCloseOnContextDone(true)

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeConfig)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}

	compiled, err := runtime.CompileModule(ctx, artifact)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	scratch, err := os.MkdirTemp("", "praxis-scratch-")
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	return &wazeroEnv{
		id:       uuid.NewString(),
		runtime:  runtime,
		compiled: compiled,
		profile:  profile,
		scratch:  scratch,
	}, nil
}

type wazeroEnv struct {
	id       string
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	profile  Profile
	scratch  string
}

func (e *wazeroEnv) ID() string { return e.id }

// Run instantiates the compiled module, which executes its _start function
// to completion. Output streams directly into the caller's writers, so a
// forced kill still leaves the partial capture intact.
func (e *wazeroEnv) Run(ctx context.Context, stdout, stderr io.Writer) (int, error) {
	moduleConfig := wazero.NewModuleConfig().
		WithName(e.id).
		WithStdout(stdout).
		WithStderr(stderr).
		WithFSConfig(wazero.NewFSConfig().WithDirMount(e.scratch, e.profile.ScratchPath))

	mod, err := e.runtime.InstantiateModule(ctx, e.compiled, moduleConfig)
	if mod != nil {
		defer func() { _ = mod.Close(context.Background()) }()
	}
	if err == nil {
		return 0, nil
	}

	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case sys.ExitCodeDeadlineExceeded:
			return -1, context.DeadlineExceeded
		case sys.ExitCodeContextCanceled:
			return -1, context.Canceled
		default:
			return int(exitErr.ExitCode()), nil
		}
	}
	if ctx.Err() != nil {
		return -1, ctx.Err()
	}
	return -1, fmt.Errorf("instantiate module: %w", err)
}

// Teardown closes the runtime and removes the scratch dir. Closing the
// runtime releases every module it compiled or instantiated.
func (e *wazeroEnv) Teardown(ctx context.Context) error {
	cerr := e.runtime.Close(ctx)
	if rerr := os.RemoveAll(e.scratch); rerr != nil && cerr == nil {
		cerr = rerr
	}
	return cerr
}
