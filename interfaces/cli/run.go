package cli

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/praxis-agent/praxis/application"
	"github.com/praxis-agent/praxis/domain/agent"
	"github.com/praxis-agent/praxis/domain/capability"
	"github.com/praxis-agent/praxis/domain/ledger"
	"github.com/praxis-agent/praxis/domain/skill"
	"github.com/praxis-agent/praxis/infrastructure/config"
	"github.com/praxis-agent/praxis/infrastructure/logging"
	"github.com/praxis-agent/praxis/infrastructure/reasoner"
	"github.com/praxis-agent/praxis/infrastructure/resilience"
	"github.com/praxis-agent/praxis/infrastructure/sandbox"
	"github.com/praxis-agent/praxis/infrastructure/security/guard"
	"github.com/praxis-agent/praxis/infrastructure/storage/memory"

	badgerstore "github.com/praxis-agent/praxis/infrastructure/storage/badger"
)

// signingKeyEnv names the environment variable holding the capability
// signing key. Without it a fresh random key is generated per process, so
// tokens never survive a restart.
const signingKeyEnv = "PRAXIS_SIGNING_KEY"

// runOptions holds options for the run command.
type runOptions struct {
	configPath string
	artifact   string
	goal       string
	approve    bool
	jsonOutput bool
	timeout    time.Duration
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [goal]",
		Short: "Drive a goal through the cognitive loop",
		Long: `Run a session for the given goal. The session walks the cognitive
loop until it reaches done, failed, or abandoned; the built-in reasoner
executes the given WebAssembly artifact as the plan's single step.

Examples:
  # Run a goal with a module and default configuration
  praxis run --artifact hello.wasm "print a greeting"

  # Run with a config file and auto-approved high-risk artifacts
  praxis run -c praxis.yaml --artifact task.wasm --approve "process the files"

  # Emit the terminal report as JSON
  praxis run --artifact task.wasm --json "process the files"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.goal = args[0]
			return a.runSession(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.artifact, "artifact", "", "Path to the WebAssembly module to execute (required)")
	cmd.Flags().BoolVar(&opts.approve, "approve", false, "Approve high-risk artifacts instead of denying them")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the terminal report as JSON")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Overall session timeout")

	_ = cmd.MarkFlagRequired("artifact")

	return cmd
}

func (a *App) runSession(ctx context.Context, opts *runOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	audit, closeAudit, err := openLedger(cfg.Audit.Path)
	if err != nil {
		return err
	}
	defer closeAudit()

	authority, err := capability.NewAuthority(signingKey(), "praxis-cli", audit)
	if err != nil {
		return fmt.Errorf("failed to create capability authority: %w", err)
	}

	manager, err := sandbox.NewManager(
		sandbox.NewWazeroProvisioner(), authority, audit,
		sandbox.WithProfile(cfg.Sandbox.Profile),
		sandbox.WithLogger(logging.Get()),
	)
	if err != nil {
		return fmt.Errorf("failed to create sandbox: %w", err)
	}

	skills, closeSkills, err := openSkillStore(cfg)
	if err != nil {
		return err
	}
	defer closeSkills()

	var approver application.Approver = application.DenyApprover{}
	if opts.approve {
		approver = application.AutoApprover{}
	}

	engine, err := application.NewEngine(application.Config{
		Reasoner:  resilience.NewExecutor(&reasoner.Static{Artifact: opts.artifact}, resilience.DefaultConfig()),
		Sandbox:   manager,
		Authority: authority,
		Ledger:    audit,
		Guard:     guard.New(audit, guard.WithThreshold(cfg.Guard.SuspicionThreshold)),
		Skills:    skills,
		Approver:  approver,
		// The artifact flag holds a path; compilation is loading the module.
		Compiler: os.ReadFile,
		Policy: agent.RoutePolicy{
			MaxIterations:     cfg.Session.MaxIterations,
			MaxRetriesPerStep: cfg.Session.MaxRetriesPerStep,
		},
		ApprovalTimeout: cfg.Session.ApprovalTimeout,
		Logger:          logging.Get(),
	})
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	session, err := engine.NewSession(opts.goal)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	start := time.Now()
	report, runErr := session.Run(ctx)
	duration := time.Since(start)

	if opts.jsonOutput {
		out := map[string]any{
			"session_id": session.State().SessionID,
			"phase":      report.Phase.String(),
			"cause":      string(report.Cause),
			"iterations": report.Iteration,
			"duration":   duration.String(),
		}
		if len(report.Errors) > 0 {
			out["errors"] = report.Errors
		}
		if last := session.State().LastExecution(); last != nil {
			out["exit_code"] = last.ExitCode
			out["stdout"] = last.Stdout
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
		return runErr
	}

	fmt.Fprintf(a.stdout, "Session %s finished\n", session.State().SessionID)
	fmt.Fprintf(a.stdout, "  Phase: %s\n", report.Phase)
	fmt.Fprintf(a.stdout, "  Cause: %s\n", report.Cause)
	fmt.Fprintf(a.stdout, "  Iterations: %d\n", report.Iteration)
	fmt.Fprintf(a.stdout, "  Duration: %s\n", duration)
	if last := session.State().LastExecution(); last != nil {
		fmt.Fprintf(a.stdout, "  Exit code: %d\n", last.ExitCode)
		if last.Stdout != "" {
			fmt.Fprintf(a.stdout, "  Stdout:\n%s\n", last.Stdout)
		}
	}
	for _, e := range report.Errors {
		fmt.Fprintf(a.stderr, "  error [%s/%s]: %s\n", e.Phase, e.Kind, e.Message)
	}
	return runErr
}

// loadConfig loads the given file, or the stock configuration when no path
// is set.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.NewLoader().LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// openLedger creates the audit ledger, attaching a JSONL sink when a path
// is configured. An existing log is replayed and verified first so each run
// extends the chain instead of starting a second one.
func openLedger(path string) (*ledger.Ledger, func(), error) {
	if path == "" {
		return ledger.New(), func() {}, nil
	}

	var prior []ledger.Record
	data, err := os.ReadFile(path)
	switch {
	case err == nil && len(data) > 0:
		prior, err = ledger.ReadJSONL(bytes.NewReader(data))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read audit log: %w", err)
		}
	case err != nil && !os.IsNotExist(err):
		return nil, nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	l, err := ledger.Resume(prior, ledger.WithSink(ledger.NewJSONLSink(f)))
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("audit log cannot be extended: %w", err)
	}
	return l, func() { _ = f.Close() }, nil
}

// openSkillStore creates the configured skill store backend.
func openSkillStore(cfg *config.Config) (skill.Store, func(), error) {
	switch cfg.Skills.Backend {
	case "badger":
		store, err := badgerstore.NewSkillStore(badgerstore.Config{Dir: cfg.Skills.Dir})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open skill store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return memory.NewSkillStore(), func() {}, nil
	}
}

func signingKey() []byte {
	if key := os.Getenv(signingKeyEnv); key != "" {
		return []byte(key)
	}
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	return key
}
