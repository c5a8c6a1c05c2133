package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/praxis-agent/praxis/domain/ledger"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)
	err := app.ExecuteWithArgs(context.Background(), args)
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.Contains(stdout, "praxis version") {
		t.Errorf("output = %q, want version banner", stdout)
	}
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "praxis.yaml")
		content := "session:\n  max_iterations: 5\nguard:\n  suspicion_threshold: 0.6\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		stdout, _, err := runCLI(t, "validate", "-c", path)
		if err != nil {
			t.Fatalf("validate error = %v", err)
		}
		if !strings.Contains(stdout, "Configuration valid") {
			t.Errorf("output = %q", stdout)
		}
		if !strings.Contains(stdout, "Max iterations: 5") {
			t.Errorf("output = %q, want loaded value reflected", stdout)
		}
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "praxis.yaml")
		if err := os.WriteFile(path, []byte("session:\n  max_iterations: -3\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		if _, _, err := runCLI(t, "validate", "-c", path); err == nil {
			t.Fatal("validate accepted an invalid configuration")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, _, err := runCLI(t, "validate", "-c", "/nonexistent/praxis.yaml"); err == nil {
			t.Fatal("validate accepted a missing file")
		}
	})
}

func writeAuditLog(t *testing.T, entries int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audit.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	l := ledger.New(ledger.WithSink(ledger.NewJSONLSink(f)))
	for i := 0; i < entries; i++ {
		if _, err := l.Append(ledger.Entry{
			Category: ledger.CategorySession,
			Action:   "session.start",
			Actor:    "test",
			Outcome:  ledger.OutcomeAllowed,
		}); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestAuditVerifyCommand(t *testing.T) {
	t.Parallel()

	t.Run("intact log verifies", func(t *testing.T) {
		t.Parallel()

		path := writeAuditLog(t, 4)
		stdout, _, err := runCLI(t, "audit", "verify", "-f", path)
		if err != nil {
			t.Fatalf("audit verify error = %v", err)
		}
		if !strings.Contains(stdout, "Verified 4 records") {
			t.Errorf("output = %q", stdout)
		}
	})

	t.Run("tampered log fails", func(t *testing.T) {
		t.Parallel()

		path := writeAuditLog(t, 4)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		tampered := bytes.Replace(data, []byte(`"actor":"test"`), []byte(`"actor":"eve"`), 1)
		if bytes.Equal(data, tampered) {
			t.Fatal("tampering had no effect; fixture out of sync")
		}
		if err := os.WriteFile(path, tampered, 0o600); err != nil {
			t.Fatal(err)
		}

		if _, _, err := runCLI(t, "audit", "verify", "-f", path); err == nil {
			t.Fatal("audit verify accepted a tampered log")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, _, err := runCLI(t, "audit", "verify", "-f", "/nonexistent/audit.jsonl"); err == nil {
			t.Fatal("audit verify accepted a missing file")
		}
	})
}

func TestAuditLogResumesAcrossRuns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audit.jsonl")
	for run := 0; run < 2; run++ {
		l, closeLedger, err := openLedger(path)
		if err != nil {
			t.Fatalf("openLedger() error = %v", err)
		}
		for i := 0; i < 2; i++ {
			if _, err := l.Append(ledger.Entry{
				Category: ledger.CategorySession,
				Action:   "session.start",
				Actor:    "test",
				Outcome:  ledger.OutcomeAllowed,
			}); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
		}
		closeLedger()
	}

	stdout, _, err := runCLI(t, "audit", "verify", "-f", path)
	if err != nil {
		t.Fatalf("audit verify error = %v", err)
	}
	if !strings.Contains(stdout, "Verified 4 records") {
		t.Errorf("output = %q, want one chain across both runs", stdout)
	}
}

func TestSkillsListCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t, "skills", "list")
	if err != nil {
		t.Fatalf("skills list error = %v", err)
	}
	if !strings.Contains(stdout, "No skills committed") {
		t.Errorf("output = %q", stdout)
	}
}

func TestRunRequiresArtifact(t *testing.T) {
	t.Parallel()

	if _, _, err := runCLI(t, "run", "print a greeting"); err == nil {
		t.Fatal("run accepted a missing artifact flag")
	}
}
