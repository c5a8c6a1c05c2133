package logging

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/praxis-agent/praxis/domain/agent"
	"github.com/praxis-agent/praxis/domain/capability"
	"github.com/praxis-agent/praxis/domain/ledger"
)

func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return bolt.New(bolt.NewJSONHandler(buf)).SetLevel(bolt.TRACE), buf
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"info", bolt.INFO},
		{"warn", bolt.WARN},
		{"error", bolt.ERROR},
		{"unknown", bolt.INFO},
		{"", bolt.INFO},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{"session id", SessionID("sess-1"), `"session_id":"sess-1"`},
		{"phase", Phase(agent.PhaseExecute), `"phase":"execute"`},
		{"from phase", FromPhase(agent.PhaseGuard), `"from_phase":"guard"`},
		{"to phase", ToPhase(agent.PhasePerceive), `"to_phase":"perceive"`},
		{"step id", StepID("step-1"), `"step_id":"step-1"`},
		{"iteration", Iteration(3), `"iteration":3`},
		{"scope", Scope(capability.ScopeExecuteCode), `"scope":"execute-code"`},
		{"outcome", Outcome(ledger.OutcomeDenied), `"outcome":"denied"`},
		{"duration", Duration(100 * time.Millisecond), `"duration_ms":100`},
		{"exit code", ExitCode(-1), `"exit_code":-1`},
		{"error", ErrorField(errors.New("boom")), `"error":"boom"`},
		{"goal", Goal("print a greeting"), `"goal":"print a greeting"`},
		{"reason", Reason("input clean"), `"reason":"input clean"`},
		{"cause", Cause(agent.StopSuccess), `"cause":"success"`},
		{"component", Component("engine"), `"component":"engine"`},
		{"custom", Str("k", "v"), `"k":"v"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			logger, buf := testLogger()
			tt.field(logger.Info()).Msg("test")
			if !bytes.Contains(buf.Bytes(), []byte(tt.want)) {
				t.Errorf("output %s missing %s", buf.String(), tt.want)
			}
		})
	}
}

func TestErrorFieldNil(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	ErrorField(nil)(logger.Info()).Msg("test")
	if bytes.Contains(buf.Bytes(), []byte(`"error"`)) {
		t.Errorf("unexpected error field: %s", buf.String())
	}
}

func TestLogEventChaining(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	NewEvent(logger.Info()).
		Add(SessionID("sess-1")).
		Add(Phase(agent.PhaseReflect)).
		Msg("test")

	for _, want := range []string{`"session_id":"sess-1"`, `"phase":"reflect"`} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("output %s missing %s", buf.String(), want)
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Format: "json", Output: &buf})
	logger.Info().Msg("hello")
	if !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Errorf("output %s missing message", buf.String())
	}

	buf.Reset()
	logger.Trace().Msg("below level")
	if buf.Len() != 0 {
		t.Errorf("below-level event emitted: %s", buf.String())
	}
}

func TestSilent(t *testing.T) {
	t.Parallel()

	// Must accept events without a nil check anywhere.
	Silent().Error().Str("k", "v").Msg("dropped")
}

func TestGet(t *testing.T) {
	if Get() == nil {
		t.Fatal("Get() returned nil")
	}
	SetLevel("debug") // must not panic
}
