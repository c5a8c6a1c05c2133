// Package config provides configuration loading and parsing for praxis.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/praxis-agent/praxis/infrastructure/sandbox"
)

// Configuration errors.
var (
	ErrConfigNotFound    = errors.New("config: file not found")
	ErrInvalidFormat     = errors.New("config: invalid format")
	ErrUnsupportedFormat = errors.New("config: unsupported format")
	ErrValidationFailed  = errors.New("config: validation failed")
	ErrMissingEnvVar     = errors.New("config: missing environment variable")
)

// Config is the full praxis configuration.
type Config struct {
	Session SessionConfig `yaml:"session" json:"session"`
	Guard   GuardConfig   `yaml:"guard" json:"guard"`
	Sandbox SandboxConfig `yaml:"sandbox" json:"sandbox"`
	Skills  SkillsConfig  `yaml:"skills" json:"skills"`
	Audit   AuditConfig   `yaml:"audit" json:"audit"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SessionConfig tunes the cognitive loop.
type SessionConfig struct {
	// MaxIterations is the hard cap on full cycles per session.
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`
	// MaxRetriesPerStep bounds consecutive failures on one plan step.
	MaxRetriesPerStep int `yaml:"max_retries_per_step" json:"max_retries_per_step"`
	// ApprovalTimeout is how long a suspended session waits for a review
	// decision before auto-denying.
	ApprovalTimeout time.Duration `yaml:"approval_timeout" json:"approval_timeout"`
}

// GuardConfig tunes the injection prefilter.
type GuardConfig struct {
	// SuspicionThreshold is the score at or above which input is blocked.
	SuspicionThreshold float64 `yaml:"suspicion_threshold" json:"suspicion_threshold"`
}

// SandboxConfig tunes the execution sandbox. Values above the hard
// ceilings are clamped, never honored.
type SandboxConfig struct {
	Profile sandbox.Profile `yaml:"profile" json:"profile"`
}

// SkillsConfig selects the skill store backend.
type SkillsConfig struct {
	// Backend is "memory" or "badger".
	Backend string `yaml:"backend" json:"backend"`
	// Dir is the data directory for persistent backends.
	Dir string `yaml:"dir" json:"dir"`
}

// AuditConfig selects the durable audit sink.
type AuditConfig struct {
	// Path is the JSONL file appended on every ledger write. Empty keeps
	// the chain in memory only.
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig tunes structured logging.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `yaml:"level" json:"level"`
	// Format is the output format (json or console).
	Format string `yaml:"format" json:"format"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			MaxIterations:     10,
			MaxRetriesPerStep: 3,
			ApprovalTimeout:   5 * time.Minute,
		},
		Guard: GuardConfig{
			SuspicionThreshold: 0.7,
		},
		Sandbox: SandboxConfig{
			Profile: sandbox.DefaultProfile(),
		},
		Skills: SkillsConfig{
			Backend: "memory",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for values no component accepts.
func (c *Config) Validate() error {
	if c.Session.MaxIterations <= 0 {
		return fmt.Errorf("%w: session.max_iterations must be positive", ErrValidationFailed)
	}
	if c.Session.MaxRetriesPerStep <= 0 {
		return fmt.Errorf("%w: session.max_retries_per_step must be positive", ErrValidationFailed)
	}
	if c.Session.ApprovalTimeout <= 0 {
		return fmt.Errorf("%w: session.approval_timeout must be positive", ErrValidationFailed)
	}
	if c.Guard.SuspicionThreshold <= 0 || c.Guard.SuspicionThreshold > 1 {
		return fmt.Errorf("%w: guard.suspicion_threshold must be in (0, 1]", ErrValidationFailed)
	}
	switch c.Skills.Backend {
	case "memory":
	case "badger":
		if c.Skills.Dir == "" {
			return fmt.Errorf("%w: skills.dir required for the badger backend", ErrValidationFailed)
		}
	default:
		return fmt.Errorf("%w: unknown skills backend %q", ErrValidationFailed, c.Skills.Backend)
	}
	return nil
}

// applyDefaults fills unset fields so a partial file still yields a
// complete configuration.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Session.MaxIterations == 0 {
		c.Session.MaxIterations = d.Session.MaxIterations
	}
	if c.Session.MaxRetriesPerStep == 0 {
		c.Session.MaxRetriesPerStep = d.Session.MaxRetriesPerStep
	}
	if c.Session.ApprovalTimeout == 0 {
		c.Session.ApprovalTimeout = d.Session.ApprovalTimeout
	}
	if c.Guard.SuspicionThreshold == 0 {
		c.Guard.SuspicionThreshold = d.Guard.SuspicionThreshold
	}
	if c.Skills.Backend == "" {
		c.Skills.Backend = d.Skills.Backend
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	c.Sandbox.Profile = c.Sandbox.Profile.Clamp()
}
