// Package logging configures bolt for the praxis runtime. One process-wide
// logger backs the CLI; collaborators that need silence (tests, the
// engine's default) take a discard logger instead of nil.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"
)

// Config selects the level, encoding and destination of a logger.
type Config struct {
	// Level is the minimum level emitted (trace, debug, info, warn, error).
	Level string

	// Format selects the encoding: "json" for machine consumers, anything
	// else renders for a terminal.
	Format string

	// Output receives the log stream. Defaults to stderr so session output
	// on stdout stays parseable.
	Output io.Writer
}

// New builds a logger from the configuration.
func New(cfg Config) *bolt.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var handler bolt.Handler
	if cfg.Format == "json" {
		handler = bolt.NewJSONHandler(out)
	} else {
		handler = bolt.NewConsoleHandler(out)
	}
	return bolt.New(handler).SetLevel(parseLevel(cfg.Level))
}

// Silent returns a logger that discards everything. Collaborators take it
// in place of a nil logger so call sites never nil-check.
func Silent() *bolt.Logger {
	return bolt.New(bolt.NewJSONHandler(io.Discard))
}

var (
	mu            sync.Mutex
	defaultLogger *bolt.Logger
)

// Init replaces the process-wide default logger. The CLI calls it once the
// configuration is loaded; later calls reconfigure.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = New(cfg)
}

// Get returns the process-wide logger, creating a stderr console logger at
// info level when Init has not run.
func Get() *bolt.Logger {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(Config{Level: "info"})
	}
	return defaultLogger
}

// SetLevel adjusts the level of the process-wide logger.
func SetLevel(level string) {
	Get().SetLevel(parseLevel(level))
}

// parseLevel maps a config string to a bolt level, defaulting to info.
func parseLevel(s string) bolt.Level {
	switch s {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "info":
		return bolt.INFO
	case "warn":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// LogEvent applies Field helpers to a bolt event without giving up chaining.
type LogEvent struct {
	event *bolt.Event
}

// NewEvent wraps a bolt event for field application.
func NewEvent(e *bolt.Event) *LogEvent {
	return &LogEvent{event: e}
}

// Add applies a field to the event and returns the wrapper for chaining.
func (l *LogEvent) Add(f Field) *LogEvent {
	l.event = f(l.event)
	return l
}

// Msg sends the log event with a message.
func (l *LogEvent) Msg(msg string) {
	l.event.Msg(msg)
}

// Send sends the log event without a message.
func (l *LogEvent) Send() {
	l.event.Send()
}
