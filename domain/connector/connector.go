// Package connector defines the boundary to external tool integrations.
// Concrete connectors live outside the core; the core only registers them,
// gates every invocation on a capability token, and audits the outcome.
package connector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/praxis-agent/praxis/domain/capability"
	"github.com/praxis-agent/praxis/domain/ledger"
)

// ErrNotRegistered is returned when dispatch names an unknown connector.
var ErrNotRegistered = errors.New("connector not registered")

// Request is a single connector invocation.
type Request struct {
	Connector string            `json:"connector"`
	Operation string            `json:"operation"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// Response is the connector's reply.
type Response struct {
	Payload  string            `json:"payload,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Connector is an external integration the agent may call.
type Connector interface {
	// Name identifies the connector in the registry.
	Name() string
	// Invoke performs one operation. Implementations honor ctx cancellation.
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// Registry is a concurrent-safe name-to-connector map.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]Connector)}
}

// Register adds a connector, replacing any previous one of the same name.
func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[c.Name()] = c
}

// Get returns the named connector, or ErrNotRegistered.
func (r *Registry) Get(name string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return c, nil
}

// Names returns the registered connector names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatcher routes requests to registered connectors. Every dispatch
// validates a connector-invoke token first and audits the outcome; a denied
// token means the connector is never reached.
type Dispatcher struct {
	registry  *Registry
	authority *capability.Authority
	audit     *ledger.Ledger
}

// NewDispatcher wires a registry to the capability authority and ledger.
func NewDispatcher(registry *Registry, authority *capability.Authority, audit *ledger.Ledger) *Dispatcher {
	return &Dispatcher{registry: registry, authority: authority, audit: audit}
}

// Dispatch validates, audits, and invokes.
func (d *Dispatcher) Dispatch(ctx context.Context, token capability.Token, req Request) (*Response, error) {
	if err := d.authority.Validate(token, capability.ScopeConnectorInvoke); err != nil {
		return nil, err
	}

	c, err := d.registry.Get(req.Connector)
	if err != nil {
		d.record(req, ledger.OutcomeDenied, err.Error())
		return nil, err
	}

	resp, err := c.Invoke(ctx, req)
	if err != nil {
		d.record(req, ledger.OutcomeError, err.Error())
		return nil, fmt.Errorf("connector %s: %w", req.Connector, err)
	}
	d.record(req, ledger.OutcomeAllowed, "")
	return resp, nil
}

func (d *Dispatcher) record(req Request, outcome ledger.Outcome, reason string) {
	details := map[string]string{
		"connector": req.Connector,
		"operation": req.Operation,
	}
	if reason != "" {
		details["reason"] = reason
	}
	// Invocation already happened (or was refused); a sink hiccup here must
	// not mask the connector result.
	_, _ = d.audit.Append(ledger.Entry{
		Category: ledger.CategoryConnector,
		Action:   "connector.invoke",
		Actor:    "dispatcher",
		Outcome:  outcome,
		Details:  details,
	})
}
