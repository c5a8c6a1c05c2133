package capability

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praxis-agent/praxis/domain/ledger"
)

// Validation failure reasons. All validation failures deny; the sentinels
// only explain why.
var (
	ErrUnknownScope  = errors.New("capability: unknown scope")
	ErrScopeMismatch = errors.New("capability: scope mismatch")
	ErrExpired       = errors.New("capability: token expired")
	ErrNotYetValid   = errors.New("capability: token not yet valid")
	ErrBadSignature  = errors.New("capability: signature invalid")
	ErrRevoked       = errors.New("capability: token revoked")
)

// DeniedError wraps the reason a token was rejected so callers can fold it
// into an error stack as an authorization failure.
type DeniedError struct {
	TokenID string
	Scope   Scope
	Reason  error
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("authorization denied for scope %q: %v", e.Scope, e.Reason)
}

func (e *DeniedError) Unwrap() error { return e.Reason }

// Authority issues and validates capability tokens. It holds the signing
// key; anything that can forge a signature can mint authority, so the key
// never leaves this type.
//
// Every issue and every validation outcome is written to the audit ledger
// before the result is returned. If the ledger rejects the write, the
// operation is denied: an action that cannot be audited does not happen.
type Authority struct {
	mu      sync.Mutex
	key     []byte
	issuer  string
	audit   *ledger.Ledger
	now     func() time.Time
	revoked map[string]bool
}

// AuthorityOption configures an Authority.
type AuthorityOption func(*Authority)

// WithNow overrides the clock, for expiry tests.
func WithNow(now func() time.Time) AuthorityOption {
	return func(a *Authority) { a.now = now }
}

// NewAuthority creates an authority signing with the given key.
func NewAuthority(key []byte, issuer string, audit *ledger.Ledger, opts ...AuthorityOption) (*Authority, error) {
	if len(key) == 0 {
		return nil, errors.New("capability: empty signing key")
	}
	if audit == nil {
		return nil, errors.New("capability: nil audit ledger")
	}
	a := &Authority{
		key:     key,
		issuer:  issuer,
		audit:   audit,
		now:     time.Now,
		revoked: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Issue mints a token granting one scope for the given lifetime.
func (a *Authority) Issue(scope Scope, ttl time.Duration) (Token, error) {
	if !scope.IsValid() {
		return Token{}, &DeniedError{Scope: scope, Reason: ErrUnknownScope}
	}
	if ttl <= 0 {
		return Token{}, &DeniedError{Scope: scope, Reason: errors.New("non-positive lifetime")}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	t := Token{
		ID:        uuid.NewString(),
		Scope:     scope,
		Issuer:    a.issuer,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	t.Signature = sign(a.key, t)

	if _, err := a.audit.Append(ledger.Entry{
		Category: ledger.CategoryCapability,
		Action:   "token.issue",
		Actor:    a.issuer,
		Outcome:  ledger.OutcomeAllowed,
		Details: map[string]string{
			"token":   t.ID,
			"scope":   string(scope),
			"expires": t.ExpiresAt.UTC().Format(time.RFC3339Nano),
		},
	}); err != nil {
		return Token{}, fmt.Errorf("capability: audit issue: %w", err)
	}
	return t, nil
}

// Validate checks a token against a required scope. Order matters:
// signature first (an unsigned claim gets no further inspection), then
// revocation, then scope, then the time window. The outcome is audited
// before Validate returns; a failed audit write denies.
func (a *Authority) Validate(t Token, required Scope) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	reason := a.check(t, required)

	outcome := ledger.OutcomeAllowed
	details := map[string]string{
		"token": t.ID,
		"scope": string(required),
	}
	if reason != nil {
		outcome = ledger.OutcomeDenied
		details["reason"] = reason.Error()
	}
	if _, err := a.audit.Append(ledger.Entry{
		Category: ledger.CategoryCapability,
		Action:   "token.validate",
		Actor:    a.issuer,
		Outcome:  outcome,
		Details:  details,
	}); err != nil {
		return fmt.Errorf("capability: audit validate: %w", err)
	}

	if reason != nil {
		return &DeniedError{TokenID: t.ID, Scope: required, Reason: reason}
	}
	return nil
}

func (a *Authority) check(t Token, required Scope) error {
	if !verifySignature(a.key, t) {
		return ErrBadSignature
	}
	if a.revoked[t.ID] {
		return ErrRevoked
	}
	if t.Scope != required {
		return ErrScopeMismatch
	}
	now := a.now()
	if now.Before(t.IssuedAt) {
		return ErrNotYetValid
	}
	if t.ExpiresWithin(now) {
		return ErrExpired
	}
	return nil
}

// Revoke invalidates a token before its natural expiry.
func (a *Authority) Revoke(tokenID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.revoked[tokenID] = true
	if _, err := a.audit.Append(ledger.Entry{
		Category: ledger.CategoryCapability,
		Action:   "token.revoke",
		Actor:    a.issuer,
		Outcome:  ledger.OutcomeAllowed,
		Details:  map[string]string{"token": tokenID},
	}); err != nil {
		return fmt.Errorf("capability: audit revoke: %w", err)
	}
	return nil
}
