// Package capability implements scoped, signed, expiring authorization
// tokens. Every privileged operation presents a token; validation fails
// closed and is audited before the operation proceeds.
package capability

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Scope names a privileged operation class a token may authorize.
type Scope string

const (
	ScopeExecuteCode     Scope = "execute-code"
	ScopeFileWrite       Scope = "file-write"
	ScopeConnectorInvoke Scope = "connector-invoke"
	ScopeSkillCommit     Scope = "skill-commit"
)

// IsValid reports whether the scope is one the authority knows how to grant.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeExecuteCode, ScopeFileWrite, ScopeConnectorInvoke, ScopeSkillCommit:
		return true
	default:
		return false
	}
}

// Token is a signed grant of a single scope for a bounded time window.
// Tokens are value objects: once issued, no field changes.
type Token struct {
	ID        string    `json:"id"`
	Scope     Scope     `json:"scope"`
	Issuer    string    `json:"issuer"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Signature string    `json:"signature"`
}

// ExpiresWithin reports whether the token expires before the given instant.
func (t Token) ExpiresWithin(at time.Time) bool {
	return !at.Before(t.ExpiresAt)
}

// sign computes the HMAC-SHA256 signature over the token's immutable fields.
// Timestamps enter the preimage in UTC RFC3339Nano so signatures survive
// serialization round-trips.
func sign(key []byte, t Token) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(strings.Join([]string{
		t.ID,
		string(t.Scope),
		t.Issuer,
		t.IssuedAt.UTC().Format(time.RFC3339Nano),
		t.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature checks the token's signature in constant time.
func verifySignature(key []byte, t Token) bool {
	want, err := hex.DecodeString(t.Signature)
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(sign(key, t))
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}
