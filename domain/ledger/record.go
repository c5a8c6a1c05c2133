// Package ledger provides the append-only, hash-chained audit trail every
// security-relevant decision is written to before the action proceeds.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// GenesisDigest anchors the chain: the first record links to 64 zero chars.
const GenesisDigest = "0000000000000000000000000000000000000000000000000000000000000000"

// Category groups audit records by the subsystem that emitted them.
type Category string

const (
	CategorySession    Category = "session"
	CategoryGuard      Category = "guard"
	CategoryCapability Category = "capability"
	CategorySandbox    Category = "sandbox"
	CategoryApproval   Category = "approval"
	CategorySkill      Category = "skill"
	CategoryConnector  Category = "connector"
)

// Outcome records whether the audited action was permitted.
type Outcome string

const (
	OutcomeAllowed Outcome = "allowed"
	OutcomeDenied  Outcome = "denied"
	OutcomeError   Outcome = "error"
)

// Entry is the caller-supplied portion of an audit record. Sequencing,
// timestamps and digests are assigned by the ledger on append.
type Entry struct {
	Category Category          `json:"category"`
	Action   string            `json:"action"`
	Actor    string            `json:"actor"`
	Outcome  Outcome           `json:"outcome"`
	Details  map[string]string `json:"details,omitempty"`
}

// Record is one immutable link in the audit chain. Digest covers every
// field except itself, including the previous record's digest, so any
// in-place edit breaks verification from that point on.
type Record struct {
	Seq        uint64            `json:"seq"`
	Timestamp  time.Time         `json:"timestamp"`
	Category   Category          `json:"category"`
	Action     string            `json:"action"`
	Actor      string            `json:"actor"`
	Outcome    Outcome           `json:"outcome"`
	Details    map[string]string `json:"details,omitempty"`
	PrevDigest string            `json:"prev_digest"`
	Digest     string            `json:"digest"`
}

// ComputeDigest derives the chain digest for a record, ignoring the Digest
// field it already carries. The preimage is a fixed-order concatenation;
// details are JSON-encoded, which sorts map keys, so the digest is stable
// across processes.
func ComputeDigest(r Record) string {
	var details []byte
	if len(r.Details) > 0 {
		details, _ = json.Marshal(r.Details)
	}
	var b strings.Builder
	b.WriteString(r.PrevDigest)
	b.WriteByte('|')
	fmt.Fprintf(&b, "%d", r.Seq)
	b.WriteByte('|')
	b.WriteString(r.Timestamp.UTC().Format(time.RFC3339Nano))
	b.WriteByte('|')
	b.WriteString(string(r.Category))
	b.WriteByte('|')
	b.WriteString(r.Action)
	b.WriteByte('|')
	b.WriteString(r.Actor)
	b.WriteByte('|')
	b.WriteString(string(r.Outcome))
	b.WriteByte('|')
	b.Write(details)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// VerifyRecords replays a chain from genesis and returns the final digest.
// The records must be complete and in order; a gap, reordering, or any
// in-place mutation yields an IntegrityError naming the first bad link.
func VerifyRecords(records []Record) (string, error) {
	prev := GenesisDigest
	for i, r := range records {
		if r.Seq != uint64(i) {
			return "", &IntegrityError{Seq: r.Seq, Reason: fmt.Sprintf("expected seq %d", i)}
		}
		if r.PrevDigest != prev {
			return "", &IntegrityError{Seq: r.Seq, Reason: "previous digest mismatch"}
		}
		if got := ComputeDigest(r); got != r.Digest {
			return "", &IntegrityError{Seq: r.Seq, Reason: "digest mismatch"}
		}
		prev = r.Digest
	}
	return prev, nil
}

// IntegrityError reports the first record at which chain verification failed.
type IntegrityError struct {
	Seq    uint64
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("ledger integrity violation at seq %d: %s", e.Seq, e.Reason)
}
