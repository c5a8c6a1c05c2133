package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Sink receives each record after it is committed to the chain. Sink
// failures are reported to the appender; the in-memory chain is already
// advanced by then, so the caller decides whether to halt.
type Sink interface {
	Write(Record) error
}

// Ledger is the append-only audit chain. Appends are serialized: concurrent
// writers obtain unique, gapless sequence numbers and each record links to
// the digest of the one before it.
type Ledger struct {
	mu      sync.RWMutex
	records []Record
	head    string
	sink    Sink
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithSink attaches a durable sink written on every append.
func WithSink(s Sink) Option {
	return func(l *Ledger) { l.sink = s }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates an empty ledger anchored at the genesis digest.
func New(opts ...Option) *Ledger {
	l := &Ledger{head: GenesisDigest, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resume reconstructs a ledger from an existing chain so new appends extend
// it instead of starting a second chain at genesis. The records are verified
// before they are adopted; a broken chain is refused.
func Resume(records []Record, opts ...Option) (*Ledger, error) {
	head, err := VerifyRecords(records)
	if err != nil {
		return nil, err
	}
	l := New(opts...)
	l.records = append(l.records, records...)
	l.head = head
	return l, nil
}

// Append commits an entry to the chain and returns the finished record.
// The record is in the chain before Append returns; audit-then-act callers
// rely on that ordering.
func (l *Ledger) Append(e Entry) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := Record{
		Seq:        uint64(len(l.records)),
		Timestamp:  l.now().UTC(),
		Category:   e.Category,
		Action:     e.Action,
		Actor:      e.Actor,
		Outcome:    e.Outcome,
		Details:    e.Details,
		PrevDigest: l.head,
	}
	r.Digest = ComputeDigest(r)

	l.records = append(l.records, r)
	l.head = r.Digest

	if l.sink != nil {
		if err := l.sink.Write(r); err != nil {
			return r, fmt.Errorf("ledger sink: %w", err)
		}
	}
	return r, nil
}

// Head returns the digest of the most recent record, or the genesis digest.
func (l *Ledger) Head() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.head
}

// Len returns the number of committed records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Records returns a copy of the chain in append order.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Verify replays the whole chain and returns the head digest.
func (l *Ledger) Verify() (string, error) {
	return VerifyRecords(l.Records())
}

// JSONLSink writes each record as one JSON line. It serializes its own
// writes; the underlying writer only needs to be safe for a single caller.
type JSONLSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONLSink wraps a writer as a record sink.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{w: w}
}

// Write appends one record as a JSON line.
func (s *JSONLSink) Write(r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

// ReadJSONL parses a JSONL stream back into records, in file order.
func ReadJSONL(r io.Reader) ([]Record, error) {
	var records []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("ledger: parse line %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
