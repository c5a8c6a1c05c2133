// Package skill defines reusable code artifacts promoted out of successful
// sessions, and the store that persists them.
package skill

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no skill matches the requested name.
var ErrNotFound = errors.New("skill not found")

// Candidate is a code artifact the abstraction phase proposes for reuse.
// It stays a candidate until a store commits it.
type Candidate struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Code        string    `json:"code"`
	TaskContext string    `json:"task_context,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Skill is a committed candidate with usage bookkeeping.
type Skill struct {
	Candidate
	SuccessCount int       `json:"success_count"`
	LastUsedAt   time.Time `json:"last_used_at,omitempty"`
}

// Store persists committed skills. Ranking and similarity retrieval live
// behind external collaborators; the store is exact-name lookup only.
type Store interface {
	// Commit persists a candidate, overwriting any skill of the same name.
	Commit(ctx context.Context, c Candidate) error
	// Lookup returns the skill with the given name, or ErrNotFound.
	Lookup(ctx context.Context, name string) (*Skill, error)
	// List returns all committed skills in name order.
	List(ctx context.Context) ([]*Skill, error)
	// RecordUse increments the success counter for a committed skill.
	RecordUse(ctx context.Context, name string) error
}
