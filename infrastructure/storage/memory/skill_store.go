// Package memory provides in-memory implementations of storage interfaces.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/praxis-agent/praxis/domain/skill"
)

// SkillStore is an in-memory implementation of skill.Store. Safe for
// concurrent use; all reads return copies.
type SkillStore struct {
	mu     sync.RWMutex
	skills map[string]*skill.Skill
}

// NewSkillStore creates an empty store.
func NewSkillStore() *SkillStore {
	return &SkillStore{skills: make(map[string]*skill.Skill)}
}

// Commit persists a candidate, overwriting any previous skill of the same
// name but preserving its success count.
func (s *SkillStore) Commit(ctx context.Context, c skill.Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.Name == "" {
		return fmt.Errorf("skill: empty name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	committed := &skill.Skill{Candidate: c}
	if prev, ok := s.skills[c.Name]; ok {
		committed.SuccessCount = prev.SuccessCount
		committed.LastUsedAt = prev.LastUsedAt
	}
	s.skills[c.Name] = committed
	return nil
}

// Lookup returns the named skill, or skill.ErrNotFound.
func (s *SkillStore) Lookup(ctx context.Context, name string) (*skill.Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sk, ok := s.skills[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", skill.ErrNotFound, name)
	}
	cp := *sk
	return &cp, nil
}

// List returns all skills in name order.
func (s *SkillStore) List(ctx context.Context) ([]*skill.Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*skill.Skill, 0, len(s.skills))
	for _, sk := range s.skills {
		cp := *sk
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RecordUse increments a skill's success counter.
func (s *SkillStore) RecordUse(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sk, ok := s.skills[name]
	if !ok {
		return fmt.Errorf("%w: %s", skill.ErrNotFound, name)
	}
	sk.SuccessCount++
	sk.LastUsedAt = time.Now()
	return nil
}
