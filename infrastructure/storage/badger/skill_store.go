package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/praxis-agent/praxis/domain/skill"
)

// SkillStore is a BadgerDB-backed implementation of skill.Store. Skills
// survive process restarts; a session can reuse what a previous one
// learned.
type SkillStore struct {
	db        *badger.DB
	keyPrefix string
}

// NewSkillStore opens (or creates) the store with the given configuration.
func NewSkillStore(cfg Config, opts ...Option) (*SkillStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return &SkillStore{db: db, keyPrefix: cfg.KeyPrefix}, nil
}

// NewSkillStoreFromDB wraps an existing database handle.
func NewSkillStoreFromDB(db *badger.DB, keyPrefix string) *SkillStore {
	return &SkillStore{db: db, keyPrefix: keyPrefix}
}

// Close releases the underlying database.
func (s *SkillStore) Close() error {
	return s.db.Close()
}

func (s *SkillStore) key(name string) []byte {
	return []byte(s.keyPrefix + "skill:" + name)
}

// Commit persists a candidate, preserving the success count of any skill
// it overwrites.
func (s *SkillStore) Commit(ctx context.Context, c skill.Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.Name == "" {
		return fmt.Errorf("skill: empty name")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		committed := skill.Skill{Candidate: c}

		item, err := txn.Get(s.key(c.Name))
		if err == nil {
			var prev skill.Skill
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &prev)
			}); verr == nil {
				committed.SuccessCount = prev.SuccessCount
				committed.LastUsedAt = prev.LastUsedAt
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(committed)
		if err != nil {
			return err
		}
		return txn.Set(s.key(c.Name), data)
	})
}

// Lookup returns the named skill, or skill.ErrNotFound.
func (s *SkillStore) Lookup(ctx context.Context, name string) (*skill.Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sk skill.Skill
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sk)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", skill.ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &sk, nil
}

// List returns all skills in name order.
func (s *SkillStore) List(ctx context.Context) ([]*skill.Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(s.keyPrefix + "skill:")
	var out []*skill.Skill
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var sk skill.Skill
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sk)
			}); err != nil {
				return err
			}
			cp := sk
			out = append(out, &cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RecordUse increments a skill's success counter.
func (s *SkillStore) RecordUse(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", skill.ErrNotFound, name)
		}
		if err != nil {
			return err
		}

		var sk skill.Skill
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sk)
		}); err != nil {
			return err
		}

		sk.SuccessCount++
		sk.LastUsedAt = time.Now()

		data, err := json.Marshal(sk)
		if err != nil {
			return err
		}
		return txn.Set(s.key(name), data)
	})
}
