package badger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/praxis-agent/praxis/domain/skill"
	storage "github.com/praxis-agent/praxis/infrastructure/storage/badger"
)

func newStore(t *testing.T) *storage.SkillStore {
	t.Helper()
	store, err := storage.NewSkillStore(storage.Config{}, storage.WithInMemory())
	if err != nil {
		t.Fatalf("NewSkillStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSkillStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	c := skill.Candidate{
		Name:        "summarize-log",
		Code:        "func summarize() {}",
		TaskContext: "condense a build log to failures",
		Tags:        []string{"logs"},
	}
	if err := store.Commit(ctx, c); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	got, err := store.Lookup(ctx, "summarize-log")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Code != c.Code || len(got.Tags) != 1 {
		t.Errorf("Lookup() = %+v", got)
	}

	if _, err := store.Lookup(ctx, "missing"); !errors.Is(err, skill.ErrNotFound) {
		t.Errorf("Lookup(missing) = %v, want ErrNotFound", err)
	}
}

func TestSkillStoreRecordUse(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	if err := store.Commit(ctx, skill.Candidate{Name: "fetch", Code: "v1"}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := store.RecordUse(ctx, "fetch"); err != nil {
		t.Fatalf("RecordUse() error = %v", err)
	}
	if err := store.RecordUse(ctx, "fetch"); err != nil {
		t.Fatalf("RecordUse() error = %v", err)
	}

	got, err := store.Lookup(ctx, "fetch")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", got.SuccessCount)
	}
	if got.LastUsedAt.IsZero() {
		t.Error("LastUsedAt not stamped")
	}

	if err := store.RecordUse(ctx, "missing"); !errors.Is(err, skill.ErrNotFound) {
		t.Errorf("RecordUse(missing) = %v, want ErrNotFound", err)
	}
}

func TestSkillStoreList(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()
	for _, name := range []string{"c-skill", "a-skill", "b-skill"} {
		if err := store.Commit(ctx, skill.Candidate{Name: name, Code: "x"}); err != nil {
			t.Fatalf("Commit(%s) error = %v", name, err)
		}
	}

	skills, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(skills) != 3 || skills[0].Name != "a-skill" {
		t.Errorf("List() = %d skills, first %q", len(skills), skills[0].Name)
	}
}
