package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/praxis-agent/praxis/domain/skill"
	"github.com/praxis-agent/praxis/infrastructure/storage/memory"
)

func TestSkillStoreCommitAndLookup(t *testing.T) {
	t.Parallel()

	store := memory.NewSkillStore()
	ctx := context.Background()

	c := skill.Candidate{
		Name:        "parse-csv",
		Code:        "func parse() {}",
		TaskContext: "extract rows from a csv export",
		Tags:        []string{"csv", "parsing"},
		CreatedAt:   time.Now(),
	}
	if err := store.Commit(ctx, c); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	got, err := store.Lookup(ctx, "parse-csv")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Code != c.Code || got.SuccessCount != 0 {
		t.Errorf("Lookup() = %+v", got)
	}
}

func TestSkillStoreLookupMissing(t *testing.T) {
	t.Parallel()

	store := memory.NewSkillStore()
	if _, err := store.Lookup(context.Background(), "ghost"); !errors.Is(err, skill.ErrNotFound) {
		t.Fatalf("Lookup() = %v, want ErrNotFound", err)
	}
}

func TestSkillStoreCommitPreservesUsage(t *testing.T) {
	t.Parallel()

	store := memory.NewSkillStore()
	ctx := context.Background()

	if err := store.Commit(ctx, skill.Candidate{Name: "fetch", Code: "v1"}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := store.RecordUse(ctx, "fetch"); err != nil {
			t.Fatalf("RecordUse() error = %v", err)
		}
	}
	if err := store.Commit(ctx, skill.Candidate{Name: "fetch", Code: "v2"}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	got, err := store.Lookup(ctx, "fetch")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Code != "v2" {
		t.Errorf("Code = %q, want recommitted v2", got.Code)
	}
	if got.SuccessCount != 3 {
		t.Errorf("SuccessCount = %d, want preserved 3", got.SuccessCount)
	}
}

func TestSkillStoreListSorted(t *testing.T) {
	t.Parallel()

	store := memory.NewSkillStore()
	ctx := context.Background()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := store.Commit(ctx, skill.Candidate{Name: name, Code: "x"}); err != nil {
			t.Fatalf("Commit(%s) error = %v", name, err)
		}
	}

	skills, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(skills) != 3 || skills[0].Name != "alpha" || skills[2].Name != "zeta" {
		names := make([]string, len(skills))
		for i, s := range skills {
			names[i] = s.Name
		}
		t.Errorf("List() order = %v, want sorted by name", names)
	}
}

func TestSkillStoreRecordUseMissing(t *testing.T) {
	t.Parallel()

	store := memory.NewSkillStore()
	if err := store.RecordUse(context.Background(), "ghost"); !errors.Is(err, skill.ErrNotFound) {
		t.Fatalf("RecordUse() = %v, want ErrNotFound", err)
	}
}
