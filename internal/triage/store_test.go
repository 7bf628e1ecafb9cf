package triage

import (
	"errors"
	"testing"
	"time"

	"betdesk/internal/domain"
)

type entity string

func (e entity) EntityID() string { return string(e) }

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestAddIsIdempotent(t *testing.T) {
	s := NewStore()

	if !s.Add(entity("1")) {
		t.Fatal("first add should register the entity")
	}
	if s.Add(entity("1")) {
		t.Fatal("second add for the same id should be a no-op")
	}
	if s.Len() != 1 {
		t.Fatalf("expected exactly one entity, got %d", s.Len())
	}

	got, ok := s.Get("1")
	if !ok || got.Category != domain.CategoryUncategorized {
		t.Fatalf("new entity should be Uncategorized: %#v", got)
	}
}

func TestDistinctCountMatchesDistinctIDs(t *testing.T) {
	s := NewStore()
	ids := []string{"a", "b", "a", "c", "b", "a", "d"}
	for _, id := range ids {
		s.Add(entity(id))
	}
	if s.Len() != 4 {
		t.Fatalf("expected 4 distinct entities, got %d", s.Len())
	}

	list := s.List()
	order := []string{"a", "b", "c", "d"}
	for i, item := range list {
		if item.ID() != order[i] {
			t.Fatalf("insertion order broken at %d: %s", i, item.ID())
		}
	}
}

func TestSetCategory(t *testing.T) {
	s := NewStore()
	s.Add(entity("1"))
	s.Add(entity("2"))

	if err := s.SetCategory("1", domain.CategoryPlayed); err != nil {
		t.Fatalf("set category: %v", err)
	}
	first, _ := s.Get("1")
	if first.Category != domain.CategoryPlayed {
		t.Fatalf("expected Played, got %s", first.Category)
	}
	second, _ := s.Get("2")
	if second.Category != domain.CategoryUncategorized {
		t.Fatalf("other entities must be untouched, got %s", second.Category)
	}

	before := s.List()
	if err := s.SetCategory("1", domain.CategoryPlayed); err != nil {
		t.Fatalf("repeat set category: %v", err)
	}
	after := s.List()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("repeat set category changed state: %#v vs %#v", before[i], after[i])
		}
	}
}

func TestSetCategoryErrors(t *testing.T) {
	s := NewStore()
	s.Add(entity("1"))

	if err := s.SetCategory("missing", domain.CategoryPlayed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetCategory("1", domain.Category("Maybe")); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatal("failed updates must not add entities")
	}
}

func TestRemoveThenAddStartsFresh(t *testing.T) {
	s := NewStore()
	s.Add(entity("1"))
	if err := s.SetCategory("1", domain.CategoryRejected); err != nil {
		t.Fatalf("set category: %v", err)
	}

	if err := s.Remove("1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if s.IsClassified("1") {
		t.Fatal("removed id should not be classified")
	}
	if err := s.Remove("1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove should report ErrNotFound, got %v", err)
	}

	if !s.Add(entity("1")) {
		t.Fatal("add after remove should admit the id again")
	}
	got, _ := s.Get("1")
	if got.Category != domain.CategoryUncategorized {
		t.Fatalf("re-added entity should be Uncategorized, got %s", got.Category)
	}
}

func TestScenarioAddSetRemove(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(WithClock(fixedClock(ts)))

	s.Add(entity("1"))
	s.Add(entity("1"))
	if s.Len() != 1 {
		t.Fatalf("expected one entity, got %d", s.Len())
	}
	got, _ := s.Get("1")
	if !got.ClassifiedAt.Equal(ts) {
		t.Fatalf("classifiedAt should come from the clock, got %s", got.ClassifiedAt)
	}

	if err := s.SetCategory("1", domain.CategoryPlayed); err != nil {
		t.Fatalf("set category: %v", err)
	}
	got, _ = s.Get("1")
	if got.Category != domain.CategoryPlayed {
		t.Fatalf("expected Played, got %s", got.Category)
	}

	if err := s.Remove("1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if s.IsClassified("1") {
		t.Fatal("isClassified should be false after remove")
	}
}

func TestCountsAndObserver(t *testing.T) {
	var changes []Change
	s := NewStore(WithObserver(func(c Change) { changes = append(changes, c) }))

	s.Add(entity("1"))
	s.Add(entity("2"))
	s.Add(entity("2"))
	_ = s.SetCategory("2", domain.CategoryToPlay)
	_ = s.SetCategory("2", domain.CategoryToPlay)
	_ = s.Remove("1")

	counts := s.Counts()
	if counts[domain.CategoryToPlay] != 1 || counts[domain.CategoryUncategorized] != 0 {
		t.Fatalf("unexpected counts: %#v", counts)
	}
	if len(counts) != len(domain.Categories) {
		t.Fatalf("every category should be reported, got %d", len(counts))
	}

	if len(changes) != 4 {
		t.Fatalf("expected 4 observed changes, got %d: %#v", len(changes), changes)
	}
	last := changes[3]
	if last.ID != "1" || last.Previous != domain.CategoryUncategorized || last.Current != "" {
		t.Fatalf("unexpected remove change: %#v", last)
	}

	if len(s.ByCategory(domain.CategoryToPlay)) != 1 {
		t.Fatal("ByCategory should return the ToPlay entity")
	}
}
