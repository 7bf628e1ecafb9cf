// Package triage tracks the categories a user assigns to opportunities and
// bets during a dashboard session.
package triage

import (
	"errors"
	"sync"
	"time"

	"betdesk/internal/domain"
)

var (
	// ErrNotFound is returned when an operation names an identifier the store has never seen.
	ErrNotFound = errors.New("triage: entity not classified")
	// ErrInvalidCategory is returned for labels outside the closed category set.
	ErrInvalidCategory = errors.New("triage: invalid category")
)

// Classified wraps an entity with its triage state.
type Classified struct {
	Entity       domain.Entity   `json:"entity"`
	Category     domain.Category `json:"category"`
	ClassifiedAt time.Time       `json:"classified_at"`
}

// ID returns the wrapped entity identifier.
func (c Classified) ID() string { return c.Entity.EntityID() }

// Change describes a mutation, delivered to the store Observer.
type Change struct {
	ID       string
	Previous domain.Category // empty on add
	Current  domain.Category // empty on remove
}

// Observer receives every successful mutation. It runs under the store lock
// and must not call back into the store.
type Observer func(Change)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the classification timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithObserver registers a mutation callback.
func WithObserver(fn Observer) Option {
	return func(s *Store) {
		s.observer = fn
	}
}

// Store holds classified entities in insertion order. At most one entry exists
// per identifier.
type Store struct {
	mu       sync.RWMutex
	items    []*Classified
	index    map[string]*Classified
	now      func() time.Time
	observer Observer
}

// NewStore builds an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		index: make(map[string]*Classified),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers the entity as Uncategorized. It reports false, changing
// nothing, when the identifier is already known.
func (s *Store) Add(entity domain.Entity) bool {
	if entity == nil {
		return false
	}
	id := entity.EntityID()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; ok {
		return false
	}

	item := &Classified{
		Entity:       entity,
		Category:     domain.CategoryUncategorized,
		ClassifiedAt: s.now(),
	}
	s.items = append(s.items, item)
	s.index[id] = item
	s.notify(Change{ID: id, Current: item.Category})
	return true
}

// SetCategory relabels a known entity. Unknown identifiers yield ErrNotFound
// and leave the store untouched.
func (s *Store) SetCategory(id string, category domain.Category) error {
	if !category.Valid() {
		return ErrInvalidCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	if item.Category == category {
		return nil
	}

	previous := item.Category
	item.Category = category
	s.notify(Change{ID: id, Previous: previous, Current: category})
	return nil
}

// Remove forgets the entity so a later Add admits it fresh.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.index, id)
	for i, candidate := range s.items {
		if candidate == item {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.notify(Change{ID: id, Previous: item.Category})
	return nil
}

// IsClassified reports membership.
func (s *Store) IsClassified(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// Get returns a copy of the entry for id.
func (s *Store) Get(id string) (Classified, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.index[id]
	if !ok {
		return Classified{}, false
	}
	return *item, true
}

// Len returns the number of classified entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// List returns the entries in insertion order.
func (s *Store) List() []Classified {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Classified, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item)
	}
	return out
}

// ByCategory returns the entries carrying category, in insertion order.
func (s *Store) ByCategory(category domain.Category) []Classified {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Classified, 0)
	for _, item := range s.items {
		if item.Category == category {
			out = append(out, *item)
		}
	}
	return out
}

// Counts tallies entries per category. Every category is present.
func (s *Store) Counts() map[domain.Category]int {
	counts := make(map[domain.Category]int, len(domain.Categories))
	for _, c := range domain.Categories {
		counts[c] = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		counts[item.Category]++
	}
	return counts
}

func (s *Store) notify(change Change) {
	if s.observer != nil {
		s.observer(change)
	}
}
