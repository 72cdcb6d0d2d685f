package annotation

import (
	"fmt"
)

// Store is the ordered annotation set owned by the dashboard view. Every
// mutation builds a fresh backing slice and swaps it in, so a slice obtained
// from List is never modified afterwards.
//
// Store is not safe for concurrent use.
type Store struct {
	items []Annotation
	index map[string]int // id -> position in items
}

// NewStore returns a store seeded with items in order. It fails on a
// duplicate id or an inverted date range.
func NewStore(items ...Annotation) (*Store, error) {
	s := &Store{index: make(map[string]int, len(items))}
	for _, a := range items {
		if err := s.Add(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a.
func (s *Store) Add(a Annotation) error {
	if a.ID == "" {
		return fmt.Errorf("add annotation: empty id: %w", ErrInvalidOperation)
	}
	if _, ok := s.index[a.ID]; ok {
		return fmt.Errorf("add annotation %q: %w", a.ID, ErrDuplicateID)
	}
	if a.EndDate.Before(a.StartDate) {
		return fmt.Errorf("add annotation %q: end %s before start %s: %w", a.ID, a.EndDate, a.StartDate, ErrInvalidOperation)
	}
	next := make([]Annotation, len(s.items), len(s.items)+1)
	copy(next, s.items)
	s.items = append(next, a)
	if s.index == nil {
		s.index = make(map[string]int)
	}
	s.index[a.ID] = len(s.items) - 1
	return nil
}

// Update applies p to the annotation with the given id and returns the
// result.
func (s *Store) Update(id string, p Patch) (Annotation, error) {
	i, ok := s.index[id]
	if !ok {
		return Annotation{}, fmt.Errorf("update annotation %q: %w", id, ErrNotFound)
	}
	updated := p.apply(s.items[i])
	if updated.EndDate.Before(updated.StartDate) {
		return Annotation{}, fmt.Errorf("update annotation %q: end %s before start %s: %w", id, updated.EndDate, updated.StartDate, ErrInvalidOperation)
	}
	next := make([]Annotation, len(s.items))
	copy(next, s.items)
	next[i] = updated
	s.items = next
	return updated, nil
}

// Remove deletes the annotation with the given id. Removing an absent id is
// a no-op.
func (s *Store) Remove(id string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	next := make([]Annotation, 0, len(s.items)-1)
	next = append(next, s.items[:i]...)
	next = append(next, s.items[i+1:]...)
	s.items = next
	s.reindex()
}

// Get returns the annotation with the given id.
func (s *Store) Get(id string) (Annotation, bool) {
	i, ok := s.index[id]
	if !ok {
		return Annotation{}, false
	}
	return s.items[i], true
}

// List returns a copy of the annotations in insertion order.
func (s *Store) List() []Annotation {
	out := make([]Annotation, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of annotations.
func (s *Store) Len() int { return len(s.items) }

// SourceEventIDs returns the set of suggested-event ids that have been
// pinned into this store.
func (s *Store) SourceEventIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, a := range s.items {
		if a.SourceEventID != "" {
			ids[a.SourceEventID] = struct{}{}
		}
	}
	return ids
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.items))
	for i, a := range s.items {
		s.index[a.ID] = i
	}
}
