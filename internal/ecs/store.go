package ecs

import (
	"fmt"
	"iter"
)

type typedStore interface {
	drop(e Entity)
	Len() int
}

// Store is a sparse set of T values keyed by entity.
type Store[T any] struct {
	world  *World
	sparse map[Entity]int
	dense  []Entity
	data   []T
}

// Insert attaches v to a live entity, replacing any previous value.
func (s *Store[T]) Insert(e Entity, v T) error {
	if !s.world.Alive(e) {
		return fmt.Errorf("%w: %d", ErrNoEntity, e)
	}
	if idx, ok := s.sparse[e]; ok {
		s.data[idx] = v
		return nil
	}
	s.sparse[e] = len(s.data)
	s.dense = append(s.dense, e)
	s.data = append(s.data, v)
	return nil
}

func (s *Store[T]) Get(e Entity) (T, bool) {
	idx, ok := s.sparse[e]
	if !ok {
		var zero T
		return zero, false
	}
	return s.data[idx], true
}

func (s *Store[T]) Has(e Entity) bool {
	_, ok := s.sparse[e]
	return ok
}

// Remove detaches and returns the value for e.
func (s *Store[T]) Remove(e Entity) (T, bool) {
	idx, ok := s.sparse[e]
	if !ok {
		var zero T
		return zero, false
	}
	v := s.data[idx]
	last := len(s.data) - 1
	if idx != last {
		moved := s.dense[last]
		s.data[idx] = s.data[last]
		s.dense[idx] = moved
		s.sparse[moved] = idx
	}
	var zero T
	s.data[last] = zero
	s.data = s.data[:last]
	s.dense = s.dense[:last]
	delete(s.sparse, e)
	return v, true
}

func (s *Store[T]) Len() int {
	return len(s.dense)
}

// All yields every (entity, value) pair. Mutating the store while iterating
// is not supported; use Retain to drop entries.
func (s *Store[T]) All() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		for i, e := range s.dense {
			if !yield(e, s.data[i]) {
				return
			}
		}
	}
}

// Entities returns a snapshot of the entities holding a value.
func (s *Store[T]) Entities() []Entity {
	out := make([]Entity, len(s.dense))
	copy(out, s.dense)
	return out
}

// Retain keeps only entries for which keep returns true.
func (s *Store[T]) Retain(keep func(Entity, T) bool) int {
	removed := 0
	for i := 0; i < len(s.dense); {
		e := s.dense[i]
		if keep(e, s.data[i]) {
			i++
			continue
		}
		s.Remove(e)
		removed++
	}
	return removed
}

func (s *Store[T]) drop(e Entity) {
	s.Remove(e)
}

// Join calls fn for every entity present in both stores. It stops early when
// fn returns false.
func Join[A, B any](a *Store[A], b *Store[B], fn func(Entity, A, B) bool) {
	small, large := a.Len(), b.Len()
	if small <= large {
		for e, av := range a.All() {
			bv, ok := b.Get(e)
			if !ok {
				continue
			}
			if !fn(e, av, bv) {
				return
			}
		}
		return
	}
	for e, bv := range b.All() {
		av, ok := a.Get(e)
		if !ok {
			continue
		}
		if !fn(e, av, bv) {
			return
		}
	}
}
