package table

import (
	"iter"

	"mgenrt/internal/alloc"
)

// Set is a hash set of K. The zero value is an empty set.
type Set[K comparable] struct {
	t Table[K, struct{}]
}

// NewSet creates a set; Options.ValueDrop is ignored.
func NewSet[K comparable](a *alloc.Allocator, opts Options[K, struct{}]) (*Set[K], error) {
	s := &Set[K]{}
	opts.ValueDrop = nil
	if err := s.t.Init(a, opts); err != nil {
		return nil, err
	}
	return s, nil
}

// Add inserts k and reports whether it was new.
func (s *Set[K]) Add(k K) (bool, error) { return s.t.Insert(k, struct{}{}) }

// Contains reports whether k is a member.
func (s *Set[K]) Contains(k K) bool { return s.t.Contains(k) }

// Remove deletes k and reports whether it was a member.
func (s *Set[K]) Remove(k K) bool { return s.t.Remove(k) }

// Len returns the number of members.
func (s *Set[K]) Len() int { return s.t.Len() }

// Clear removes every member and keeps the buckets.
func (s *Set[K]) Clear() { s.t.Clear() }

// Drop releases all storage.
func (s *Set[K]) Drop() {
	if s != nil {
		s.t.Drop()
	}
}

// Each calls fn for every member until fn returns false.
func (s *Set[K]) Each(fn func(K) bool) {
	s.t.Each(func(k K, _ *struct{}) bool { return fn(k) })
}

// All iterates over the members.
func (s *Set[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) { s.Each(yield) }
}

// Equal reports whether s and o have the same members.
func (s *Set[K]) Equal(o *Set[K]) bool {
	if s == nil || o == nil {
		return s == o
	}
	return EqualFunc(&s.t, &o.t, func(struct{}, struct{}) bool { return true })
}

// Keys returns the members.
func (s *Set[K]) Keys() []K { return s.t.Keys() }

// BucketCount returns the number of chains.
func (s *Set[K]) BucketCount() int { return s.t.BucketCount() }
