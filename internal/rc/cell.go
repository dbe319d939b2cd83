// Package rc provides a manually reference-counted cell.
package rc

import (
	"mgenrt/internal/alloc"
	"mgenrt/internal/trace"
)

// Cell holds a payload shared by several owners. The count is a plain int:
// a Cell must not be shared across goroutines.
type Cell[T any] struct {
	a          *alloc.Allocator
	count      int
	destructor func(*T)
	data       T
	dead       bool
}

// New creates a cell with count 1. destructor may be nil.
func New[T any](a *alloc.Allocator, payload T, destructor func(*T)) (*Cell[T], error) {
	a = alloc.Or(a)
	if err := a.Acquire(alloc.SizeOf[Cell[T]]()); err != nil {
		return nil, err
	}
	return &Cell[T]{a: a, count: 1, destructor: destructor, data: payload}, nil
}

// Retain adds an owner and returns c.
func (c *Cell[T]) Retain() *Cell[T] {
	if c == nil {
		return nil
	}
	c.count++
	return c
}

// Release drops an owner. When the count reaches zero the destructor runs on
// the payload and the cell's storage is released. Releasing more often than
// New plus Retain is a caller bug; a dead cell ignores it.
func (c *Cell[T]) Release() {
	if c == nil || c.dead {
		return
	}
	c.count--
	if c.count > 0 {
		return
	}
	c.dead = true
	if c.destructor != nil {
		c.destructor(&c.data)
	}
	var zero T
	c.data = zero
	c.a.Release(alloc.SizeOf[Cell[T]]())
	trace.Point(c.a.Tracer(), trace.KindRelease, trace.ScopeLifecycle, "rc", alloc.SizeOf[Cell[T]](), "")
}

// Count returns the number of owners (0 for nil).
func (c *Cell[T]) Count() int {
	if c == nil {
		return 0
	}
	return c.count
}

// Data returns the payload, or nil for a nil cell.
func (c *Cell[T]) Data() *T {
	if c == nil {
		return nil
	}
	return &c.data
}

// Drop is Release, so a Cell can be handed to a scope or registry.
func (c *Cell[T]) Drop() { c.Release() }
