// Package seq implements the runtime's growable sequence.
//
// A Vec owns a buffer of Cap() elements of which the first Len() are live.
// All storage is obtained from an alloc.Allocator, so growth failures surface
// as MemoryError and leave the sequence exactly as it was.
package seq

import (
	"iter"

	"mgenrt/internal/alloc"
	"mgenrt/internal/config"
	"mgenrt/internal/rterr"
	"mgenrt/internal/slice"
	"mgenrt/internal/trace"
)

// DefaultCapacity is used by New when no capacity is requested.
var DefaultCapacity = config.DefaultSequenceCapacity

// Vec is a growable sequence. The zero value is an empty sequence backed by
// the default allocator.
type Vec[T any] struct {
	a      *alloc.Allocator
	buf    []T // len(buf) is the capacity
	length int
	drop   func(*T)
}

// Option configures a Vec.
type Option[T any] func(*Vec[T])

// WithElemDrop registers a release hook for elements the sequence discards:
// removed or overwritten elements and everything on Clear and Drop.
func WithElemDrop[T any](fn func(*T)) Option[T] {
	return func(v *Vec[T]) { v.drop = fn }
}

// New creates a sequence with room for initialCapacity elements
// (DefaultCapacity when 0).
func New[T any](a *alloc.Allocator, initialCapacity int, opts ...Option[T]) (*Vec[T], error) {
	v := &Vec[T]{a: a}
	for _, opt := range opts {
		opt(v)
	}
	if initialCapacity < 0 {
		return nil, v.allocator().Fail(rterr.Newf(rterr.Value, "negative initial capacity %d", initialCapacity))
	}
	if initialCapacity == 0 {
		initialCapacity = DefaultCapacity
	}
	buf, err := alloc.Make[T](v.allocator(), initialCapacity)
	if err != nil {
		return nil, err
	}
	v.buf = buf
	return v, nil
}

// From creates a sequence holding a copy of items.
func From[T any](a *alloc.Allocator, items []T, opts ...Option[T]) (*Vec[T], error) {
	v, err := New(a, len(items), opts...)
	if err != nil {
		return nil, err
	}
	v.length = copy(v.buf, items)
	return v, nil
}

func (v *Vec[T]) allocator() *alloc.Allocator { return alloc.Or(v.a) }

func (v *Vec[T]) fail(err *rterr.Error) error { return v.allocator().Fail(err) }

// Len returns the number of elements.
func (v *Vec[T]) Len() int { return v.length }

// Cap returns the allocated capacity.
func (v *Vec[T]) Cap() int { return len(v.buf) }

// Items returns the live elements. The slice aliases the sequence's storage
// and is invalidated by any growth.
func (v *Vec[T]) Items() []T { return v.buf[:v.length] }

// growTo reallocates the buffer to exactly n elements.
func (v *Vec[T]) growTo(n int) error {
	buf, err := alloc.Resize(v.allocator(), v.buf, n)
	if err != nil {
		return err
	}
	if tr := v.allocator().Tracer(); tr.Enabled() {
		trace.Point(tr, trace.KindGrow, trace.ScopeContainer, "seq", alloc.SizeOf[T]()*int64(n), "")
	}
	v.buf = buf
	return nil
}

// ensureRoom grows by half the current capacity (at least one element)
// when the sequence is full.
func (v *Vec[T]) ensureRoom() error {
	if v.length < len(v.buf) {
		return nil
	}
	c := len(v.buf)
	next := c + c/2
	if next <= c {
		next = c + 1
	}
	return v.growTo(next)
}

// Append adds x at the end.
func (v *Vec[T]) Append(x T) error {
	if err := v.ensureRoom(); err != nil {
		return err
	}
	v.buf[v.length] = x
	v.length++
	return nil
}

// Extend appends every element of xs, growing at most once.
func (v *Vec[T]) Extend(xs ...T) error {
	if err := v.Reserve(v.length + len(xs)); err != nil {
		return err
	}
	v.length += copy(v.buf[v.length:], xs)
	return nil
}

// Insert places x at position i, shifting later elements right.
// i may equal Len().
func (v *Vec[T]) Insert(i int, x T) error {
	if i < 0 || i > v.length {
		return v.fail(rterr.OutOfBounds("insert", i, v.length+1))
	}
	if err := v.ensureRoom(); err != nil {
		return err
	}
	copy(v.buf[i+1:v.length+1], v.buf[i:v.length])
	v.buf[i] = x
	v.length++
	return nil
}

// Remove deletes the element at i, passing it to the drop hook.
func (v *Vec[T]) Remove(i int) error {
	if i < 0 || i >= v.length {
		return v.fail(rterr.OutOfBounds("remove", i, v.length))
	}
	v.release(&v.buf[i])
	copy(v.buf[i:], v.buf[i+1:v.length])
	v.length--
	var zero T
	v.buf[v.length] = zero
	return nil
}

// Get returns the element at i.
func (v *Vec[T]) Get(i int) (T, error) {
	if i < 0 || i >= v.length {
		var zero T
		return zero, v.fail(rterr.OutOfBounds("get", i, v.length))
	}
	return v.buf[i], nil
}

// At returns a pointer to the element at i, valid until the next growth.
func (v *Vec[T]) At(i int) (*T, error) {
	if i < 0 || i >= v.length {
		return nil, v.fail(rterr.OutOfBounds("at", i, v.length))
	}
	return &v.buf[i], nil
}

// Set replaces the element at i; the old value goes to the drop hook.
func (v *Vec[T]) Set(i int, x T) error {
	if i < 0 || i >= v.length {
		return v.fail(rterr.OutOfBounds("set", i, v.length))
	}
	v.release(&v.buf[i])
	v.buf[i] = x
	return nil
}

// Reserve ensures room for at least n elements.
func (v *Vec[T]) Reserve(n int) error {
	if n < 0 {
		return v.fail(rterr.Newf(rterr.Value, "negative capacity %d", n))
	}
	if n <= len(v.buf) {
		return nil
	}
	return v.growTo(n)
}

// ShrinkToFit trims the capacity to the length. An empty sequence keeps
// its buffer.
func (v *Vec[T]) ShrinkToFit() error {
	if v.length == 0 || v.length == len(v.buf) {
		return nil
	}
	return v.growTo(v.length)
}

// PopBack removes and returns the last element. Ownership passes to the
// caller, so the drop hook is not called.
func (v *Vec[T]) PopBack() (T, error) {
	var zero T
	if v.length == 0 {
		return zero, v.fail(rterr.New(rterr.Index, "pop from empty sequence"))
	}
	v.length--
	x := v.buf[v.length]
	v.buf[v.length] = zero
	return x, nil
}

// Back returns a pointer to the last element, or nil when empty.
func (v *Vec[T]) Back() *T {
	if v.length == 0 {
		return nil
	}
	return &v.buf[v.length-1]
}

// Clear drops every element and keeps the buffer.
func (v *Vec[T]) Clear() {
	var zero T
	for i := range v.length {
		v.release(&v.buf[i])
		v.buf[i] = zero
	}
	v.length = 0
}

// Drop releases every element and the buffer. Safe to call repeatedly and
// on the zero value.
func (v *Vec[T]) Drop() {
	if v == nil {
		return
	}
	v.Clear()
	if v.buf != nil {
		alloc.Free(v.allocator(), v.buf)
		v.buf = nil
	}
}

func (v *Vec[T]) release(x *T) {
	if v.drop != nil {
		v.drop(x)
	}
}

// ContainsFunc reports whether any element satisfies match.
func (v *Vec[T]) ContainsFunc(match func(T) bool) bool {
	for _, x := range v.buf[:v.length] {
		if match(x) {
			return true
		}
	}
	return false
}

// All yields index/element pairs in order, like Python's enumerate.
// v must not be resized during iteration.
func (v *Vec[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, x := range v.buf[:v.length] {
			if !yield(i, x) {
				return
			}
		}
	}
}

// Contains reports whether x is an element of v.
func Contains[T comparable](v *Vec[T], x T) bool {
	return v.ContainsFunc(func(y T) bool { return y == x })
}

// Equal reports whether a and b hold equal elements in the same order.
func Equal[T comparable](a, b *Vec[T]) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i, x := range a.Items() {
		if b.buf[i] != x {
			return false
		}
	}
	return true
}

// GetPy resolves a Python-style index, negative values counting from
// the end.
func (v *Vec[T]) GetPy(i int64) (T, error) {
	idx, err := slice.Index(i, v.length)
	if err != nil {
		var zero T
		return zero, v.allocator().Context().Record(err)
	}
	return v.buf[idx], nil
}

// SliceOf returns a new sequence with the elements selected by d.
// The result shares v's allocator but not its drop hook.
func (v *Vec[T]) SliceOf(d slice.Descriptor) (*Vec[T], error) {
	n, err := slice.Normalize(d, v.length)
	if err != nil {
		return nil, v.allocator().Context().Record(err)
	}
	out, err := New[T](v.a, n.Len)
	if err != nil {
		return nil, err
	}
	for i := range n.Indices() {
		out.buf[out.length] = v.buf[i]
		out.length++
	}
	return out, nil
}
