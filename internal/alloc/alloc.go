// Package alloc provides checked allocation with optional accounting.
//
// Every container in the runtime acquires its storage through an Allocator so
// that allocation failures are reported uniformly: a MemoryError or
// ValueError is returned to the caller and recorded in the allocator's
// sticky error context. A byte limit turns the Go heap into a bounded region,
// which is how MemoryError paths are exercised deterministically.
package alloc

import (
	"fmt"
	"math"
	"math/bits"
	"reflect"
	"unsafe"

	"fortio.org/safecast"

	"mgenrt/internal/rterr"
	"mgenrt/internal/trace"
)

// Stats are the allocator's accounting counters.
type Stats struct {
	TotalAllocated int64 `msgpack:"total_allocated"`
	TotalFreed     int64 `msgpack:"total_freed"`
	Current        int64 `msgpack:"current"`
	Peak           int64 `msgpack:"peak"`
	Allocations    int64 `msgpack:"allocations"`
	Frees          int64 `msgpack:"frees"`
}

// Allocator hands out runtime storage. Not safe for concurrent use.
type Allocator struct {
	ctx      *rterr.Context
	limit    int64
	tracking bool
	current  int64
	stats    Stats
	tracer   trace.Tracer
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithContext records failures into ctx instead of the process-wide context.
func WithContext(ctx *rterr.Context) Option {
	return func(a *Allocator) { a.ctx = ctx }
}

// WithLimit caps the live bytes; 0 means unlimited.
func WithLimit(bytes int64) Option {
	return func(a *Allocator) { a.limit = bytes }
}

// WithTracking enables the full statistics counters.
func WithTracking() Option {
	return func(a *Allocator) { a.tracking = true }
}

// WithTracer attaches a tracer for allocation events.
func WithTracer(t trace.Tracer) Option {
	return func(a *Allocator) { a.tracer = t }
}

// New creates an Allocator.
func New(opts ...Option) *Allocator {
	a := &Allocator{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAllocator = New()

// Default returns the process-wide allocator. It records into rterr.Default().
func Default() *Allocator { return defaultAllocator }

// Or returns a, or the process-wide allocator when a is nil.
func Or(a *Allocator) *Allocator {
	if a == nil {
		return defaultAllocator
	}
	return a
}

// Context returns the error context failures are recorded in.
func (a *Allocator) Context() *rterr.Context {
	if a == nil || a.ctx == nil {
		return rterr.Default()
	}
	return a.ctx
}

// Tracer returns the attached tracer, never nil.
func (a *Allocator) Tracer() trace.Tracer {
	if a == nil || a.tracer == nil {
		return trace.Nop
	}
	return a.tracer
}

// SetLimit changes the live-byte cap.
func (a *Allocator) SetLimit(bytes int64) { a.limit = bytes }

// Limit returns the live-byte cap (0 = unlimited).
func (a *Allocator) Limit() int64 { return a.limit }

// InUse returns the bytes currently held.
func (a *Allocator) InUse() int64 { return a.current }

// EnableTracking resets and enables the statistics counters.
func (a *Allocator) EnableTracking() {
	a.tracking = true
	a.stats = Stats{Current: a.current, Peak: a.current}
}

// DisableTracking stops updating the statistics counters.
func (a *Allocator) DisableTracking() { a.tracking = false }

// Stats returns a copy of the counters.
func (a *Allocator) Stats() Stats {
	s := a.stats
	s.Current = a.current
	return s
}

// Leaked reports whether any accounted bytes are still live.
func (a *Allocator) Leaked() bool { return a.current > 0 }

// Fail records err in the context, traces it and returns it.
func (a *Allocator) Fail(err *rterr.Error) error {
	trace.Point(a.Tracer(), trace.KindFailure, trace.ScopeFailure, err.Kind.String(), 0, err.Message)
	return a.Context().Record(err)
}

func (a *Allocator) reserve(bytes int64) *rterr.Error {
	if a.limit > 0 && (bytes > a.limit || a.current > a.limit-bytes) {
		return rterr.Newf(rterr.Memory, "failed to allocate %d bytes (in use %d, limit %d)", bytes, a.current, a.limit)
	}
	return nil
}

func (a *Allocator) acquired(bytes int64) {
	a.current += bytes
	if !a.tracking {
		return
	}
	a.stats.TotalAllocated += bytes
	a.stats.Allocations++
	if a.current > a.stats.Peak {
		a.stats.Peak = a.current
	}
}

func (a *Allocator) released(bytes int64) {
	a.current -= bytes
	if a.current < 0 {
		a.current = 0
	}
	if !a.tracking {
		return
	}
	a.stats.TotalFreed += bytes
	a.stats.Frees++
}

// Acquire accounts bytes that live outside any slice the allocator made
// (bookkeeping nodes, inline payloads).
func (a *Allocator) Acquire(bytes int64) error {
	a = Or(a)
	if bytes <= 0 {
		return a.Fail(rterr.Newf(rterr.Value, "attempted to allocate %d bytes", bytes))
	}
	if err := a.reserve(bytes); err != nil {
		return a.Fail(err)
	}
	a.acquired(bytes)
	trace.Point(a.Tracer(), trace.KindAlloc, trace.ScopeAlloc, "raw", bytes, "")
	return nil
}

// Release undoes Acquire.
func (a *Allocator) Release(bytes int64) {
	a = Or(a)
	if bytes <= 0 {
		return
	}
	a.released(bytes)
	trace.Point(a.Tracer(), trace.KindFree, trace.ScopeAlloc, "raw", bytes, "")
}

// SizeOf returns the accounted size of one T (at least 1).
func SizeOf[T any]() int64 {
	var zero T
	if sz := int64(unsafe.Sizeof(zero)); sz > 0 {
		return sz
	}
	return 1
}

// bytesFor returns n*sizeof(T) or a ValueError on negative n or overflow.
func bytesFor[T any](n int) (int64, *rterr.Error) {
	un, err := safecast.Conv[uint64](n)
	if err != nil {
		return 0, rterr.Newf(rterr.Value, "negative element count %d", n)
	}
	hi, lo := bits.Mul64(un, uint64(SizeOf[T]()))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, rterr.Newf(rterr.Value, "integer overflow allocating %d elements of %d bytes", n, SizeOf[T]())
	}
	return int64(lo), nil
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// makeSlice converts a makeslice panic (length out of range) into a MemoryError.
func makeSlice[T any](n int) (s []T, err *rterr.Error) {
	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = rterr.Newf(rterr.Memory, "failed to allocate %d elements of %s: %v", n, typeName[T](), r)
		}
	}()
	return make([]T, n), nil
}

// Make allocates a zeroed slice of n elements.
// n == 0 is a ValueError, as is a size overflow; exceeding the limit is a MemoryError.
func Make[T any](a *Allocator, n int) ([]T, error) {
	a = Or(a)
	if n == 0 {
		return nil, a.Fail(rterr.New(rterr.Value, "attempted to allocate 0 elements"))
	}
	bytes, verr := bytesFor[T](n)
	if verr != nil {
		return nil, a.Fail(verr)
	}
	if merr := a.reserve(bytes); merr != nil {
		return nil, a.Fail(merr)
	}
	s, merr := makeSlice[T](n)
	if merr != nil {
		return nil, a.Fail(merr)
	}
	a.acquired(bytes)
	if tr := a.Tracer(); tr.Enabled() {
		trace.Point(tr, trace.KindAlloc, trace.ScopeAlloc, typeName[T](), bytes, fmt.Sprintf("n=%d", n))
	}
	return s, nil
}

// Resize returns a slice of n elements holding the first min(len(s), n)
// elements of s. n == 0 frees s and returns nil. On failure s is untouched.
// With tracking on, a growing resize counts as one allocation.
func Resize[T any](a *Allocator, s []T, n int) ([]T, error) {
	a = Or(a)
	if n == 0 {
		Free(a, s)
		return nil, nil
	}
	if s == nil {
		return Make[T](a, n)
	}
	newBytes, verr := bytesFor[T](n)
	if verr != nil {
		return nil, a.Fail(verr)
	}
	oldBytes := int64(cap(s)) * SizeOf[T]()
	if grow := newBytes - oldBytes; grow > 0 {
		if merr := a.reserve(grow); merr != nil {
			return nil, a.Fail(rterr.Newf(rterr.Memory, "failed to reallocate to %d bytes: %s", newBytes, merr.Message))
		}
	}
	out, merr := makeSlice[T](n)
	if merr != nil {
		return nil, a.Fail(merr)
	}
	copy(out, s)
	a.current += newBytes - oldBytes
	if a.tracking {
		if newBytes > oldBytes {
			a.stats.TotalAllocated += newBytes - oldBytes
			a.stats.Allocations++
		} else {
			a.stats.TotalFreed += oldBytes - newBytes
		}
		if a.current > a.stats.Peak {
			a.stats.Peak = a.current
		}
	}
	if tr := a.Tracer(); tr.Enabled() {
		trace.Point(tr, trace.KindResize, trace.ScopeAlloc, typeName[T](), newBytes, fmt.Sprintf("%d->%d", cap(s), n))
	}
	return out, nil
}

// Free releases s. A nil slice is a no-op.
func Free[T any](a *Allocator, s []T) {
	if s == nil {
		return
	}
	a = Or(a)
	bytes := int64(cap(s)) * SizeOf[T]()
	a.released(bytes)
	if tr := a.Tracer(); tr.Enabled() {
		trace.Point(tr, trace.KindFree, trace.ScopeAlloc, typeName[T](), bytes, "")
	}
}

// Copy copies src into dst; src longer than dst is a ValueError.
// Overlapping ranges are handled (memmove semantics).
func Copy[T any](a *Allocator, dst, src []T) error {
	if dst == nil && len(src) > 0 {
		return Or(a).Fail(rterr.New(rterr.Value, "nil destination in copy"))
	}
	if len(src) > len(dst) {
		return Or(a).Fail(rterr.Newf(rterr.Value, "source size %d exceeds destination size %d", len(src), len(dst)))
	}
	copy(dst, src)
	return nil
}

// Move is Copy; Go's copy already tolerates overlapping ranges.
func Move[T any](a *Allocator, dst, src []T) error {
	return Copy(a, dst, src)
}

// Fill sets the first count elements of dst to v.
func Fill[T any](a *Allocator, dst []T, v T, count int) error {
	if count < 0 || count > len(dst) {
		return Or(a).Fail(rterr.Newf(rterr.Value, "count %d exceeds destination size %d", count, len(dst)))
	}
	for i := range dst[:count] {
		dst[i] = v
	}
	return nil
}
