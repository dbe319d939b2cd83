// Package scope releases everything allocated inside a block at one exit
// point.
//
// Construct a Scope at block entry, register every allocation made in the
// block and call Free on every exit path. Run does the last part with defer,
// so release also happens on early return, error return and panic:
//
//	err := scope.Run(a, func(s *scope.Scope) error {
//	    v, err := seq.New[int](a, 0)
//	    if err != nil {
//	        return err
//	    }
//	    s.RegisterDropper(v)
//	    ...
//	})
package scope

import (
	"reflect"
	"strconv"

	"mgenrt/internal/alloc"
	"mgenrt/internal/rterr"
	"mgenrt/internal/trace"
)

// Dropper is implemented by runtime containers (seq.Vec, table.Table, ...).
type Dropper interface {
	Drop()
}

type entry struct {
	ptr     any
	release func()
	next    *entry
}

// Scope owns a LIFO list of pending releases. Not safe for concurrent use.
type Scope struct {
	a     *alloc.Allocator
	head  *entry
	count int
	freed bool
}

// New creates an empty scope.
func New(a *alloc.Allocator) *Scope {
	return &Scope{a: alloc.Or(a)}
}

// Run creates a scope, calls fn with it and frees the scope however fn exits.
func Run(a *alloc.Allocator, fn func(*Scope) error) error {
	s := New(a)
	defer s.Free()
	return fn(s)
}

// Alloc allocates size bytes and registers them for release.
func (s *Scope) Alloc(size int) ([]byte, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	buf, err := alloc.Make[byte](s.a, size)
	if err != nil {
		return nil, err
	}
	s.push(buf, func() { alloc.Free(s.a, buf) })
	return buf, nil
}

// Register adds ptr with its release function. A nil ptr or nil release is
// a ValueError.
func (s *Scope) Register(ptr any, release func()) error {
	if err := s.usable(); err != nil {
		return err
	}
	if isNil(ptr) {
		return s.a.Fail(rterr.New(rterr.Value, "cannot register a nil pointer"))
	}
	if release == nil {
		return s.a.Fail(rterr.New(rterr.Value, "cannot register a nil release function"))
	}
	s.push(ptr, release)
	return nil
}

// RegisterDropper registers d.Drop as the release of d.
func (s *Scope) RegisterDropper(d Dropper) error {
	if isNil(d) {
		return s.Register(nil, nil)
	}
	return s.Register(d, d.Drop)
}

// Defer registers a bare cleanup function.
func (s *Scope) Defer(fn func()) error {
	if err := s.usable(); err != nil {
		return err
	}
	if fn == nil {
		return s.a.Fail(rterr.New(rterr.Value, "cannot defer a nil function"))
	}
	s.push(nil, fn)
	return nil
}

func (s *Scope) usable() error {
	if s.freed {
		return s.a.Fail(rterr.New(rterr.Value, "scope already freed"))
	}
	return nil
}

func (s *Scope) push(ptr any, release func()) {
	s.head = &entry{ptr: ptr, release: release, next: s.head}
	s.count++
}

// Len returns the number of pending releases.
func (s *Scope) Len() int { return s.count }

// Free runs every pending release once, newest first. Later calls do
// nothing. A release that panics does not stop the ones after it.
func (s *Scope) Free() {
	if s == nil || s.freed {
		return
	}
	head, n := s.head, s.count
	s.head, s.count, s.freed = nil, 0, true
	releaseFrom(head)
	trace.Point(s.a.Tracer(), trace.KindRelease, trace.ScopeLifecycle, "scope", 0, pluralEntries(n))
}

// releaseFrom runs e and its successors; the deferred recursion keeps the
// chain going if a release panics.
func releaseFrom(e *entry) {
	if e == nil {
		return
	}
	defer releaseFrom(e.next)
	e.next = nil
	e.release()
}

func pluralEntries(n int) string {
	if n == 1 {
		return "1 entry"
	}
	return strconv.Itoa(n) + " entries"
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
