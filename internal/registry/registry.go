// Package registry tears down many heterogeneous containers with one call.
package registry

import (
	"go.uber.org/zap"

	"mgenrt/internal/alloc"
	"mgenrt/internal/rterr"
	"mgenrt/internal/rtlog"
	"mgenrt/internal/trace"
)

type node struct {
	container any
	destroy   func(any)
	name      string
	next      *node
}

// Registry is a list of (container, destructor) pairs, newest first.
type Registry struct {
	a     *alloc.Allocator
	head  *node
	count int
}

// New creates an empty registry.
func New(a *alloc.Allocator) *Registry {
	return &Registry{a: alloc.Or(a)}
}

func (r *Registry) allocator() *alloc.Allocator { return alloc.Or(r.a) }

// Register records container with its destructor. name is optional and only
// used for diagnostics.
func (r *Registry) Register(container any, destructor func(any), name string) error {
	if container == nil || destructor == nil {
		return r.allocator().Fail(rterr.New(rterr.Value, "registry needs a container and a destructor"))
	}
	r.head = &node{container: container, destroy: destructor, name: name, next: r.head}
	r.count++
	return nil
}

// Track registers a typed container.
func Track[T any](r *Registry, container T, destructor func(T), name string) error {
	if destructor == nil {
		return r.Register(container, nil, name)
	}
	return r.Register(container, func(c any) { destructor(c.(T)) }, name)
}

// TrackDropper registers anything with a Drop method.
func (r *Registry) TrackDropper(d interface{ Drop() }, name string) error {
	if d == nil {
		return r.Register(nil, nil, name)
	}
	return r.Register(d, func(any) { d.Drop() }, name)
}

// Len returns the number of registered containers.
func (r *Registry) Len() int { return r.count }

// Names returns the registered names in cleanup order.
func (r *Registry) Names() []string {
	out := make([]string, 0, r.count)
	for n := r.head; n != nil; n = n.next {
		out = append(out, n.name)
	}
	return out
}

// CleanupAll destroys every container once, newest first, and empties the
// registry. It returns the number of containers destroyed.
func (r *Registry) CleanupAll() int {
	if r == nil {
		return 0
	}
	head := r.head
	r.head, r.count = nil, 0
	log := rtlog.Logger()
	done := 0
	for n := head; n != nil; {
		next := n.next
		log.Debug("registry cleanup", zap.String("name", n.name), zap.Int("index", done))
		n.destroy(n.container)
		n.container, n.next = nil, nil
		done++
		n = next
	}
	if done > 0 {
		trace.Point(r.allocator().Tracer(), trace.KindRelease, trace.ScopeLifecycle, "registry", 0, "")
	}
	return done
}
