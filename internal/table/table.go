// Package table implements the separate-chaining hash table behind the
// runtime's maps and sets.
//
// Keys hash into one of BucketCount() chains; a miss pushes the new entry at
// the chain head. The bucket array is allocated on first insert, so the zero
// Table is ready to use. When a maximum load factor is configured the bucket
// array doubles once Len()/BucketCount() would exceed it; every key still
// lives in exactly one chain afterwards.
package table

import (
	"hash/maphash"
	"iter"

	"go.uber.org/zap"

	"mgenrt/internal/alloc"
	"mgenrt/internal/config"
	"mgenrt/internal/rterr"
	"mgenrt/internal/rtlog"
	"mgenrt/internal/trace"
)

// Package defaults, overridable from mgenrt.toml.
var (
	DefaultBuckets       = config.DefaultTableBuckets
	DefaultMaxLoadFactor = config.DefaultMaxLoadFactor
)

// NoRehash disables bucket growth when used as Options.MaxLoadFactor.
const NoRehash = -1

// Hasher maps a key to its hash.
type Hasher[K any] func(K) uint64

// KeyEqual reports whether two keys are the same.
type KeyEqual[K any] func(a, b K) bool

// KeyOwnership decides how the table holds keys. Clone runs once when a key
// is first stored; Release runs when the stored key is discarded.
// Zero value: keys are stored by value.
type KeyOwnership[K any] struct {
	Clone   func(K) (K, error)
	Release func(K)
}

// Options configure a table. Zero fields take the package defaults.
type Options[K comparable, V any] struct {
	Buckets int
	// MaxLoadFactor triggers doubling; 0 takes DefaultMaxLoadFactor,
	// NoRehash keeps the bucket count fixed.
	MaxLoadFactor float64
	Hash          Hasher[K]
	Equal         KeyEqual[K]
	Keys          KeyOwnership[K]
	// ValueDrop releases values that are overwritten or removed.
	ValueDrop func(*V)
}

type entry[K comparable, V any] struct {
	key   K
	value V
	next  *entry[K, V]
}

// Table is a hash map from K to V. The zero value is an empty table with
// DefaultBuckets buckets, no rehashing and Go's built-in hash. Not safe for
// concurrent use.
type Table[K comparable, V any] struct {
	a         *alloc.Allocator
	buckets   []*entry[K, V]
	size      int
	initial   int
	maxLoad   float64
	hash      Hasher[K]
	eq        KeyEqual[K]
	keys      KeyOwnership[K]
	valueDrop func(*V)
}

var seed = maphash.MakeSeed()

func defaultHash[K comparable](k K) uint64 { return maphash.Comparable(seed, k) }

// New creates an initialized, still bucketless table.
func New[K comparable, V any](a *alloc.Allocator, opts Options[K, V]) (*Table[K, V], error) {
	t := &Table[K, V]{}
	if err := t.Init(a, opts); err != nil {
		return nil, err
	}
	return t, nil
}

// Init configures t in place. Buckets are not allocated until first insert.
func (t *Table[K, V]) Init(a *alloc.Allocator, opts Options[K, V]) error {
	a = alloc.Or(a)
	if opts.Buckets < 0 {
		return a.Fail(rterr.Newf(rterr.Value, "negative bucket count %d", opts.Buckets))
	}
	if opts.MaxLoadFactor < 0 && opts.MaxLoadFactor != NoRehash {
		return a.Fail(rterr.Newf(rterr.Value, "invalid max load factor %g", opts.MaxLoadFactor))
	}
	t.Drop()
	*t = Table[K, V]{
		a:         a,
		initial:   opts.Buckets,
		maxLoad:   opts.MaxLoadFactor,
		hash:      opts.Hash,
		eq:        opts.Equal,
		keys:      opts.Keys,
		valueDrop: opts.ValueDrop,
	}
	if t.maxLoad == 0 {
		t.maxLoad = DefaultMaxLoadFactor
	}
	return nil
}

func (t *Table[K, V]) allocator() *alloc.Allocator { return alloc.Or(t.a) }

func (t *Table[K, V]) index(k K, n int) int {
	var h uint64
	if t.hash != nil {
		h = t.hash(k)
	} else {
		h = defaultHash(k)
	}
	return int(h % uint64(n))
}

func (t *Table[K, V]) same(a, b K) bool {
	if t.eq != nil {
		return t.eq(a, b)
	}
	return a == b
}

func (t *Table[K, V]) find(k K) *entry[K, V] {
	if t.size == 0 {
		return nil
	}
	for e := t.buckets[t.index(k, len(t.buckets))]; e != nil; e = e.next {
		if t.same(e.key, k) {
			return e
		}
	}
	return nil
}

func (t *Table[K, V]) ensureBuckets() error {
	if t.buckets != nil {
		return nil
	}
	n := t.initial
	if n == 0 {
		n = DefaultBuckets
	}
	b, err := alloc.Make[*entry[K, V]](t.allocator(), n)
	if err != nil {
		return err
	}
	t.buckets = b
	return nil
}

// Insert stores v under k. It reports true when k was newly added and false
// when an existing value was replaced.
func (t *Table[K, V]) Insert(k K, v V) (bool, error) {
	if err := t.ensureBuckets(); err != nil {
		return false, err
	}
	if e := t.find(k); e != nil {
		t.dropValue(&e.value)
		e.value = v
		return false, nil
	}
	a := t.allocator()
	if err := a.Acquire(alloc.SizeOf[entry[K, V]]()); err != nil {
		return false, err
	}
	key := k
	if t.keys.Clone != nil {
		var err error
		if key, err = t.keys.Clone(k); err != nil {
			a.Release(alloc.SizeOf[entry[K, V]]())
			return false, err
		}
	}
	i := t.index(key, len(t.buckets))
	t.buckets[i] = &entry[K, V]{key: key, value: v, next: t.buckets[i]}
	t.size++
	t.maybeGrow()
	return true, nil
}

// Get returns a pointer to the value stored under k.
func (t *Table[K, V]) Get(k K) (*V, bool) {
	if e := t.find(k); e != nil {
		return &e.value, true
	}
	return nil, false
}

// Lookup is Get with KeyError semantics for a missing key.
func (t *Table[K, V]) Lookup(k K) (V, error) {
	if e := t.find(k); e != nil {
		return e.value, nil
	}
	var zero V
	return zero, t.allocator().Fail(rterr.KeyNotFound(k))
}

// Contains reports whether k is present.
func (t *Table[K, V]) Contains(k K) bool { return t.find(k) != nil }

// Remove deletes k and reports whether it was present.
func (t *Table[K, V]) Remove(k K) bool {
	if t.size == 0 {
		return false
	}
	link := &t.buckets[t.index(k, len(t.buckets))]
	for e := *link; e != nil; link, e = &e.next, e.next {
		if t.same(e.key, k) {
			*link = e.next
			t.discard(e)
			t.size--
			return true
		}
	}
	return false
}

func (t *Table[K, V]) discard(e *entry[K, V]) {
	if t.keys.Release != nil {
		t.keys.Release(e.key)
	}
	t.dropValue(&e.value)
	e.next = nil
	t.allocator().Release(alloc.SizeOf[entry[K, V]]())
}

func (t *Table[K, V]) dropValue(v *V) {
	if t.valueDrop != nil {
		t.valueDrop(v)
	}
}

// Len returns the number of entries.
func (t *Table[K, V]) Len() int { return t.size }

// BucketCount returns the number of chains, 0 before the first insert.
func (t *Table[K, V]) BucketCount() int { return len(t.buckets) }

// LoadFactor returns Len()/BucketCount().
func (t *Table[K, V]) LoadFactor() float64 {
	if len(t.buckets) == 0 {
		return 0
	}
	return float64(t.size) / float64(len(t.buckets))
}

// Clear removes every entry and keeps the bucket array.
func (t *Table[K, V]) Clear() {
	for i, head := range t.buckets {
		for e := head; e != nil; {
			next := e.next
			t.discard(e)
			e = next
		}
		t.buckets[i] = nil
	}
	t.size = 0
}

// Drop releases every entry and the bucket array. The table stays usable
// and reallocates on the next insert.
func (t *Table[K, V]) Drop() {
	if t == nil {
		return
	}
	t.Clear()
	if t.buckets != nil {
		alloc.Free(t.allocator(), t.buckets)
		t.buckets = nil
	}
}

// Each calls fn for every entry until fn returns false. fn must not insert
// into or remove from t.
func (t *Table[K, V]) Each(fn func(k K, v *V) bool) {
	for _, head := range t.buckets {
		for e := head; e != nil; e = e.next {
			if !fn(e.key, &e.value) {
				return
			}
		}
	}
}

// All iterates over the entries in bucket order.
func (t *Table[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		t.Each(func(k K, v *V) bool { return yield(k, *v) })
	}
}

// EqualFunc reports whether a and b hold the same keys with values that
// match under eq. Keys of a are looked up with b's hash and equality.
func EqualFunc[K comparable, V any](a, b *Table[K, V], eq func(V, V) bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Len() != b.Len() {
		return false
	}
	same := true
	a.Each(func(k K, v *V) bool {
		w, ok := b.Get(k)
		same = ok && eq(*v, *w)
		return same
	})
	return same
}

// Equal reports whether a and b map the same keys to equal values.
func Equal[K, V comparable](a, b *Table[K, V]) bool {
	return EqualFunc(a, b, func(x, y V) bool { return x == y })
}

// Keys returns the keys in bucket order.
func (t *Table[K, V]) Keys() []K {
	out := make([]K, 0, t.size)
	t.Each(func(k K, _ *V) bool {
		out = append(out, k)
		return true
	})
	return out
}

func (t *Table[K, V]) maybeGrow() {
	if t.maxLoad <= 0 || float64(t.size) <= t.maxLoad*float64(len(t.buckets)) {
		return
	}
	if err := t.rehash(2 * len(t.buckets)); err != nil {
		rtlog.Logger().Warn("table rehash failed, keeping current buckets",
			zap.Int("buckets", len(t.buckets)), zap.Int("size", t.size), zap.Error(err))
	}
}

// rehash relinks every entry into n buckets. Keys are moved, not re-cloned.
func (t *Table[K, V]) rehash(n int) error {
	a := t.allocator()
	next, err := alloc.Make[*entry[K, V]](a, n)
	if err != nil {
		return err
	}
	old := t.buckets
	for _, head := range old {
		for e := head; e != nil; {
			following := e.next
			i := t.index(e.key, n)
			e.next = next[i]
			next[i] = e
			e = following
		}
	}
	t.buckets = next
	alloc.Free(a, old)
	rtlog.Logger().Debug("table rehashed", zap.Int("from", len(old)), zap.Int("to", n), zap.Int("size", t.size))
	trace.Point(a.Tracer(), trace.KindRehash, trace.ScopeContainer, "table", alloc.SizeOf[*entry[K, V]]()*int64(n), "")
	return nil
}
