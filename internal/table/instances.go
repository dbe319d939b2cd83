package table

import (
	"hash/fnv"
	"strings"

	"mgenrt/internal/alloc"
)

// HashInt hashes an integer key by its magnitude, so k and -k share a chain.
func HashInt(k int) uint64 {
	if k < 0 {
		return uint64(-k)
	}
	return uint64(k)
}

// HashString is 32-bit FNV-1a over the key bytes.
func HashString(s string) uint64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return uint64(h.Sum32())
}

// OwnedStrings clones string keys into table-owned storage and accounts the
// bytes against a until the key is released.
func OwnedStrings(a *alloc.Allocator) KeyOwnership[string] {
	a = alloc.Or(a)
	return KeyOwnership[string]{
		Clone: func(s string) (string, error) {
			if len(s) == 0 {
				return s, nil
			}
			if err := a.Acquire(int64(len(s))); err != nil {
				return "", err
			}
			return strings.Clone(s), nil
		},
		Release: func(s string) {
			if len(s) > 0 {
				a.Release(int64(len(s)))
			}
		},
	}
}

func intOptions[V any]() Options[int, V] {
	return Options[int, V]{Hash: HashInt}
}

func stringOptions[V any](a *alloc.Allocator) Options[string, V] {
	return Options[string, V]{Hash: HashString, Keys: OwnedStrings(a)}
}

// NewIntMap creates an int -> int map.
func NewIntMap(a *alloc.Allocator) (*Table[int, int], error) {
	return New(a, intOptions[int]())
}

// NewStrIntMap creates a string -> int map with owned keys.
func NewStrIntMap(a *alloc.Allocator) (*Table[string, int], error) {
	return New(a, stringOptions[int](a))
}

// NewStrStrMap creates a string -> string map with owned keys.
func NewStrStrMap(a *alloc.Allocator) (*Table[string, string], error) {
	return New(a, stringOptions[string](a))
}

// NewIntSet creates a set of ints.
func NewIntSet(a *alloc.Allocator) (*Set[int], error) {
	return NewSet(a, intOptions[struct{}]())
}

// NewStrSet creates a set of strings with owned keys.
func NewStrSet(a *alloc.Allocator) (*Set[string], error) {
	return NewSet(a, stringOptions[struct{}](a))
}
