// Package testkit checks container invariants through their public API.
// Tests and selfcheck scenarios call it after mutating a container.
package testkit

import (
	"fmt"

	"mgenrt/internal/seq"
	"mgenrt/internal/table"
)

// CheckSeqInvariants verifies that v's length fits its capacity and that
// Items, Get and Len agree.
func CheckSeqInvariants[T comparable](v *seq.Vec[T]) error {
	if v == nil {
		return fmt.Errorf("nil sequence")
	}
	if v.Len() < 0 || v.Len() > v.Cap() {
		return fmt.Errorf("length %d outside [0, %d]", v.Len(), v.Cap())
	}
	items := v.Items()
	if len(items) != v.Len() {
		return fmt.Errorf("Items has %d elements, Len is %d", len(items), v.Len())
	}
	for i, x := range items {
		got, err := v.Get(i)
		if err != nil {
			return fmt.Errorf("get(%d): %w", i, err)
		}
		if got != x {
			return fmt.Errorf("get(%d) = %v, Items holds %v", i, got, x)
		}
	}
	return nil
}

// CheckTableInvariants verifies that every stored key is reachable, appears
// once, and that the entry count equals Len.
func CheckTableInvariants[K comparable, V any](m *table.Table[K, V]) error {
	if m == nil {
		return fmt.Errorf("nil table")
	}
	seen := make(map[K]int, m.Len())
	m.Each(func(k K, _ *V) bool {
		seen[k]++
		return true
	})
	total := 0
	for k, n := range seen {
		if n != 1 {
			return fmt.Errorf("key %v stored %d times", k, n)
		}
		if !m.Contains(k) {
			return fmt.Errorf("key %v stored but not reachable", k)
		}
		total += n
	}
	if total != m.Len() {
		return fmt.Errorf("%d entries stored, Len is %d", total, m.Len())
	}
	if m.BucketCount() == 0 && m.Len() != 0 {
		return fmt.Errorf("%d entries without buckets", m.Len())
	}
	return nil
}
