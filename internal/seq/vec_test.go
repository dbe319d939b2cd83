package seq_test

import (
	"errors"
	"math"
	"slices"
	"testing"

	"mgenrt/internal/alloc"
	"mgenrt/internal/rterr"
	"mgenrt/internal/seq"
	"mgenrt/internal/slice"
)

func newAlloc(opts ...alloc.Option) *alloc.Allocator {
	return alloc.New(append([]alloc.Option{alloc.WithContext(rterr.NewContext(0))}, opts...)...)
}

func TestNewDefaultCapacity(t *testing.T) {
	v, err := seq.New[int](newAlloc(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if v.Cap() != 8 || v.Len() != 0 {
		t.Fatalf("cap=%d len=%d, want 8/0", v.Cap(), v.Len())
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	var v seq.Vec[int]
	for i := range 100 {
		if err := v.Append(i * 3); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	if v.Len() != 100 || v.Cap() < 100 {
		t.Fatalf("len=%d cap=%d", v.Len(), v.Cap())
	}
	for i := range 100 {
		got, err := v.Get(i)
		if err != nil || got != i*3 {
			t.Fatalf("Get(%d) = %d, %v", i, got, err)
		}
	}
	v.Drop()
	v.Drop()
	if v.Len() != 0 || v.Cap() != 0 {
		t.Fatalf("after Drop len=%d cap=%d", v.Len(), v.Cap())
	}
}

func TestGrowthSchedule(t *testing.T) {
	var v seq.Vec[byte]
	var caps []int
	for i := range 10 {
		_ = v.Append(byte(i))
		if len(caps) == 0 || caps[len(caps)-1] != v.Cap() {
			caps = append(caps, v.Cap())
		}
	}
	want := []int{1, 2, 3, 4, 6, 9, 13}
	if !slices.Equal(caps, want) {
		t.Fatalf("capacities %v, want %v", caps, want)
	}
}

func TestIndexErrors(t *testing.T) {
	a := newAlloc()
	v, _ := seq.From(a, []int{1, 2, 3})
	checks := []struct {
		name string
		err  error
	}{
		{"get", func() error { _, err := v.Get(3); return err }()},
		{"get negative", func() error { _, err := v.Get(-1); return err }()},
		{"set", v.Set(3, 0)},
		{"remove", v.Remove(3)},
		{"insert", v.Insert(4, 0)},
		{"at", func() error { _, err := v.At(5); return err }()},
	}
	for _, c := range checks {
		if !errors.Is(c.err, rterr.ErrIndex) {
			t.Errorf("%s: expected IndexError, got %v", c.name, c.err)
		}
	}
	if a.Context().LastKind() != rterr.Index {
		t.Fatalf("context not updated: %v", a.Context().LastKind())
	}
	if !slices.Equal(v.Items(), []int{1, 2, 3}) {
		t.Fatalf("sequence changed: %v", v.Items())
	}
}

func TestInsertRemove(t *testing.T) {
	v, _ := seq.From(newAlloc(), []int{1, 2, 4})
	if err := v.Insert(2, 3); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := v.Insert(4, 5); err != nil {
		t.Fatalf("Insert at end: %v", err)
	}
	if err := v.Insert(0, 0); err != nil {
		t.Fatalf("Insert at front: %v", err)
	}
	if !slices.Equal(v.Items(), []int{0, 1, 2, 3, 4, 5}) {
		t.Fatalf("got %v", v.Items())
	}
	if err := v.Remove(0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := v.Remove(4); err != nil {
		t.Fatalf("Remove last: %v", err)
	}
	if !slices.Equal(v.Items(), []int{1, 2, 3, 4}) {
		t.Fatalf("got %v", v.Items())
	}
	x, err := v.PopBack()
	if err != nil || x != 4 {
		t.Fatalf("PopBack = %d, %v", x, err)
	}
	if b := v.Back(); b == nil || *b != 3 {
		t.Fatalf("Back = %v", b)
	}
}

func TestPopBackEmpty(t *testing.T) {
	var v seq.Vec[string]
	if _, err := v.PopBack(); !errors.Is(err, rterr.ErrIndex) {
		t.Fatalf("expected IndexError, got %v", err)
	}
	if v.Back() != nil {
		t.Fatalf("Back on empty sequence should be nil")
	}
}

func TestGrowthFailureLeavesSequenceIntact(t *testing.T) {
	a := newAlloc(alloc.WithLimit(8 * 8))
	v, err := seq.New[int64](a, 8)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := range 8 {
		if err := v.Append(int64(i)); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	if err := v.Append(8); !errors.Is(err, rterr.ErrMemory) {
		t.Fatalf("expected MemoryError, got %v", err)
	}
	if err := v.Insert(0, -1); !errors.Is(err, rterr.ErrMemory) {
		t.Fatalf("expected MemoryError, got %v", err)
	}
	if err := v.Reserve(100); !errors.Is(err, rterr.ErrMemory) {
		t.Fatalf("expected MemoryError, got %v", err)
	}
	if v.Len() != 8 || v.Cap() != 8 {
		t.Fatalf("len=%d cap=%d after failed growth", v.Len(), v.Cap())
	}
	if !slices.Equal(v.Items(), []int64{0, 1, 2, 3, 4, 5, 6, 7}) {
		t.Fatalf("contents changed: %v", v.Items())
	}
}

func TestReserveAndShrink(t *testing.T) {
	a := newAlloc()
	v, _ := seq.New[int32](a, 2)
	if err := v.Reserve(50); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if v.Cap() != 50 {
		t.Fatalf("cap = %d", v.Cap())
	}
	_ = v.Extend(1, 2, 3)
	if err := v.ShrinkToFit(); err != nil {
		t.Fatalf("ShrinkToFit: %v", err)
	}
	if v.Cap() != 3 || a.InUse() != 12 {
		t.Fatalf("cap=%d in use=%d", v.Cap(), a.InUse())
	}
	v.Drop()
	if a.Leaked() {
		t.Fatalf("allocator still holds %d bytes", a.InUse())
	}
}

func TestElemDropHook(t *testing.T) {
	dropped := map[string]int{}
	v, _ := seq.New(newAlloc(), 0, seq.WithElemDrop(func(s *string) { dropped[*s]++ }))
	_ = v.Extend("a", "b", "c", "d")
	_ = v.Remove(0)
	_ = v.Set(0, "B")
	x, _ := v.PopBack()
	v.Clear()
	v.Drop()
	if x != "d" {
		t.Fatalf("PopBack = %q", x)
	}
	want := map[string]int{"a": 1, "b": 1, "B": 1, "c": 1}
	if len(dropped) != len(want) {
		t.Fatalf("dropped %v, want %v", dropped, want)
	}
	for k, n := range want {
		if dropped[k] != n {
			t.Fatalf("dropped %v, want %v", dropped, want)
		}
	}
}

func TestNestedSequences(t *testing.T) {
	a := newAlloc()
	rows, _ := seq.New(a, 0, seq.WithElemDrop(func(r **seq.Vec[int]) { (*r).Drop() }))
	for i := range 3 {
		row, _ := seq.New[int](a, 0)
		for j := range i + 1 {
			_ = row.Append(j)
		}
		_ = rows.Append(row)
	}
	second, _ := rows.Get(1)
	if second.Len() != 2 {
		t.Fatalf("row 1 len = %d", second.Len())
	}
	rows.Drop()
	if a.Leaked() {
		t.Fatalf("nested drop leaked %d bytes", a.InUse())
	}
}

func TestContainsAndEqual(t *testing.T) {
	a := newAlloc()
	v, _ := seq.From(a, []int{4, 5, 6})
	if !seq.Contains(v, 5) || seq.Contains(v, 7) {
		t.Fatalf("Contains mismatch")
	}
	if !v.ContainsFunc(func(x int) bool { return x > 5 }) {
		t.Fatalf("ContainsFunc mismatch")
	}
	w, _ := seq.From(a, []int{4, 5, 6})
	if !seq.Equal(v, w) {
		t.Fatalf("Equal mismatch")
	}
	_ = w.Set(2, 0)
	if seq.Equal(v, w) {
		t.Fatalf("sequences should differ")
	}
}

func TestAllEnumerates(t *testing.T) {
	v, _ := seq.From(newAlloc(), []string{"a", "b", "c", "d"})
	defer v.Drop()
	var idx []int
	var got []string
	for i, x := range v.All() {
		if i == 3 {
			break
		}
		idx = append(idx, i)
		got = append(got, x)
	}
	if !slices.Equal(idx, []int{0, 1, 2}) || !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("enumerate gave %v %v", idx, got)
	}
	var empty seq.Vec[int]
	for range empty.All() {
		t.Fatalf("empty sequence yielded")
	}
}

func TestPythonAccess(t *testing.T) {
	a := newAlloc()
	v, _ := seq.From(a, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	x, err := v.GetPy(-1)
	if err != nil || x != 9 {
		t.Fatalf("GetPy(-1) = %d, %v", x, err)
	}
	if _, err := v.GetPy(-11); !errors.Is(err, rterr.ErrIndex) {
		t.Fatalf("expected IndexError, got %v", err)
	}
	tail, err := v.SliceOf(slice.Descriptor{Start: slice.At(-3)})
	if err != nil {
		t.Fatalf("SliceOf: %v", err)
	}
	if !slices.Equal(tail.Items(), []int{7, 8, 9}) {
		t.Fatalf("tail = %v", tail.Items())
	}
	rev, _ := v.SliceOf(slice.Of(-1, -11, -2))
	if !slices.Equal(rev.Items(), []int{9, 7, 5, 3, 1}) {
		t.Fatalf("rev = %v", rev.Items())
	}
	if _, err := v.SliceOf(slice.Descriptor{Step: slice.At(0)}); !errors.Is(err, rterr.ErrValue) {
		t.Fatalf("expected ValueError, got %v", err)
	}
	first, err := v.SliceOf(slice.Descriptor{Step: slice.At(math.MaxInt64)})
	if err != nil {
		t.Fatalf("SliceOf max step: %v", err)
	}
	if !slices.Equal(first.Items(), []int{0}) {
		t.Fatalf("max step = %v, want [0]", first.Items())
	}
	last, err := v.SliceOf(slice.Descriptor{Step: slice.At(-math.MaxInt64)})
	if err != nil {
		t.Fatalf("SliceOf min step: %v", err)
	}
	if !slices.Equal(last.Items(), []int{9}) {
		t.Fatalf("min step = %v, want [9]", last.Items())
	}
}
