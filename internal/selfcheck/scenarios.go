package selfcheck

import (
	"errors"
	"fmt"
	"math"

	"mgenrt/internal/alloc"
	"mgenrt/internal/env"
	"mgenrt/internal/pyrange"
	"mgenrt/internal/rc"
	"mgenrt/internal/registry"
	"mgenrt/internal/rterr"
	"mgenrt/internal/scope"
	"mgenrt/internal/seq"
	"mgenrt/internal/slice"
	"mgenrt/internal/table"
	"mgenrt/internal/testkit"
)

// Scenarios are the built-in runtime checks, in display order.
var Scenarios = []Scenario{
	{"seq/push-get", seqPushGet},
	{"seq/growth", seqGrowth},
	{"table/contains-size", tableContainsSize},
	{"table/insert-update", tableInsertUpdate},
	{"table/int-map", tableIntMap},
	{"slice/round-trip", sliceRoundTrip},
	{"slice/tail", sliceTail},
	{"slice/range-agreement", sliceRangeAgreement},
	{"scope/cleanup", scopeCleanup},
	{"rc/release", rcRelease},
	{"rc/retain-release", rcRetainRelease},
	{"registry/cleanup", registryCleanup},
	{"alloc/limit", allocLimit},
}

const pushes = 1000

func seqPushGet(e *env.Env) error {
	v, err := seq.New[int](e.Alloc, 0)
	if err != nil {
		return err
	}
	defer v.Drop()
	for i := range pushes {
		if err := v.Append(i * 7); err != nil {
			return err
		}
	}
	for i := range pushes {
		got, err := v.Get(i)
		if err != nil {
			return err
		}
		if got != i*7 {
			return fmt.Errorf("get(%d) = %d, want %d", i, got, i*7)
		}
	}
	return nil
}

func seqGrowth(e *env.Env) error {
	v, err := seq.New[int64](e.Alloc, 1)
	if err != nil {
		return err
	}
	defer v.Drop()
	for n := 1; n <= pushes; n++ {
		if err := v.Append(int64(n)); err != nil {
			return err
		}
		if v.Len() != n || v.Cap() < n {
			return fmt.Errorf("after %d pushes: len=%d cap=%d", n, v.Len(), v.Cap())
		}
	}
	for i, x := range v.Items() {
		if x != int64(i+1) {
			return fmt.Errorf("element %d = %d, push order lost", i, x)
		}
	}
	return testkit.CheckSeqInvariants(v)
}

func tableContainsSize(e *env.Env) error {
	m, err := table.NewIntMap(e.Alloc)
	if err != nil {
		return err
	}
	defer m.Drop()
	live := 0
	for k := -200; k < 200; k++ {
		if _, err := m.Insert(k, k); err != nil {
			return err
		}
		live++
	}
	for k := -200; k < 200; k += 2 {
		if !m.Remove(k) {
			return fmt.Errorf("remove(%d) = false", k)
		}
		live--
	}
	count := 0
	for k := -250; k < 250; k++ {
		if m.Contains(k) {
			count++
		}
	}
	if count != live || m.Len() != live {
		return fmt.Errorf("contains count %d, size %d, want %d", count, m.Len(), live)
	}
	if err := testkit.CheckTableInvariants(m); err != nil {
		return err
	}
	m.Clear()
	if m.Contains(1) || m.Len() != 0 {
		return errors.New("clear left entries behind")
	}
	return nil
}

func tableInsertUpdate(e *env.Env) error {
	m, err := table.NewStrIntMap(e.Alloc)
	if err != nil {
		return err
	}
	defer m.Drop()
	inserted, err := m.Insert("key", 1)
	if err != nil {
		return err
	}
	if !inserted || m.Len() != 1 {
		return fmt.Errorf("first insert: inserted=%v size=%d", inserted, m.Len())
	}
	inserted, err = m.Insert("key", 2)
	if err != nil {
		return err
	}
	if inserted || m.Len() != 1 {
		return fmt.Errorf("update: inserted=%v size=%d", inserted, m.Len())
	}
	return nil
}

func tableIntMap(e *env.Env) error {
	m, err := table.NewIntMap(e.Alloc)
	if err != nil {
		return err
	}
	defer m.Drop()
	for _, kv := range [][2]int{{1, 10}, {2, 20}, {3, 30}} {
		if _, err := m.Insert(kv[0], kv[1]); err != nil {
			return err
		}
	}
	if m.Len() != 3 {
		return fmt.Errorf("size = %d, want 3", m.Len())
	}
	if v, ok := m.Get(2); !ok || *v != 20 {
		return fmt.Errorf("get(2) = %v, %v", v, ok)
	}
	if !m.Remove(2) || m.Len() != 2 {
		return fmt.Errorf("remove(2) failed, size %d", m.Len())
	}
	if _, ok := m.Get(2); ok {
		return errors.New("get(2) found a removed key")
	}
	return nil
}

func sliceRoundTrip(e *env.Env) error {
	const length = 10
	n, err := slice.Normalize(slice.Descriptor{Step: slice.At(1)}, length)
	if err != nil {
		return err
	}
	if n.Start != 0 || n.Stop != length || n.Step != 1 || n.Len != length {
		return fmt.Errorf("full slice normalized to %+v", n)
	}
	n, err = slice.Normalize(slice.Descriptor{Start: slice.At(-1), Step: slice.At(-1)}, length)
	if err != nil {
		return err
	}
	want := length - 1
	for i := range n.Indices() {
		if i != want {
			return fmt.Errorf("reverse traversal visited %d, want %d", i, want)
		}
		want--
	}
	if n.Len != length || want != -1 {
		return fmt.Errorf("reverse slice normalized to %+v", n)
	}
	if _, err := slice.Normalize(slice.Descriptor{Step: slice.At(0)}, length); !errors.Is(err, rterr.ErrValue) {
		return fmt.Errorf("zero step: got %v, want ValueError", err)
	}
	return nil
}

func sliceTail(e *env.Env) error {
	n, err := slice.Normalize(slice.Descriptor{Start: slice.At(-3), Step: slice.At(1)}, 10)
	if err != nil {
		return err
	}
	if n.Start != 7 || n.Stop != 10 || n.Len != 3 {
		return fmt.Errorf("tail slice normalized to %+v", n)
	}
	return nil
}

// sliceRangeAgreement checks that a normalized slice selects exactly the
// indices of range(start, stop, step) and that both survive extreme steps.
func sliceRangeAgreement(e *env.Env) error {
	const length = 17
	src, err := seq.New[int](e.Alloc, length)
	if err != nil {
		return err
	}
	defer src.Drop()
	for i := range length {
		if err := src.Append(i); err != nil {
			return err
		}
	}
	bounds := []int64{-40, -17, -5, -1, 0, 3, 16, 17, 40}
	steps := []int64{-math.MaxInt64, -7, -2, -1, 1, 3, math.MaxInt64}
	descs := []slice.Descriptor{slice.Full()}
	for _, step := range steps {
		descs = append(descs, slice.Descriptor{Step: slice.At(step)})
		for _, start := range bounds {
			for _, stop := range bounds {
				descs = append(descs, slice.Of(start, stop, step))
			}
		}
	}
	for _, d := range descs {
		n, err := slice.Normalize(d, length)
		if err != nil {
			return fmt.Errorf("%s: %w", d, err)
		}
		r, err := pyrange.Full(int64(n.Start), int64(n.Stop), int64(n.Step))
		if err != nil {
			return fmt.Errorf("%s: %w", d, err)
		}
		if rl, err := r.Len(); err != nil || rl != n.Len {
			return fmt.Errorf("%s: slice length %d, %s length %d", d, n.Len, r, rl)
		}
		out, err := src.SliceOf(d)
		if err != nil {
			return fmt.Errorf("%s: %w", d, err)
		}
		it := r.Iter()
		for k, x := range out.All() {
			want, ok := it.Next()
			if !ok || int64(x) != want {
				out.Drop()
				return fmt.Errorf("%s: element %d is %d, range gives %d", d, k, x, want)
			}
		}
		out.Drop()
		if it.HasNext() {
			return fmt.Errorf("%s: slice shorter than %s", d, r)
		}
	}
	return nil
}

func scopeCleanup(e *env.Env) error {
	const n = 64
	released := make([]int, n)
	for _, fail := range []bool{false, true} {
		clear(released)
		errExit := errors.New("early exit")
		err := scope.Run(e.Alloc, func(s *scope.Scope) error {
			for i := range n {
				buf, err := s.Alloc(8)
				if err != nil {
					return err
				}
				if err := s.Register(buf, func() { released[i]++ }); err != nil {
					return err
				}
				if fail && i == n/2 {
					return errExit
				}
			}
			return nil
		})
		if fail != errors.Is(err, errExit) {
			return fmt.Errorf("scope returned %v", err)
		}
		limit := n
		if fail {
			limit = n/2 + 1
		}
		for i, c := range released {
			if want := boolInt(i < limit); c != want {
				return fmt.Errorf("entry %d released %d times, want %d", i, c, want)
			}
		}
	}
	if e.Alloc.Leaked() {
		return fmt.Errorf("scope leaked %d bytes", e.Alloc.InUse())
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func rcRelease(e *env.Env) error {
	calls := 0
	c, err := rc.New(e.Alloc, 0, func(*int) { calls++ })
	if err != nil {
		return err
	}
	c.Release()
	if calls != 1 {
		return fmt.Errorf("destructor ran %d times, want 1", calls)
	}
	return nil
}

func rcRetainRelease(e *env.Env) error {
	calls := 0
	c, err := rc.New(e.Alloc, 0, func(*int) { calls++ })
	if err != nil {
		return err
	}
	c.Retain()
	c.Release()
	if calls != 0 {
		return errors.New("destructor ran before the last release")
	}
	c.Release()
	if calls != 1 {
		return fmt.Errorf("destructor ran %d times, want 1", calls)
	}
	return nil
}

func registryCleanup(e *env.Env) error {
	r := registry.New(e.Alloc)
	for i := range 5 {
		v, err := seq.New[int](e.Alloc, 0)
		if err != nil {
			return err
		}
		if err := r.TrackDropper(v, fmt.Sprintf("vec%d", i)); err != nil {
			return err
		}
		s, err := table.NewStrSet(e.Alloc)
		if err != nil {
			return err
		}
		if _, err := s.Add(fmt.Sprint(i)); err != nil {
			return err
		}
		if err := r.TrackDropper(s, fmt.Sprintf("set%d", i)); err != nil {
			return err
		}
	}
	if n := r.CleanupAll(); n != 10 {
		return fmt.Errorf("cleanup destroyed %d containers, want 10", n)
	}
	if e.Alloc.Leaked() {
		return fmt.Errorf("registry leaked %d bytes", e.Alloc.InUse())
	}
	return nil
}

func allocLimit(e *env.Env) error {
	limited := alloc.New(alloc.WithContext(e.Context), alloc.WithLimit(64))
	if _, err := alloc.Make[byte](limited, 128); !errors.Is(err, rterr.ErrMemory) {
		return fmt.Errorf("oversized allocation: got %v, want MemoryError", err)
	}
	if e.Context.LastKind() != rterr.Memory {
		return fmt.Errorf("error context holds %v, want MemoryError", e.Context.LastKind())
	}
	e.Context.Clear()
	return nil
}
