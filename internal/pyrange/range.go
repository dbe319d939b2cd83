// Package pyrange implements Python's range: an immutable arithmetic
// progression with a signed, non-zero step. Lengths and iteration are
// computed in unsigned arithmetic so extreme bounds and steps never wrap.
package pyrange

import (
	"fmt"
	"iter"
	"math"

	"fortio.org/safecast"

	"mgenrt/internal/rterr"
)

// Range is range(Start, Stop, Step). Build it with New, StartStop or Full.
type Range struct {
	Start int64
	Stop  int64
	Step  int64
}

// New is range(stop).
func New(stop int64) Range { return Range{Stop: stop, Step: 1} }

// StartStop is range(start, stop).
func StartStop(start, stop int64) Range { return Range{Start: start, Stop: stop, Step: 1} }

// Full is range(start, stop, step). A zero step is a ValueError.
func Full(start, stop, step int64) (Range, error) {
	if step == 0 {
		return Range{}, rterr.New(rterr.Value, "range() arg 3 must not be zero")
	}
	return Range{Start: start, Stop: stop, Step: step}, nil
}

func (r Range) String() string {
	if r.Step == 1 {
		return fmt.Sprintf("range(%d, %d)", r.Start, r.Stop)
	}
	return fmt.Sprintf("range(%d, %d, %d)", r.Start, r.Stop, r.Step)
}

// absStep is |Step| without overflowing on MinInt64.
func (r Range) absStep() uint64 {
	if r.Step < 0 {
		return uint64(-(r.Step + 1)) + 1
	}
	return uint64(r.Step)
}

// count is the number of elements; it can exceed MaxInt64.
func (r Range) count() uint64 {
	switch {
	case r.Step > 0 && r.Start < r.Stop:
		return (uint64(r.Stop)-uint64(r.Start)-1)/r.absStep() + 1
	case r.Step < 0 && r.Start > r.Stop:
		return (uint64(r.Start)-uint64(r.Stop)-1)/r.absStep() + 1
	}
	return 0
}

// Empty reports whether the range yields nothing.
func (r Range) Empty() bool { return r.count() == 0 }

// Len returns the number of elements. A range longer than the largest int
// is a ValueError.
func (r Range) Len() (int, error) {
	n, err := safecast.Conv[int](r.count())
	if err != nil {
		return 0, rterr.Newf(rterr.Value, "%s has more than %d elements", r, math.MaxInt)
	}
	return n, nil
}

// at is Start + i*Step for i < count, done in wrapping unsigned arithmetic;
// the true result always fits in int64.
func (r Range) at(i uint64) int64 {
	off := i * r.absStep()
	if r.Step < 0 {
		return int64(uint64(r.Start) - off)
	}
	return int64(uint64(r.Start) + off)
}

// At returns element i; negative i counts from the end.
func (r Range) At(i int64) (int64, error) {
	n := r.count()
	var k uint64
	if i < 0 {
		back := uint64(-(i + 1)) + 1
		if back > n {
			return 0, rterr.Newf(rterr.Index, "range index %d out of range", i)
		}
		k = n - back
	} else {
		k = uint64(i)
		if k >= n {
			return 0, rterr.Newf(rterr.Index, "range index %d out of range", i)
		}
	}
	return r.at(k), nil
}

// Contains reports whether x is one of the range's elements.
func (r Range) Contains(x int64) bool {
	var off uint64
	switch {
	case r.Step > 0 && x >= r.Start && x < r.Stop:
		off = uint64(x) - uint64(r.Start)
	case r.Step < 0 && x <= r.Start && x > r.Stop:
		off = uint64(r.Start) - uint64(x)
	default:
		return false
	}
	return off%r.absStep() == 0
}

// All yields the elements in order.
func (r Range) All() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		it := r.Iter()
		for {
			v, ok := it.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Iter returns a stateful cursor over r.
func (r Range) Iter() *Iterator {
	return &Iterator{r: r, left: r.count()}
}

// Iterator walks a Range one element at a time.
type Iterator struct {
	r    Range
	next uint64
	left uint64
}

// HasNext reports whether Next would return an element.
func (it *Iterator) HasNext() bool { return it != nil && it.left > 0 }

// Next returns the following element, or false once exhausted.
func (it *Iterator) Next() (int64, bool) {
	if !it.HasNext() {
		return 0, false
	}
	v := it.r.at(it.next)
	it.next++
	it.left--
	return v, true
}
