// Package slice resolves Python-style slice descriptors (start:stop:step
// with omitted parts and negative indices) against a concrete length.
package slice

import (
	"fmt"
	"iter"
	"math"
	"strconv"

	"fortio.org/safecast"

	"mgenrt/internal/rterr"
)

// Bound is an optional slice component.
type Bound struct {
	Value int64
	Set   bool
}

// At returns a present bound.
func At(v int64) Bound { return Bound{Value: v, Set: true} }

// Omitted returns an absent bound.
func Omitted() Bound { return Bound{} }

func (b Bound) String() string {
	if !b.Set {
		return "_"
	}
	return strconv.FormatInt(b.Value, 10)
}

// Descriptor is start:stop:step as written in the source program.
type Descriptor struct {
	Start Bound
	Stop  Bound
	Step  Bound
}

// Full is [:].
func Full() Descriptor { return Descriptor{} }

// Range is [start:stop].
func Range(start, stop int64) Descriptor {
	return Descriptor{Start: At(start), Stop: At(stop)}
}

// Of is [start:stop:step].
func Of(start, stop, step int64) Descriptor {
	return Descriptor{Start: At(start), Stop: At(stop), Step: At(step)}
}

// Reversed is [::-1].
func Reversed() Descriptor { return Descriptor{Step: At(-1)} }

func (d Descriptor) String() string {
	return fmt.Sprintf("[%s:%s:%s]", d.Start, d.Stop, d.Step)
}

// Normalized is a descriptor resolved against a length. Start is the first
// source index taken; Stop is exclusive in the direction of Step.
type Normalized struct {
	Start   int
	Stop    int
	Step    int
	Reverse bool
	Len     int
}

// Normalize resolves d against length. A zero step is a ValueError.
func Normalize(d Descriptor, length int) (Normalized, error) {
	if length < 0 {
		return Normalized{}, rterr.Newf(rterr.Value, "negative sequence length %d", length)
	}
	step := int64(1)
	if d.Step.Set {
		step = d.Step.Value
	}
	if step == 0 {
		return Normalized{}, rterr.ZeroStep()
	}
	if step == math.MinInt64 {
		return Normalized{}, rterr.Newf(rterr.Value, "slice step %d out of range", step)
	}
	n := int64(length)
	start := resolve(d.Start, n, step, 0, n-1)
	stop := resolve(d.Stop, n, step, n, -1)

	var count int64
	switch {
	case step > 0 && start < stop:
		count = (stop-start-1)/step + 1
	case step < 0 && start > stop:
		count = (start-stop-1)/-step + 1
	}

	out := Normalized{Reverse: step < 0}
	var err error
	if out.Start, err = toInt(start); err != nil {
		return Normalized{}, err
	}
	if out.Stop, err = toInt(stop); err != nil {
		return Normalized{}, err
	}
	if out.Step, err = toInt(step); err != nil {
		return Normalized{}, err
	}
	if out.Len, err = toInt(count); err != nil {
		return Normalized{}, err
	}
	return out, nil
}

// resolve applies defaults, wraps negatives and clamps one bound.
// Positive steps clamp to [0, n]; negative steps to [-1, n-1].
func resolve(b Bound, n, step, forward, backward int64) int64 {
	if !b.Set {
		if step > 0 {
			return forward
		}
		return backward
	}
	v := b.Value
	if v < 0 {
		v += n
		if v < 0 {
			if step < 0 {
				return -1
			}
			return 0
		}
	}
	if v >= n {
		if step < 0 {
			return n - 1
		}
		return n
	}
	return v
}

func toInt(v int64) (int, error) {
	i, err := safecast.Conv[int](v)
	if err != nil {
		return 0, rterr.Newf(rterr.Value, "slice bound %d does not fit in int", v)
	}
	return i, nil
}

// At maps the k-th element of the slice to its source index.
func (n Normalized) At(k int) (int, error) {
	if k < 0 || k >= n.Len {
		return 0, rterr.OutOfBounds("slice", k, n.Len)
	}
	return n.Start + k*n.Step, nil
}

// Indices yields the source indices selected by the slice, in order.
func (n Normalized) Indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		idx := n.Start
		for range n.Len {
			if !yield(idx) {
				return
			}
			idx += n.Step
		}
	}
}

// Index resolves a single source index (negative counts from the end).
func Index(i int64, length int) (int, error) {
	n := int64(length)
	v := i
	if v < 0 {
		v += n
	}
	if v < 0 || v >= n {
		return 0, rterr.Newf(rterr.Index, "index %d out of range for length %d", i, length)
	}
	return safecast.Conv[int](v)
}
