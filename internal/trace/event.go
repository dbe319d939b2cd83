package trace

import (
	"sync/atomic"
	"time"
)

// Kind represents the type of trace event.
type Kind uint8

const (
	KindAlloc   Kind = iota + 1 // memory acquired
	KindResize                  // block grown or shrunk
	KindFree                    // memory released
	KindGrow                    // container capacity change
	KindRehash                  // hash table bucket array rebuilt
	KindRelease                 // bulk teardown (scope, pool, registry)
	KindFailure                 // operation failed
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindAlloc:
		return "alloc"
	case KindResize:
		return "resize"
	case KindFree:
		return "free"
	case KindGrow:
		return "grow"
	case KindRehash:
		return "rehash"
	case KindRelease:
		return "release"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of the event.
// Lower values are coarser.
type Scope uint8

const (
	ScopeFailure   Scope = iota + 1 // failed operations
	ScopeLifecycle                  // bulk teardown
	ScopeContainer                  // per-container structure changes
	ScopeAlloc                      // individual allocations
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeFailure:
		return "failure"
	case ScopeLifecycle:
		return "lifecycle"
	case ScopeContainer:
		return "container"
	case ScopeAlloc:
		return "alloc"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time   time.Time
	Seq    uint64
	Kind   Kind
	Scope  Scope
	Name   string // e.g. "seq.Vec", "table.Table", "pool.Pool"
	Bytes  int64  // bytes involved, 0 when not applicable
	Detail string
}

var globalSeq atomic.Uint64

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 {
	return globalSeq.Add(1)
}
