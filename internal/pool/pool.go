// Package pool provides a bump allocator for objects that die together.
package pool

import (
	"math"

	"go.uber.org/zap"

	"mgenrt/internal/alloc"
	"mgenrt/internal/config"
	"mgenrt/internal/rterr"
	"mgenrt/internal/rtlog"
	"mgenrt/internal/trace"
)

// Align is the alignment of every block handed out.
const Align = 8

// DefaultSize is the first chunk size when New is given 0.
var DefaultSize = config.DefaultPoolSize

// Stats describes pool usage.
type Stats struct {
	Used        int   `msgpack:"used"`     // bytes used in the current chunk
	Capacity    int   `msgpack:"capacity"` // size of the current chunk
	Allocations int   `msgpack:"allocations"`
	Chunks      int   `msgpack:"chunks"`
	Reserved    int64 `msgpack:"reserved"` // bytes held across all chunks
}

// Pool hands out aligned blocks from a chunk and moves to a chunk twice as
// large (or larger, to fit) when the current one is exhausted. Blocks are
// never freed individually; earlier chunks stay alive until Reset or Free.
// The zero value is an empty pool on the default allocator whose first
// chunk is reserved on first Alloc.
type Pool struct {
	a       *alloc.Allocator
	cur     []byte
	used    int
	retired [][]byte
	count   int
	freed   bool
}

// New creates a pool whose first chunk holds initialSize bytes
// (DefaultSize when 0).
func New(a *alloc.Allocator, initialSize int) (*Pool, error) {
	a = alloc.Or(a)
	if initialSize < 0 {
		return nil, a.Fail(rterr.Newf(rterr.Value, "negative pool size %d", initialSize))
	}
	if initialSize == 0 {
		initialSize = DefaultSize
	}
	buf, err := alloc.Make[byte](a, initialSize)
	if err != nil {
		return nil, err
	}
	return &Pool{a: a, cur: buf}, nil
}

func (p *Pool) allocator() *alloc.Allocator { return alloc.Or(p.a) }

func alignUp(n int) int { return (n + Align - 1) &^ (Align - 1) }

// Alloc returns a zeroed block of size bytes.
func (p *Pool) Alloc(size int) ([]byte, error) {
	a := p.allocator()
	if p.freed {
		return nil, a.Fail(rterr.New(rterr.Value, "allocation from a freed pool"))
	}
	if size <= 0 {
		return nil, a.Fail(rterr.Newf(rterr.Value, "invalid pool allocation size %d", size))
	}
	if size > math.MaxInt-Align {
		return nil, a.Fail(rterr.Newf(rterr.Memory, "pool allocation of %d bytes is too large", size))
	}
	need := alignUp(size)
	if need > len(p.cur)-p.used {
		if err := p.grow(need); err != nil {
			return nil, err
		}
	}
	block := p.cur[p.used : p.used+size : p.used+need]
	clear(block)
	p.used += need
	p.count++
	return block, nil
}

// grow retires the current chunk for one of at least need bytes. Doubling
// stops at need once it would overflow.
func (p *Pool) grow(need int) error {
	a := p.allocator()
	next := max(DefaultSize, Align)
	if n := len(p.cur); n > 0 {
		next = n
		if n <= math.MaxInt/2 {
			next = 2 * n
		}
	}
	for next < need {
		if next > math.MaxInt/2 {
			next = need
			break
		}
		next *= 2
	}
	buf, err := alloc.Make[byte](a, next)
	if err != nil {
		return a.Fail(rterr.Wrap(rterr.Memory, err, "failed to grow memory pool"))
	}
	if p.cur != nil {
		p.retired = append(p.retired, p.cur)
	}
	p.cur = buf
	p.used = 0
	rtlog.Logger().Debug("pool grew", zap.Int("chunk", next), zap.Int("chunks", len(p.retired)+1))
	trace.Point(a.Tracer(), trace.KindGrow, trace.ScopeContainer, "pool", int64(next), "")
	return nil
}

// Reset makes the whole current chunk available again and frees earlier
// chunks. Every block handed out before is invalid afterwards.
func (p *Pool) Reset() {
	if p.freed {
		return
	}
	p.releaseRetired()
	p.used = 0
	p.count = 0
}

// Free releases all storage. Later calls do nothing.
func (p *Pool) Free() {
	if p == nil || p.freed {
		return
	}
	p.releaseRetired()
	a := p.allocator()
	if p.cur != nil {
		alloc.Free(a, p.cur)
	}
	p.cur = nil
	p.used = 0
	p.freed = true
	trace.Point(a.Tracer(), trace.KindRelease, trace.ScopeLifecycle, "pool", 0, "")
}

func (p *Pool) releaseRetired() {
	for i, chunk := range p.retired {
		alloc.Free(p.allocator(), chunk)
		p.retired[i] = nil
	}
	p.retired = p.retired[:0]
}

// Stats reports the current usage.
func (p *Pool) Stats() Stats {
	s := Stats{Used: p.used, Capacity: len(p.cur), Allocations: p.count}
	if !p.freed && p.cur != nil {
		s.Chunks = len(p.retired) + 1
		s.Reserved = int64(len(p.cur))
		for _, c := range p.retired {
			s.Reserved += int64(len(c))
		}
	}
	return s
}
