package pool_test

import (
	"errors"
	"math"
	"testing"

	"mgenrt/internal/alloc"
	"mgenrt/internal/pool"
	"mgenrt/internal/rterr"
)

func newAlloc(opts ...alloc.Option) *alloc.Allocator {
	return alloc.New(append([]alloc.Option{alloc.WithContext(rterr.NewContext(0))}, opts...)...)
}

func TestAllocAligns(t *testing.T) {
	p, err := pool.New(newAlloc(), 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a, _ := p.Alloc(3)
	b, _ := p.Alloc(9)
	if len(a) != 3 || len(b) != 9 {
		t.Fatalf("block lengths %d, %d", len(a), len(b))
	}
	if st := p.Stats(); st.Used != 24 || st.Allocations != 2 {
		t.Fatalf("stats %+v", st)
	}
	a[0], b[8] = 1, 2
	if a[0] != 1 || b[8] != 2 {
		t.Fatalf("blocks overlap")
	}
}

func TestGrowthKeepsEarlierBlocks(t *testing.T) {
	al := newAlloc()
	p, _ := pool.New(al, 16)
	first, _ := p.Alloc(16)
	copy(first, "0123456789abcdef")
	big, err := p.Alloc(100)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(big) != 100 {
		t.Fatalf("len = %d", len(big))
	}
	if string(first) != "0123456789abcdef" {
		t.Fatalf("earlier block clobbered: %q", first)
	}
	st := p.Stats()
	if st.Capacity != 128 || st.Chunks != 2 || st.Reserved != 144 {
		t.Fatalf("stats %+v", st)
	}
	p.Reset()
	st = p.Stats()
	if st.Used != 0 || st.Chunks != 1 || st.Capacity != 128 || al.InUse() != 128 {
		t.Fatalf("after Reset: %+v in use %d", st, al.InUse())
	}
	p.Free()
	p.Free()
	if al.Leaked() {
		t.Fatalf("pool leaked %d bytes", al.InUse())
	}
}

func TestResetZeroesReusedBlocks(t *testing.T) {
	p, _ := pool.New(newAlloc(), 0)
	b, _ := p.Alloc(8)
	b[0] = 0xff
	p.Reset()
	again, _ := p.Alloc(8)
	if again[0] != 0 {
		t.Fatalf("reused block not zeroed")
	}
	if p.Stats().Capacity != pool.DefaultSize {
		t.Fatalf("capacity %d", p.Stats().Capacity)
	}
}

func TestAllocErrors(t *testing.T) {
	al := newAlloc(alloc.WithLimit(64))
	p, _ := pool.New(al, 32)
	if _, err := p.Alloc(0); !errors.Is(err, rterr.ErrValue) {
		t.Fatalf("expected ValueError, got %v", err)
	}
	if _, err := p.Alloc(40); !errors.Is(err, rterr.ErrMemory) {
		t.Fatalf("expected MemoryError, got %v", err)
	}
	if st := p.Stats(); st.Chunks != 1 || st.Used != 0 {
		t.Fatalf("failed growth changed pool: %+v", st)
	}
	p.Free()
	if _, err := p.Alloc(8); !errors.Is(err, rterr.ErrValue) {
		t.Fatalf("expected ValueError after Free, got %v", err)
	}
}

func TestZeroValuePool(t *testing.T) {
	var p pool.Pool
	if st := p.Stats(); st.Chunks != 0 || st.Capacity != 0 {
		t.Fatalf("empty pool stats %+v", st)
	}
	b, err := p.Alloc(16)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(b) != 16 {
		t.Fatalf("len = %d", len(b))
	}
	if st := p.Stats(); st.Chunks != 1 || st.Capacity != pool.DefaultSize || st.Used != 16 {
		t.Fatalf("stats %+v", st)
	}
	p.Free()
	p.Free()
}

func TestAllocHugeSizes(t *testing.T) {
	for _, size := range []int{math.MaxInt, math.MaxInt - 3, math.MaxInt - 64, math.MaxInt / 2} {
		p, _ := pool.New(newAlloc(), 64)
		if _, err := p.Alloc(size); !errors.Is(err, rterr.ErrMemory) {
			t.Fatalf("Alloc(%d): expected MemoryError, got %v", size, err)
		}
		if st := p.Stats(); st.Chunks != 1 || st.Used != 0 || st.Capacity != 64 {
			t.Fatalf("Alloc(%d) changed pool: %+v", size, st)
		}
		if b, err := p.Alloc(8); err != nil || len(b) != 8 {
			t.Fatalf("pool unusable after failed Alloc(%d): %v", size, err)
		}
		p.Free()
	}
}
