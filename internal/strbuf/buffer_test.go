package strbuf_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"mgenrt/internal/alloc"
	"mgenrt/internal/rterr"
	"mgenrt/internal/strbuf"
)

func newAlloc(opts ...alloc.Option) *alloc.Allocator {
	return alloc.New(append([]alloc.Option{alloc.WithContext(rterr.NewContext(0))}, opts...)...)
}

func TestAppendAndGrow(t *testing.T) {
	a := newAlloc()
	b, err := strbuf.New(a, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = b.AppendString("ab")
	_ = b.Append([]byte("cdefg"))
	if b.String() != "abcdefg" || b.Cap() != 8 {
		t.Fatalf("content %q cap %d", b.String(), b.Cap())
	}
	_ = b.AppendFormat("-%d-%s", 42, "x")
	if b.String() != "abcdefg-42-x" || b.Cap() != 16 {
		t.Fatalf("content %q cap %d", b.String(), b.Cap())
	}
	fmt.Fprintf(b, "%03d", 7)
	if !strings.HasSuffix(b.String(), "007") || b.Len() != 15 {
		t.Fatalf("content %q", b.String())
	}
	b.Clear()
	if b.Len() != 0 || b.Cap() != 16 {
		t.Fatalf("Clear: len %d cap %d", b.Len(), b.Cap())
	}
	b.Free()
	b.Free()
	if a.Leaked() {
		t.Fatalf("buffer leaked %d bytes", a.InUse())
	}
}

func TestDefaultCapacity(t *testing.T) {
	b, _ := strbuf.New(newAlloc(), 0)
	if b.Cap() != 256 {
		t.Fatalf("cap %d", b.Cap())
	}
}

func TestGrowthFailureKeepsContent(t *testing.T) {
	b, _ := strbuf.New(newAlloc(alloc.WithLimit(12)), 8)
	_ = b.AppendString("12345678")
	if err := b.AppendString("9"); !errors.Is(err, rterr.ErrMemory) {
		t.Fatalf("expected MemoryError, got %v", err)
	}
	if b.String() != "12345678" || b.Cap() != 8 {
		t.Fatalf("content %q cap %d", b.String(), b.Cap())
	}
}
