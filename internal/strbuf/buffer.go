// Package strbuf implements the runtime's growable string buffer.
package strbuf

import (
	"fmt"
	"math"

	"mgenrt/internal/alloc"
	"mgenrt/internal/config"
	"mgenrt/internal/rterr"
)

// DefaultCapacity is used by New when no capacity is requested.
var DefaultCapacity = config.DefaultBufferCapacity

// Buffer accumulates bytes. Growth doubles the capacity until the new data
// fits; a failed growth leaves the content unchanged.
type Buffer struct {
	a   *alloc.Allocator
	buf []byte
	n   int
}

// New creates a buffer with initialCapacity bytes (DefaultCapacity when 0).
func New(a *alloc.Allocator, initialCapacity int) (*Buffer, error) {
	a = alloc.Or(a)
	if initialCapacity < 0 {
		return nil, a.Fail(rterr.Newf(rterr.Value, "negative buffer capacity %d", initialCapacity))
	}
	if initialCapacity == 0 {
		initialCapacity = DefaultCapacity
	}
	buf, err := alloc.Make[byte](a, initialCapacity)
	if err != nil {
		return nil, err
	}
	return &Buffer{a: a, buf: buf}, nil
}

func (b *Buffer) allocator() *alloc.Allocator { return alloc.Or(b.a) }

func (b *Buffer) reserve(extra int) error {
	if extra > math.MaxInt-b.n {
		return b.allocator().Fail(rterr.Newf(rterr.Memory, "buffer of %d bytes cannot grow by %d", b.n, extra))
	}
	need := b.n + extra
	if need <= len(b.buf) {
		return nil
	}
	next := len(b.buf)
	if next == 0 {
		next = DefaultCapacity
	}
	for next < need {
		if next > math.MaxInt/2 {
			next = need
			break
		}
		next *= 2
	}
	buf, err := alloc.Resize(b.allocator(), b.buf, next)
	if err != nil {
		return b.allocator().Fail(rterr.Wrap(rterr.Memory, err, "failed to grow buffer"))
	}
	b.buf = buf
	return nil
}

// Append adds p.
func (b *Buffer) Append(p []byte) error {
	if err := b.reserve(len(p)); err != nil {
		return err
	}
	b.n += copy(b.buf[b.n:], p)
	return nil
}

// AppendString adds s.
func (b *Buffer) AppendString(s string) error {
	if err := b.reserve(len(s)); err != nil {
		return err
	}
	b.n += copy(b.buf[b.n:], s)
	return nil
}

// AppendFormat adds fmt.Sprintf(format, args...).
func (b *Buffer) AppendFormat(format string, args ...any) error {
	return b.AppendString(fmt.Sprintf(format, args...))
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	if err := b.Append(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// String returns a copy of the content.
func (b *Buffer) String() string { return string(b.buf[:b.n]) }

// Bytes returns the content; it aliases the buffer until the next append.
func (b *Buffer) Bytes() []byte { return b.buf[:b.n] }

// Len returns the content length.
func (b *Buffer) Len() int { return b.n }

// Cap returns the allocated capacity.
func (b *Buffer) Cap() int { return len(b.buf) }

// Clear empties the buffer and keeps its storage.
func (b *Buffer) Clear() { b.n = 0 }

// Free releases the storage. Safe to call repeatedly.
func (b *Buffer) Free() {
	if b == nil || b.buf == nil {
		return
	}
	alloc.Free(b.allocator(), b.buf)
	b.buf, b.n = nil, 0
}

// Drop is Free.
func (b *Buffer) Drop() { b.Free() }
