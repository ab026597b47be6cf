// Package buffer provides the growable byte buffer used by the frame adapter
// and the codecs. Unlike bytes.Buffer it exposes its spare capacity so a
// reader can fill it in place: Reserve grows it, Spare returns the writable
// region and Commit makes the filled prefix part of the readable contents.
package buffer

import (
	"bytes"
	"fmt"
)

// Buffer is a byte queue. Readable bytes live in buf[off:len(buf)], spare
// capacity in buf[len(buf):cap(buf)].
type Buffer struct {
	buf []byte
	off int
}

// New returns an empty buffer with the given initial capacity.
func New(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, 0, capacity)}
}

// Len returns the number of unconsumed bytes.
func (b *Buffer) Len() int { return len(b.buf) - b.off }

// Cap returns the capacity of the underlying storage.
func (b *Buffer) Cap() int { return cap(b.buf) }

// Available returns the number of spare bytes that can be filled without
// reallocating.
func (b *Buffer) Available() int { return cap(b.buf) - len(b.buf) }

// Bytes returns the unconsumed bytes. The slice aliases the buffer and is
// valid only until the next mutating call.
func (b *Buffer) Bytes() []byte { return b.buf[b.off:] }

// Reserve ensures at least n bytes of spare capacity. Existing contents are
// kept; consumed bytes at the front are reclaimed first.
func (b *Buffer) Reserve(n int) {
	if n < 0 {
		panic("buffer: negative reserve")
	}
	if b.Available() >= n {
		return
	}
	if b.off > 0 && cap(b.buf)-b.Len() >= n {
		m := copy(b.buf, b.buf[b.off:])
		b.buf = b.buf[:m]
		b.off = 0
		return
	}
	grown := make([]byte, b.Len(), 2*cap(b.buf)+n)
	copy(grown, b.buf[b.off:])
	b.buf = grown
	b.off = 0
}

// Spare returns the writable region after the readable bytes. Bytes written
// into it become visible only after Commit.
func (b *Buffer) Spare() []byte {
	return b.buf[len(b.buf):cap(b.buf)]
}

// Commit extends the readable contents by n bytes previously written into
// Spare. It panics if n exceeds the spare capacity.
func (b *Buffer) Commit(n int) {
	if n < 0 || n > b.Available() {
		panic(fmt.Sprintf("buffer: commit %d exceeds spare capacity %d", n, b.Available()))
	}
	b.buf = b.buf[:len(b.buf)+n]
}

// Consume discards the first n unconsumed bytes.
func (b *Buffer) Consume(n int) {
	if n < 0 || n > b.Len() {
		panic(fmt.Sprintf("buffer: consume %d of %d bytes", n, b.Len()))
	}
	b.off += n
	if b.off == len(b.buf) {
		b.Clear()
	}
}

// Next returns the first n unconsumed bytes and consumes them. The returned
// slice is a copy.
func (b *Buffer) Next(n int) []byte {
	out := make([]byte, n)
	copy(out, b.buf[b.off:b.off+n])
	b.Consume(n)
	return out
}

// Clear drops all contents but keeps the capacity.
func (b *Buffer) Clear() {
	b.buf = b.buf[:0]
	b.off = 0
}

// Write appends p, growing the buffer as needed. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.Reserve(len(p))
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte appends c.
func (b *Buffer) WriteByte(c byte) error {
	b.Reserve(1)
	b.buf = append(b.buf, c)
	return nil
}

// WriteString appends s.
func (b *Buffer) WriteString(s string) (int, error) {
	b.Reserve(len(s))
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// IndexByte returns the offset of the first c in the unconsumed bytes, or -1.
func (b *Buffer) IndexByte(c byte) int {
	return bytes.IndexByte(b.buf[b.off:], c)
}
