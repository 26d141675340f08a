package protocol

import (
	"bytes"
	"context"
)

// ContextReader is the read half of a transport.Transport
type ContextReader interface {
	Read(ctx context.Context, buf []byte) (int, error)
}

// ResponseBuffer is a fixed-capacity buffer filled by exactly one read.
// One byte of the capacity is reserved for the terminator, so at most
// capacity-1 bytes are ever captured; anything the peer sends beyond that
// is left unread.
type ResponseBuffer struct {
	buf []byte
	n   int
}

// NewResponseBuffer allocates a buffer of the given capacity (minimum 1)
func NewResponseBuffer(capacity int) *ResponseBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ResponseBuffer{buf: make([]byte, capacity)}
}

// Cap returns the capacity including the reserved terminator byte
func (b *ResponseBuffer) Cap() int {
	return len(b.buf)
}

// Usable returns how many bytes a single Fill may capture
func (b *ResponseBuffer) Usable() int {
	return len(b.buf) - 1
}

// Fill resets the buffer and performs a single read from r. The captured
// text ends at the first NUL byte, as a C string would.
func (b *ResponseBuffer) Fill(ctx context.Context, r ContextReader) (int, error) {
	b.n = 0
	n, err := r.Read(ctx, b.buf[:b.Usable()])
	if n < 0 {
		n = 0
	}
	if n > b.Usable() {
		n = b.Usable()
	}
	if i := bytes.IndexByte(b.buf[:n], 0); i >= 0 {
		n = i
	}
	b.n = n
	b.buf[n] = 0
	return n, err
}

// Bytes returns a view of the captured bytes, valid until the next Fill
func (b *ResponseBuffer) Bytes() []byte {
	return b.buf[:b.n]
}

// Len returns the number of captured bytes
func (b *ResponseBuffer) Len() int {
	return b.n
}
