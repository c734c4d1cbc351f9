// SPDX-License-Identifier: MIT

package trie

// Buffer is the growable byte buffer paired with a Path: it holds the
// current key bytes and is kept coherent with the Path's stack by
// explicit Serialize/Deserialize calls.
type Buffer struct {
	buf []byte
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer { return &Buffer{} }

// Bytes returns the buffer's current contents. The returned slice aliases
// the Buffer's internal storage and is only valid until the next mutating
// call.
func (b *Buffer) Bytes() []byte { return b.buf }

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int { return len(b.buf) }

// Cap returns the buffer's current capacity.
func (b *Buffer) Cap() int { return cap(b.buf) }

// Push appends one byte.
func (b *Buffer) Push(v byte) { b.buf = append(b.buf, v) }

// Pop removes and returns the last byte. It panics if the buffer is
// empty, so callers check Len first.
func (b *Buffer) Pop() byte {
	n := len(b.buf) - 1
	v := b.buf[n]
	b.buf = b.buf[:n]
	return v
}

// Replace overwrites the last byte with v.
func (b *Buffer) Replace(v byte) {
	b.buf[len(b.buf)-1] = v
}

// Trim truncates the buffer to n bytes. It panics if n is out of range.
func (b *Buffer) Trim(n int) {
	if n < 0 || n > len(b.buf) {
		panic("trie: Buffer.Trim out of range")
	}
	b.buf = b.buf[:n]
}

// Set overwrites the buffer's contents with element.
func (b *Buffer) Set(element []byte) {
	b.buf = append(b.buf[:0], element...)
}

// Get returns a copy of the buffer's current contents as a standalone
// element.
func (b *Buffer) Get() []byte {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}

// StartsWith reports whether the buffer's current contents begin with
// prefix.
func (b *Buffer) StartsWith(prefix []byte) bool {
	if len(prefix) > len(b.buf) {
		return false
	}
	for i, p := range prefix {
		if b.buf[i] != p {
			return false
		}
	}
	return true
}
