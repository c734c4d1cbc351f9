// SPDX-License-Identifier: MIT

// Package codec provides concrete ElementCodec adapters for
// github.com/trieforge/bytetrie: string and []byte pass-throughs, a
// big-endian uint64 encoding, and a bijection-composing Adapt, so a Trie
// or IndexedTrie can hold any element type whose bytes preserve the
// ordering the caller cares about.
package codec

import "github.com/trieforge/bytetrie"

// Bytes is the identity ElementCodec: elements are their own byte-slice
// encoding, always serializable.
type Bytes struct{}

func (Bytes) Encode(buf *trie.Buffer, e []byte) bool {
	buf.Set(e)
	return true
}

func (Bytes) Decode(buf *trie.Buffer) []byte { return buf.Get() }

// String encodes a string as its UTF-8 bytes. Byte-lexicographic order
// over the encoding matches Go's native string ordering, so String
// composes correctly with any ByteOrder built from Unsigned.
type String struct{}

func (String) Encode(buf *trie.Buffer, e string) bool {
	buf.Set([]byte(e))
	return true
}

func (String) Decode(buf *trie.Buffer) string { return string(buf.Get()) }

// Uint64 encodes a uint64 as 8 big-endian bytes, so byte-lexicographic
// order over the encoding matches numeric order.
type Uint64 struct{}

func (Uint64) Encode(buf *trie.Buffer, e uint64) bool {
	var tmp [8]byte
	for i := 0; i < 8; i++ {
		tmp[i] = byte(e >> (56 - 8*i))
	}
	buf.Set(tmp[:])
	return true
}

func (Uint64) Decode(buf *trie.Buffer) uint64 {
	b := buf.Bytes()
	var v uint64
	for i := 0; i < 8 && i < len(b); i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// Adapted composes a trie.ElementCodec[B] with a bijection between A and
// B, so a trie can be built over any type A whose values map onto a
// representable type B (e.g. a custom struct mapped onto a string key).
type Adapted[A, B any] struct {
	Inner   trie.ElementCodec[B]
	Forward func(A) (B, bool)
	Reverse func(B) A
}

// Adapt returns an ElementCodec[A] built from inner and the two
// directions of the bijection. forward may reject an A value by
// returning false, which Adapt reports through Encode as
// "not serializable".
func Adapt[A, B any](inner trie.ElementCodec[B], forward func(A) (B, bool), reverse func(B) A) Adapted[A, B] {
	return Adapted[A, B]{Inner: inner, Forward: forward, Reverse: reverse}
}

func (a Adapted[A, B]) Encode(buf *trie.Buffer, e A) bool {
	b, ok := a.Forward(e)
	if !ok {
		return false
	}
	return a.Inner.Encode(buf, b)
}

func (a Adapted[A, B]) Decode(buf *trie.Buffer) A {
	return a.Reverse(a.Inner.Decode(buf))
}

// Comparator returns an element comparator consistent with the order a
// trie over c and order iterates in: encodings are compared byte by
// byte under order, with a shorter encoding sorting before its
// extensions (a trie visits a terminal before its descendants).
// Elements c cannot encode have no defined ordering; Comparator panics
// on them, matching the add-side rejection.
func Comparator[E any](c trie.ElementCodec[E], order trie.ByteOrder) func(a, b E) int {
	return func(a, b E) int {
		ab, bb := trie.NewBuffer(), trie.NewBuffer()
		if !c.Encode(ab, a) || !c.Encode(bb, b) {
			panic("codec: comparing a non-serializable element")
		}
		x, y := ab.Bytes(), bb.Bytes()
		for i := 0; i < len(x) && i < len(y); i++ {
			if cmp := order.Compare(x[i], y[i]); cmp != 0 {
				return cmp
			}
		}
		switch {
		case len(x) < len(y):
			return -1
		case len(x) > len(y):
			return 1
		default:
			return 0
		}
	}
}
