// SPDX-License-Identifier: MIT

package trie

// ElementCodec translates elements to and from the byte sequences a
// trie stores: Trie and IndexedTrie depend only on this interface,
// never on a concrete encoding. Concrete adapters (string, []byte,
// uint64, bijection composition) live in the sibling trie/codec
// package.
type ElementCodec[E any] interface {
	// Encode writes e's byte serialization into buf, replacing its
	// current contents, and reports whether e was serializable. A false
	// return leaves buf's contents unspecified.
	Encode(buf *Buffer, e E) bool

	// Decode reads an element back out of buf's current contents. It is
	// only ever called with bytes buf itself produced via Encode (or a
	// prefix thereof reconstructed by Path), so it need not handle
	// arbitrary byte sequences.
	Decode(buf *Buffer) E
}
