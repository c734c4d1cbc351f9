// SPDX-License-Identifier: MIT

// Package digest computes a cheap structural fingerprint of a serialized
// trie subtree, using xxhash for fast non-cryptographic content hashing.
//
// The fingerprint backs Trie.Fingerprint: computing it walks the whole
// subtree, after which two tries' contents compare as one integer. It
// works across backends, since it hashes the
// backend-independent pre-order node stream rather than the storage
// layout.
package digest

import "github.com/cespare/xxhash/v2"

// Digest accumulates the pre-order (value, flags) stream emitted by the
// serializer and folds it into a single 64-bit fingerprint. Two tries
// with identical elements, under the same ByteOrder, produce the same
// Digest regardless of backend, since the serializer's pre-order is
// backend-independent.
type Digest struct {
	h *xxhash.Digest
}

// New returns a ready-to-use Digest.
func New() *Digest {
	return &Digest{h: xxhash.New()}
}

// WriteNode folds one (value, flags) node record into the digest.
func (d *Digest) WriteNode(value, flags byte) {
	d.h.Write([]byte{value, flags})
}

// Sum returns the current fingerprint. Calling it does not reset the
// digest; further WriteNode calls keep accumulating.
func (d *Digest) Sum() uint64 {
	return d.h.Sum64()
}
