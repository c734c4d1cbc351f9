// SPDX-License-Identifier: MIT

package trie

// Trie is a set of elements of type E, stored as a byte-keyed trie over
// one of the three NodeStore backends. It supports ordered iteration,
// set membership, and sub-trie views, but not rank/select — for that,
// build an IndexedTrie over a counting store instead.
type Trie[E any] struct {
	b base[E]
}

// New returns an empty Trie backed by store, encoding and decoding
// elements through codec. store must not be shared with any other Trie
// or IndexedTrie that mutates it concurrently from another goroutine;
// NodeStore implementations carry no internal locking.
func New[E any](store NodeStore, codec ElementCodec[E]) *Trie[E] {
	return &Trie[E]{b: newBase[E](store, codec, nil)}
}

// Store returns the trie's underlying NodeStore.
func (t *Trie[E]) Store() NodeStore { return t.b.store }

// Size returns the number of elements stored under this view's prefix.
func (t *Trie[E]) Size() int { return t.b.size() }

// Add inserts e, returning true if it was not already present.
func (t *Trie[E]) Add(e E) (bool, error) { return t.b.add(e) }

// Contains reports whether e is stored.
func (t *Trie[E]) Contains(e E) (bool, error) { return t.b.contains(e) }

// Remove deletes e, returning true if it was present.
func (t *Trie[E]) Remove(e E) (bool, error) { return t.b.remove(e) }

// First returns the smallest stored element under the store's ByteOrder.
func (t *Trie[E]) First() (E, bool, error) { return t.b.first() }

// Last returns the greatest stored element under the store's ByteOrder.
func (t *Trie[E]) Last() (E, bool, error) { return t.b.last() }

// RemoveFirst removes and returns the smallest stored element.
func (t *Trie[E]) RemoveFirst() (E, bool, error) { return t.b.removeFirst() }

// RemoveLast removes and returns the greatest stored element.
func (t *Trie[E]) RemoveLast() (E, bool, error) { return t.b.removeLast() }

// Iterator returns an ascending-order iterator over this view's
// elements.
func (t *Trie[E]) Iterator() *Iterator[E] { return newIterator(&t.b) }

// SubTrie returns a view over the same backing store restricted to
// elements whose encoding has prefixBytes as a prefix. Mutations through
// either view are visible through the other. Add on the returned view
// rejects any element whose encoding does not start with prefixBytes.
func (t *Trie[E]) SubTrie(prefixBytes []byte) *Trie[E] {
	full := make([]byte, 0, len(t.b.prefix)+len(prefixBytes))
	full = append(full, t.b.prefix...)
	full = append(full, prefixBytes...)
	return &Trie[E]{b: newBase[E](t.b.store, t.b.codec, full)}
}

// Fingerprint returns a structural digest of this view's sub-trie,
// suitable for comparing two tries (possibly on different backends) for
// equivalent content cheaply.
func (t *Trie[E]) Fingerprint() uint64 { return t.b.fingerprint() }
