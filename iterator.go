// SPDX-License-Identifier: MIT

package trie

import "bytes"

// Iterator yields a view's elements in ascending ByteOrder order. A zero
// Iterator is not usable; obtain one from Trie.Iterator or
// IndexedTrie.Iterator. An Iterator borrows a pooled Path and must be
// either drained to exhaustion or explicitly Closed to return it.
//
// The iterator survives mutations of the underlying store: it captures
// the store's invalidation counter at every yield, and when a later Next
// observes a different counter it discards its (possibly relocated) node
// handles and re-enters the trie from the last-yielded key. Removing the
// element an iterator currently points at is therefore safe; the
// iterator resumes at the next larger key.
type Iterator[E any] struct {
	b       *base[E]
	path    *Path
	started bool
	done    bool

	inv  uint64
	last []byte // copy of the last-yielded key bytes
}

func newIterator[E any](b *base[E]) *Iterator[E] {
	path := b.pool.Get()
	if !b.walkPrefix(path) {
		b.pool.Put(path)
		return &Iterator[E]{b: b, done: true}
	}
	return &Iterator[E]{b: b, path: path, inv: b.store.Invalidations()}
}

// Next advances to the next element and reports whether one was found.
// It must be called before the first Element.
func (it *Iterator[E]) Next() bool {
	if it.done {
		return false
	}
	minLength := len(it.b.prefix)
	var ok bool
	switch {
	case !it.started:
		ok = it.path.First(minLength)
		it.started = true
	case it.b.store.Invalidations() != it.inv:
		ok = it.refresh(minLength)
	default:
		ok = it.path.Advance(minLength)
	}
	if !ok {
		it.Close()
		return false
	}
	it.inv = it.b.store.Invalidations()
	it.last = append(it.last[:0], it.path.Buffer().Bytes()...)
	return true
}

// refresh re-resolves the iterator's position after a structural change:
// the stale node handles are dropped and the path re-enters from the
// root along the last-yielded key, then steps past it.
func (it *Iterator[E]) refresh(minLength int) bool {
	it.path.Reset()
	it.path.Buffer().Set(it.last)
	if !it.path.First(minLength) {
		return false
	}
	if bytes.Equal(it.path.Buffer().Bytes(), it.last) {
		// The last-yielded key still exists; move strictly past it.
		return it.path.Advance(minLength)
	}
	// The last-yielded key is gone; First already landed on its
	// successor.
	return true
}

// Element returns the element at the iterator's current position. It
// must only be called after a Next call returned true.
func (it *Iterator[E]) Element() E {
	return it.b.codec.Decode(it.path.Buffer())
}

// Close releases the iterator's pooled Path early. It is safe to call
// more than once, and is a no-op once Next has returned false.
func (it *Iterator[E]) Close() {
	if it.path != nil {
		it.b.pool.Put(it.path)
		it.path = nil
	}
	it.done = true
}
