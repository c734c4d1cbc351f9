// SPDX-License-Identifier: MIT

package trie

import "golang.org/x/xerrors"

// IndexedTrie is a Trie that additionally supports positional access:
// Get(i) returns the i-th element in ascending order, and IndexOf(e)
// returns e's rank. Both run in O(depth) by walking stored per-node
// terminal counts, so IndexedTrie requires a counting store.
type IndexedTrie[E any] struct {
	b base[E]
}

// NewIndexed returns an empty IndexedTrie backed by store, which must
// report IsCounting() true. Use a NodeStoreFactory's SupportsCounting
// before calling its NewStore with Counting: true to build one.
func NewIndexed[E any](store NodeStore, codec ElementCodec[E]) (*IndexedTrie[E], error) {
	if !store.IsCounting() {
		return nil, xerrors.Errorf("trie: indexed trie requires a counting store: %w", ErrUnsupportedConfiguration)
	}
	return &IndexedTrie[E]{b: newBase[E](store, codec, nil)}, nil
}

func (t *IndexedTrie[E]) Store() NodeStore { return t.b.store }

func (t *IndexedTrie[E]) Size() int { return t.b.size() }

func (t *IndexedTrie[E]) Add(e E) (bool, error) { return t.b.add(e) }

func (t *IndexedTrie[E]) Contains(e E) (bool, error) { return t.b.contains(e) }

func (t *IndexedTrie[E]) Remove(e E) (bool, error) { return t.b.remove(e) }

func (t *IndexedTrie[E]) First() (E, bool, error) { return t.b.first() }

func (t *IndexedTrie[E]) Last() (E, bool, error) { return t.b.last() }

func (t *IndexedTrie[E]) RemoveFirst() (E, bool, error) { return t.b.removeFirst() }

func (t *IndexedTrie[E]) RemoveLast() (E, bool, error) { return t.b.removeLast() }

func (t *IndexedTrie[E]) Iterator() *Iterator[E] { return newIterator(&t.b) }

func (t *IndexedTrie[E]) Fingerprint() uint64 { return t.b.fingerprint() }

// SubTrie returns an indexed view restricted to elements whose encoding
// has prefixBytes as a prefix, sharing the same backing store.
func (t *IndexedTrie[E]) SubTrie(prefixBytes []byte) *IndexedTrie[E] {
	full := make([]byte, 0, len(t.b.prefix)+len(prefixBytes))
	full = append(full, t.b.prefix...)
	full = append(full, prefixBytes...)
	return &IndexedTrie[E]{b: newBase[E](t.b.store, t.b.codec, full)}
}

// Get returns the i-th smallest element (0-indexed) under this view.
func (t *IndexedTrie[E]) Get(i int) (E, error) {
	var zero E
	if i < 0 {
		return zero, invalidArgumentf("trie: negative index %d", i)
	}
	path := t.b.pool.Get()
	defer t.b.pool.Put(path)
	if !t.b.walkPrefix(path) {
		return zero, invalidArgumentf("trie: index %d out of range (empty)", i)
	}
	if !path.WalkCount(i) {
		return zero, invalidArgumentf("trie: index %d out of range", i)
	}
	path.Serialize()
	return t.b.codec.Decode(path.Buffer()), nil
}

// IndexOf returns e's rank among the stored elements if present. If
// absent, it returns -(k)-1, where k is the index e would occupy were it
// inserted (the standard binary-search insertion-point convention).
func (t *IndexedTrie[E]) IndexOf(e E) (int, error) {
	path := t.b.pool.Get()
	defer t.b.pool.Put(path)

	buf := path.Buffer()
	if !t.b.codec.Encode(buf, e) {
		return 0, invalidArgumentf("trie: element not serializable")
	}
	data := buf.Bytes()
	if !hasBytePrefix(data, t.b.prefix) {
		return 0, invalidArgumentf("trie: element outside sub-trie prefix")
	}

	store := t.b.store
	node := store.Root()
	for _, v := range t.b.prefix {
		child, ok := store.FindChild(node, v)
		if !ok {
			return -1, nil
		}
		node = child
	}

	rank := 0
	for _, v := range data[len(t.b.prefix):] {
		rank += store.CountToChild(node, v)
		child, ok := store.FindChild(node, v)
		if !ok {
			return -rank - 1, nil
		}
		node = child
	}
	if !store.IsTerminal(node) {
		return -rank - 1, nil
	}
	return rank, nil
}
