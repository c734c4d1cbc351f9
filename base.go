// SPDX-License-Identifier: MIT

package trie

// base carries the state shared by Trie and IndexedTrie: a store, the
// element codec, the byte prefix defining this view's sub-trie (empty for
// a trie rooted at the whole store), a path pool, and a small cache of
// the prefix's node so repeated operations don't re-walk the prefix bytes
// on every call.
type base[E any] struct {
	store  NodeStore
	codec  ElementCodec[E]
	prefix []byte
	pool   *pathPool

	haveCache bool
	cacheAt   uint64
	cacheNode Node
}

func newBase[E any](store NodeStore, codec ElementCodec[E], prefix []byte) base[E] {
	return base[E]{
		store:  store,
		codec:  codec,
		prefix: prefix,
		pool:   newPathPool(store),
	}
}

// resolvePrefixNode returns the node at the end of the prefix path, or
// false if that prefix currently has no corresponding node (the sub-trie
// is empty). The result is cached against the store's invalidation
// counter.
func (b *base[E]) resolvePrefixNode() (Node, bool) {
	if b.haveCache && b.cacheAt == b.store.Invalidations() {
		return b.cacheNode, b.cacheNode != nil
	}
	node := b.store.Root()
	ok := true
	for _, v := range b.prefix {
		child, found := b.store.FindChild(node, v)
		if !found {
			ok = false
			break
		}
		node = child
	}
	b.cacheAt = b.store.Invalidations()
	b.haveCache = true
	if ok {
		b.cacheNode = node
		return node, true
	}
	b.cacheNode = nil
	return nil, false
}

func (b *base[E]) invalidateCache() { b.haveCache = false }

// walkPrefix walks path from the root through every prefix byte, by plain
// (non-inserting) traversal. It returns false, leaving path at the
// deepest successful match, if the prefix subtree doesn't exist.
func (b *base[E]) walkPrefix(path *Path) bool {
	for _, v := range b.prefix {
		if !path.WalkValue(v) {
			return false
		}
	}
	return true
}

// size computes the number of elements stored under the prefix, using
// the O(depth) counting-store path when available and a full traversal
// otherwise.
func (b *base[E]) size() int {
	node, ok := b.resolvePrefixNode()
	if !ok {
		return 0
	}
	if b.store.IsCounting() {
		return b.store.Count(node)
	}
	path := b.pool.Get()
	defer b.pool.Put(path)
	if !b.walkPrefix(path) {
		return 0
	}
	n := 0
	for ok := path.descendToSmallestTerminal(); ok; ok = path.Advance(len(b.prefix)) {
		n++
	}
	return n
}

// add encodes e, checks it against the prefix, pushes the remaining bytes
// onto a fresh path, and terminates the resulting node. It returns
// whether e was newly added.
func (b *base[E]) add(e E) (bool, error) {
	if _, ok := b.store.(immutableView); ok {
		return false, immutablef("add")
	}
	path := b.pool.Get()
	defer b.pool.Put(path)

	buf := path.Buffer()
	if !b.codec.Encode(buf, e) {
		return false, invalidArgumentf("trie: element not serializable")
	}
	data := buf.Bytes()
	if !hasBytePrefix(data, b.prefix) {
		return false, invalidArgumentf("trie: element outside sub-trie prefix")
	}
	if err := b.store.EnsureExtraCapacity(len(data) + packedSlack); err != nil {
		return false, err
	}

	for _, v := range b.prefix {
		path.Push(v)
	}
	path.DeserializeWithPush()

	head, _ := path.Head()
	wasTerminal := b.store.IsTerminal(head)
	path.Terminate(true)
	b.invalidateCache()
	return !wasTerminal, nil
}

// locate encodes e into path's buffer and reports whether the encoding
// starts with this view's prefix bytes. It does not walk the tree; the
// caller walks path afterwards.
func (b *base[E]) locate(path *Path, e E) (matchedPrefix bool, err error) {
	buf := path.Buffer()
	if !b.codec.Encode(buf, e) {
		return false, invalidArgumentf("trie: element not serializable")
	}
	if !hasBytePrefix(buf.Bytes(), b.prefix) {
		return false, nil
	}
	return true, nil
}

func (b *base[E]) contains(e E) (bool, error) {
	path := b.pool.Get()
	defer b.pool.Put(path)

	inPrefix, err := b.locate(path, e)
	if err != nil || !inPrefix {
		return false, err
	}
	if !path.DeserializeWithWalk() {
		return false, nil
	}
	head, _ := path.Head()
	return b.store.IsTerminal(head), nil
}

func (b *base[E]) remove(e E) (bool, error) {
	if _, ok := b.store.(immutableView); ok {
		return false, immutablef("remove")
	}
	path := b.pool.Get()
	defer b.pool.Put(path)

	inPrefix, err := b.locate(path, e)
	if err != nil || !inPrefix {
		return false, err
	}
	if !path.DeserializeWithWalk() {
		return false, nil
	}
	head, _ := path.Head()
	if !b.store.IsTerminal(head) {
		return false, nil
	}
	path.Terminate(false)
	path.Prune()
	b.invalidateCache()
	return true, nil
}

func (b *base[E]) first() (E, bool, error) {
	var zero E
	path := b.pool.Get()
	defer b.pool.Put(path)
	if !b.walkPrefix(path) {
		return zero, false, nil
	}
	if !path.descendToSmallestTerminal() {
		return zero, false, nil
	}
	path.Serialize()
	return b.codec.Decode(path.Buffer()), true, nil
}

func (b *base[E]) last() (E, bool, error) {
	var zero E
	path := b.pool.Get()
	defer b.pool.Put(path)
	if !b.walkPrefix(path) {
		return zero, false, nil
	}
	if !path.descendToLargestTerminal() {
		return zero, false, nil
	}
	path.Serialize()
	return b.codec.Decode(path.Buffer()), true, nil
}

func (b *base[E]) removeFirst() (E, bool, error) {
	e, ok, err := b.first()
	if err != nil || !ok {
		return e, ok, err
	}
	if _, err := b.remove(e); err != nil {
		return e, false, err
	}
	return e, true, nil
}

func (b *base[E]) removeLast() (E, bool, error) {
	e, ok, err := b.last()
	if err != nil || !ok {
		return e, ok, err
	}
	if _, err := b.remove(e); err != nil {
		return e, false, err
	}
	return e, true, nil
}

// fingerprint returns a structural digest of the sub-trie rooted at the
// prefix, usable to cheaply compare two tries for equivalent content even
// when they live on different backends.
func (b *base[E]) fingerprint() uint64 {
	path := b.pool.Get()
	defer b.pool.Put(path)
	if !b.walkPrefix(path) {
		path.Reset()
		path.stack = path.stack[:0]
	}
	return NewSerializer().Fingerprint(path)
}
