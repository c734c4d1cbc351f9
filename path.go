// SPDX-License-Identifier: MIT

package trie

import "io"

// Path is a stack of nodes from the root to some current node — the sole
// mechanism by which mutations occur. stack[0] is always the
// store's root once reset; head is stack[len(stack)-1]. A Path may become
// empty (no current element) only by popping past the root.
type Path struct {
	store  NodeStore
	stack  []Node
	buf    *Buffer
	frozen bool // true for paths obtained from an immutable view
}

// NewPath returns a Path bound to store and buf, reset to the root. A
// path over an immutable view is frozen: its first mutating call panics
// with ErrImmutable instead of reaching the store.
func NewPath(store NodeStore, buf *Buffer) *Path {
	p := &Path{store: store, buf: buf}
	if _, ok := store.(immutableView); ok {
		p.frozen = true
	}
	p.Reset()
	return p
}

// Buffer returns the serialization buffer linked to this path.
func (p *Path) Buffer() *Buffer { return p.buf }

// Store returns the NodeStore this path walks.
func (p *Path) Store() NodeStore { return p.store }

// Reset returns the path to length 1, head at the root.
func (p *Path) Reset() {
	p.stack = append(p.stack[:0], p.store.Root())
}

// Len returns the current stack length. Zero means "no current element".
func (p *Path) Len() int { return len(p.stack) }

// Empty reports whether the path has no current element.
func (p *Path) Empty() bool { return len(p.stack) == 0 }

// Head returns the current node and true, or false if the path is empty.
func (p *Path) Head() (Node, bool) {
	if len(p.stack) == 0 {
		return nil, false
	}
	return p.stack[len(p.stack)-1], true
}

// NodeAt returns the stack entry at depth i (0 is the root).
func (p *Path) NodeAt(i int) Node { return p.stack[i] }

// ancestorsOfHead returns the path's stack below the head, nearest-first
// (i.e. stack reversed, with the head itself excluded).
func (p *Path) ancestorsOfHead() []Node {
	n := len(p.stack) - 1
	out := make([]Node, n)
	for i := 0; i < n; i++ {
		out[i] = p.stack[n-1-i]
	}
	return out
}

func (p *Path) requireMutable() {
	if p.frozen {
		panic(ErrImmutable)
	}
}

// Push sets head to head.FindOrInsertChild(b) and extends the stack. The
// caller is responsible for eventually calling Terminate (or explicitly
// un-terminating) the new head. Callers must have ensured extra capacity
// on the store ahead of any batch using Push.
func (p *Path) Push(b byte) {
	p.requireMutable()
	head, ok := p.Head()
	if !ok {
		panic("trie: Push on an empty path")
	}
	child := p.store.FindOrInsertChild(head, b)
	p.stack = append(p.stack, child)
}

// WalkValue advances to the child valued b, if head has one, and reports
// success. It never mutates the store.
func (p *Path) WalkValue(b byte) bool {
	head, ok := p.Head()
	if !ok {
		return false
	}
	child, ok := p.store.FindChild(head, b)
	if !ok {
		return false
	}
	p.stack = append(p.stack, child)
	return true
}

// WalkChild advances to head's least child, if any.
func (p *Path) WalkChild() bool {
	head, ok := p.Head()
	if !ok {
		return false
	}
	child, ok := p.store.Child(head)
	if !ok {
		return false
	}
	p.stack = append(p.stack, child)
	return true
}

// WalkLastChild advances to head's greatest child, if any.
func (p *Path) WalkLastChild() bool {
	head, ok := p.Head()
	if !ok {
		return false
	}
	child, ok := p.store.LastChild(head)
	if !ok {
		return false
	}
	p.stack = append(p.stack, child)
	return true
}

// WalkSibling replaces head with its next-larger sibling, if any,
// leaving the stack length unchanged.
func (p *Path) WalkSibling() bool {
	n := len(p.stack)
	if n == 0 {
		return false
	}
	sib, ok := p.store.Sibling(p.stack[n-1])
	if !ok {
		return false
	}
	p.stack[n-1] = sib
	return true
}

// WalkCount advances to the k-th terminal (0-indexed) in depth-first,
// byte-order traversal under the current head, returning true when k
// terminals were stepped over. Valid only on counting stores.
func (p *Path) WalkCount(k int) bool {
	if !p.store.IsCounting() {
		panic("trie: WalkCount requires a counting store")
	}
	if p.Empty() || k < 0 {
		return false
	}
	remaining := k
	for {
		head, _ := p.Head()
		if p.store.IsTerminal(head) {
			if remaining == 0 {
				return true
			}
			remaining--
		}

		child, ok := p.store.Child(head)
		found := false
		for ok {
			c := p.store.Count(child)
			if remaining < c {
				p.stack = append(p.stack, child)
				found = true
				break
			}
			remaining -= c
			child, ok = p.store.Sibling(child)
		}
		if !found {
			return false
		}
	}
}

// Pop shrinks the stack by one; it may drop the path to empty.
func (p *Path) Pop() {
	if len(p.stack) == 0 {
		panic("trie: Pop on an empty path")
	}
	p.stack = p.stack[:len(p.stack)-1]
}

// Terminate sets head's terminal flag. If a true<->false transition
// occurred, stored counts are incremented (flag true) or decremented
// (flag false) along the entire path, exactly once per distinct physical
// record.
func (p *Path) Terminate(flag bool) bool {
	p.requireMutable()
	head, ok := p.Head()
	if !ok {
		panic("trie: Terminate on an empty path")
	}
	changed := p.store.SetTerminal(head, flag)
	if changed && p.store.IsCounting() {
		delta := 1
		if !flag {
			delta = -1
		}
		p.store.AdjustCount(head, p.ancestorsOfHead(), delta)
	}
	return changed
}

// Dangle forces head into a dangling state: clears its terminal flag and
// frees its entire subtree, propagating the subtree's former count as a
// decrement along the ancestors. The root is special-cased: it is
// cleared in place and the whole path resets to just the root.
func (p *Path) Dangle() {
	p.requireMutable()
	head, ok := p.Head()
	if !ok {
		panic("trie: Dangle on an empty path")
	}
	wasRoot := p.store.Equal(head, p.store.Root())
	freed := p.store.Dangle(head)
	if freed != 0 && p.store.IsCounting() && !wasRoot {
		p.store.AdjustAncestors(p.ancestorsOfHead(), -freed)
	}
	if wasRoot {
		p.Reset()
	}
}

// Prune assumes head is non-terminal. If head has no child, it walks
// backwards removing each ancestor whose sole justification for existing
// was the path segment just vacated, stopping at the first ancestor that
// is the root, terminal, or has other children, and removes the
// identified chain via RemoveChild.
func (p *Path) Prune() {
	p.requireMutable()
	head, ok := p.Head()
	if !ok {
		panic("trie: Prune on an empty path")
	}
	if p.store.HasChild(head) {
		return
	}
	if len(p.stack) == 1 {
		// The head is the root; a dangling root is legal and stays.
		return
	}

	// Walk upward while the node just vacated was the sole reason its
	// parent exists: parent is non-terminal, not the root, and the child
	// is its only child (it is the parent's least child and has no
	// sibling).
	cut := len(p.stack) - 1 // index of the deepest node to remove
	for cut > 1 {
		parent := p.stack[cut-1]
		child := p.stack[cut]
		if p.store.IsTerminal(parent) {
			break
		}
		if p.store.HasSibling(child) {
			break
		}
		least, _ := p.store.Child(parent)
		if !p.store.Equal(least, child) {
			break
		}
		cut--
	}

	parent := p.stack[cut-1]
	victim := p.stack[cut]
	value := p.store.Value(victim)
	if p.store.HasChild(victim) {
		// The vacated chain hangs below victim; its nodes are all
		// non-terminal, so dangling frees them without touching counts.
		p.store.Dangle(victim)
	}
	p.store.RemoveChild(parent, value)
	p.stack = p.stack[:cut]
}

// Serialize appends or trims the linked buffer so its contents exactly
// match the path's current byte sequence (the values of stack[1:], the
// root itself contributing no byte).
func (p *Path) Serialize() {
	target := len(p.stack) - 1
	if target < 0 {
		target = 0
	}
	switch {
	case p.buf.Len() > target:
		p.buf.Trim(target)
	case p.buf.Len() < target:
		for i := p.buf.Len() + 1; i < len(p.stack); i++ {
			p.buf.Push(p.store.Value(p.stack[i]))
		}
	}
}

// DeserializeWithWalk walks the path downward byte-by-byte, reading from
// the linked buffer starting at the first byte not already reflected by
// the stack. It returns false if a byte has no matching child, leaving
// the path at the deepest successful match.
func (p *Path) DeserializeWithWalk() bool {
	data := p.buf.Bytes()
	for i := len(p.stack) - 1; i < len(data); i++ {
		if !p.WalkValue(data[i]) {
			return false
		}
	}
	return true
}

// DeserializeWithPush is like DeserializeWithWalk but inserts missing
// nodes. The caller must have called EnsureExtraCapacity first, covering
// the remaining byte count plus slack for possible record separations.
func (p *Path) DeserializeWithPush() {
	p.requireMutable()
	data := p.buf.Bytes()
	for i := len(p.stack) - 1; i < len(data); i++ {
		p.Push(data[i])
	}
}

// WriteTo dumps the subtree reachable from the path's head to w in the
// persisted wire format, so a Path satisfies io.WriterTo. See
// Serializer.WriteTo for the spine-stripping rule.
func (p *Path) WriteTo(w io.Writer) (int64, error) {
	return NewSerializer().WriteTo(w, p)
}

// descendToSmallestTerminal walks least-child links from the current head
// until it reaches a terminal node, relying on the no-dangling invariant
// (every non-terminal node has a child) to guarantee termination.
func (p *Path) descendToSmallestTerminal() bool {
	for {
		head, ok := p.Head()
		if !ok {
			return false
		}
		if p.store.IsTerminal(head) {
			return true
		}
		if !p.WalkChild() {
			return false
		}
	}
}

// descendToLargestTerminal walks greatest-child links from the current
// head as far as possible. The final node, having no child, must be
// terminal by the no-dangling invariant.
func (p *Path) descendToLargestTerminal() bool {
	for {
		if !p.WalkLastChild() {
			head, ok := p.Head()
			return ok && p.store.IsTerminal(head)
		}
	}
}

// backtrackToNext repeatedly tries to move the current head to its next
// sibling (descending to that sibling's smallest terminal on success),
// popping up the stack when there is no sibling, but never reducing the
// stack below minLength+1 entries (i.e. never backtracking shallower than
// minLength bytes from the root). Returns false, leaving the path empty,
// if no such terminal exists.
func (p *Path) backtrackToNext(minLength int) bool {
	for {
		depth := len(p.stack) - 1
		if depth <= minLength {
			// A sibling move at minLength would rewrite a protected
			// prefix byte; exhaustion at the boundary empties the path
			// instead.
			break
		}
		if p.WalkSibling() {
			// The sibling changed the byte at depth-1; trim it away so
			// Serialize rebuilds the tail from the new path.
			if p.buf.Len() >= depth {
				p.buf.Trim(depth - 1)
			}
			if p.descendToSmallestTerminal() {
				p.Serialize()
				return true
			}
			continue
		}
		p.Pop()
	}
	p.stack = p.stack[:0]
	p.buf.Trim(0)
	return false
}

// First positions the path to the lexicographically smallest stored key
// greater than or equal to the buffer's current contents, without
// backtracking shallower than minLength bytes from the root. If no such
// key exists, the path becomes empty. The buffer is mutated to match the
// final path.
func (p *Path) First(minLength int) bool {
	data := p.buf.Bytes()

	i := len(p.stack) - 1
	mismatchAt := -1
	for i < len(data) {
		if !p.WalkValue(data[i]) {
			mismatchAt = i
			break
		}
		i++
	}

	if mismatchAt < 0 {
		head, _ := p.Head()
		if p.store.IsTerminal(head) {
			p.Serialize()
			return true
		}
		if p.WalkChild() && p.descendToSmallestTerminal() {
			p.Serialize()
			return true
		}
	} else if mismatchAt >= minLength {
		// Diverging to a larger branch at the mismatch depth is only
		// allowed outside the protected prefix.
		head, _ := p.Head()
		if next, ok := p.store.FindChildOrNext(head, data[mismatchAt]); ok {
			p.stack = append(p.stack, next)
			p.buf.Trim(mismatchAt)
			if p.descendToSmallestTerminal() {
				p.Serialize()
				return true
			}
		}
	}

	return p.backtrackToNext(minLength)
}

// Advance moves to the next terminal in byte order strictly after the
// current head, never backtracking shallower than minLength bytes from
// the root. If none exists, the path becomes empty.
func (p *Path) Advance(minLength int) bool {
	if p.Empty() {
		return false
	}
	if p.WalkChild() && p.descendToSmallestTerminal() {
		p.Serialize()
		return true
	}
	return p.backtrackToNext(minLength)
}
