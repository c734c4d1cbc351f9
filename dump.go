// SPDX-License-Identifier: MIT

package trie

import (
	"fmt"
	"io"
	"strings"
)

// nodeKind classifies a node for DebugDump by its terminal flag and
// child occupancy.
type nodeKind int

const (
	emptyNode nodeKind = iota
	leafNode
	branchNode
	fullNode
)

func (k nodeKind) String() string {
	switch k {
	case emptyNode:
		return "EMPTY"
	case leafNode:
		return "LEAF"
	case branchNode:
		return "BRANCH"
	case fullNode:
		return "FULL"
	}
	panic("trie: unreachable nodeKind")
}

func classify(store NodeStore, n Node) nodeKind {
	terminal := store.IsTerminal(n)
	hasChild := store.HasChild(n)
	switch {
	case !terminal && !hasChild:
		return emptyNode
	case terminal && !hasChild:
		return leafNode
	case !terminal && hasChild:
		return branchNode
	default:
		return fullNode
	}
}

// DebugDump writes a human-readable, indented recursive dump of this
// view's sub-trie to w: one line per node, showing its depth below the
// prefix node, its full byte path (prefix bytes included), its kind, and (on a counting store) its
// stored count. It is meant for development and debugging, not for
// machine parsing.
func (t *Trie[E]) DebugDump(w io.Writer) error { return t.b.debugDump(w) }

// DebugDump writes a human-readable, indented recursive dump of this
// view's sub-trie to w.
func (t *IndexedTrie[E]) DebugDump(w io.Writer) error { return t.b.debugDump(w) }

func (b *base[E]) debugDump(w io.Writer) error {
	node, ok := b.resolvePrefixNode()
	if !ok {
		_, err := fmt.Fprintf(w, "%s[EMPTY] no such prefix\n", pathLabel(b.prefix))
		return err
	}
	return dumpRec(w, b.store, node, append([]byte(nil), b.prefix...), 0)
}

func dumpRec(w io.Writer, store NodeStore, n Node, path []byte, depth int) error {
	indent := strings.Repeat(".", depth)
	kind := classify(store, n)

	if _, err := fmt.Fprintf(w, "%s[%s] depth:%d path:%s", indent, kind, depth, pathLabel(path)); err != nil {
		return err
	}
	if store.IsCounting() {
		if _, err := fmt.Fprintf(w, " count:%d", store.Count(n)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	child, ok := store.Child(n)
	for ok {
		childPath := append(append([]byte(nil), path...), store.Value(child))
		if err := dumpRec(w, store, child, childPath, depth+1); err != nil {
			return err
		}
		child, ok = store.Sibling(child)
	}
	return nil
}

// pathLabel renders a byte path bracketed and dot-joined, in hex since
// trie keys are arbitrary bytes.
func pathLabel(path []byte) string {
	if len(path) == 0 {
		return "[]"
	}
	var buf strings.Builder
	buf.WriteByte('[')
	for i, b := range path {
		if i != 0 {
			buf.WriteByte('.')
		}
		fmt.Fprintf(&buf, "%02x", b)
	}
	buf.WriteByte(']')
	return buf.String()
}
