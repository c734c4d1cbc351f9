// SPDX-License-Identifier: MIT

package trie

import "github.com/trieforge/bytetrie/internal/ticks"

// refNode is a standalone heap record: one allocation per trie node, with
// explicit sibling/child pointers forming a sorted singly-linked sibling
// list. This is the simplest, fastest, most memory-hungry of the three
// backends — the baseline every other backend is checked against for
// behavioral equivalence.
type refNode struct {
	value    byte
	terminal bool
	sibling  *refNode
	child    *refNode
	count    int // meaningful only when the owning store is counting
}

// ReferenceStore is the pointer-based NodeStore backend: every node is
// its own heap allocation.
type ReferenceStore struct {
	order     ByteOrder
	counting  bool
	root      *refNode
	nodeCount int
	limit     int
	inv       *ticks.Counter
}

// NewReferenceStore creates a fresh, empty ReferenceStore.
func NewReferenceStore(cfg StoreConfig) *ReferenceStore {
	return &ReferenceStore{
		order:     cfg.Order,
		counting:  cfg.Counting,
		root:      &refNode{},
		nodeCount: 1,
		limit:     cfg.CapacityLimit,
		inv:       &ticks.Counter{},
	}
}

// ReferenceStoreFactory builds ReferenceStore instances. It supports
// counting.
type ReferenceStoreFactory struct{}

func (ReferenceStoreFactory) NewStore(cfg StoreConfig) (NodeStore, error) {
	return NewReferenceStore(cfg), nil
}

func (ReferenceStoreFactory) SupportsCounting() bool { return true }

func (s *ReferenceStore) Root() Node { return s.root }

func (s *ReferenceStore) ByteOrder() ByteOrder { return s.order }

func (s *ReferenceStore) IsCounting() bool { return s.counting }

// EnsureExtraCapacity allocates nothing — every node is its own heap
// record, so there is no backing array to grow or relocate — but still
// enforces a configured hard cap.
func (s *ReferenceStore) EnsureExtraCapacity(n int) error {
	if s.limit > 0 && n > 0 && s.nodeCount+n > s.limit {
		return capacityExhaustedf("trie: %d nodes live, %d more requested, cap %d",
			s.nodeCount, n, s.limit)
	}
	return nil
}

func (s *ReferenceStore) Invalidations() uint64 { return s.inv.Load() }

func (s *ReferenceStore) NodeCount() int { return s.nodeCount }

// StorageSize estimates memory from a fixed per-node overhead: one byte
// value, one bool, two pointers, and (if counting) one int.
func (s *ReferenceStore) StorageSize() int {
	const perNode = 1 + 1 + 8 + 8 // value + terminal + sibling ptr + child ptr
	size := s.nodeCount * perNode
	if s.counting {
		size += s.nodeCount * 8
	}
	return size
}

// Compact is a no-op for ReferenceStore: there is no contiguous storage
// to defragment.
func (s *ReferenceStore) Compact() {}

// Stats reports the store's node count and storage footprint; the free
// list length is always zero here, freed nodes go straight back to the
// garbage collector.
func (s *ReferenceStore) Stats() StoreStats {
	return StoreStats{NodeCount: s.nodeCount, StorageSize: s.StorageSize()}
}


func (s *ReferenceStore) node(n Node) *refNode { return n.(*refNode) }

func (s *ReferenceStore) Value(n Node) byte { return s.node(n).value }

func (s *ReferenceStore) IsTerminal(n Node) bool { return s.node(n).terminal }

func (s *ReferenceStore) SetTerminal(n Node, flag bool) bool {
	rn := s.node(n)
	if rn.terminal == flag {
		return false
	}
	rn.terminal = flag
	s.inv.Bump()
	return true
}

func (s *ReferenceStore) HasSibling(n Node) bool { return s.node(n).sibling != nil }

func (s *ReferenceStore) Sibling(n Node) (Node, bool) {
	sib := s.node(n).sibling
	if sib == nil {
		return nil, false
	}
	return sib, true
}

func (s *ReferenceStore) HasChild(n Node) bool { return s.node(n).child != nil }

func (s *ReferenceStore) Child(n Node) (Node, bool) {
	c := s.node(n).child
	if c == nil {
		return nil, false
	}
	return c, true
}

func (s *ReferenceStore) LastChild(n Node) (Node, bool) {
	c := s.node(n).child
	if c == nil {
		return nil, false
	}
	for c.sibling != nil {
		c = c.sibling
	}
	return c, true
}

func (s *ReferenceStore) FindChild(n Node, b byte) (Node, bool) {
	for c := s.node(n).child; c != nil; c = c.sibling {
		switch cmp := s.order.Compare(c.value, b); {
		case cmp == 0:
			return c, true
		case cmp > 0:
			return nil, false
		}
	}
	return nil, false
}

func (s *ReferenceStore) FindChildOrNext(n Node, b byte) (Node, bool) {
	for c := s.node(n).child; c != nil; c = c.sibling {
		if s.order.Compare(c.value, b) >= 0 {
			return c, true
		}
	}
	return nil, false
}

func (s *ReferenceStore) FindOrInsertChild(n Node, b byte) Node {
	rn := s.node(n)

	var prev *refNode
	for c := rn.child; c != nil; c = c.sibling {
		switch cmp := s.order.Compare(c.value, b); {
		case cmp == 0:
			return c
		case cmp > 0:
			return s.insertAfter(rn, prev, c, b)
		default:
			prev = c
		}
	}
	return s.insertAfter(rn, prev, nil, b)
}

// insertAfter inserts a new node valued b between prev and next (either
// of which may be nil), linking it as rn's child if prev is nil.
func (s *ReferenceStore) insertAfter(rn, prev, next *refNode, b byte) *refNode {
	fresh := &refNode{value: b, sibling: next}
	if prev == nil {
		rn.child = fresh
	} else {
		prev.sibling = fresh
	}
	s.nodeCount++
	s.inv.Bump()
	return fresh
}

func (s *ReferenceStore) Count(n Node) int { return s.node(n).count }

func (s *ReferenceStore) CountToChild(n Node, b byte) int {
	rn := s.node(n)
	total := 0
	if rn.terminal {
		total++
	}
	for c := rn.child; c != nil && s.order.Compare(c.value, b) < 0; c = c.sibling {
		total += c.count
	}
	return total
}

func (s *ReferenceStore) AdjustCount(n Node, ancestors []Node, delta int) {
	if !s.counting || delta == 0 {
		return
	}
	s.node(n).count += delta
	s.AdjustAncestors(ancestors, delta)
}

func (s *ReferenceStore) AdjustAncestors(ancestors []Node, delta int) {
	if !s.counting || delta == 0 {
		return
	}
	for _, a := range ancestors {
		s.node(a).count += delta
	}
}

func (s *ReferenceStore) RemoveChild(n Node, b byte) (Node, bool) {
	rn := s.node(n)
	var prev *refNode
	for c := rn.child; c != nil; c = c.sibling {
		if s.order.Compare(c.value, b) == 0 {
			if prev == nil {
				rn.child = c.sibling
			} else {
				prev.sibling = c.sibling
			}
			s.nodeCount--
			s.inv.Bump()
			return c, true
		}
		prev = c
	}
	return nil, false
}

// Dangle clears n (terminal flag and entire child subtree) and returns
// the subtree's former total terminal count, for the caller to propagate
// as a decrement along n's ancestors.
func (s *ReferenceStore) Dangle(n Node) int {
	rn := s.node(n)
	freed := rn.count
	if rn == s.root {
		rn.terminal = false
		rn.child = nil
		rn.count = 0
		s.nodeCount = 1
		s.inv.Bump()
		return freed
	}
	s.nodeCount -= countRefNodes(rn.child)
	rn.terminal = false
	rn.child = nil
	rn.count = 0
	s.inv.Bump()
	return freed
}

// countRefNodes counts n and its entire sibling+child subtree.
func countRefNodes(n *refNode) int {
	if n == nil {
		return 0
	}
	return 1 + countRefNodes(n.child) + countRefNodes(n.sibling)
}

func (s *ReferenceStore) Equal(a, b Node) bool { return s.node(a) == s.node(b) }

// ReadComplete recomputes every node's count bottom-up from the terminal
// flags just decoded by Serializer.Read: the wire format carries
// terminal flags but no counts, so the flags are trusted and the counts
// rebuilt here. It is a no-op on a non-counting store.
func (s *ReferenceStore) ReadComplete() {
	if !s.counting {
		return
	}
	recomputeRefCounts(s.root)
}

func recomputeRefCounts(n *refNode) int {
	if n == nil {
		return 0
	}
	total := 0
	if n.terminal {
		total++
	}
	for c := n.child; c != nil; c = c.sibling {
		total += recomputeRefCounts(c)
	}
	n.count = total
	return total
}

func (s *ReferenceStore) MutableCopy() NodeStore {
	clone := &ReferenceStore{order: s.order, counting: s.counting, limit: s.limit, inv: &ticks.Counter{}}
	clone.root, clone.nodeCount = cloneRefTree(s.root)
	return clone
}

func (s *ReferenceStore) ImmutableView() NodeStore {
	return immutableView{inner: s}
}

func (s *ReferenceStore) ImmutableCopy() NodeStore {
	return immutableView{inner: s.MutableCopy()}
}

func cloneRefTree(n *refNode) (*refNode, int) {
	if n == nil {
		return nil, 0
	}
	clone := &refNode{value: n.value, terminal: n.terminal, count: n.count}
	count := 1
	if n.child != nil {
		childClone, childCount := cloneRefTree(n.child)
		clone.child = childClone
		count += childCount
	}
	if n.sibling != nil {
		sibClone, sibCount := cloneRefTree(n.sibling)
		clone.sibling = sibClone
		count += sibCount
	}
	return clone, count
}
