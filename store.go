// SPDX-License-Identifier: MIT

package trie

// Node is an opaque handle to a node owned by a NodeStore. Its concrete
// type is private to the NodeStore implementation that produced it —
// *refNode for ReferenceStore, packedHandle for PackedStore and
// CompactStore — and is never inspected by Path or Trie; it is only ever
// passed back to the store that produced it. Each backend knows its own
// concrete representation and nothing outside the backend needs to.
type Node any

// NodeStore owns every node of exactly one trie. It creates and destroys
// nodes, exposes the root, and tracks a monotonic invalidation counter so
// that a Trie façade knows when cached node references must be
// re-resolved.
//
// All node-level operations are store-mediated rather than methods on
// Node directly, because several of them (FindOrInsertChild in
// particular) may need to allocate, split, or relocate records — an
// operation that belongs to the store that owns the backing memory, not
// to an opaque handle.
type NodeStore interface {
	// Root returns the store's root node. The root always has value 0,
	// owns no sibling, and may be terminal iff the empty element is
	// stored.
	Root() Node

	// ByteOrder returns the total order this store was created with.
	ByteOrder() ByteOrder

	// IsCounting reports whether this store maintains per-node terminal
	// descendant counts, enabling Count/CountToChild and, transitively,
	// IndexedTrie's rank/select operations.
	IsCounting() bool

	// EnsureExtraCapacity must be called before a batch that may insert
	// up to n new nodes. Implementations may rewrite all storage here,
	// invalidating any outstanding Node/Path reference; callers are
	// responsible for calling it before acquiring any Path they intend to
	// keep live across the batch.
	EnsureExtraCapacity(n int) error

	// Invalidations returns the monotonic counter incremented on every
	// structural change that could relocate nodes.
	Invalidations() uint64

	// NodeCount returns the number of live nodes in the store.
	NodeCount() int

	// StorageSize returns an implementation-defined estimate, in bytes,
	// of the memory the store currently occupies.
	StorageSize() int

	// Stats returns the store's current allocation statistics.
	Stats() StoreStats

	// Compact may fully rebuild storage for improved locality or size.
	// PackedStore and CompactStore always rebuild and invalidate;
	// ReferenceStore's Compact is a no-op and invalidates nothing.
	Compact()

	// MutableCopy returns a deep copy of this store as a fresh, writable
	// store.
	MutableCopy() NodeStore

	// ImmutableView returns a façade over this exact store that forwards
	// reads and rejects every mutating call with ErrImmutable. Mutations
	// made directly to the underlying store remain visible through the
	// view.
	ImmutableView() NodeStore

	// ImmutableCopy returns a deep copy of this store wrapped immutable;
	// subsequent mutations to the original are never visible through it.
	ImmutableCopy() NodeStore

	// node-level operations, given a Node handle produced by this store.

	Value(n Node) byte
	IsTerminal(n Node) bool
	// SetTerminal sets n's terminal flag and reports whether a
	// true<->false transition occurred. It does not adjust counts; count
	// propagation along a path is the caller's (Path.Terminate's)
	// responsibility, since the caller alone knows which path entries
	// collapse onto the same physical record.
	SetTerminal(n Node, flag bool) (changed bool)

	HasSibling(n Node) bool
	Sibling(n Node) (Node, bool)
	HasChild(n Node) bool
	Child(n Node) (Node, bool)
	LastChild(n Node) (Node, bool)

	FindChild(n Node, b byte) (Node, bool)
	FindChildOrNext(n Node, b byte) (Node, bool)
	// FindOrInsertChild returns an existing child valued b, or inserts a
	// new sibling positioned to preserve sort order and returns it. If
	// the new child is the first child, it is linked as n's child
	// pointer. It is the single insertion primitive; callers
	// must call EnsureExtraCapacity before using it inside a batch.
	FindOrInsertChild(n Node, b byte) Node

	// Count returns the number of terminal descendants of n, inclusive of
	// n itself if terminal. Valid only on counting stores.
	Count(n Node) int
	// CountToChild returns the number of terminals under n that sort
	// strictly before value b, plus 1 if n itself is terminal. Valid only
	// on counting stores.
	CountToChild(n Node, b byte) int

	// AdjustCount applies delta to n's stored count and to every one of
	// the given ancestors, applying the delta exactly once to each
	// distinct physical record (packed stores may have adjacent path
	// entries that share one record; ancestors collapse). Used by
	// Path.Terminate, where both n and its ancestors need the delta.
	// PackedStore and CompactStore derive n's count from its record's
	// terminal mask, which SetTerminal already changed, so they add
	// nothing to n's record or to ancestors sharing it.
	//
	// ancestors lists n's ancestors, nearest first, NOT including n
	// itself; it is exactly a Path's stack below n, reversed.
	AdjustCount(n Node, ancestors []Node, delta int)

	// AdjustAncestors applies delta to every one of the given ancestors
	// only, not to any node of its own — used by Path.Dangle, whose
	// backing Dangle call already folds the freed subtree out of the
	// dangled node's own stored count directly.
	AdjustAncestors(ancestors []Node, delta int)

	// RemoveChild detaches the child valued b from n, if present,
	// returning the removed node and true. The removed node must already
	// be dangling (non-terminal, no child); callers (Path.Prune) are
	// responsible for checking that first.
	RemoveChild(n Node, b byte) (Node, bool)

	// Dangle forces n into a dangling state: clears its terminal flag and
	// frees its entire subtree, returning the number of terminal
	// descendants that were freed (for count propagation by the caller).
	// A non-counting store returns 0.
	Dangle(n Node) (freedTerminals int)

	// Equal reports whether a and b refer to the very same physical node
	// in this store.
	Equal(a, b Node) bool
}

// StoreConfig describes how to build a fresh NodeStore: the byte order to
// sort siblings under, whether to maintain counts (required for indexed
// tries), and an optional capacity hint.
//
// A plain struct: no dynamic keyword parameters, no environment or
// file-based configuration.
type StoreConfig struct {
	Order ByteOrder
	// Counting requests a backend that maintains per-node terminal
	// counts. Factories that cannot support counting must reject this
	// with ErrUnsupportedConfiguration.
	Counting bool
	// CapacityHint is an optional initial-capacity hint, in nodes. Zero
	// means "no hint".
	CapacityHint int
	// CapacityLimit, when non-zero, is a hard cap on live nodes:
	// EnsureExtraCapacity fails with ErrCapacityExhausted once a batch
	// could push the store past it.
	CapacityLimit int
}

// StoreStats is a point-in-time snapshot of a store's allocation state,
// exposed for debugging and capacity planning.
type StoreStats struct {
	// NodeCount is the number of live nodes, the root included.
	NodeCount int
	// StorageSize is the store's memory footprint estimate in bytes.
	StorageSize int
	// FreeListLen is the number of freed-but-unreclaimed records; always
	// zero for ReferenceStore, whose nodes return to the garbage
	// collector individually.
	FreeListLen int
}

// NodeStoreFactory produces NodeStore instances. Given the same
// StoreConfig, every factory produces stores with identical observable
// set/iteration semantics; the backends differ only in memory layout
// and speed.
type NodeStoreFactory interface {
	// NewStore creates a fresh, empty store.
	NewStore(cfg StoreConfig) (NodeStore, error)
	// SupportsCounting reports whether this factory can build counting
	// stores. Trie and IndexedTrie construction do not call it: they take
	// a ready store, and NewIndexed checks that store's IsCounting.
	SupportsCounting() bool
}

// immutableView wraps a live NodeStore so every mutating call panics
// with ErrImmutable while every read forwards to the wrapped store.
//
// It wraps the live store itself rather than copying its fields, which
// matters for PackedStore and CompactStore: EnsureExtraCapacity may
// reallocate their entire backing array, and a view holding a copied
// slice header would keep reading the old array forever after that,
// silently going stale. Holding the NodeStore value and forwarding every
// read through it keeps the view live across such relocations, the way
// ReferenceStore's shared root pointer already does.
type immutableView struct {
	inner NodeStore
}

func (v immutableView) Root() Node             { return v.inner.Root() }
func (v immutableView) ByteOrder() ByteOrder   { return v.inner.ByteOrder() }
func (v immutableView) IsCounting() bool       { return v.inner.IsCounting() }
func (v immutableView) Invalidations() uint64  { return v.inner.Invalidations() }
func (v immutableView) NodeCount() int         { return v.inner.NodeCount() }
func (v immutableView) StorageSize() int       { return v.inner.StorageSize() }
func (v immutableView) Stats() StoreStats      { return v.inner.Stats() }
func (v immutableView) MutableCopy() NodeStore { return v.inner.MutableCopy() }
func (v immutableView) ImmutableView() NodeStore { return v }
func (v immutableView) ImmutableCopy() NodeStore {
	return immutableView{inner: v.inner.MutableCopy()}
}

// EnsureExtraCapacity is allowed through: reserving backing capacity
// ahead of a batch has no observable effect on a store's elements, so
// there is nothing for an immutable view to protect here.
func (v immutableView) EnsureExtraCapacity(n int) error { return v.inner.EnsureExtraCapacity(n) }

func (v immutableView) Compact() { panic(ErrImmutable) }

func (v immutableView) Value(n Node) byte      { return v.inner.Value(n) }
func (v immutableView) IsTerminal(n Node) bool { return v.inner.IsTerminal(n) }
func (v immutableView) SetTerminal(n Node, flag bool) bool {
	panic(ErrImmutable)
}
func (v immutableView) HasSibling(n Node) bool { return v.inner.HasSibling(n) }
func (v immutableView) Sibling(n Node) (Node, bool) { return v.inner.Sibling(n) }
func (v immutableView) HasChild(n Node) bool        { return v.inner.HasChild(n) }
func (v immutableView) Child(n Node) (Node, bool)   { return v.inner.Child(n) }
func (v immutableView) LastChild(n Node) (Node, bool) { return v.inner.LastChild(n) }
func (v immutableView) FindChild(n Node, b byte) (Node, bool) { return v.inner.FindChild(n, b) }
func (v immutableView) FindChildOrNext(n Node, b byte) (Node, bool) {
	return v.inner.FindChildOrNext(n, b)
}
func (v immutableView) FindOrInsertChild(n Node, b byte) Node {
	panic(ErrImmutable)
}
func (v immutableView) Count(n Node) int                { return v.inner.Count(n) }
func (v immutableView) CountToChild(n Node, b byte) int  { return v.inner.CountToChild(n, b) }
func (v immutableView) AdjustCount(n Node, ancestors []Node, delta int) {
	panic(ErrImmutable)
}
func (v immutableView) AdjustAncestors(ancestors []Node, delta int) {
	panic(ErrImmutable)
}
func (v immutableView) RemoveChild(n Node, b byte) (Node, bool) {
	panic(ErrImmutable)
}
func (v immutableView) Dangle(n Node) int {
	panic(ErrImmutable)
}
func (v immutableView) Equal(a, b Node) bool { return v.inner.Equal(a, b) }
