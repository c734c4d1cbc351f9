// SPDX-License-Identifier: MIT

// Package trie provides in-memory, byte-keyed trie data structures that
// store sorted sets of elements serialized as variable-length byte
// sequences.
//
// Three node-storage backends trade memory for speed behind one uniform
// Node/NodeStore interface:
//
//   - ReferenceStore: every node is a standalone heap record with
//     explicit child/sibling pointers. Simple, fast, memory-heavy.
//   - PackedStore: nodes live in a single contiguous []int32, and
//     non-branching chains of up to six single-child descendants are
//     packed into one record, backed by a free-list allocator.
//   - CompactStore: a PackedStore whose compaction additionally arranges
//     sibling groups contiguously in index order, so child lookups become
//     binary searches over a sorted byte run.
//
// A Path — a stack of nodes from the root to some current node — is the
// sole mechanism by which mutations occur. Trie and IndexedTrie express
// set semantics, iteration, sub-trie views, and rank/select entirely in
// terms of Path operations.
//
// All three backends, for any legal sequence of operations, produce
// identical iteration order and size (see the backend-equivalence tests).
package trie
