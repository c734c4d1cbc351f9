// SPDX-License-Identifier: MIT

package trie

import (
	"math/bits"

	"github.com/trieforge/bytetrie/internal/ticks"
)

// packedHandle is a Node handle into a PackedStore or CompactStore: the
// index of a record within the flat words array in the upper bits, and
// the slot ordinal within that record in the low three bits. Unlike a
// ReferenceStore pointer, a packedHandle survives the backing array
// growing and reallocating underneath it, since it names a slot rather
// than an address.
type packedHandle int32

func (h packedHandle) rec() int32 { return int32(h) >> 3 }
func (h packedHandle) ord() int   { return int(int32(h) & 7) }

func mkHandle(rec int32, ord int) packedHandle {
	return packedHandle(rec<<3 | int32(ord))
}

// Record layout, three int32 words per node (four in counting mode).
// A record holds its primary node in slot 0 and may embed up to five
// further single-child descendants in slots 1..5, so a non-branching
// chain of up to six nodes occupies one record.
//
//	word 0: [0-7] slot-0 value; [8-13] terminal bits, one per slot;
//	        [15] sibling flag; [16-18] valueCount (1..6);
//	        [24-31] slot-1 value.
//	        While a record sits on the free list, word 0 instead holds
//	        the next free record's index.
//	word 1: with the sibling flag set, the sibling encoding: a
//	        non-negative record index is an explicit sibling link; a
//	        negative value -1-k says the next k records in the array are
//	        this record's further siblings in sorted order (a compacted
//	        run, produced only by CompactStore's Compact). With the flag
//	        clear, slot values 2..5, one per 8-bit lane.
//	word 2: child record index below the deepest slot; 0 means none
//	        (record 0 is the root and can never be a child).
//	word 3: counting mode only: the count of terminals in the subtree
//	        below the record's deepest slot. The count of the node at
//	        slot k is word3 + popcount(terminalBits >> k), so embedded
//	        slots need no count storage of their own.
//
// A record whose word 1 is claimed by a sibling encoding can hold at
// most two slots (values live in word 0 alone); acquiring a sibling
// therefore first separates slots 2..5 into a child record.
const (
	pkValueMask      int32 = 0xff
	pkTermShift            = 8
	pkTermMask       int32 = 0x3f << pkTermShift
	pkSiblingFlag    int32 = 1 << 15
	pkVCShift              = 16
	pkVCMask         int32 = 0x7 << pkVCShift
	pkSlot1Shift           = 24
	pkValueMaskSlot1 int32 = -16777216 // pkValueMask<<pkSlot1Shift, i.e. 0xff000000

	pkMaxSlots        = 6
	pkMaxSlotsWithSib = 2
)

const pkFreeNone int32 = -1

// PackedStore stores every node inside fixed-width records in one flat
// []int32, packing non-branching chains of up to six nodes into a single
// record and allocating from a free list threaded through word 0 of each
// freed record. This trades the ReferenceStore's per-node heap
// allocation and 64-bit pointers for one contiguous backing array and
// 32-bit indices.
type PackedStore struct {
	order    ByteOrder
	counting bool

	// makeRuns selects CompactStore behavior: Compact lays each sibling
	// group out contiguously and records it as a run for binary search.
	// The run DECODING paths are always active in both stores; a plain
	// PackedStore simply never produces a run.
	makeRuns bool

	rw    int32 // words per record: 3, or 4 when counting
	words []int32

	freeHead  int32
	freeCount int

	nodeCount int
	limit     int
	inv       *ticks.Counter
}

// NewPackedStore creates a fresh, empty PackedStore.
func NewPackedStore(cfg StoreConfig) *PackedStore {
	s := &PackedStore{
		order:    cfg.Order,
		counting: cfg.Counting,
		rw:       3,
		freeHead: pkFreeNone,
		limit:    cfg.CapacityLimit,
		inv:      &ticks.Counter{},
	}
	if cfg.Counting {
		s.rw = 4
	}
	if cfg.CapacityHint > 0 {
		s.words = make([]int32, 0, int32(cfg.CapacityHint)*s.rw)
	}
	s.allocRecord(0) // root is always record 0, slot 0
	return s
}

// PackedStoreFactory builds PackedStore instances. It supports counting.
type PackedStoreFactory struct{}

func (PackedStoreFactory) NewStore(cfg StoreConfig) (NodeStore, error) {
	return NewPackedStore(cfg), nil
}

func (PackedStoreFactory) SupportsCounting() bool { return true }

func (s *PackedStore) Root() Node { return mkHandle(0, 0) }

func (s *PackedStore) ByteOrder() ByteOrder { return s.order }

func (s *PackedStore) IsCounting() bool { return s.counting }

// EnsureExtraCapacity reserves room in the backing array for n further
// records. Growth never relocates a live record's index — a packedHandle
// names a slot, not an address — so outstanding handles stay valid; the
// reservation exists so a batch of Push calls cannot fail or reallocate
// mid-sequence.
func (s *PackedStore) EnsureExtraCapacity(n int) error {
	if n <= 0 {
		return nil
	}
	if s.limit > 0 && s.nodeCount+n > s.limit {
		return capacityExhaustedf("trie: %d nodes live, %d more requested, cap %d",
			s.nodeCount, n, s.limit)
	}
	need := len(s.words) + n*int(s.rw)
	if cap(s.words) < need {
		grown := make([]int32, len(s.words), need)
		copy(grown, s.words)
		s.words = grown
	}
	return nil
}

func (s *PackedStore) Invalidations() uint64 { return s.inv.Load() }

func (s *PackedStore) NodeCount() int { return s.nodeCount }

// StorageSize reports the backing array's capacity in bytes; freed
// records still on the free list are part of that footprint.
func (s *PackedStore) StorageSize() int { return cap(s.words) * 4 }

// Stats reports the store's node count, storage footprint, and free-list
// length.
func (s *PackedStore) Stats() StoreStats {
	return StoreStats{
		NodeCount:   s.nodeCount,
		StorageSize: s.StorageSize(),
		FreeListLen: s.freeCount,
	}
}

// record-level accessors

func (s *PackedStore) base(rec int32) int32 { return rec * s.rw }

func (s *PackedStore) vc(rec int32) int {
	return int((s.words[s.base(rec)] & pkVCMask) >> pkVCShift)
}

func (s *PackedStore) setVC(rec int32, n int) {
	b := s.base(rec)
	s.words[b] = s.words[b]&^pkVCMask | int32(n)<<pkVCShift
}

func (s *PackedStore) termMask(rec int32) int32 {
	return (s.words[s.base(rec)] & pkTermMask) >> pkTermShift
}

func (s *PackedStore) setTermMask(rec int32, m int32) {
	b := s.base(rec)
	s.words[b] = s.words[b]&^pkTermMask | m<<pkTermShift
}

func (s *PackedStore) hasSibFlag(rec int32) bool {
	return s.words[s.base(rec)]&pkSiblingFlag != 0
}

func (s *PackedStore) setSibFlag(rec int32) {
	s.words[s.base(rec)] |= pkSiblingFlag
}

func (s *PackedStore) clearSibFlag(rec int32) {
	s.words[s.base(rec)] &^= pkSiblingFlag
}

func (s *PackedStore) slotValue(rec int32, k int) byte {
	b := s.base(rec)
	switch k {
	case 0:
		return byte(s.words[b] & pkValueMask)
	case 1:
		return byte(s.words[b] >> pkSlot1Shift)
	default:
		return byte(s.words[b+1] >> ((k - 2) * 8))
	}
}

func (s *PackedStore) setSlotValue(rec int32, k int, v byte) {
	b := s.base(rec)
	switch k {
	case 0:
		s.words[b] = s.words[b]&^pkValueMask | int32(v)
	case 1:
		s.words[b] = s.words[b]&^(pkValueMaskSlot1) | int32(v)<<pkSlot1Shift
	default:
		shift := (k - 2) * 8
		s.words[b+1] = s.words[b+1]&^(pkValueMask<<shift) | int32(v)<<shift
	}
}

// clearSlotsFrom zeroes the value storage of slots from..5 so unused
// lanes stay zero. Word 1 lanes are only touched when the sibling flag
// is clear; with the flag set, word 1 belongs to the sibling encoding.
func (s *PackedStore) clearSlotsFrom(rec int32, from int) {
	if from <= 1 {
		b := s.base(rec)
		s.words[b] &^= pkValueMaskSlot1
	}
	if s.hasSibFlag(rec) {
		return
	}
	b1 := s.base(rec) + 1
	switch {
	case from <= 2:
		s.words[b1] = 0
	case from <= 5:
		keep := uint(8 * (from - 2))
		s.words[b1] &= int32(uint32(1)<<keep - 1)
	}
}

func (s *PackedStore) childRec(rec int32) int32 { return s.words[s.base(rec)+2] }

func (s *PackedStore) setChildRec(rec, c int32) { s.words[s.base(rec)+2] = c }

func (s *PackedStore) stored(rec int32) int {
	if !s.counting {
		return 0
	}
	return int(s.words[s.base(rec)+3])
}

func (s *PackedStore) setStored(rec int32, v int) {
	if s.counting {
		s.words[s.base(rec)+3] = int32(v)
	}
}

func (s *PackedStore) addStored(rec int32, delta int) {
	if s.counting {
		s.words[s.base(rec)+3] += int32(delta)
	}
}

// runLenAt returns k when rec heads a compacted run of k further
// siblings at rec+1..rec+k, and 0 otherwise.
func (s *PackedStore) runLenAt(rec int32) int32 {
	b := s.base(rec)
	if s.words[b]&pkSiblingFlag == 0 {
		return 0
	}
	if w1 := s.words[b+1]; w1 < 0 {
		return -1 - w1
	}
	return 0
}

// nextSibRec returns the record following rec in its sibling chain, or 0
// for none. Run members are laid out at consecutive indices, so a
// negative sibling word means "the next record in the array".
func (s *PackedStore) nextSibRec(rec int32) int32 {
	b := s.base(rec)
	if s.words[b]&pkSiblingFlag == 0 {
		return 0
	}
	if w1 := s.words[b+1]; w1 >= 0 {
		return w1
	}
	return rec + 1
}

// allocRecord takes a record off the free list, or appends a fresh one,
// and initializes it as a single-slot node valued v.
func (s *PackedStore) allocRecord(v byte) int32 {
	var rec int32
	if s.freeHead != pkFreeNone {
		rec = s.freeHead
		s.freeHead = s.words[s.base(rec)]
		s.freeCount--
	} else {
		rec = int32(len(s.words)) / s.rw
		for i := int32(0); i < s.rw; i++ {
			s.words = append(s.words, 0)
		}
	}
	b := s.base(rec)
	s.words[b] = int32(v) | 1<<pkVCShift
	s.words[b+1] = 0
	s.words[b+2] = 0
	if s.counting {
		s.words[b+3] = 0
	}
	s.nodeCount++
	return rec
}

// freeRecord threads rec onto the free list through word 0.
func (s *PackedStore) freeRecord(rec int32) {
	s.nodeCount -= s.vc(rec)
	s.words[s.base(rec)] = s.freeHead
	s.freeHead = rec
	s.freeCount++
}

// freeChain frees rec, its entire child subtree, and every further
// sibling in its chain.
func (s *PackedStore) freeChain(rec int32) {
	for rec != 0 {
		next := s.nextSibRec(rec)
		if c := s.childRec(rec); c != 0 {
			s.freeChain(c)
		}
		s.freeRecord(rec)
		rec = next
	}
}

// node-level operations

func (s *PackedStore) Value(n Node) byte {
	h := n.(packedHandle)
	return s.slotValue(h.rec(), h.ord())
}

func (s *PackedStore) IsTerminal(n Node) bool {
	h := n.(packedHandle)
	return s.termMask(h.rec())&(1<<h.ord()) != 0
}

func (s *PackedStore) SetTerminal(n Node, flag bool) bool {
	h := n.(packedHandle)
	rec := h.rec()
	bit := int32(1) << h.ord()
	m := s.termMask(rec)
	if (m&bit != 0) == flag {
		return false
	}
	s.setTermMask(rec, m^bit)
	s.inv.Bump()
	return true
}

func (s *PackedStore) HasSibling(n Node) bool {
	h := n.(packedHandle)
	return h.ord() == 0 && s.hasSibFlag(h.rec())
}

func (s *PackedStore) Sibling(n Node) (Node, bool) {
	h := n.(packedHandle)
	if h.ord() != 0 {
		return nil, false
	}
	next := s.nextSibRec(h.rec())
	if next == 0 {
		return nil, false
	}
	return mkHandle(next, 0), true
}

func (s *PackedStore) HasChild(n Node) bool {
	h := n.(packedHandle)
	rec := h.rec()
	if h.ord() < s.vc(rec)-1 {
		return true
	}
	return s.childRec(rec) != 0
}

func (s *PackedStore) Child(n Node) (Node, bool) {
	h := n.(packedHandle)
	rec := h.rec()
	if h.ord() < s.vc(rec)-1 {
		return mkHandle(rec, h.ord()+1), true
	}
	c := s.childRec(rec)
	if c == 0 {
		return nil, false
	}
	return mkHandle(c, 0), true
}

func (s *PackedStore) LastChild(n Node) (Node, bool) {
	h := n.(packedHandle)
	rec := h.rec()
	if h.ord() < s.vc(rec)-1 {
		return mkHandle(rec, h.ord()+1), true
	}
	c := s.childRec(rec)
	if c == 0 {
		return nil, false
	}
	for {
		next := s.nextSibRec(c)
		if next == 0 {
			return mkHandle(c, 0), true
		}
		c = next
	}
}

// searchRun binary searches the run rec..rec+k for value b, returning
// the matched record, or the first run record sorting after b (which may
// be rec+k+1, one past the run) on a miss.
func (s *PackedStore) searchRun(rec, k int32, b byte) (pos int32, found bool) {
	lo, hi := int32(0), k+1
	for lo < hi {
		mid := (lo + hi) / 2
		switch cmp := s.order.Compare(s.slotValue(rec+mid, 0), b); {
		case cmp == 0:
			return rec + mid, true
		case cmp < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return rec + lo, false
}

func (s *PackedStore) FindChild(n Node, b byte) (Node, bool) {
	h := n.(packedHandle)
	rec := h.rec()
	if h.ord() < s.vc(rec)-1 {
		if s.order.Compare(s.slotValue(rec, h.ord()+1), b) == 0 {
			return mkHandle(rec, h.ord()+1), true
		}
		return nil, false
	}
	c := s.childRec(rec)
	for c != 0 {
		if k := s.runLenAt(c); k > 0 {
			pos, found := s.searchRun(c, k, b)
			if found {
				return mkHandle(pos, 0), true
			}
			if pos <= c+k {
				return nil, false
			}
			c = s.nextSibRec(c + k)
			continue
		}
		switch cmp := s.order.Compare(s.slotValue(c, 0), b); {
		case cmp == 0:
			return mkHandle(c, 0), true
		case cmp > 0:
			return nil, false
		}
		c = s.nextSibRec(c)
	}
	return nil, false
}

func (s *PackedStore) FindChildOrNext(n Node, b byte) (Node, bool) {
	h := n.(packedHandle)
	rec := h.rec()
	if h.ord() < s.vc(rec)-1 {
		if s.order.Compare(s.slotValue(rec, h.ord()+1), b) >= 0 {
			return mkHandle(rec, h.ord()+1), true
		}
		return nil, false
	}
	c := s.childRec(rec)
	for c != 0 {
		if k := s.runLenAt(c); k > 0 {
			pos, found := s.searchRun(c, k, b)
			if found || pos <= c+k {
				return mkHandle(pos, 0), true
			}
			c = s.nextSibRec(c + k)
			continue
		}
		if s.order.Compare(s.slotValue(c, 0), b) >= 0 {
			return mkHandle(c, 0), true
		}
		c = s.nextSibRec(c)
	}
	return nil, false
}

func (s *PackedStore) FindOrInsertChild(n Node, b byte) Node {
	h := n.(packedHandle)
	rec, ord := h.rec(), h.ord()

	if ord < s.vc(rec)-1 {
		// The sole child is the next embedded slot. A different value
		// forces a separation: the embedded tail becomes a record of its
		// own and b joins it as a sibling.
		if s.order.Compare(s.slotValue(rec, ord+1), b) == 0 {
			return mkHandle(rec, ord+1)
		}
		s.separateTail(rec, ord+1)
		return s.insertIntoChain(rec, b)
	}

	c := s.childRec(rec)
	if c == 0 {
		// No children yet: append inside this record when the encoding
		// has room, otherwise start a child record.
		if vc := s.vc(rec); vc < pkMaxSlots && !s.hasSibFlag(rec) {
			s.setSlotValue(rec, vc, b)
			s.setVC(rec, vc+1)
			s.nodeCount++
			s.inv.Bump()
			return mkHandle(rec, vc)
		}
		fresh := s.allocRecord(b)
		s.setChildRec(rec, fresh)
		s.inv.Bump()
		return mkHandle(fresh, 0)
	}
	return s.insertIntoChain(rec, b)
}

// insertIntoChain finds or inserts a record valued b among parent's
// child chain, keeping the chain sorted. Insertion into a compacted run
// first rewrites the run prefix into explicit sibling links; the suffix
// past the insertion point stays a run, since every member carries its
// own remaining-length encoding.
func (s *PackedStore) insertIntoChain(parent int32, b byte) Node {
	prev := int32(0)
	c := s.childRec(parent)
	for c != 0 {
		if k := s.runLenAt(c); k > 0 {
			pos, found := s.searchRun(c, k, b)
			if found {
				return mkHandle(pos, 0)
			}
			if pos <= c+k {
				fresh := s.allocRecord(b)
				if pos == c {
					s.setSibFlag(fresh)
					s.words[s.base(fresh)+1] = c
					s.link(parent, prev, fresh)
				} else {
					for i := c; i < pos-1; i++ {
						s.words[s.base(i)+1] = i + 1
					}
					s.words[s.base(pos-1)+1] = fresh
					s.setSibFlag(fresh)
					s.words[s.base(fresh)+1] = pos
				}
				s.inv.Bump()
				return mkHandle(fresh, 0)
			}
			prev = c + k
			c = s.nextSibRec(c + k)
			continue
		}
		switch cmp := s.order.Compare(s.slotValue(c, 0), b); {
		case cmp == 0:
			return mkHandle(c, 0)
		case cmp > 0:
			fresh := s.allocRecord(b)
			s.setSibFlag(fresh)
			s.words[s.base(fresh)+1] = c
			s.link(parent, prev, fresh)
			s.inv.Bump()
			return mkHandle(fresh, 0)
		}
		prev = c
		c = s.nextSibRec(c)
	}

	fresh := s.allocRecord(b)
	if prev == 0 {
		s.setChildRec(parent, fresh)
	} else {
		s.separateForSibling(prev)
		s.setSibFlag(prev)
		s.words[s.base(prev)+1] = fresh
	}
	s.inv.Bump()
	return mkHandle(fresh, 0)
}

// link points the chain position previously occupied by prev's successor
// (or the parent's child pointer, when prev is 0) at rec.
func (s *PackedStore) link(parent, prev, rec int32) {
	if prev == 0 {
		s.setChildRec(parent, rec)
	} else {
		s.words[s.base(prev)+1] = rec
	}
}

// separateForSibling frees word 1 of a record about to acquire its first
// sibling: slots 2..5, if present, move into a child record.
func (s *PackedStore) separateForSibling(rec int32) {
	if s.vc(rec) > pkMaxSlotsWithSib {
		s.separateTail(rec, pkMaxSlotsWithSib)
	}
}

// separateTail lifts slots at..valueCount-1 of rec into a fresh record
// linked as rec's child, splitting the terminal mask and counts between
// the two. Handles addressing slots below at survive; handles addressing
// the moved slots are invalidated, which is why this bumps the
// invalidation counter.
func (s *PackedStore) separateTail(rec int32, at int) int32 {
	vcOld := s.vc(rec)
	terms := s.termMask(rec)
	child := s.childRec(rec)
	storedOld := s.stored(rec)

	m := vcOld - at
	var tail [pkMaxSlots]byte
	for k := at; k < vcOld; k++ {
		tail[k-at] = s.slotValue(rec, k)
	}

	r2 := s.allocRecord(tail[0])
	for k := 1; k < m; k++ {
		s.setSlotValue(r2, k, tail[k])
	}
	s.setVC(r2, m)
	s.setTermMask(r2, (terms>>at)&0x3f)
	s.setChildRec(r2, child)
	s.setStored(r2, storedOld)

	s.setVC(rec, at)
	s.setTermMask(rec, terms&(1<<at-1))
	s.setChildRec(rec, r2)
	s.setStored(rec, storedOld+bits.OnesCount32(uint32(terms>>at)))
	s.clearSlotsFrom(rec, at)

	s.nodeCount-- // the moved slots net out against allocRecord's +1
	s.inv.Bump()
	return r2
}

func (s *PackedStore) Count(n Node) int {
	h := n.(packedHandle)
	rec := h.rec()
	return s.stored(rec) + bits.OnesCount32(uint32(s.termMask(rec)>>h.ord()))
}

func (s *PackedStore) CountToChild(n Node, b byte) int {
	h := n.(packedHandle)
	rec, ord := h.rec(), h.ord()
	total := 0
	if s.termMask(rec)&(1<<ord) != 0 {
		total++
	}
	if ord < s.vc(rec)-1 {
		if s.order.Compare(s.slotValue(rec, ord+1), b) < 0 {
			total += s.stored(rec) + bits.OnesCount32(uint32(s.termMask(rec)>>(ord+1)))
		}
		return total
	}
	c := s.childRec(rec)
	for c != 0 {
		if s.order.Compare(s.slotValue(c, 0), b) >= 0 {
			break
		}
		total += s.stored(c) + bits.OnesCount32(uint32(s.termMask(c)))
		c = s.nextSibRec(c)
	}
	return total
}

// AdjustCount applies delta once per distinct physical record among the
// head's ancestors. The head's own record stores no delta: counts of its
// slots derive from the terminal mask, which SetTerminal already
// changed.
func (s *PackedStore) AdjustCount(n Node, ancestors []Node, delta int) {
	if !s.counting || delta == 0 {
		return
	}
	last := n.(packedHandle).rec()
	for _, a := range ancestors {
		ar := a.(packedHandle).rec()
		if ar == last {
			continue
		}
		last = ar
		s.addStored(ar, delta)
	}
}

func (s *PackedStore) AdjustAncestors(ancestors []Node, delta int) {
	if !s.counting || delta == 0 {
		return
	}
	last := int32(-1)
	for _, a := range ancestors {
		ar := a.(packedHandle).rec()
		if ar == last {
			continue
		}
		last = ar
		s.addStored(ar, delta)
	}
}

func (s *PackedStore) RemoveChild(n Node, b byte) (Node, bool) {
	h := n.(packedHandle)
	rec, ord := h.rec(), h.ord()

	if ord < s.vc(rec)-1 {
		// The sole child is embedded; per the dangling contract it is
		// the record's deepest slot with no subtree of its own, so
		// removal just drops the slot.
		if s.order.Compare(s.slotValue(rec, ord+1), b) != 0 {
			return nil, false
		}
		victim := mkHandle(rec, ord+1)
		s.setVC(rec, ord+1)
		s.clearSlotsFrom(rec, ord+1)
		s.nodeCount--
		s.inv.Bump()
		return victim, true
	}

	prev := int32(0)
	c := s.childRec(rec)
	for c != 0 {
		if k := s.runLenAt(c); k > 0 {
			pos, found := s.searchRun(c, k, b)
			if !found {
				if pos <= c+k {
					return nil, false
				}
				prev = c + k
				c = s.nextSibRec(c + k)
				continue
			}
			succ := s.nextSibRec(pos)
			for i := c; i < pos-1; i++ {
				s.words[s.base(i)+1] = i + 1
			}
			if pos == c {
				s.linkAfterRemove(rec, prev, succ)
			} else {
				s.linkAfterRemove(rec, pos-1, succ)
			}
			s.freeRecord(pos)
			s.inv.Bump()
			return mkHandle(pos, 0), true
		}
		if cmp := s.order.Compare(s.slotValue(c, 0), b); cmp == 0 {
			succ := s.nextSibRec(c)
			s.linkAfterRemove(rec, prev, succ)
			s.freeRecord(c)
			s.inv.Bump()
			return mkHandle(c, 0), true
		} else if cmp > 0 {
			return nil, false
		}
		prev = c
		c = s.nextSibRec(c)
	}
	return nil, false
}

// linkAfterRemove splices succ (possibly 0) into the position prev's
// successor occupied. A prev losing its last sibling gets word 1 back as
// zeroed slot storage.
func (s *PackedStore) linkAfterRemove(parent, prev, succ int32) {
	if prev == 0 {
		s.setChildRec(parent, succ)
		return
	}
	if succ == 0 {
		s.clearSibFlag(prev)
		s.words[s.base(prev)+1] = 0
		return
	}
	s.words[s.base(prev)+1] = succ
}

// Dangle clears n's terminal flag and frees its entire subtree — both
// the embedded tail sharing its record and the separate child chain —
// returning the subtree's former terminal count. A dangled root resets
// the whole store to just the root.
func (s *PackedStore) Dangle(n Node) int {
	h := n.(packedHandle)
	rec, ord := h.rec(), h.ord()
	freed := 0
	if s.counting {
		freed = s.Count(n)
	}

	if rec == 0 && ord == 0 {
		s.words = s.words[:s.rw]
		for i := range s.words {
			s.words[i] = 0
		}
		s.words[0] = 1 << pkVCShift
		s.freeHead = pkFreeNone
		s.freeCount = 0
		s.nodeCount = 1
		s.inv.Bump()
		return freed
	}

	if c := s.childRec(rec); c != 0 {
		s.freeChain(c)
		s.setChildRec(rec, 0)
	}
	vcOld := s.vc(rec)
	s.nodeCount -= vcOld - 1 - ord
	s.setVC(rec, ord+1)
	s.setTermMask(rec, s.termMask(rec)&(1<<ord-1))
	s.clearSlotsFrom(rec, ord+1)
	if ord > 0 {
		// The caller propagates -freed along the ancestors, which include
		// this record once; pre-loading freed here makes that single
		// application land the stored count on zero.
		s.setStored(rec, freed)
	} else {
		s.setStored(rec, 0)
	}
	s.inv.Bump()
	return freed
}

func (s *PackedStore) Equal(a, b Node) bool {
	return a.(packedHandle) == b.(packedHandle)
}

// ReadComplete recomputes stored counts bottom-up from the terminal
// masks just decoded by Serializer.Read: the wire format carries
// terminal flags but no counts, so the flags are trusted and the counts
// rebuilt here. A run-building store then compacts, so a freshly
// restored CompactStore starts out with its sibling groups binary
// searchable.
func (s *PackedStore) ReadComplete() {
	if s.counting {
		s.recomputeStored(0)
	}
	if s.makeRuns {
		s.Compact()
	}
}

// recomputeStored returns the terminal count of rec's slot-0 subtree,
// rebuilding every stored count beneath it on the way.
func (s *PackedStore) recomputeStored(rec int32) int {
	ext := 0
	for c := s.childRec(rec); c != 0; c = s.nextSibRec(c) {
		ext += s.recomputeStored(c)
	}
	s.setStored(rec, ext)
	return ext + bits.OnesCount32(uint32(s.termMask(rec)))
}

// Compact rebuilds the backing array at exact capacity by adopting from
// the current storage: each sibling group is allocated at consecutive
// record indices before any record beneath it, freed slots disappear,
// and non-branching chains re-pack into single records. With makeRuns
// set, each sibling group is additionally encoded as a run.
func (s *PackedStore) Compact() {
	old := *s
	s.words = make([]int32, 0, len(old.words))
	s.freeHead = pkFreeNone
	s.freeCount = 0
	s.nodeCount = 0
	s.adoptFrom(&old)

	exact := make([]int32, len(s.words))
	copy(exact, s.words)
	s.words = exact
	s.inv.Bump()
}

// adoptFrom rebuilds s from the logical tree src exposes by a depth-first
// walk (record layout as fillRecord describes), trusting src's counts
// rather than recomputing them.
func (s *PackedStore) adoptFrom(src NodeStore) {
	root := s.allocRecord(0)
	s.fillRecord(src, src.Root(), root, false)
}

// fillRecord packs src node n and its non-branching descendant chain
// into record rec, then emits n's remaining children as a sibling group.
// A record that will carry a sibling encoding in word 1 holds at most
// two slots.
func (s *PackedStore) fillRecord(src NodeStore, n Node, rec int32, hasFollower bool) {
	maxVC := pkMaxSlots
	if hasFollower {
		maxVC = pkMaxSlotsWithSib
	}
	if src.IsTerminal(n) {
		s.setTermMask(rec, s.termMask(rec)|1)
	}
	cur := n
	for s.vc(rec) < maxVC {
		child, ok := src.Child(cur)
		if !ok || src.HasSibling(child) {
			break
		}
		k := s.vc(rec)
		s.setSlotValue(rec, k, src.Value(child))
		if src.IsTerminal(child) {
			s.setTermMask(rec, s.termMask(rec)|1<<k)
		}
		s.setVC(rec, k+1)
		s.nodeCount++
		cur = child
	}

	var kids []Node
	for c, ok := src.Child(cur); ok; c, ok = src.Sibling(c) {
		kids = append(kids, c)
	}
	if s.counting {
		ext := 0
		for _, kid := range kids {
			ext += src.Count(kid)
		}
		s.setStored(rec, ext)
	}
	if len(kids) == 0 {
		return
	}

	// Allocate the whole group first so it lands contiguously; recursing
	// into any child's subtree before the group is complete would
	// interleave its records into the middle of the run.
	recs := make([]int32, len(kids))
	for i := range kids {
		recs[i] = s.allocRecord(src.Value(kids[i]))
	}
	s.setChildRec(rec, recs[0])
	for i := 0; i < len(kids)-1; i++ {
		s.setSibFlag(recs[i])
		if s.makeRuns {
			s.words[s.base(recs[i])+1] = int32(-1 - (len(kids) - 1 - i))
		} else {
			s.words[s.base(recs[i])+1] = recs[i+1]
		}
	}
	for i, kid := range kids {
		s.fillRecord(src, kid, recs[i], i < len(kids)-1)
	}
}

// copyCore returns a field-for-field copy with independent storage and a
// fresh invalidation lineage.
func (s *PackedStore) copyCore() PackedStore {
	return PackedStore{
		order:     s.order,
		counting:  s.counting,
		makeRuns:  s.makeRuns,
		rw:        s.rw,
		words:     append([]int32(nil), s.words...),
		freeHead:  s.freeHead,
		freeCount: s.freeCount,
		nodeCount: s.nodeCount,
		limit:     s.limit,
		inv:       &ticks.Counter{},
	}
}

func (s *PackedStore) MutableCopy() NodeStore {
	c := s.copyCore()
	return &c
}

func (s *PackedStore) ImmutableView() NodeStore {
	return immutableView{inner: s}
}

func (s *PackedStore) ImmutableCopy() NodeStore {
	return immutableView{inner: s.MutableCopy()}
}
