// SPDX-License-Identifier: MIT

package trie

import (
	"sync"
	"sync/atomic"
)

// pathPool is a type-safe wrapper around sync.Pool specialized for
// *Path: a per-trie pool reused across iteration-heavy workloads
// instead of allocating a fresh stack array and buffer per logical
// operation.
//
// A pathPool is bound to one NodeStore; every Path it hands out walks
// that store.
type pathPool struct {
	sync.Pool

	store NodeStore

	totalAllocated atomic.Int64 // total number of *Path ever allocated
	currentLive    atomic.Int64 // number of paths currently checked out
}

func newPathPool(store NodeStore) *pathPool {
	p := &pathPool{store: store}
	p.New = func() any {
		p.totalAllocated.Add(1)
		return NewPath(store, NewBuffer())
	}
	return p
}

// Get retrieves a *Path reset to the root with an empty buffer, from the
// pool or freshly allocated.
func (p *pathPool) Get() *Path {
	if p == nil {
		return NewPath(nil, NewBuffer())
	}
	p.currentLive.Add(1)
	path := p.Pool.Get().(*Path)
	path.Reset()
	path.buf.Trim(0)
	return path
}

// Put returns path to the pool for reuse. It must not be used by the
// caller afterward.
func (p *pathPool) Put(path *Path) {
	if p == nil {
		return
	}
	p.currentLive.Add(-1)
	p.Pool.Put(path)
}

// Stats returns the number of currently checked-out paths and the total
// number ever allocated, mirroring NodeStore.StorageSize as a debugging
// aid.
func (p *pathPool) Stats() (live, total int64) {
	if p == nil {
		return 0, 0
	}
	return p.currentLive.Load(), p.totalAllocated.Load()
}
