// SPDX-License-Identifier: MIT

// Package ticks implements the monotonic invalidation counter shared by
// every NodeStore backend.
//
// The counter is read on essentially every Trie access (to decide
// whether the cached prefix node needs re-resolving), so it needs to be
// cheap and allocation-free, not a second mutex.
package ticks

import "go.uber.org/atomic"

// Counter is a monotonically increasing tick, bumped once per structural
// change to a NodeStore that could relocate or invalidate outstanding
// node/path references.
type Counter struct {
	n atomic.Uint64
}

// Bump increments the counter and returns the new value.
func (c *Counter) Bump() uint64 {
	return c.n.Add(1)
}

// Load returns the current value without mutating it.
func (c *Counter) Load() uint64 {
	return c.n.Load()
}

// Clone returns a new, independent Counter seeded at the current value,
// so that bumping one never affects the other. The stores' deep copies
// (MutableCopy/ImmutableCopy) do not use it; they start from a fresh
// zero Counter.
func (c *Counter) Clone() *Counter {
	clone := &Counter{}
	clone.n.Store(c.Load())
	return clone
}
