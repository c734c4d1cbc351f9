// SPDX-License-Identifier: MIT

package trie

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/trieforge/bytetrie/internal/digest"
)

// Wire-format flag bits for one node record.
const (
	flagTerminal byte = 1 << 0
	flagChild    byte = 1 << 1
	flagSibling  byte = 1 << 2
)

// Serializer persists the subtree reachable from the head of a Path to a
// byte stream and decodes such a stream symmetrically.
//
// Wire format: a 32-bit big-endian node_count, followed by node_count
// (value, flags) byte pairs in depth-first pre-order under the store's
// ByteOrder. For a non-trivial path, only the spine (root..head) is
// emitted, stripped of siblings and of every child but the deepest;
// the head's real child subtree, if any, is then emitted in full. The
// ByteOrder and counting-ness used to create the store are not embedded
// and must be supplied identically when restoring.
type Serializer struct{}

// NewSerializer returns a Serializer. It carries no state; its methods
// are free functions in spirit but grouped behind a type to give
// callers a stable handle to extend (e.g. with a shared buffer pool)
// without an API break.
func NewSerializer() *Serializer { return &Serializer{} }

// WriteTo writes the subtree reachable from p's head to w, per the
// spine-stripping rule described on Serializer. When p is empty, it
// writes a zero node_count and nothing else.
func (s *Serializer) WriteTo(w io.Writer, p *Path) (int64, error) {
	var body bytes.Buffer
	count := 0

	if !p.Empty() {
		store := p.store
		for j := 0; j < len(p.stack); j++ {
			node := p.stack[j]
			isHead := j == len(p.stack)-1
			flags := byte(0)
			if store.IsTerminal(node) {
				flags |= flagTerminal
			}
			hasChild := !isHead || store.HasChild(node)
			if hasChild {
				flags |= flagChild
			}
			body.WriteByte(store.Value(node))
			body.WriteByte(flags)
			count++

			if isHead && hasChild {
				child, _ := store.Child(node)
				n, err := writeSubtree(&body, store, child)
				if err != nil {
					return 0, err
				}
				count += n
			}
		}
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(count))

	n1, err := w.Write(header[:])
	total := int64(n1)
	if err != nil {
		return total, err
	}
	n2, err := w.Write(body.Bytes())
	total += int64(n2)
	return total, err
}

// writeSubtree emits n and, recursively, its entire real sibling+child
// subtree in depth-first pre-order, returning the number of nodes
// written.
func writeSubtree(w io.Writer, store NodeStore, n Node) (int, error) {
	count := 0
	for {
		flags := byte(0)
		if store.IsTerminal(n) {
			flags |= flagTerminal
		}
		hasChild := store.HasChild(n)
		hasSibling := store.HasSibling(n)
		if hasChild {
			flags |= flagChild
		}
		if hasSibling {
			flags |= flagSibling
		}
		if _, err := w.Write([]byte{store.Value(n), flags}); err != nil {
			return count, err
		}
		count++

		if hasChild {
			child, _ := store.Child(n)
			sub, err := writeSubtree(w, store, child)
			count += sub
			if err != nil {
				return count, err
			}
		}
		if !hasSibling {
			return count, nil
		}
		n, _ = store.Sibling(n)
	}
}

// Fingerprint computes a structural digest of the subtree reachable from
// p's head, in the same depth-first pre-order WriteTo uses. Two paths
// over equivalent tries, regardless of backend, produce the same
// fingerprint.
func (s *Serializer) Fingerprint(p *Path) uint64 {
	d := digest.New()
	if p.Empty() {
		return d.Sum()
	}
	store := p.store
	for j := 0; j < len(p.stack); j++ {
		node := p.stack[j]
		isHead := j == len(p.stack)-1
		flags := byte(0)
		if store.IsTerminal(node) {
			flags |= flagTerminal
		}
		hasChild := !isHead || store.HasChild(node)
		if hasChild {
			flags |= flagChild
		}
		d.WriteNode(store.Value(node), flags)
		if isHead && hasChild {
			child, _ := store.Child(node)
			fingerprintSubtree(d, store, child)
		}
	}
	return d.Sum()
}

func fingerprintSubtree(d *digest.Digest, store NodeStore, n Node) {
	for {
		flags := byte(0)
		if store.IsTerminal(n) {
			flags |= flagTerminal
		}
		hasChild := store.HasChild(n)
		hasSibling := store.HasSibling(n)
		if hasChild {
			flags |= flagChild
		}
		if hasSibling {
			flags |= flagSibling
		}
		d.WriteNode(store.Value(n), flags)
		if hasChild {
			child, _ := store.Child(n)
			fingerprintSubtree(d, store, child)
		}
		if !hasSibling {
			return
		}
		n, _ = store.Sibling(n)
	}
}

// Read decodes a stream written by WriteTo into a fresh store built by
// factory with cfg, and returns it. It rejects a non-zero root value, a
// root declared as a sibling, and a truncated or short stream with
// ErrMalformedStream.
func (s *Serializer) Read(r io.Reader, factory NodeStoreFactory, cfg StoreConfig) (NodeStore, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, malformedStreamf("trie: reading node_count: %v", err)
	}
	count := int(binary.BigEndian.Uint32(header[:]))

	store, err := factory.NewStore(cfg)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return store, nil
	}
	if err := store.EnsureExtraCapacity(count); err != nil {
		return nil, err
	}

	rec := make([]byte, 2)
	if _, err := io.ReadFull(r, rec); err != nil {
		return nil, malformedStreamf("trie: reading root record: %v", err)
	}
	if rec[0] != 0 {
		return nil, malformedStreamf("trie: root value %d, want 0", rec[0])
	}
	flags := rec[1]
	if flags&flagSibling != 0 {
		return nil, malformedStreamf("trie: root declared as sibling")
	}

	root := store.Root()
	if flags&flagTerminal != 0 {
		store.SetTerminal(root, true)
	}

	read := 1
	if flags&flagChild != 0 {
		n, err := readSubtree(r, store, root, count-read)
		if err != nil {
			return nil, err
		}
		read += n
	}
	if read != count {
		return nil, malformedStreamf("trie: declared %d nodes, read %d", count, read)
	}

	readComplete(store)
	return store, nil
}

// readSubtree reads parent's child chain and, transitively, every
// sibling and descendant reachable from it. The sibling spine is a
// loop, so recursion depth is bounded by the longest stored element —
// the same bound Path's own stack respects — rather than by the number
// of siblings at any level. Siblings arrive in sorted order and link
// themselves through FindOrInsertChild.
func readSubtree(r io.Reader, store NodeStore, parent Node, remaining int) (int, error) {
	read := 0
	var rec [2]byte
	for {
		if remaining-read <= 0 {
			return read, malformedStreamf("trie: stream truncated")
		}
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return read, malformedStreamf("trie: reading node record: %v", err)
		}
		value, flags := rec[0], rec[1]
		read++

		child := store.FindOrInsertChild(parent, value)
		if flags&flagTerminal != 0 {
			store.SetTerminal(child, true)
		}
		if flags&flagChild != 0 {
			n, err := readSubtree(r, store, child, remaining-read)
			read += n
			if err != nil {
				return read, err
			}
		}
		if flags&flagSibling == 0 {
			return read, nil
		}
	}
}

// readComplete recomputes counts for counting stores after a restore:
// the wire format carries terminal flags but no count field at all, so
// the flags are trusted and the counts rebuilt from them.
func readComplete(store NodeStore) {
	if rc, ok := store.(interface{ ReadComplete() }); ok {
		rc.ReadComplete()
	}
}
