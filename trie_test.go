// SPDX-License-Identifier: MIT

package trie_test

import (
	"bytes"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	trie "github.com/trieforge/bytetrie"
	"github.com/trieforge/bytetrie/codec"
)

var facadeFactories = []struct {
	name    string
	factory trie.NodeStoreFactory
}{
	{"reference", trie.ReferenceStoreFactory{}},
	{"packed", trie.PackedStoreFactory{}},
	{"compact", trie.CompactStoreFactory{}},
}

func newStringTrie(t *testing.T, f trie.NodeStoreFactory, order trie.ByteOrder) *trie.Trie[string] {
	t.Helper()
	store, err := f.NewStore(trie.StoreConfig{Order: order, Counting: true})
	require.NoError(t, err)
	return trie.New[string](store, codec.String{})
}

func mustAdd[E any](t *testing.T, tr *trie.Trie[E], e E) bool {
	t.Helper()
	added, err := tr.Add(e)
	require.NoError(t, err)
	return added
}

func mustContains[E any](t *testing.T, tr *trie.Trie[E], e E) bool {
	t.Helper()
	ok, err := tr.Contains(e)
	require.NoError(t, err)
	return ok
}

func mustRemove[E any](t *testing.T, tr *trie.Trie[E], e E) bool {
	t.Helper()
	removed, err := tr.Remove(e)
	require.NoError(t, err)
	return removed
}

func drain[E any](tr *trie.Trie[E]) []E {
	var out []E
	it := tr.Iterator()
	for it.Next() {
		out = append(out, it.Element())
	}
	return out
}

// TestTrieLiteralStrings is the literal-strings scenario of spec §8:
// "Moon", "Moo", "Moody" inserted in that order iterate as "Moo",
// "Moody", "Moon" under the unsigned order, and removals drain the set
// back to empty.
func TestTrieLiteralStrings(t *testing.T) {
	for _, tc := range facadeFactories {
		t.Run(tc.name, func(t *testing.T) {
			tr := newStringTrie(t, tc.factory, trie.Unsigned)
			for _, w := range []string{"Moon", "Moo", "Moody"} {
				require.True(t, mustAdd(t, tr, w))
			}
			require.Equal(t, 3, tr.Size())
			require.Equal(t, []string{"Moo", "Moody", "Moon"}, drain(tr))

			require.True(t, mustRemove(t, tr, "Moody"))
			require.Equal(t, 2, tr.Size())
			require.Equal(t, []string{"Moo", "Moon"}, drain(tr))

			require.True(t, mustRemove(t, tr, "Moo"))
			require.True(t, mustRemove(t, tr, "Moon"))
			require.Equal(t, 0, tr.Size())
			require.Empty(t, drain(tr))
		})
	}
}

// TestTrieSubTrie is the "sub-trie rooted at Hot" scenario of spec §8.
func TestTrieSubTrie(t *testing.T) {
	for _, tc := range facadeFactories {
		t.Run(tc.name, func(t *testing.T) {
			tr := newStringTrie(t, tc.factory, trie.Unsigned)
			for _, w := range []string{"Cat", "Hot", "Puppy"} {
				mustAdd(t, tr, w)
			}

			hot := tr.SubTrie([]byte("Hot"))
			require.Equal(t, 1, hot.Size())

			require.True(t, mustAdd(t, hot, "Hotdog"))
			require.True(t, mustAdd(t, hot, "Hotrod"))
			require.Equal(t, 5, tr.Size())
			require.Equal(t, 3, hot.Size())
			require.Equal(t, []string{"Hot", "Hotdog", "Hotrod"}, drain(hot))

			require.True(t, mustRemove(t, hot, "Hot"))
			require.Equal(t, 4, tr.Size())
			require.False(t, mustContains(t, tr, "Hot"))
			require.True(t, mustContains(t, tr, "Hotdog"))

			// Elements outside the prefix are a caller error.
			_, err := hot.Add("Cold")
			require.ErrorIs(t, err, trie.ErrInvalidArgument)
			_, err = hot.Remove("Cat")
			require.NoError(t, err, "remove outside the prefix is simply absent")
		})
	}
}

// TestTrieSubTriePrefixDecomposition checks spec §8 property 3 with
// randomized content: a sub-trie iterates exactly the parent's elements
// carrying the prefix, in the parent's order.
func TestTrieSubTriePrefixDecomposition(t *testing.T) {
	for _, tc := range facadeFactories {
		t.Run(tc.name, func(t *testing.T) {
			tr := newStringTrie(t, tc.factory, trie.Unsigned)
			r := rand.New(rand.NewSource(21))
			var all []string
			for i := 0; i < 400; i++ {
				var b []byte
				for n := r.Intn(7); n > 0; n-- {
					b = append(b, "abc"[r.Intn(3)])
				}
				w := string(b)
				if mustAdd(t, tr, w) {
					all = append(all, w)
				}
			}
			sort.Strings(all)

			for _, prefix := range []string{"", "a", "ab", "abc", "ba", "zzz"} {
				var want []string
				for _, w := range all {
					if len(w) >= len(prefix) && w[:len(prefix)] == prefix {
						want = append(want, w)
					}
				}
				got := drain(tr.SubTrie([]byte(prefix)))
				require.Equal(t, want, got, "prefix %q", prefix)
			}
		})
	}
}

// TestTrieReverseOrder is the custom-byte-order scenario of spec §8:
// with ReverseUnsigned, First is the lexicographically largest word.
func TestTrieReverseOrder(t *testing.T) {
	for _, tc := range facadeFactories {
		t.Run(tc.name, func(t *testing.T) {
			tr := newStringTrie(t, tc.factory, trie.ReverseUnsigned)
			for _, w := range []string{"Apple", "Ape", "Baboon", "Cartwheel"} {
				mustAdd(t, tr, w)
			}
			first, ok, err := tr.First()
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "Cartwheel", first)

			last, ok, err := tr.Last()
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "Ape", last)
		})
	}
}

// TestTrieFirstLastRemove exercises First/Last/RemoveFirst/RemoveLast
// down to an empty trie.
func TestTrieFirstLastRemove(t *testing.T) {
	tr := newStringTrie(t, trie.PackedStoreFactory{}, trie.Unsigned)
	for _, w := range []string{"b", "a", "c"} {
		mustAdd(t, tr, w)
	}

	e, ok, err := tr.RemoveFirst()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", e)

	e, ok, err = tr.RemoveLast()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "c", e)

	e, ok, err = tr.RemoveFirst()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b", e)

	_, ok, err = tr.First()
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = tr.RemoveLast()
	require.NoError(t, err)
	require.False(t, ok)
}

// TestTrieEmptyElement checks the empty byte string is a first-class
// element: it terminates at the root and sorts before everything.
func TestTrieEmptyElement(t *testing.T) {
	for _, tc := range facadeFactories {
		t.Run(tc.name, func(t *testing.T) {
			tr := newStringTrie(t, tc.factory, trie.Unsigned)
			require.True(t, mustAdd(t, tr, ""))
			require.True(t, mustAdd(t, tr, "a"))
			require.True(t, mustContains(t, tr, ""))
			require.Equal(t, []string{"", "a"}, drain(tr))
			require.True(t, mustRemove(t, tr, ""))
			require.Equal(t, []string{"a"}, drain(tr))
		})
	}
}

// TestTriePersistRestore is the persist/restore scenario of spec §8 at
// trie scale: dump a store holding a large generated word list, restore
// it on the same backend, and compare contents element for element.
func TestTriePersistRestore(t *testing.T) {
	words := generateWords(5000)
	for _, tc := range facadeFactories {
		t.Run(tc.name, func(t *testing.T) {
			store, err := tc.factory.NewStore(trie.StoreConfig{Order: trie.Unsigned, Counting: true})
			require.NoError(t, err)
			tr := trie.New[string](store, codec.String{})
			for _, w := range words {
				mustAdd(t, tr, w)
			}
			want := drain(tr)

			var buf bytes.Buffer
			_, err = trie.NewSerializer().WriteTo(&buf, trie.NewPath(store, trie.NewBuffer()))
			require.NoError(t, err)

			restoredStore, err := trie.NewSerializer().Read(bytes.NewReader(buf.Bytes()), tc.factory,
				trie.StoreConfig{Order: trie.Unsigned, Counting: true})
			require.NoError(t, err)
			restored := trie.New[string](restoredStore, codec.String{})

			require.Equal(t, len(want), restored.Size())
			for _, w := range words {
				require.True(t, mustContains(t, restored, w), "restored trie must contain %q", w)
			}
			require.Equal(t, want, drain(restored))
			require.Equal(t, tr.Fingerprint(), restored.Fingerprint())
		})
	}
}

// generateWords returns n distinct pseudo-words, unsorted.
func generateWords(n int) []string {
	r := rand.New(rand.NewSource(1234))
	seen := map[string]bool{}
	out := make([]string, 0, n)
	for len(out) < n {
		var b []byte
		for l := 1 + r.Intn(12); l > 0; l-- {
			b = append(b, byte('a'+r.Intn(26)))
		}
		w := string(b)
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// TestTrieImmutableView checks spec §5: a trie over an immutable view
// serves reads and rejects writes with ErrImmutable, while a deep
// immutable copy never sees later mutations of the original.
func TestTrieImmutableView(t *testing.T) {
	for _, tc := range facadeFactories {
		t.Run(tc.name, func(t *testing.T) {
			store, err := tc.factory.NewStore(trie.StoreConfig{Order: trie.Unsigned, Counting: true})
			require.NoError(t, err)
			tr := trie.New[string](store, codec.String{})
			mustAdd(t, tr, "alpha")
			mustAdd(t, tr, "beta")

			view := trie.New[string](store.ImmutableView(), codec.String{})
			require.Equal(t, 2, view.Size())
			require.True(t, mustContains(t, view, "alpha"))
			require.Equal(t, []string{"alpha", "beta"}, drain(view))

			_, err = view.Add("gamma")
			require.ErrorIs(t, err, trie.ErrImmutable)
			_, err = view.Remove("alpha")
			require.ErrorIs(t, err, trie.ErrImmutable)

			frozen := trie.New[string](store.ImmutableCopy(), codec.String{})
			mustAdd(t, tr, "gamma")
			require.True(t, mustContains(t, view, "gamma"), "a view tracks the live store")
			require.False(t, mustContains(t, frozen, "gamma"), "a copy does not")
		})
	}
}

// TestTrieFingerprintAcrossBackends checks the Fingerprint oracle at
// trie level, including sub-trie fingerprints.
func TestTrieFingerprintAcrossBackends(t *testing.T) {
	words := []string{"car", "card", "care", "cat", "dog"}
	var whole, sub []uint64
	for _, tc := range facadeFactories {
		tr := newStringTrie(t, tc.factory, trie.Unsigned)
		for _, w := range words {
			mustAdd(t, tr, w)
		}
		whole = append(whole, tr.Fingerprint())
		sub = append(sub, tr.SubTrie([]byte("car")).Fingerprint())
	}
	for i := 1; i < len(whole); i++ {
		require.Equal(t, whole[0], whole[i])
		require.Equal(t, sub[0], sub[i])
	}
	require.NotEqual(t, whole[0], sub[0])
}

// TestTrieMutationsInvalidatePrefixCache checks the invalidation
// discipline of spec §4.8 at the façade: a sub-trie created before its
// prefix exists starts resolving once elements under the prefix arrive,
// and stops after they are removed.
func TestTrieMutationsInvalidatePrefixCache(t *testing.T) {
	for _, tc := range facadeFactories {
		t.Run(tc.name, func(t *testing.T) {
			tr := newStringTrie(t, tc.factory, trie.Unsigned)
			sub := tr.SubTrie([]byte("pre"))
			require.Equal(t, 0, sub.Size())

			mustAdd(t, tr, "prefix")
			require.Equal(t, 1, sub.Size())
			require.Equal(t, []string{"prefix"}, drain(sub))

			mustRemove(t, tr, "prefix")
			require.Equal(t, 0, sub.Size())
			require.Empty(t, drain(sub))
		})
	}
}

// TestTrieCompactDuringUse checks spec §8 property 8 from the façade:
// compaction between operations changes nothing observable.
func TestTrieCompactDuringUse(t *testing.T) {
	for _, tc := range []struct {
		name    string
		factory trie.NodeStoreFactory
	}{{"packed", trie.PackedStoreFactory{}}, {"compact", trie.CompactStoreFactory{}}} {
		t.Run(tc.name, func(t *testing.T) {
			store, err := tc.factory.NewStore(trie.StoreConfig{Order: trie.Unsigned, Counting: true})
			require.NoError(t, err)
			tr := trie.New[string](store, codec.String{})

			r := rand.New(rand.NewSource(3))
			live := map[string]bool{}
			for i := 0; i < 600; i++ {
				w := fmt.Sprintf("%c%c%c", 'a'+r.Intn(4), 'a'+r.Intn(4), 'a'+r.Intn(4))
				switch {
				case r.Intn(20) == 0:
					store.Compact()
				case r.Intn(3) == 0 && live[w]:
					require.True(t, mustRemove(t, tr, w))
					delete(live, w)
				default:
					require.Equal(t, !live[w], mustAdd(t, tr, w))
					live[w] = true
				}
				require.Equal(t, len(live), tr.Size())
			}

			var want []string
			for w := range live {
				want = append(want, w)
			}
			sort.Strings(want)
			if len(want) == 0 {
				want = nil
			}
			require.Equal(t, want, drain(tr))
		})
	}
}

// TestTrieStats sanity-checks the Stats surface across backends.
func TestTrieStats(t *testing.T) {
	for _, tc := range facadeFactories {
		t.Run(tc.name, func(t *testing.T) {
			store, err := tc.factory.NewStore(trie.StoreConfig{Order: trie.Unsigned, Counting: true})
			require.NoError(t, err)
			tr := trie.New[string](store, codec.String{})
			mustAdd(t, tr, "stat")

			st := store.Stats()
			require.Equal(t, store.NodeCount(), st.NodeCount)
			require.Equal(t, store.StorageSize(), st.StorageSize)
			require.GreaterOrEqual(t, st.NodeCount, 2)
		})
	}
}
