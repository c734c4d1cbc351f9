// SPDX-License-Identifier: MIT

package trie_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	trie "github.com/trieforge/bytetrie"
	"github.com/trieforge/bytetrie/codec"
)

func newIndexedTrie(t *testing.T, f trie.NodeStoreFactory) *trie.IndexedTrie[string] {
	t.Helper()
	store, err := f.NewStore(trie.StoreConfig{Order: trie.Unsigned, Counting: true})
	require.NoError(t, err)
	it, err := trie.NewIndexed[string](store, codec.String{})
	require.NoError(t, err)
	return it
}

// TestIndexedLookup is the indexed-lookup scenario of spec §8: rank and
// select over {"a", "ab", "abc", "abcdefgh"}.
func TestIndexedLookup(t *testing.T) {
	for _, tc := range facadeFactories {
		t.Run(tc.name, func(t *testing.T) {
			it := newIndexedTrie(t, tc.factory)
			for _, w := range []string{"a", "ab", "abc", "abcdefgh"} {
				added, err := it.Add(w)
				require.NoError(t, err)
				require.True(t, added)
			}

			e, err := it.Get(0)
			require.NoError(t, err)
			require.Equal(t, "a", e)
			e, err = it.Get(3)
			require.NoError(t, err)
			require.Equal(t, "abcdefgh", e)

			i, err := it.IndexOf("abc")
			require.NoError(t, err)
			require.Equal(t, 2, i)

			// "abd" sorts after all four stored elements ("abcdefgh"
			// diverges at the smaller byte 'c'), so its insertion point is
			// 4 and IndexOf reports -insertion-1.
			i, err = it.IndexOf("abd")
			require.NoError(t, err)
			require.Equal(t, -5, i)

			i, err = it.IndexOf("aa")
			require.NoError(t, err)
			require.Equal(t, -2, i, "between a (0) and ab (1): insertion point 1")

			_, err = it.Get(4)
			require.ErrorIs(t, err, trie.ErrInvalidArgument)
			_, err = it.Get(-1)
			require.ErrorIs(t, err, trie.ErrInvalidArgument)
		})
	}
}

// TestIndexedDoubleInsertion is the double-insertion scenario of spec
// §8: inserting "acxxx" before "abc" still ranks "abc" first.
func TestIndexedDoubleInsertion(t *testing.T) {
	for _, tc := range facadeFactories {
		t.Run(tc.name, func(t *testing.T) {
			it := newIndexedTrie(t, tc.factory)
			for _, w := range []string{"acxxx", "abc"} {
				_, err := it.Add(w)
				require.NoError(t, err)
			}

			e, err := it.Get(0)
			require.NoError(t, err)
			require.Equal(t, "abc", e)
			e, err = it.Get(1)
			require.NoError(t, err)
			require.Equal(t, "acxxx", e)

			i, err := it.IndexOf("acxxx")
			require.NoError(t, err)
			require.Equal(t, 1, i)
		})
	}
}

// TestIndexedRoundTrip checks spec §8 property 6 with randomized
// content: Get(IndexOf(e)) == e for every stored element, ranks match
// iteration order, and absent elements report their insertion point.
func TestIndexedRoundTrip(t *testing.T) {
	for _, tc := range facadeFactories {
		t.Run(tc.name, func(t *testing.T) {
			it := newIndexedTrie(t, tc.factory)
			r := rand.New(rand.NewSource(11))
			live := map[string]bool{}
			for i := 0; i < 500; i++ {
				var b []byte
				for n := r.Intn(6); n > 0; n-- {
					b = append(b, "abcd"[r.Intn(4)])
				}
				w := string(b)
				if r.Intn(4) == 0 && live[w] {
					_, err := it.Remove(w)
					require.NoError(t, err)
					delete(live, w)
				} else {
					_, err := it.Add(w)
					require.NoError(t, err)
					live[w] = true
				}
			}

			var sorted []string
			for w := range live {
				sorted = append(sorted, w)
			}
			sort.Strings(sorted)

			require.Equal(t, len(sorted), it.Size())
			for rank, w := range sorted {
				got, err := it.Get(rank)
				require.NoError(t, err)
				require.Equal(t, w, got, "rank %d", rank)

				idx, err := it.IndexOf(w)
				require.NoError(t, err)
				require.Equal(t, rank, idx, "IndexOf(%q)", w)
			}

			// Absent probes: the negated result encodes the insertion
			// point among the sorted live elements.
			for i := 0; i < 50; i++ {
				var b []byte
				for n := r.Intn(7); n > 0; n-- {
					b = append(b, "abcde"[r.Intn(5)])
				}
				w := string(b)
				if live[w] {
					continue
				}
				idx, err := it.IndexOf(w)
				require.NoError(t, err)
				require.Negative(t, idx)
				insertion := -1 - idx
				require.Equal(t, sort.SearchStrings(sorted, w), insertion, "insertion point of %q", w)
			}
		})
	}
}

// TestIndexedSubTrie checks rank/select inside a sub-trie view: ranks
// are local to the prefix.
func TestIndexedSubTrie(t *testing.T) {
	it := newIndexedTrie(t, trie.CompactStoreFactory{})
	for _, w := range []string{"x", "ya", "yb", "yc", "z"} {
		_, err := it.Add(w)
		require.NoError(t, err)
	}
	sub := it.SubTrie([]byte("y"))
	require.Equal(t, 3, sub.Size())

	e, err := sub.Get(0)
	require.NoError(t, err)
	require.Equal(t, "ya", e)
	e, err = sub.Get(2)
	require.NoError(t, err)
	require.Equal(t, "yc", e)

	i, err := sub.IndexOf("yb")
	require.NoError(t, err)
	require.Equal(t, 1, i)

	_, err = sub.IndexOf("x")
	require.ErrorIs(t, err, trie.ErrInvalidArgument)
}

// TestIndexedRequiresCounting checks spec §7 UnsupportedConfiguration:
// an indexed trie over a non-counting store must be rejected.
func TestIndexedRequiresCounting(t *testing.T) {
	store, err := trie.PackedStoreFactory{}.NewStore(trie.StoreConfig{Order: trie.Unsigned})
	require.NoError(t, err)
	_, err = trie.NewIndexed[string](store, codec.String{})
	require.ErrorIs(t, err, trie.ErrUnsupportedConfiguration)
}
