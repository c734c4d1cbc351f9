// SPDX-License-Identifier: MIT

package codec_test

import (
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	trie "github.com/trieforge/bytetrie"
	"github.com/trieforge/bytetrie/codec"
)

func TestStringRoundTrip(t *testing.T) {
	buf := trie.NewBuffer()
	for _, s := range []string{"", "a", "héllo", "\x00\xff"} {
		require.True(t, codec.String{}.Encode(buf, s))
		require.Equal(t, s, codec.String{}.Decode(buf))
	}
}

func TestBytesRoundTrip(t *testing.T) {
	buf := trie.NewBuffer()
	in := []byte{0, 1, 254, 255}
	require.True(t, codec.Bytes{}.Encode(buf, in))
	out := codec.Bytes{}.Decode(buf)
	require.Equal(t, in, out)

	out[0] = 99
	require.Equal(t, byte(0), buf.Bytes()[0], "Decode must copy out of the buffer")
}

// TestUint64Ordering checks the big-endian encoding preserves numeric
// order byte-lexicographically, which is what makes Uint64 usable as a
// trie key under the Unsigned order.
func TestUint64Ordering(t *testing.T) {
	buf := trie.NewBuffer()
	vals := []uint64{0, 1, 255, 256, 1 << 16, 1<<32 - 1, 1 << 32, 1<<64 - 1}

	var encoded []string
	for _, v := range vals {
		require.True(t, codec.Uint64{}.Encode(buf, v))
		require.Equal(t, 8, buf.Len())
		require.Equal(t, v, codec.Uint64{}.Decode(buf))
		encoded = append(encoded, string(buf.Get()))
	}
	require.True(t, sort.StringsAreSorted(encoded), "numeric order must match byte order")
}

func TestUint64InTrie(t *testing.T) {
	store, err := trie.PackedStoreFactory{}.NewStore(trie.StoreConfig{Order: trie.Unsigned, Counting: true})
	require.NoError(t, err)
	it, err := trie.NewIndexed[uint64](store, codec.Uint64{})
	require.NoError(t, err)

	for _, v := range []uint64{500, 3, 1 << 40, 42} {
		_, err := it.Add(v)
		require.NoError(t, err)
	}
	got, err := it.Get(0)
	require.NoError(t, err)
	require.Equal(t, uint64(3), got)
	got, err = it.Get(3)
	require.NoError(t, err)
	require.Equal(t, uint64(1<<40), got)
}

// TestComparator checks the returned comparator sorts exactly like trie
// iteration, including under a reversed byte order and across
// prefix/extension pairs.
func TestComparator(t *testing.T) {
	words := []string{"Ape", "Apple", "Baboon", "Cartwheel", "Ap"}

	for _, order := range []trie.ByteOrder{trie.Unsigned, trie.ReverseUnsigned} {
		store, err := trie.ReferenceStoreFactory{}.NewStore(trie.StoreConfig{Order: order})
		require.NoError(t, err)
		tr := trie.New[string](store, codec.String{})
		for _, w := range words {
			_, err := tr.Add(w)
			require.NoError(t, err)
		}

		var iterated []string
		it := tr.Iterator()
		for it.Next() {
			iterated = append(iterated, it.Element())
		}

		cmp := codec.Comparator[string](codec.String{}, order)
		sorted := append([]string(nil), words...)
		sort.Slice(sorted, func(i, j int) bool { return cmp(sorted[i], sorted[j]) < 0 })
		require.Equal(t, sorted, iterated, "order %v", order)
	}
}

// TestAdapt composes String with an int<->string bijection and checks
// both directions plus the non-serializable rejection path.
func TestAdapt(t *testing.T) {
	intCodec := codec.Adapt[int, string](codec.String{},
		func(v int) (string, bool) {
			if v < 0 {
				return "", false
			}
			return strconv.Itoa(v), true
		},
		func(s string) int {
			v, _ := strconv.Atoi(s)
			return v
		},
	)

	buf := trie.NewBuffer()
	require.True(t, intCodec.Encode(buf, 12345))
	require.Equal(t, 12345, intCodec.Decode(buf))
	require.False(t, intCodec.Encode(buf, -1), "forward rejection must surface as not-serializable")

	store, err := trie.ReferenceStoreFactory{}.NewStore(trie.StoreConfig{Order: trie.Unsigned})
	require.NoError(t, err)
	tr := trie.New[int](store, intCodec)
	_, err = tr.Add(7)
	require.NoError(t, err)
	ok, err := tr.Contains(7)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = tr.Add(-5)
	require.ErrorIs(t, err, trie.ErrInvalidArgument)
}
