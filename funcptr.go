// SPDX-License-Identifier: MIT

package trie

import "unsafe"

// funcPointer returns an identity key for a comparator function, used by
// ByteOrder.Equal to compare custom orders. The key is the address of the
// func value's closure object, not of its code, so two distinct closures
// are never equal even if they are built from the same function literal;
// two comparators cannot be proven interchangeable, so identity is the
// only safe equality.
func funcPointer(f func(a, b byte) int) uintptr {
	return *(*uintptr)(unsafe.Pointer(&f))
}
