// SPDX-License-Identifier: MIT

package trie

import "golang.org/x/xerrors"

// Sentinel errors for the recoverable failure classes. Errors returned
// at the element-accepting boundary (Add, Contains, Remove) and by
// Serializer.Read wrap one of these with xerrors.Errorf so callers can
// test with errors.Is while still getting a useful message.
// Serializer.WriteTo returns the writer's own errors unwrapped.
var (
	// ErrInvalidArgument covers nil/absent input, an element outside a
	// sub-trie's prefix, a non-serializable object, a negative index, or
	// an index >= size.
	ErrInvalidArgument = xerrors.New("trie: invalid argument")

	// ErrImmutable is returned, wrapped, by a trie's Add or Remove on an
	// immutable view. A mutating call made directly on the view, or
	// through a Path over it, panics with it instead.
	ErrImmutable = xerrors.New("trie: immutable view")

	// ErrUnsupportedConfiguration is returned when an indexed trie is
	// requested from a node-store factory that does not support counting.
	ErrUnsupportedConfiguration = xerrors.New("trie: configuration not supported")

	// ErrMalformedStream is returned while decoding a dumped trie: byte
	// count mismatch, non-zero root value, root declared as a sibling, or
	// truncation.
	ErrMalformedStream = xerrors.New("trie: malformed stream")

	// ErrCapacityExhausted is returned by a NodeStore configured with a
	// hard capacity cap that cannot grow further.
	ErrCapacityExhausted = xerrors.New("trie: capacity exhausted")
)

// invalidArgumentf wraps ErrInvalidArgument with a formatted detail.
func invalidArgumentf(format string, args ...any) error {
	return xerrors.Errorf(format+": %w", append(args, ErrInvalidArgument)...)
}

func malformedStreamf(format string, args ...any) error {
	return xerrors.Errorf(format+": %w", append(args, ErrMalformedStream)...)
}

func capacityExhaustedf(format string, args ...any) error {
	return xerrors.Errorf(format+": %w", append(args, ErrCapacityExhausted)...)
}

func immutablef(op string) error {
	return xerrors.Errorf("trie: %s on an immutable view: %w", op, ErrImmutable)
}
