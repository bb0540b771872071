package c3bt

import (
	"errors"
	"fmt"

	"github.com/c3bt/c3bt/pkg/xerrors"
)

// The four error kinds a Tree operation can report (spec.md §7). Every
// public operation leaves the tree's invariants intact whether it
// succeeds or returns one of these.
var (
	// ErrInvalidArgument is returned for a nil record or an out-of-range
	// key_offset/key_nbits combination. The configured BitFunc is not
	// validated: a Tree used without one is not reported here.
	ErrInvalidArgument = errors.New("c3bt: invalid argument")

	// ErrDuplicateKey is returned by Add when a record with an equal key
	// is already indexed. The tree is left unchanged.
	ErrDuplicateKey = errors.New("c3bt: duplicate key")

	// ErrNotFound is returned by Remove when no record with a matching key
	// is indexed. The tree is left unchanged.
	ErrNotFound = errors.New("c3bt: not found")

	// ErrOutOfMemory is returned when a split or cell allocation fails.
	// The tree is rolled back to its pre-call state.
	ErrOutOfMemory = errors.New("c3bt: out of memory")
)

// keyBoundsError reports that a record's configured key_offset/key_nbits
// reach past the record's own storage. Add and Remove recognize it via
// xerrors.AsA and report it as ErrInvalidArgument; it is never returned
// directly to a caller outside this package.
type keyBoundsError struct {
	offset uintptr
	nbits  int
	cause  error
}

func (e *keyBoundsError) Error() string {
	return fmt.Sprintf("c3bt: key at offset %d, %d bits, out of bounds: %v", e.offset, e.nbits, e.cause)
}

func (e *keyBoundsError) Unwrap() error { return e.cause }

// classifyKeyErr maps a keyBytes failure to one of this package's four
// named errors. It is written as a xerrors.AsA switch rather than a plain
// nil check so that a future keyBytes failure mode distinct from a bounds
// violation doesn't silently get reported as ErrInvalidArgument.
func classifyKeyErr(err error) error {
	if _, ok := xerrors.AsA[*keyBoundsError](err); ok {
		return ErrInvalidArgument
	}
	return err
}
