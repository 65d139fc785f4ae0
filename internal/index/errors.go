package index

import (
	"fmt"

	"github.com/git-pkgs/depindex/internal/semver"
)

// ErrInvalidQueryRange is returned when a query's range expression parses
// to a disjunction, an unsupported comparator shape, or more than two
// comparators. It is never retried internally.
var ErrInvalidQueryRange = semver.ErrInvalidQueryRange

// StoreIOError wraps any failure returned by the underlying kv.Store.
// Write errors abort the batch; query errors abort the stream at the
// offending record; cleanup errors surface through the query stream —
// all unwrapped verbatim, no internal retry.
type StoreIOError struct {
	Op  string
	Err error
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("depindex: store %s: %v", e.Op, e.Err)
}

func (e *StoreIOError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreIOError{Op: op, Err: err}
}

// unparseableRangeError marks a dependency range that failed to parse.
// It is never returned to a caller: the Writer logs it and drops the
// single dependency from the index, still storing the manifest itself.
type unparseableRangeError struct {
	dep string
	raw string
	err error
}

func (e *unparseableRangeError) Error() string {
	return fmt.Sprintf("unparseable range %q for dependency %q: %v", e.raw, e.dep, e.err)
}

func (e *unparseableRangeError) Unwrap() error { return e.err }
