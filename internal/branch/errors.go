// Package branch implements the branch update state machine: the intention
// log staged on a branch record, the UpdateState computed from it, and the
// collapse protocol that drives a staged branch back to a single Saved
// anchor via optimistic conditional updates.
package branch

import "errors"

// Error taxonomy. Failures this package classifies itself wrap one of
// these sentinels, so callers can classify them with errors.Is without
// depending on string matching. Errors from the Store, the executor or
// checkpoint loading are returned as they are, or wrapped with context,
// without a sentinel.
var (
	// ErrReferenceNotFound is returned when a reload during collapse finds
	// the branch gone, or finds it has changed kind (branch -> tag). Not
	// retryable.
	ErrReferenceNotFound = errors.New("branch: reference not found")

	// ErrConflict is returned when collapseIntentionLog exhausts its
	// attempt budget without a successful conditional update.
	ErrConflict = errors.New("branch: optimistic retry budget exhausted")

	// ErrCorruption is returned when a loaded entity's id does not match
	// its content hash, or when the rewind/re-apply assertions in
	// computeUpdateState fail. Always fatal: a bug or data corruption, not
	// a condition a caller can retry.
	ErrCorruption = errors.New("branch: corruption detected")

	// ErrIllegalArgument is returned for malformed input: a commit entry
	// with no deltas and no key mutations. A key segment containing a NUL
	// byte is rejected by contentskey.Of with contentskey.ErrNulByte, and
	// is reported as ErrCorruption when found in a stored branch record.
	ErrIllegalArgument = errors.New("branch: illegal argument")
)
