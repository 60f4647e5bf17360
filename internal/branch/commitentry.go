package branch

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/projectnessie/nessie-core/internal/id"
)

// UnsavedDelta is a single slot change in the IdMap frontier, applied or
// reversed point-wise during UpdateState computation.
type UnsavedDelta struct {
	Position int
	OldId    id.Id
	NewId    id.Id
}

// CommitEntry is one entry of a branch's intention log, a tagged sum of
// Saved and Unsaved. A Saved entry has Deltas == nil and Keys == nil and
// refers to a persisted L1 whose Id is Id; an Unsaved entry carries a
// random placeholder Id plus the deltas and key mutations still pending
// materialisation.
type CommitEntry struct {
	Id     id.Id
	Commit id.Id
	Parent id.Id // meaningful only when IsSaved()
	Deltas []UnsavedDelta
	Keys   KeyMutationList
}

// Saved builds a Saved commit entry.
func Saved(entryID, commit, parent id.Id) CommitEntry {
	return CommitEntry{Id: entryID, Commit: commit, Parent: parent}
}

// Unsaved builds an Unsaved commit entry. placeholder should be a randomly
// generated Id, never a content hash, so the collapse protocol can use it
// to detect a racing writer. deltas and keys may not both be empty: an
// Unsaved entry with nothing pending is indistinguishable from a Saved one
// under IsSaved's nil check, so it is rejected here with ErrIllegalArgument
// rather than allowed to silently masquerade as an anchor.
func Unsaved(placeholder, commit id.Id, deltas []UnsavedDelta, keys KeyMutationList) (CommitEntry, error) {
	if len(deltas) == 0 && len(keys) == 0 {
		return CommitEntry{}, fmt.Errorf("%w: unsaved commit entry has no deltas and no key mutations", ErrIllegalArgument)
	}
	return CommitEntry{Id: placeholder, Commit: commit, Deltas: deltas, Keys: keys}, nil
}

// IsSaved reports whether this entry has already been materialised into a
// persisted L1.
func (c CommitEntry) IsSaved() bool {
	return c.Deltas == nil && c.Keys == nil
}

// NewPlaceholder generates a fresh placeholder Id for an Unsaved commit
// entry. It is drawn from a UUID, never from id.Build, precisely so it can
// never collide with a real content hash and the collapse protocol's
// equality checks stay meaningful.
func NewPlaceholder() id.Id {
	u := uuid.New()
	var out id.Id
	copy(out[:], u[:])
	return out
}
