package store

import "github.com/projectnessie/nessie-core/internal/id"

// BranchRecord is the storage-level shape of a branch (or tag) reference.
// It is the document the update/condition algebra in expr.go addresses;
// the richer branch.InternalBranch domain type is encoded to and decoded
// from this shape at the Store boundary, the same separation the teacher
// draws between its domain models and its storage encoding.
type BranchRecord struct {
	Id       id.Id
	Name     string
	Kind     string // "BRANCH" or "TAG"
	Tree     []id.Id
	Metadata id.Id
	Commits  []CommitEntryRecord
	Dt       int64
}

// CommitEntryRecord is one entry of a BranchRecord's intention log. A
// Saved entry has Parent set and Deltas/Keys nil; an Unsaved entry has
// Deltas/Keys set and Parent is the zero Id.
type CommitEntryRecord struct {
	Id     id.Id
	Commit id.Id
	Parent id.Id
	Deltas []UnsavedDeltaRecord
	Keys   []KeyMutationRecord
}

// IsSaved reports whether this entry has already been materialised into a
// persisted L1.
func (c CommitEntryRecord) IsSaved() bool {
	return c.Deltas == nil && c.Keys == nil
}

// UnsavedDeltaRecord is the storage encoding of an UnsavedDelta.
type UnsavedDeltaRecord struct {
	Position int
	OldId    id.Id
	NewId    id.Id
}

// KeyMutationRecord is the storage encoding of a KeyMutation.
type KeyMutationRecord struct {
	Kind string // "ADDITION" or "REMOVAL"
	Key  []string
}

// Clone returns a deep copy of the record, so a Store implementation can
// safely hand it to a condition/update pipeline without aliasing the
// caller's copy.
func (r BranchRecord) Clone() BranchRecord {
	out := r
	out.Tree = append([]id.Id(nil), r.Tree...)
	out.Commits = make([]CommitEntryRecord, len(r.Commits))
	for i, c := range r.Commits {
		cc := c
		cc.Deltas = append([]UnsavedDeltaRecord(nil), c.Deltas...)
		cc.Keys = append([]KeyMutationRecord(nil), c.Keys...)
		out.Commits[i] = cc
	}
	return out
}
