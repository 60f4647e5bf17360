package branch

import (
	"fmt"

	"github.com/projectnessie/nessie-core/internal/contentskey"
	"github.com/projectnessie/nessie-core/internal/id"
	"github.com/projectnessie/nessie-core/internal/idmap"
	"github.com/projectnessie/nessie-core/internal/store"
)

// InternalBranch is the in-memory, domain-level view of a branch reference:
// its name, the current frontier tree (head, after all unsaved deltas),
// the commit-metadata of its head, and its intention log.
type InternalBranch struct {
	Id       id.Id
	Name     string
	Tree     idmap.IdMap
	Metadata id.Id
	Commits  []CommitEntry
	Dt       int64
}

// NewBranch creates a fresh branch pointing at the empty L1, the S1
// scenario: a single Saved entry anchored at id.Empty, tree equal to the
// empty IdMap.
func NewBranch(name string, dt int64) InternalBranch {
	return InternalBranch{
		Id:       id.Build([]byte(name)),
		Name:     name,
		Tree:     idmap.Empty(),
		Metadata: id.Empty,
		Commits:  []CommitEntry{Saved(id.Empty, id.Empty, id.Empty)},
		Dt:       dt,
	}
}

// ToRecord encodes the domain branch into its storage-level shape.
func (b InternalBranch) ToRecord() store.BranchRecord {
	commits := make([]store.CommitEntryRecord, len(b.Commits))
	for i, c := range b.Commits {
		commits[i] = store.CommitEntryRecord{
			Id:     c.Id,
			Commit: c.Commit,
			Parent: c.Parent,
			Deltas: encodeDeltas(c.Deltas),
			Keys:   encodeKeys(c.Keys),
		}
	}
	return store.BranchRecord{
		Id:       b.Id,
		Name:     b.Name,
		Kind:     "BRANCH",
		Tree:     b.Tree.Encode(),
		Metadata: b.Metadata,
		Commits:  commits,
		Dt:       b.Dt,
	}
}

// FromRecord decodes a branch's storage-level shape into its domain form.
// It rejects anything whose Kind is not BRANCH with ErrReferenceNotFound,
// since a caller that asked for a branch and got a tag should be treated
// exactly like the branch having disappeared.
func FromRecord(rec store.BranchRecord) (InternalBranch, error) {
	if rec.Kind != "BRANCH" {
		return InternalBranch{}, fmt.Errorf("%w: %s is a %s, not a branch", ErrReferenceNotFound, rec.Name, rec.Kind)
	}
	tree, err := idmap.FromSlots(rec.Tree)
	if err != nil {
		return InternalBranch{}, fmt.Errorf("%w: %v", ErrCorruption, err)
	}
	if len(rec.Commits) == 0 {
		return InternalBranch{}, fmt.Errorf("%w: branch record has no commit entries", ErrCorruption)
	}
	commits := make([]CommitEntry, len(rec.Commits))
	for i, c := range rec.Commits {
		keys, err := decodeKeys(c.Keys)
		if err != nil {
			return InternalBranch{}, err
		}
		commits[i] = CommitEntry{
			Id:     c.Id,
			Commit: c.Commit,
			Parent: c.Parent,
			Deltas: decodeDeltas(c.Deltas),
			Keys:   keys,
		}
	}
	return InternalBranch{
		Id:       rec.Id,
		Name:     rec.Name,
		Tree:     tree,
		Metadata: rec.Metadata,
		Commits:  commits,
		Dt:       rec.Dt,
	}, nil
}

func encodeDeltas(deltas []UnsavedDelta) []store.UnsavedDeltaRecord {
	if deltas == nil {
		return nil
	}
	out := make([]store.UnsavedDeltaRecord, len(deltas))
	for i, d := range deltas {
		out[i] = store.UnsavedDeltaRecord{Position: d.Position, OldId: d.OldId, NewId: d.NewId}
	}
	return out
}

func decodeDeltas(deltas []store.UnsavedDeltaRecord) []UnsavedDelta {
	if deltas == nil {
		return nil
	}
	out := make([]UnsavedDelta, len(deltas))
	for i, d := range deltas {
		out[i] = UnsavedDelta{Position: d.Position, OldId: d.OldId, NewId: d.NewId}
	}
	return out
}

func encodeKeys(keys KeyMutationList) []store.KeyMutationRecord {
	if keys == nil {
		return nil
	}
	out := make([]store.KeyMutationRecord, len(keys))
	for i, k := range keys.Sorted() {
		out[i] = store.KeyMutationRecord{Kind: string(k.Kind), Key: k.Key.Segments()}
	}
	return out
}

func decodeKeys(keys []store.KeyMutationRecord) (KeyMutationList, error) {
	if keys == nil {
		return nil, nil
	}
	out := make(KeyMutationList, len(keys))
	for i, k := range keys {
		key, err := contentskey.Of(k.Key...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruption, err)
		}
		out[i] = KeyMutation{Kind: KeyMutationKind(k.Kind), Key: key}
	}
	return out, nil
}
