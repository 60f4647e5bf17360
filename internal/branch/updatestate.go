package branch

import (
	"context"
	"fmt"
	"sync"

	"github.com/projectnessie/nessie-core/internal/entity"
	"github.com/projectnessie/nessie-core/internal/id"
	"github.com/projectnessie/nessie-core/internal/idmap"
	"github.com/projectnessie/nessie-core/internal/store"
)

// UpdateState is the plan computeUpdateState derives from a loaded branch
// record: which positions in the intention log to delete, which position
// and placeholder id the surviving tail entry currently has, the L1 that
// tail should be rewritten to point at, and the SaveOps needed to persist
// every newly derived L1 (and any checkpoints folded along the way).
type UpdateState struct {
	Deletes          []int
	FinalPosition    int
	FinalPlaceholder id.Id
	FinalL1          entity.L1
	Saves            []store.SaveOp

	saveOnce sync.Once
	saveErr  error
}

// save persists every SaveOp exactly once, no matter how many times it is
// called or by how many concurrent callers: the underlying Store.Save is
// idempotent by content id, but this guard also avoids issuing the batch
// more than once at all.
func (u *UpdateState) save(ctx context.Context, st store.Store) error {
	u.saveOnce.Do(func() {
		if len(u.Saves) == 0 {
			return
		}
		u.saveErr = st.Save(ctx, u.Saves)
	})
	return u.saveErr
}

func summarizeKeys(keys KeyMutationList) entity.KeyMutationSummary {
	var s entity.KeyMutationSummary
	for _, k := range keys {
		switch k.Kind {
		case KeyMutationAddition:
			s.Additions++
		case KeyMutationRemoval:
			s.Removals++
		}
	}
	return s
}

// computeUpdateState implements §4.E.1: partition the branch's commit log
// into a saved prefix and an unsaved suffix, rewind the suffix's deltas
// from the head tree to recover the last saved L1's tree, assert that
// rewind lands exactly on the last saved L1, then re-apply the suffix
// forward deriving one new L1 per unsaved entry.
func computeUpdateState(ctx context.Context, st store.Store, b InternalBranch) (*UpdateState, error) {
	n := len(b.Commits)
	if n == 0 {
		return nil, fmt.Errorf("%w: branch has no commit entries", ErrCorruption)
	}

	unsavedStart := n
	for i, c := range b.Commits {
		if !c.IsSaved() {
			unsavedStart = i
			break
		}
	}
	for i := unsavedStart; i < n; i++ {
		if b.Commits[i].IsSaved() {
			return nil, fmt.Errorf("%w: saved entry at position %d follows unsaved entry at position %d", ErrCorruption, i, unsavedStart)
		}
	}
	if unsavedStart == 0 {
		return nil, fmt.Errorf("%w: branch has no saved anchor", ErrCorruption)
	}

	savedPrefix := b.Commits[:unsavedStart]
	unsavedSuffix := b.Commits[unsavedStart:]

	deletes := make([]int, 0, n-1)
	for i := 0; i < n-1; i++ {
		deletes = append(deletes, i)
	}

	lastSaved := savedPrefix[len(savedPrefix)-1]
	lastSavedL1, err := loadL1(ctx, st, lastSaved.Id)
	if err != nil {
		return nil, err
	}

	if len(unsavedSuffix) == 0 {
		return &UpdateState{
			Deletes:          deletes,
			FinalPosition:    n - 1,
			FinalPlaceholder: b.Commits[n-1].Id,
			FinalL1:          lastSavedL1,
		}, nil
	}

	working := b.Tree
	for i := len(unsavedSuffix) - 1; i >= 0; i-- {
		deltas := unsavedSuffix[i].Deltas
		for j := len(deltas) - 1; j >= 0; j-- {
			d := deltas[j]
			current := working.Get(d.Position)
			if current != d.NewId {
				return nil, fmt.Errorf("%w: rewind mismatch at position %d: expected %s, found %s", ErrCorruption, d.Position, d.NewId, current)
			}
			working = working.WithId(d.Position, d.OldId)
		}
	}
	if !working.Equal(lastSavedL1.Tree) {
		return nil, fmt.Errorf("%w: rewound tree does not match last saved L1's tree", ErrCorruption)
	}

	saves := make([]store.SaveOp, 0, len(unsavedSuffix))
	unsavedCheckpoints := make(map[id.Id]entity.Checkpoint)

	tree := working
	lastL1 := lastSavedL1
	for _, c := range unsavedSuffix {
		tree = applyForward(tree, c.Deltas)

		child := lastL1.GetChildWithTree(c.Commit, tree, summarizeKeys(c.Keys))

		checkpointed, checkpointOp, err := child.WithCheckpointAsNecessary(ctx, st, unsavedCheckpoints)
		if err != nil {
			return nil, err
		}
		if checkpointOp != nil {
			saves = append(saves, *checkpointOp)
		}

		data, err := checkpointed.Encode()
		if err != nil {
			return nil, err
		}
		saves = append(saves, store.SaveOp{Kind: store.KindL1, Id: checkpointed.Id(), Data: data})

		lastL1 = checkpointed
	}

	if !tree.Equal(b.Tree) {
		return nil, fmt.Errorf("%w: reconstructed tree does not match branch head tree", ErrCorruption)
	}

	finalEntry := unsavedSuffix[len(unsavedSuffix)-1]
	return &UpdateState{
		Deletes:          deletes,
		FinalPosition:    n - 1,
		FinalPlaceholder: finalEntry.Id,
		FinalL1:          lastL1,
		Saves:            saves,
	}, nil
}

func applyForward(tree idmap.IdMap, deltas []UnsavedDelta) idmap.IdMap {
	for _, d := range deltas {
		tree = tree.WithId(d.Position, d.NewId)
	}
	return tree
}

func loadL1(ctx context.Context, st store.Store, l1ID id.Id) (entity.L1, error) {
	if l1ID.IsEmpty() {
		return entity.EmptyL1, nil
	}
	raw, err := st.LoadSingle(ctx, store.KindL1, l1ID)
	if err != nil {
		return entity.L1{}, fmt.Errorf("branch: could not load L1 %s: %w", l1ID, err)
	}
	l1, err := entity.DecodeL1(l1ID, raw)
	if err != nil {
		return entity.L1{}, fmt.Errorf("%w: %v", ErrCorruption, err)
	}
	return l1, nil
}
