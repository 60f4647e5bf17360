package entity

import (
	"context"
	"fmt"

	"github.com/projectnessie/nessie-core/internal/codec"
	"github.com/projectnessie/nessie-core/internal/id"
	"github.com/projectnessie/nessie-core/internal/idmap"
	"github.com/projectnessie/nessie-core/internal/store"
)

// maxAncestryLength bounds the ancestry list an L1 carries before it is
// folded into a Checkpoint. The numeric value is left to this tier, as
// spec'd: it is a tuning knob for amortised walk cost, not a correctness
// invariant.
const maxAncestryLength = 20

// L1 summarises a branch's full tree state at one commit: its IdMap
// frontier, its parent L1, the commit metadata that produced it, and a
// bounded ancestry list (optionally folded into a Checkpoint) so readers
// can walk history without visiting every intermediate L1.
type L1 struct {
	id         id.Id
	Tree       idmap.IdMap
	Parent     id.Id
	Metadata   id.Id
	Checkpoint id.Id
	Ancestry   []id.Id
}

type l1Encoding struct {
	Tree       []id.Id `cbor:"tree"`
	Parent     id.Id   `cbor:"parent"`
	Metadata   id.Id   `cbor:"metadata"`
	Checkpoint id.Id   `cbor:"checkpoint"`
	Ancestry   []id.Id `cbor:"ancestry"`
}

func (l L1) encoding() l1Encoding {
	return l1Encoding{
		Tree:       l.Tree.Encode(),
		Parent:     l.Parent,
		Metadata:   l.Metadata,
		Checkpoint: l.Checkpoint,
		Ancestry:   l.Ancestry,
	}
}

// EmptyL1 is the canonical empty L1: an empty tree, no parent, no
// metadata, no checkpoint. Its Id is id.Empty by definition, a sentinel
// rather than an actual hash, so resolving an empty branch never needs a
// store round trip.
var EmptyL1 = L1{id: id.Empty, Tree: idmap.Empty()}

// Id returns the L1's content Id.
func (l L1) Id() id.Id {
	return l.id
}

// Encode returns the canonical bytes for this L1.
func (l L1) Encode() ([]byte, error) {
	return codec.Marshal(l.encoding())
}

// DecodeL1 decodes canonical bytes into an L1, verifying the claimed Id.
func DecodeL1(claimed id.Id, canonical []byte) (L1, error) {
	if claimed.IsEmpty() {
		return EmptyL1, nil
	}
	if err := id.EnsureConsistent(claimed, canonical); err != nil {
		return L1{}, err
	}
	var enc l1Encoding
	if err := codec.Unmarshal(canonical, &enc); err != nil {
		return L1{}, err
	}
	tree, err := idmap.FromSlots(enc.Tree)
	if err != nil {
		return L1{}, err
	}
	return L1{
		id:         claimed,
		Tree:       tree,
		Parent:     enc.Parent,
		Metadata:   enc.Metadata,
		Checkpoint: enc.Checkpoint,
		Ancestry:   enc.Ancestry,
	}, nil
}

// KeyMutationSummary is the minimal shape get_child_with_tree needs of a
// branch's pending key mutations: just the count, for logging. The
// mutations themselves are never persisted past collapse (the collapse
// protocol explicitly strips commits[i].keys once materialised), so L1
// never stores them.
type KeyMutationSummary struct {
	Additions int
	Removals  int
}

// GetChildWithTree builds the derived L1 for applying one more commit on
// top of l: the new frontier is newTree, the new parent is l's own Id, and
// the commit metadata pointer is commitID. keyMutations is accepted (and
// may be used for logging/metrics by the caller) purely because the
// intention log's Unsaved entry that drives this call carries one; it does
// not influence the derived L1's identity.
func (l L1) GetChildWithTree(commitID id.Id, newTree idmap.IdMap, _ KeyMutationSummary) L1 {
	ancestry := make([]id.Id, 0, len(l.Ancestry)+1)
	ancestry = append(ancestry, l.Ancestry...)
	ancestry = append(ancestry, l.id)

	child := L1{
		Tree:     newTree,
		Parent:   l.id,
		Metadata: commitID,
		Ancestry: ancestry,
	}
	canonical, err := codec.Marshal(child.encoding())
	if err != nil {
		// The encoding only depends on already-validated fixed-width
		// fields; a marshal failure here means a bug in the codec, not a
		// reachable runtime condition.
		panic(fmt.Errorf("entity: could not encode derived L1: %w", err))
	}
	child.id = id.Build(canonical)
	return child
}

// Loader is the store read side WithCheckpointAsNecessary needs to load a
// prior Checkpoint by Id. The in-memory map of not-yet-persisted
// checkpoints from the same collapse batch is consulted before the Loader
// is asked.
type Loader interface {
	LoadSingle(ctx context.Context, kind store.Kind, id id.Id) ([]byte, error)
}

func loadCheckpoint(ctx context.Context, loader Loader, unsavedCheckpoints map[id.Id]Checkpoint, checkpointID id.Id) (Checkpoint, error) {
	if checkpointID.IsEmpty() {
		return Checkpoint{}, nil
	}
	if cp, ok := unsavedCheckpoints[checkpointID]; ok {
		return cp, nil
	}
	raw, err := loader.LoadSingle(ctx, store.KindCheckpoint, checkpointID)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("entity: could not load checkpoint %s: %w", checkpointID, err)
	}
	return DecodeCheckpoint(checkpointID, raw)
}

// WithCheckpointAsNecessary returns l unchanged if its ancestry is still
// within budget. Once the ancestry grows past maxAncestryLength, it folds
// every ancestor older than the newest maxAncestryLength (plus whatever
// the previous checkpoint in the chain already summarised) into a fresh
// Checkpoint, returning the
// updated L1 (with a shorter Ancestry and a new Checkpoint pointer) along
// with the SaveOp needed to persist that Checkpoint. unsavedCheckpoints
// lets a cascade of L1s derived earlier in the same collapse batch resolve
// each other's checkpoints without a store round trip; the new checkpoint
// is recorded into that same map before returning, so the caller never
// has to re-decode the SaveOp it was just handed.
func (l L1) WithCheckpointAsNecessary(ctx context.Context, loader Loader, unsavedCheckpoints map[id.Id]Checkpoint) (L1, *store.SaveOp, error) {
	if len(l.Ancestry) <= maxAncestryLength {
		return l, nil, nil
	}

	boundary := len(l.Ancestry) - maxAncestryLength
	folded := l.Ancestry[:boundary]
	kept := append([]id.Id(nil), l.Ancestry[boundary:]...)

	prior, err := loadCheckpoint(ctx, loader, unsavedCheckpoints, l.Checkpoint)
	if err != nil {
		return L1{}, nil, err
	}

	combined := make([]id.Id, 0, len(prior.Ancestors)+len(folded))
	combined = append(combined, prior.Ancestors...)
	combined = append(combined, folded...)

	cp, err := NewCheckpoint(combined)
	if err != nil {
		return L1{}, nil, err
	}

	data, err := cp.Encode()
	if err != nil {
		return L1{}, nil, err
	}

	updated := l
	updated.Checkpoint = cp.Id()
	updated.Ancestry = kept

	canonical, err := codec.Marshal(updated.encoding())
	if err != nil {
		return L1{}, nil, err
	}
	updated.id = id.Build(canonical)

	if unsavedCheckpoints != nil {
		unsavedCheckpoints[cp.Id()] = cp
	}

	return updated, &store.SaveOp{Kind: store.KindCheckpoint, Id: cp.Id(), Data: data}, nil
}
