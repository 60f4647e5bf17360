package entity

import (
	"github.com/projectnessie/nessie-core/internal/codec"
	"github.com/projectnessie/nessie-core/internal/id"
)

// Checkpoint summarises a run of an L1's older ancestors once the bounded
// ancestry list on the L1 itself grows past maxAncestryLength, so walking
// back through history stays O(1) amortised instead of O(depth).
type Checkpoint struct {
	id        id.Id
	Ancestors []id.Id
}

type checkpointEncoding struct {
	Ancestors []id.Id `cbor:"ancestors"`
}

// NewCheckpoint builds a Checkpoint and computes its content Id.
func NewCheckpoint(ancestors []id.Id) (Checkpoint, error) {
	canonical, err := codec.Marshal(checkpointEncoding{Ancestors: ancestors})
	if err != nil {
		return Checkpoint{}, err
	}
	return Checkpoint{id: id.Build(canonical), Ancestors: ancestors}, nil
}

// Id returns the Checkpoint's content Id.
func (c Checkpoint) Id() id.Id {
	return c.id
}

// Encode returns the canonical bytes for this Checkpoint.
func (c Checkpoint) Encode() ([]byte, error) {
	return codec.Marshal(checkpointEncoding{Ancestors: c.Ancestors})
}

// DecodeCheckpoint decodes canonical bytes into a Checkpoint, verifying the
// claimed Id.
func DecodeCheckpoint(claimed id.Id, canonical []byte) (Checkpoint, error) {
	if err := id.EnsureConsistent(claimed, canonical); err != nil {
		return Checkpoint{}, err
	}
	var enc checkpointEncoding
	if err := codec.Unmarshal(canonical, &enc); err != nil {
		return Checkpoint{}, err
	}
	return Checkpoint{id: claimed, Ancestors: enc.Ancestors}, nil
}
