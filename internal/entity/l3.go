package entity

import (
	"github.com/projectnessie/nessie-core/internal/codec"
	"github.com/projectnessie/nessie-core/internal/id"
	"github.com/projectnessie/nessie-core/internal/idmap"
)

// L3 is the bottom tree tier: a fixed-width map from slot to Value Id.
type L3 struct {
	id   id.Id
	Tree idmap.IdMap
}

type l3Encoding struct {
	Tree []id.Id `cbor:"tree"`
}

// EmptyL3 is the canonical empty L3; its Id is id.Empty, the same sentinel
// used for L1 and L2, so a branch with no data at all never has to touch
// the store to resolve its frontier.
var EmptyL3 = L3{id: id.Empty, Tree: idmap.Empty()}

// NewL3 builds an L3 from a tree and computes its content Id.
func NewL3(tree idmap.IdMap) (L3, error) {
	canonical, err := codec.Marshal(l3Encoding{Tree: tree.Encode()})
	if err != nil {
		return L3{}, err
	}
	return L3{id: id.Build(canonical), Tree: tree}, nil
}

// Id returns the L3's content Id.
func (l L3) Id() id.Id {
	return l.id
}

// Encode returns the canonical bytes for this L3.
func (l L3) Encode() ([]byte, error) {
	return codec.Marshal(l3Encoding{Tree: l.Tree.Encode()})
}

// DecodeL3 decodes canonical bytes into an L3, verifying the claimed Id.
func DecodeL3(claimed id.Id, canonical []byte) (L3, error) {
	if claimed.IsEmpty() {
		return EmptyL3, nil
	}
	if err := id.EnsureConsistent(claimed, canonical); err != nil {
		return L3{}, err
	}
	var enc l3Encoding
	if err := codec.Unmarshal(canonical, &enc); err != nil {
		return L3{}, err
	}
	tree, err := idmap.FromSlots(enc.Tree)
	if err != nil {
		return L3{}, err
	}
	return L3{id: claimed, Tree: tree}, nil
}
