package entity

import (
	"github.com/projectnessie/nessie-core/internal/codec"
	"github.com/projectnessie/nessie-core/internal/id"
	"github.com/projectnessie/nessie-core/internal/idmap"
)

// L2 is the middle tree tier: a fixed-width map from slot to L3 Id.
type L2 struct {
	id   id.Id
	Tree idmap.IdMap
}

type l2Encoding struct {
	Tree []id.Id `cbor:"tree"`
}

// EmptyL2 is the canonical empty L2; its Id is id.Empty.
var EmptyL2 = L2{id: id.Empty, Tree: idmap.Empty()}

// NewL2 builds an L2 from a tree and computes its content Id.
func NewL2(tree idmap.IdMap) (L2, error) {
	canonical, err := codec.Marshal(l2Encoding{Tree: tree.Encode()})
	if err != nil {
		return L2{}, err
	}
	return L2{id: id.Build(canonical), Tree: tree}, nil
}

// Id returns the L2's content Id.
func (l L2) Id() id.Id {
	return l.id
}

// Encode returns the canonical bytes for this L2.
func (l L2) Encode() ([]byte, error) {
	return codec.Marshal(l2Encoding{Tree: l.Tree.Encode()})
}

// DecodeL2 decodes canonical bytes into an L2, verifying the claimed Id.
func DecodeL2(claimed id.Id, canonical []byte) (L2, error) {
	if claimed.IsEmpty() {
		return EmptyL2, nil
	}
	if err := id.EnsureConsistent(claimed, canonical); err != nil {
		return L2{}, err
	}
	var enc l2Encoding
	if err := codec.Unmarshal(canonical, &enc); err != nil {
		return L2{}, err
	}
	tree, err := idmap.FromSlots(enc.Tree)
	if err != nil {
		return L2{}, err
	}
	return L2{id: claimed, Tree: tree}, nil
}
