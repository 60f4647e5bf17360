// Package idmap implements the fixed-width IdMap: the dense slot -> Id
// frontier that every L1 tree tier owns.
package idmap

import (
	"fmt"

	"github.com/OneOfOne/xxhash"

	"github.com/projectnessie/nessie-core/internal/id"
)

// Size is L1.SIZE: the fixed number of slots an IdMap always carries.
const Size = 43

// IdMap is an immutable, fixed-length vector of Ids. Every operation that
// "mutates" an IdMap returns a new value; the zero value is a valid, fully
// empty map (every slot holds id.Empty).
type IdMap struct {
	slots [Size]id.Id
}

// Empty returns the IdMap with every slot set to id.Empty.
func Empty() IdMap {
	return IdMap{}
}

// Get returns the Id stored at pos.
func (m IdMap) Get(pos int) id.Id {
	if pos < 0 || pos >= Size {
		panic(fmt.Sprintf("idmap: position %d out of range [0,%d)", pos, Size))
	}
	return m.slots[pos]
}

// Size always returns idmap.Size; the invariant that every IdMap has
// exactly this many slots is enforced by the type itself, not by a runtime
// check.
func (m IdMap) Size() int {
	return Size
}

// WithId returns a new IdMap equal to m except that slot pos holds newID.
func (m IdMap) WithId(pos int, newID id.Id) IdMap {
	if pos < 0 || pos >= Size {
		panic(fmt.Sprintf("idmap: position %d out of range [0,%d)", pos, Size))
	}
	out := m
	out.slots[pos] = newID
	return out
}

// Equal reports whether two IdMaps hold the same Id in every slot.
func (m IdMap) Equal(other IdMap) bool {
	return m.slots == other.slots
}

// Hash computes an order-sensitive, non-cryptographic structural hash of
// the map for in-process use. It is not a content Id: two IdMaps with the
// same Hash may still differ, and only Equal decides identity.
func (m IdMap) Hash() uint64 {
	h := xxhash.New64()
	for _, slot := range m.slots {
		_, _ = h.Write(slot[:])
	}
	return h.Sum64()
}

// Encode returns the slots in order, for use by an entity's canonical
// encoder. The returned slice must not be mutated by the caller.
func (m IdMap) Encode() []id.Id {
	return m.slots[:]
}

// FromSlots builds an IdMap from exactly Size ids, as produced by Encode on
// the decoding side of a canonical encoding.
func FromSlots(slots []id.Id) (IdMap, error) {
	if len(slots) != Size {
		return IdMap{}, fmt.Errorf("idmap: expected %d slots, got %d", Size, len(slots))
	}
	var out IdMap
	copy(out.slots[:], slots)
	return out, nil
}
