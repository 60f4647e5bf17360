package branch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/projectnessie/nessie-core/internal/contentskey"
)

// KeyMutationKind tags whether a KeyMutation adds or removes a key.
type KeyMutationKind string

const (
	KeyMutationAddition KeyMutationKind = "ADDITION"
	KeyMutationRemoval  KeyMutationKind = "REMOVAL"
)

// KeyMutation is one entry of a commit's pending key changes.
type KeyMutation struct {
	Kind KeyMutationKind
	Key  contentskey.Key
}

// KeyMutationList is a set-like list of KeyMutation: equality and canonical
// ordering are both independent of insertion order. Two lists with the same
// elements in different orders compare Equal and encode to identical bytes.
type KeyMutationList []KeyMutation

func sortKey(m KeyMutation) string {
	return string(m.Kind) + "\x00" + m.Key.ToPathString()
}

// Sorted returns a copy of the list ordered by (kind, key), the canonical
// order this package persists in.
func (l KeyMutationList) Sorted() KeyMutationList {
	out := make(KeyMutationList, len(l))
	copy(out, l)
	sort.Slice(out, func(i, j int) bool {
		return sortKey(out[i]) < sortKey(out[j])
	})
	return out
}

// Equal reports whether two lists hold the same mutations, ignoring order.
func (l KeyMutationList) Equal(other KeyMutationList) bool {
	if len(l) != len(other) {
		return false
	}
	a, b := l.Sorted(), other.Sorted()
	for i := range a {
		if a[i].Kind != b[i].Kind || !a[i].Key.Equal(b[i].Key) {
			return false
		}
	}
	return true
}

// String renders the list for debugging/logging.
func (l KeyMutationList) String() string {
	sorted := l.Sorted()
	parts := make([]string, len(sorted))
	for i, m := range sorted {
		parts[i] = fmt.Sprintf("%s(%s)", m.Kind, m.Key)
	}
	return strings.Join(parts, ",")
}
