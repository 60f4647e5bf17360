// Package store defines the abstract, content-addressed key-value Store
// that every other component in the catalog core relies on: typed loads,
// idempotent batched saves, and algebraic conditional updates. The
// physical backend is opaque; internal/store/badgerstore is the one this
// repository ships.
package store

import (
	"context"
	"errors"

	"github.com/projectnessie/nessie-core/internal/id"
)

// Kind tags the type of entity a stored value holds, so a single
// flat key-value namespace can host every tier of the entity graph plus
// reference records.
type Kind string

const (
	KindL1         Kind = "L1"
	KindL2         Kind = "L2"
	KindL3         Kind = "L3"
	KindValue      Kind = "VALUE"
	KindCommitMeta Kind = "COMMIT_META"
	KindCheckpoint Kind = "CHECKPOINT"
	KindRef        Kind = "REF"
)

// ErrNotFound is returned by LoadSingle and Update when no entity with the
// given kind and Id exists. LoadMulti does not return it.
var ErrNotFound = errors.New("store: not found")

// SaveOp describes one item of a batched, idempotent save. Writing an
// already-present content-addressed Id is defined to be a no-op, so
// replaying the same SaveOp twice is always safe.
type SaveOp struct {
	Kind Kind
	Id   id.Id
	Data []byte
}

// Store is the only interface the rest of the catalog core depends on.
type Store interface {
	// LoadSingle retrieves one entity. It returns ErrNotFound if absent.
	LoadSingle(ctx context.Context, kind Kind, id id.Id) ([]byte, error)

	// LoadMulti retrieves a batch of entities of the same kind. Ids with no
	// corresponding entity are simply absent from the result map.
	LoadMulti(ctx context.Context, kind Kind, ids []id.Id) (map[id.Id][]byte, error)

	// Save persists a batch of entities. Save is atomic at the per-item
	// level and idempotent: saving an Id that is already present rewrites
	// the same content-addressed bytes, leaving the stored value unchanged.
	Save(ctx context.Context, ops []SaveOp) error

	// Delete removes a single entity. Deleting an absent entity is not an
	// error.
	Delete(ctx context.Context, kind Kind, id id.Id) error

	// Update conditionally mutates the entity at (kind, id): if condition
	// evaluates to true against the entity currently in storage, update is
	// applied and the new value is reported to producer before Update
	// returns (true, nil). If condition evaluates to false, Update returns
	// (false, nil) — a condition mismatch is not an error, it is the
	// expected losing outcome of an optimistic race. Any other failure
	// (including a missing entity) is returned as a non-nil error.
	Update(ctx context.Context, kind Kind, id id.Id, update UpdateExpr, condition ConditionExpr, producer func([]byte)) (bool, error)
}
