// Package storetest provides a hand-written, in-memory store.Store for
// tests: New builds an empty store, every method works against an
// in-process map, and Update alone can be replaced through its
// overridable UpdateFunc field.
package storetest

import (
	"context"
	"sync"

	"github.com/projectnessie/nessie-core/internal/codec"
	"github.com/projectnessie/nessie-core/internal/id"
	"github.com/projectnessie/nessie-core/internal/store"
)

// Store is an in-memory, concurrency-safe store.Store for tests, with
// hooks to inject failures or forced condition outcomes.
type Store struct {
	mu   sync.Mutex
	data map[string][]byte

	// UpdateFunc, when set, replaces the default condition/update
	// evaluation entirely -- used to simulate an always-losing store for
	// the retry-budget-exhausted scenario.
	UpdateFunc func(ctx context.Context, kind store.Kind, id id.Id, update store.UpdateExpr, condition store.ConditionExpr, producer func([]byte)) (bool, error)
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func key(kind store.Kind, id id.Id) string {
	return string(kind) + "/" + id.String()
}

func (s *Store) LoadSingle(_ context.Context, kind store.Kind, entityID id.Id) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[key(kind, entityID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return data, nil
}

func (s *Store) LoadMulti(_ context.Context, kind store.Kind, ids []id.Id) (map[id.Id][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[id.Id][]byte)
	for _, i := range ids {
		if data, ok := s.data[key(kind, i)]; ok {
			out[i] = data
		}
	}
	return out, nil
}

func (s *Store) Save(_ context.Context, ops []store.SaveOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		s.data[key(op.Kind, op.Id)] = op.Data
	}
	return nil
}

func (s *Store) Delete(_ context.Context, kind store.Kind, entityID id.Id) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key(kind, entityID))
	return nil
}

func (s *Store) Update(ctx context.Context, kind store.Kind, entityID id.Id, update store.UpdateExpr, condition store.ConditionExpr, producer func([]byte)) (bool, error) {
	if s.UpdateFunc != nil {
		return s.UpdateFunc(ctx, kind, entityID, update, condition, producer)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[key(kind, entityID)]
	if !ok {
		return false, store.ErrNotFound
	}

	var rec store.BranchRecord
	if err := codec.Unmarshal(raw, &rec); err != nil {
		return false, err
	}

	if !store.Evaluate(condition, rec) {
		return false, nil
	}

	mutated := rec.Clone()
	store.Apply(update, &mutated)

	newData, err := codec.Marshal(mutated)
	if err != nil {
		return false, err
	}
	s.data[key(kind, entityID)] = newData

	if producer != nil {
		producer(newData)
	}
	return true, nil
}

// PutBranchRecord seeds the store with an already-encoded branch record,
// for test setup.
func (s *Store) PutBranchRecord(rec store.BranchRecord) error {
	data, err := codec.Marshal(rec)
	if err != nil {
		return err
	}
	return s.Save(context.Background(), []store.SaveOp{{Kind: store.KindRef, Id: rec.Id, Data: data}})
}

// AlwaysConflict returns an UpdateFunc that always reports a condition
// mismatch without touching storage, for the retry-budget-exhausted
// scenario (S4).
func AlwaysConflict() func(context.Context, store.Kind, id.Id, store.UpdateExpr, store.ConditionExpr, func([]byte)) (bool, error) {
	return func(context.Context, store.Kind, id.Id, store.UpdateExpr, store.ConditionExpr, func([]byte)) (bool, error) {
		return false, nil
	}
}
