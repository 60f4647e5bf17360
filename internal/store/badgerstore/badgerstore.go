// Package badgerstore implements store.Store on top of Badger, the same
// embedded key-value engine the teacher's storage layer is built on.
// Badger's transactions already provide the optimistic concurrency control
// the Update contract needs: a transaction that raced with another writer
// fails to commit with badger.ErrConflict, which this package folds into
// the "condition did not hold" (false, nil) outcome rather than an error.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/projectnessie/nessie-core/internal/codec"
	"github.com/projectnessie/nessie-core/internal/id"
	"github.com/projectnessie/nessie-core/internal/store"
)

// loadMultiConcurrency bounds how many Badger read transactions a single
// LoadMulti call opens at once, so a batch of a few thousand ids does not
// spawn a few thousand goroutines.
const loadMultiConcurrency = 16

// Store is a Badger-backed store.Store.
type Store struct {
	db       *badger.DB
	log      zerolog.Logger
	compress bool
}

// New wraps an already-open Badger database. When compress is set, every
// value is zstd-compressed on the way in and decompressed on the way out;
// it has no bearing on content-hash computation, which always runs over
// the uncompressed canonical encoding upstream of this package.
func New(log zerolog.Logger, db *badger.DB, compress bool) *Store {
	return &Store{db: db, log: log.With().Str("component", "badgerstore").Logger(), compress: compress}
}

func key(kind store.Kind, id id.Id) []byte {
	out := make([]byte, 0, len(kind)+1+len(id))
	out = append(out, kind...)
	out = append(out, '/')
	out = append(out, id[:]...)
	return out
}

func (s *Store) encode(data []byte) ([]byte, error) {
	if !s.compress {
		return data, nil
	}
	return codec.Compress(data)
}

func (s *Store) decode(data []byte) ([]byte, error) {
	if !s.compress {
		return data, nil
	}
	return codec.Decompress(data)
}

// LoadSingle implements store.Store.
func (s *Store) LoadSingle(_ context.Context, kind store.Kind, entityID id.Id) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(kind, entityID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("badgerstore: could not get %s/%s: %w", kind, entityID, err)
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.decode(data)
}

// LoadMulti implements store.Store. Each id is fetched through its own
// read transaction, fanned out across a bounded pool of goroutines:
// Badger transactions are not safe to share across goroutines, so this
// is the concurrency granularity a batched multi-get can actually use.
func (s *Store) LoadMulti(ctx context.Context, kind store.Kind, ids []id.Id) (map[id.Id][]byte, error) {
	out := make(map[id.Id][]byte, len(ids))
	var mu sync.Mutex

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(loadMultiConcurrency)

	for _, entityID := range ids {
		entityID := entityID
		eg.Go(func() error {
			var data []byte
			err := s.db.View(func(txn *badger.Txn) error {
				item, err := txn.Get(key(kind, entityID))
				if errors.Is(err, badger.ErrKeyNotFound) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("badgerstore: could not get %s/%s: %w", kind, entityID, err)
				}
				data, err = item.ValueCopy(nil)
				return err
			})
			if err != nil {
				return err
			}
			if data == nil {
				return nil
			}
			decoded, err := s.decode(data)
			if err != nil {
				return err
			}
			mu.Lock()
			out[entityID] = decoded
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Save implements store.Store. It is idempotent because content-addressed
// ids are stable: writing a key that is already present just overwrites it
// with byte-identical data.
func (s *Store) Save(_ context.Context, ops []store.SaveOp) error {
	if len(ops) == 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			encoded, err := s.encode(op.Data)
			if err != nil {
				return fmt.Errorf("badgerstore: could not compress %s/%s: %w", op.Kind, op.Id, err)
			}
			if err := txn.Set(key(op.Kind, op.Id), encoded); err != nil {
				return fmt.Errorf("badgerstore: could not save %s/%s: %w", op.Kind, op.Id, err)
			}
		}
		return nil
	})
}

// Delete implements store.Store.
func (s *Store) Delete(_ context.Context, kind store.Kind, entityID id.Id) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(key(kind, entityID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Update implements store.Store's conditional update. The record at
// (kind, id) is decoded, the condition is evaluated against it in memory,
// and, if it holds, the update is applied and written back within the same
// Badger transaction. A transactional conflict detected at commit time (two
// concurrent Updates on the same key) is treated exactly like a condition
// mismatch: the caller reloads and retries, it does not see an error.
func (s *Store) Update(ctx context.Context, kind store.Kind, entityID id.Id, update store.UpdateExpr, condition store.ConditionExpr, producer func([]byte)) (bool, error) {
	var (
		conditionHeld bool
		newData       []byte
	)

	txnErr := s.db.Update(func(txn *badger.Txn) error {
		conditionHeld = false

		item, err := txn.Get(key(kind, entityID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("badgerstore: update target %s/%s: %w", kind, entityID, store.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("badgerstore: could not get %s/%s: %w", kind, entityID, err)
		}

		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		raw, err = s.decode(raw)
		if err != nil {
			return fmt.Errorf("badgerstore: could not decompress %s/%s: %w", kind, entityID, err)
		}

		var rec store.BranchRecord
		if err := codec.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("badgerstore: could not decode branch record: %w", err)
		}

		if !store.Evaluate(condition, rec) {
			return nil
		}
		conditionHeld = true

		mutated := rec.Clone()
		store.Apply(update, &mutated)

		newData, err = codec.Marshal(mutated)
		if err != nil {
			return fmt.Errorf("badgerstore: could not encode updated record: %w", err)
		}

		encoded, err := s.encode(newData)
		if err != nil {
			return fmt.Errorf("badgerstore: could not compress %s/%s: %w", kind, entityID, err)
		}

		return txn.Set(key(kind, entityID), encoded)
	})

	if errors.Is(txnErr, badger.ErrConflict) {
		s.log.Debug().Str("kind", string(kind)).Str("id", entityID.String()).Msg("update lost a transactional race, treating as condition mismatch")
		return false, nil
	}
	if txnErr != nil {
		return false, txnErr
	}
	if !conditionHeld {
		return false, nil
	}

	if producer != nil {
		producer(newData)
	}
	return true, nil
}
