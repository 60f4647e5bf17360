package badgerstore_test

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectnessie/nessie-core/internal/codec"
	"github.com/projectnessie/nessie-core/internal/id"
	"github.com/projectnessie/nessie-core/internal/store"
	"github.com/projectnessie/nessie-core/internal/store/badgerstore"
)

// inMemoryDB mirrors the teacher's testing/helpers/badger.go InMemoryDB
// helper: an ephemeral, in-process Badger instance for tests.
func inMemoryDB(t *testing.T) *badger.DB {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func newStore(t *testing.T) *badgerstore.Store {
	return badgerstore.New(zerolog.Nop(), inMemoryDB(t), false)
}

func newCompressingStore(t *testing.T) *badgerstore.Store {
	return badgerstore.New(zerolog.Nop(), inMemoryDB(t), true)
}

func TestSaveAndLoadSingle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	valueID := id.Build([]byte("value"))
	err := s.Save(ctx, []store.SaveOp{{Kind: store.KindValue, Id: valueID, Data: []byte("payload")}})
	require.NoError(t, err)

	got, err := s.LoadSingle(ctx, store.KindValue, valueID)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestLoadSingle_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.LoadSingle(ctx, store.KindValue, id.Build([]byte("missing")))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSave_IdempotentOnRepeatedContentId(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	op := store.SaveOp{Kind: store.KindValue, Id: id.Build([]byte("dup")), Data: []byte("dup")}

	require.NoError(t, s.Save(ctx, []store.SaveOp{op}))
	require.NoError(t, s.Save(ctx, []store.SaveOp{op}))

	got, err := s.LoadSingle(ctx, store.KindValue, op.Id)
	require.NoError(t, err)
	assert.Equal(t, op.Data, got)
}

func TestLoadMulti(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	a := id.Build([]byte("a"))
	b := id.Build([]byte("b"))
	require.NoError(t, s.Save(ctx, []store.SaveOp{
		{Kind: store.KindValue, Id: a, Data: []byte("a-data")},
		{Kind: store.KindValue, Id: b, Data: []byte("b-data")},
	}))

	missing := id.Build([]byte("missing"))
	got, err := s.LoadMulti(ctx, store.KindValue, []id.Id{a, b, missing})
	require.NoError(t, err)

	assert.Equal(t, []byte("a-data"), got[a])
	assert.Equal(t, []byte("b-data"), got[b])
	_, ok := got[missing]
	assert.False(t, ok)
}

func seedBranch(t *testing.T, s *badgerstore.Store, rec store.BranchRecord) {
	t.Helper()
	data, err := codec.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), []store.SaveOp{{Kind: store.KindRef, Id: rec.Id, Data: data}}))
}

func TestUpdate_ConditionHolds(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	branchID := id.Build([]byte("branch"))
	placeholder := id.Build([]byte("placeholder"))
	finalID := id.Build([]byte("final"))

	seedBranch(t, s, store.BranchRecord{
		Id:   branchID,
		Name: "main",
		Commits: []store.CommitEntryRecord{
			{Id: placeholder, Deltas: []store.UnsavedDeltaRecord{{Position: 1}}},
		},
	})

	var produced store.BranchRecord
	ok, err := s.Update(
		ctx, store.KindRef, branchID,
		store.AndUpdate(
			store.RemoveClause(store.CommitField(0, store.FieldDeltas)),
			store.RemoveClause(store.CommitField(0, store.FieldKeys)),
			store.SetClause(store.CommitField(0, store.FieldId), finalID),
		),
		store.Equals(store.CommitField(0, store.FieldId), placeholder),
		func(data []byte) { require.NoError(t, codec.Unmarshal(data, &produced)) },
	)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, finalID, produced.Commits[0].Id)
	assert.Nil(t, produced.Commits[0].Deltas)
}

func TestUpdate_ConditionMismatchReturnsFalseNotError(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	branchID := id.Build([]byte("branch-2"))
	seedBranch(t, s, store.BranchRecord{
		Id:      branchID,
		Commits: []store.CommitEntryRecord{{Id: id.Build([]byte("actual"))}},
	})

	ok, err := s.Update(
		ctx, store.KindRef, branchID,
		store.SetClause(store.CommitField(0, store.FieldId), id.Build([]byte("new"))),
		store.Equals(store.CommitField(0, store.FieldId), id.Build([]byte("wrong-guess"))),
		nil,
	)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdate_MissingReferenceIsError(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Update(ctx, store.KindRef, id.Build([]byte("nope")), nil, nil, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// TestCompressEntities_SaveAndLoadRoundTrips confirms a Store built with
// compress=true still returns exactly the bytes that were saved: the
// compression is transparent to callers, even though what Badger physically
// holds on disk is the zstd-compressed form.
func TestCompressEntities_SaveAndLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := newCompressingStore(t)

	valueID := id.Build([]byte("value"))
	payload := []byte("a payload long enough that compression actually does something useful to it, repeated, repeated, repeated")
	require.NoError(t, s.Save(ctx, []store.SaveOp{{Kind: store.KindValue, Id: valueID, Data: payload}}))

	got, err := s.LoadSingle(ctx, store.KindValue, valueID)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCompressEntities_LoadMultiRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := newCompressingStore(t)

	a := id.Build([]byte("a"))
	b := id.Build([]byte("b"))
	require.NoError(t, s.Save(ctx, []store.SaveOp{
		{Kind: store.KindValue, Id: a, Data: []byte("a-data")},
		{Kind: store.KindValue, Id: b, Data: []byte("b-data")},
	}))

	got, err := s.LoadMulti(ctx, store.KindValue, []id.Id{a, b})
	require.NoError(t, err)
	assert.Equal(t, []byte("a-data"), got[a])
	assert.Equal(t, []byte("b-data"), got[b])
}

// TestCompressEntities_UpdateRoundTrips confirms the conditional Update path
// decompresses before decoding and re-compresses before writing back, and
// that the producer callback still sees the uncompressed record.
func TestCompressEntities_UpdateRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := newCompressingStore(t)

	branchID := id.Build([]byte("branch-compressed"))
	placeholder := id.Build([]byte("placeholder"))
	finalID := id.Build([]byte("final"))

	seedBranch(t, s, store.BranchRecord{
		Id:   branchID,
		Name: "main",
		Commits: []store.CommitEntryRecord{
			{Id: placeholder, Deltas: []store.UnsavedDeltaRecord{{Position: 1}}},
		},
	})

	var produced store.BranchRecord
	ok, err := s.Update(
		ctx, store.KindRef, branchID,
		store.SetClause(store.CommitField(0, store.FieldId), finalID),
		store.Equals(store.CommitField(0, store.FieldId), placeholder),
		func(data []byte) { require.NoError(t, codec.Unmarshal(data, &produced)) },
	)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, finalID, produced.Commits[0].Id)

	raw, err := s.LoadSingle(ctx, store.KindRef, branchID)
	require.NoError(t, err)
	var reloaded store.BranchRecord
	require.NoError(t, codec.Unmarshal(raw, &reloaded))
	assert.Equal(t, finalID, reloaded.Commits[0].Id)
}
