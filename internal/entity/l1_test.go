package entity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectnessie/nessie-core/internal/entity"
	"github.com/projectnessie/nessie-core/internal/id"
	"github.com/projectnessie/nessie-core/internal/idmap"
	"github.com/projectnessie/nessie-core/internal/store"
)

// fakeLoader is a minimal entity.Loader backed by an in-memory map, used to
// test WithCheckpointAsNecessary without pulling in a real store.
type fakeLoader struct {
	data map[id.Id][]byte
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{data: make(map[id.Id][]byte)}
}

func (f *fakeLoader) put(i id.Id, data []byte) {
	f.data[i] = data
}

func (f *fakeLoader) LoadSingle(_ context.Context, _ store.Kind, i id.Id) ([]byte, error) {
	data, ok := f.data[i]
	if !ok {
		return nil, store.ErrNotFound
	}
	return data, nil
}

func TestEmptyL1_HasEmptyId(t *testing.T) {
	assert.True(t, entity.EmptyL1.Id().IsEmpty())
}

func TestL1_EncodeDecodeRoundTrip(t *testing.T) {
	tree := idmap.Empty().WithId(1, id.Build([]byte("l2-child")))
	l1 := entity.EmptyL1.GetChildWithTree(id.Build([]byte("commit-1")), tree, entity.KeyMutationSummary{Additions: 1})

	canonical, err := l1.Encode()
	require.NoError(t, err)

	decoded, err := entity.DecodeL1(l1.Id(), canonical)
	require.NoError(t, err)
	assert.True(t, decoded.Tree.Equal(l1.Tree))
	assert.Equal(t, l1.Parent, decoded.Parent)
	assert.Equal(t, l1.Metadata, decoded.Metadata)
	assert.Equal(t, l1.Ancestry, decoded.Ancestry)
}

func TestL1_GetChildWithTree_ChainsParentAndAncestry(t *testing.T) {
	tree1 := idmap.Empty().WithId(0, id.Build([]byte("a")))
	child1 := entity.EmptyL1.GetChildWithTree(id.Build([]byte("c1")), tree1, entity.KeyMutationSummary{})
	assert.Equal(t, entity.EmptyL1.Id(), child1.Parent)
	assert.Equal(t, []id.Id{entity.EmptyL1.Id()}, child1.Ancestry)

	tree2 := tree1.WithId(1, id.Build([]byte("b")))
	child2 := child1.GetChildWithTree(id.Build([]byte("c2")), tree2, entity.KeyMutationSummary{})
	assert.Equal(t, child1.Id(), child2.Parent)
	assert.Equal(t, []id.Id{entity.EmptyL1.Id(), child1.Id()}, child2.Ancestry)
}

func TestL1_WithCheckpointAsNecessary_NoOpBelowThreshold(t *testing.T) {
	loader := newFakeLoader()
	l1 := entity.EmptyL1.GetChildWithTree(id.Build([]byte("c1")), idmap.Empty(), entity.KeyMutationSummary{})

	updated, op, err := l1.WithCheckpointAsNecessary(context.Background(), loader, nil)
	require.NoError(t, err)
	assert.Nil(t, op)
	assert.Equal(t, l1, updated)
}

func TestL1_WithCheckpointAsNecessary_FoldsOldAncestry(t *testing.T) {
	loader := newFakeLoader()

	l1 := entity.EmptyL1
	for i := 0; i < 25; i++ {
		tree := l1.Tree.WithId(0, id.Build([]byte{byte(i)}))
		l1 = l1.GetChildWithTree(id.Build([]byte{byte(i), byte(i)}), tree, entity.KeyMutationSummary{})
	}
	require.Len(t, l1.Ancestry, 25)

	updated, op, err := l1.WithCheckpointAsNecessary(context.Background(), loader, nil)
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, store.KindCheckpoint, op.Kind)
	assert.Len(t, updated.Ancestry, 20)
	assert.False(t, updated.Checkpoint.IsEmpty())
	assert.NotEqual(t, l1.Id(), updated.Id())
}

func TestL1_WithCheckpointAsNecessary_ChainsPriorCheckpoint(t *testing.T) {
	loader := newFakeLoader()

	l1 := entity.EmptyL1
	for i := 0; i < 25; i++ {
		tree := l1.Tree.WithId(0, id.Build([]byte{byte(i)}))
		l1 = l1.GetChildWithTree(id.Build([]byte{byte(i), byte(i)}), tree, entity.KeyMutationSummary{})
	}
	firstCheckpointed, op, err := l1.WithCheckpointAsNecessary(context.Background(), loader, nil)
	require.NoError(t, err)
	require.NotNil(t, op)
	loader.put(op.Id, op.Data)

	l1 = firstCheckpointed
	for i := 25; i < 50; i++ {
		tree := l1.Tree.WithId(0, id.Build([]byte{byte(i)}))
		l1 = l1.GetChildWithTree(id.Build([]byte{byte(i), byte(i)}), tree, entity.KeyMutationSummary{})
	}
	require.Len(t, l1.Ancestry, 45)

	secondCheckpointed, op2, err := l1.WithCheckpointAsNecessary(context.Background(), loader, nil)
	require.NoError(t, err)
	require.NotNil(t, op2)

	decoded, err := entity.DecodeCheckpoint(op2.Id, op2.Data)
	require.NoError(t, err)
	assert.Greater(t, len(decoded.Ancestors), 5)
	assert.NotEqual(t, firstCheckpointed.Checkpoint, secondCheckpointed.Checkpoint)
}

func TestL1_WithCheckpointAsNecessary_UsesUnsavedCheckpointMap(t *testing.T) {
	loader := newFakeLoader() // deliberately never populated

	l1 := entity.EmptyL1
	for i := 0; i < 25; i++ {
		tree := l1.Tree.WithId(0, id.Build([]byte{byte(i)}))
		l1 = l1.GetChildWithTree(id.Build([]byte{byte(i), byte(i)}), tree, entity.KeyMutationSummary{})
	}
	firstCheckpointed, op, err := l1.WithCheckpointAsNecessary(context.Background(), loader, nil)
	require.NoError(t, err)
	require.NotNil(t, op)

	firstCheckpoint, err := entity.DecodeCheckpoint(op.Id, op.Data)
	require.NoError(t, err)
	unsaved := map[id.Id]entity.Checkpoint{firstCheckpoint.Id(): firstCheckpoint}

	l1 = firstCheckpointed
	for i := 25; i < 50; i++ {
		tree := l1.Tree.WithId(0, id.Build([]byte{byte(i)}))
		l1 = l1.GetChildWithTree(id.Build([]byte{byte(i), byte(i)}), tree, entity.KeyMutationSummary{})
	}

	_, op2, err := l1.WithCheckpointAsNecessary(context.Background(), loader, unsaved)
	require.NoError(t, err)
	require.NotNil(t, op2)
}

func TestL1_WithCheckpointAsNecessary_PopulatesUnsavedCheckpointMap(t *testing.T) {
	loader := newFakeLoader() // deliberately never populated

	l1 := entity.EmptyL1
	for i := 0; i < 25; i++ {
		tree := l1.Tree.WithId(0, id.Build([]byte{byte(i)}))
		l1 = l1.GetChildWithTree(id.Build([]byte{byte(i), byte(i)}), tree, entity.KeyMutationSummary{})
	}
	unsaved := make(map[id.Id]entity.Checkpoint)
	_, op, err := l1.WithCheckpointAsNecessary(context.Background(), loader, unsaved)
	require.NoError(t, err)
	require.NotNil(t, op)

	cp, ok := unsaved[op.Id]
	require.True(t, ok, "WithCheckpointAsNecessary should record its own checkpoint into unsavedCheckpoints")
	assert.Equal(t, op.Id, cp.Id())
}
