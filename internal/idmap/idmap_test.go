package idmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectnessie/nessie-core/internal/id"
	"github.com/projectnessie/nessie-core/internal/idmap"
)

func TestEmpty(t *testing.T) {
	m := idmap.Empty()

	assert.Equal(t, idmap.Size, m.Size())
	for i := 0; i < m.Size(); i++ {
		assert.True(t, m.Get(i).IsEmpty())
	}
}

func TestWithId_ImmutableUpdate(t *testing.T) {
	base := idmap.Empty()
	child := id.Build([]byte("child"))

	updated := base.WithId(3, child)

	assert.True(t, base.Get(3).IsEmpty(), "original map must be unmodified")
	assert.Equal(t, child, updated.Get(3))
	assert.False(t, base.Equal(updated))
}

func TestEqual(t *testing.T) {
	a := idmap.Empty().WithId(0, id.Build([]byte("a")))
	b := idmap.Empty().WithId(0, id.Build([]byte("a")))
	c := idmap.Empty().WithId(1, id.Build([]byte("a")))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestHash_OrderSensitive(t *testing.T) {
	x := id.Build([]byte("x"))
	y := id.Build([]byte("y"))

	a := idmap.Empty().WithId(0, x).WithId(1, y)
	b := idmap.Empty().WithId(0, y).WithId(1, x)

	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestFromSlots_RoundTrip(t *testing.T) {
	m := idmap.Empty().WithId(5, id.Build([]byte("five")))

	rebuilt, err := idmap.FromSlots(m.Encode())
	require.NoError(t, err)

	assert.True(t, m.Equal(rebuilt))
}

func TestFromSlots_WrongSize(t *testing.T) {
	_, err := idmap.FromSlots(make([]id.Id, 1))
	assert.Error(t, err)
}

func TestWithId_PanicsOutOfRange(t *testing.T) {
	assert.Panics(t, func() {
		idmap.Empty().WithId(idmap.Size, id.Empty)
	})
}
