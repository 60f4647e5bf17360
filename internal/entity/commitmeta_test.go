package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectnessie/nessie-core/internal/entity"
)

func TestCommitMeta_EncodeDecodeRoundTrip(t *testing.T) {
	m, err := entity.NewCommitMeta("bob", "bob", "bob@example.com", "initial load", 1700000000000, map[string]string{"app.id": "loader-1"})
	require.NoError(t, err)

	canonical, err := m.Encode()
	require.NoError(t, err)

	decoded, err := entity.DecodeCommitMeta(m.Id(), canonical)
	require.NoError(t, err)
	assert.Equal(t, m.Message, decoded.Message)
	assert.Equal(t, m.Properties, decoded.Properties)
	assert.Equal(t, m.Id(), decoded.Id())
}

func TestCommitMeta_DifferentMessageDifferentId(t *testing.T) {
	a, err := entity.NewCommitMeta("bob", "bob", "bob@example.com", "first", 1, nil)
	require.NoError(t, err)
	b, err := entity.NewCommitMeta("bob", "bob", "bob@example.com", "second", 1, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Id(), b.Id())
}
