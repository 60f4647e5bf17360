package contentskey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/projectnessie/nessie-core/internal/contentskey"
)

// TestScenario_S6 exercises scenario S6 from the spec exactly:
// of(["a.b","c"]).toPathString() == "a b.c" and reverses.
func TestScenario_S6(t *testing.T) {
	k, err := contentskey.Of("a.b", "c")
	require.NoError(t, err)

	assert.Equal(t, "a\x00b.c", k.ToPathString())

	back, err := contentskey.FromPathString(k.ToPathString())
	require.NoError(t, err)
	assert.True(t, k.Equal(back))
}

func TestOf_RejectsNulByte(t *testing.T) {
	_, err := contentskey.Of("a\x00b")
	assert.ErrorIs(t, err, contentskey.ErrNulByte)
}

// TestProperty_RoundTrip checks testable property 7: fromPathString(
// toPathString(k)) == k for every key whose segments contain no NUL.
func TestProperty_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 5).Draw(t, "n")
		segments := make([]string, n)
		for i := range segments {
			segments[i] = rapid.StringMatching(`[a-zA-Z0-9_ -]{0,8}`).Draw(t, "segment")
		}

		k, err := contentskey.Of(segments...)
		if err != nil {
			t.Fatalf("Of rejected a NUL-free key: %v", err)
		}

		back, err := contentskey.FromPathString(k.ToPathString())
		if err != nil {
			t.Fatalf("FromPathString failed: %v", err)
		}
		if !k.Equal(back) {
			t.Fatalf("round trip mismatch: %v != %v", k.Segments(), back.Segments())
		}
	})
}
