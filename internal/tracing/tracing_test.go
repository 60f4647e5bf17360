package tracing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectnessie/nessie-core/internal/tracing"
)

func TestDisabledTracer_StartIsNoOp(t *testing.T) {
	tr := tracing.New(false)
	ctx, span := tr.Start(context.Background(), "op")
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
	require.NoError(t, tr.Shutdown(context.Background()))
}

func TestEnabledTracer_StartProducesRecordingSpan(t *testing.T) {
	tr := tracing.New(true)
	defer tr.Shutdown(context.Background())

	_, span := tr.Start(context.Background(), "op")
	defer span.End()
	assert.True(t, span.IsRecording())

	tracing.SetOperation(span, "collapseIntentionLog", "main")
	tracing.SetAttemptResult(span, 2, 3, true)
}
