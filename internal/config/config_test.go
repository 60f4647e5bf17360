package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/projectnessie/nessie-core/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 5, cfg.P2CommitAttempts)
	assert.True(t, cfg.WaitOnCollapse)
	assert.False(t, cfg.EnableTracing)
	assert.False(t, cfg.CompressEntities)
}

func TestNew_AppliesOptionsOverDefaults(t *testing.T) {
	cfg := config.New(
		config.WithP2CommitAttempts(10),
		config.WithWaitOnCollapse(false),
		config.WithTracing(true),
		config.WithCompressEntities(true),
	)
	assert.Equal(t, 10, cfg.P2CommitAttempts)
	assert.False(t, cfg.WaitOnCollapse)
	assert.True(t, cfg.EnableTracing)
	assert.True(t, cfg.CompressEntities)
}
