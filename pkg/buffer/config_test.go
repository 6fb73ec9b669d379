package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("nil config rejected", func(t *testing.T) {
		var cfg *Config
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("defaults applied", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, 1<<20, cfg.PageSize)
		assert.Equal(t, 4, cfg.MaxPages)
	})

	t.Run("negative values rejected", func(t *testing.T) {
		assert.ErrorIs(t, (&Config{PageSize: -1}).Validate(), ErrInvalidConfig)
		assert.ErrorIs(t, (&Config{MaxPages: -1}).Validate(), ErrInvalidConfig)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.DisableDirect)
}
