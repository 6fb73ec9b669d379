package tcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerConfig_Validate(t *testing.T) {
	t.Run("nil config rejected", func(t *testing.T) {
		var cfg *ServerConfig
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("addr required", func(t *testing.T) {
		cfg := &ServerConfig{}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("defaults applied", func(t *testing.T) {
		cfg := &ServerConfig{Addr: "127.0.0.1:0"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "tcp", cfg.Network)
		assert.Equal(t, 256, cfg.FlushWorkers)
		assert.Equal(t, 4096, cfg.Write.ChunkSize)
		assert.Equal(t, 64, cfg.Write.QueueCapacity)
	})

	t.Run("negative write config rejected", func(t *testing.T) {
		cfg := &ServerConfig{Addr: "127.0.0.1:0"}
		cfg.Write.ChunkSize = -1
		assert.Error(t, cfg.Validate())
	})
}

func TestClientConfig_Validate(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		cfg := &ClientConfig{}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "tcp", cfg.Network)
		assert.Equal(t, 64*1024, cfg.ReadBufferSize)
		assert.Equal(t, 64, cfg.FlushWorkers)
	})
}

func TestDefaultConfigs(t *testing.T) {
	srv := DefaultServerConfig()
	require.NoError(t, srv.Validate())
	assert.Equal(t, "0.0.0.0:9000", srv.Addr)

	cli := DefaultClientConfig()
	require.NoError(t, cli.Validate())
	assert.True(t, cli.TCPNoDelay)
}
