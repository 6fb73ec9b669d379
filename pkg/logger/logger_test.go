package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		l, err := New(nil)
		require.NoError(t, err)
		assert.Equal(t, InfoLevel, l.config.Level)
		l.Info("hello", zap.String("k", "v"))
	})

	t.Run("partial config merged with defaults", func(t *testing.T) {
		l, err := New(&Config{Level: DebugLevel})
		require.NoError(t, err)
		assert.Equal(t, DebugLevel, l.config.Level)
		assert.Equal(t, ConsoleFormat, l.config.Format)
	})

	t.Run("file output requires path", func(t *testing.T) {
		_, err := New(&Config{EnableFile: true})
		assert.ErrorIs(t, err, ErrInvalidOutputPath)
	})

	t.Run("file output writes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.log")
		l, err := New(&Config{
			Level:      DebugLevel,
			Format:     JSONFormat,
			EnableFile: true,
			OutputPath: path,
		})
		require.NoError(t, err)
		l.Info("to file")
		_ = l.Sync()
		assert.FileExists(t, path)
	})
}

func TestNamed(t *testing.T) {
	l, err := New(nil)
	require.NoError(t, err)

	named := l.Named("writebuf")
	assert.NotNil(t, named)
	named.Info("named logger works")
}

func TestNoop(t *testing.T) {
	l := NewNoop()
	l.Debug("ignored")
	l.Info("ignored")
	l.Warn("ignored")
	l.Error("ignored")
	assert.Same(t, l, l.Named("x"))
	assert.NoError(t, l.Sync())
}
