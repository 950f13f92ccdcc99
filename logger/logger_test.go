package logger

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	closer, err := Init(Config{Level: "debug", Debug: true, Output: "stdout"})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.DebugLevel, GetLogger().GetLevel())
}

func TestInitInvalidLevel(t *testing.T) {
	_, err := Init(Config{Level: "loud", Output: "stderr"})
	assert.Error(t, err)
}

func TestInitFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onuwatch.log")

	closer, err := Init(Config{Level: "info", Output: path})
	require.NoError(t, err)

	Info().Str("board", "1").Msg("hello")
	require.NoError(t, closer.Close())

	assert.FileExists(t, path)
}

func TestSetDebug(t *testing.T) {
	SetDebug(true)
	assert.Equal(t, zerolog.DebugLevel, GetLogger().GetLevel())

	SetDebug(false)
	assert.Equal(t, zerolog.InfoLevel, GetLogger().GetLevel())
}

func TestWriterLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	c := l.WithComponent("dashboard")
	c.Warn().Int("board", 2).Msg("snapshot failed")

	assert.Contains(t, buf.String(), `"component":"dashboard"`)
	assert.Contains(t, buf.String(), `"board":2`)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.NotEmpty(t, config.Level)
	assert.NotEmpty(t, config.Output)
}
