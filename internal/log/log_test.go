package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, Level(false, false))
	assert.Equal(t, zerolog.InfoLevel, Level(true, false))
	assert.Equal(t, zerolog.DebugLevel, Level(false, true))
	assert.Equal(t, zerolog.DebugLevel, Level(true, true))
}

func TestDefaultPathUsesStateHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "chattmpl", "chattmpl.log"), DefaultPath())
}

func TestInitWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.log")

	Init(false, true, path)
	Logger.Info().Str("preset", "chatml").Msg("rendered")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rendered")
	assert.Contains(t, string(data), "chatml")
	assert.Equal(t, zerolog.DebugLevel, Logger.GetLevel())
}
