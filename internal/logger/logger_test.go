package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l, closer, err := New(Options{Level: "warn", Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.WarnLevel, l.GetLevel())
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lszip.log")
	var buf bytes.Buffer
	l, closer, err := New(Options{Level: "debug", File: path, Console: &buf})
	require.NoError(t, err)

	cl := Component(l, "fetcher")
	cl.Debug().Str("range", "bytes=0-29").Msg("Range request")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &line))
	assert.Equal(t, "fetcher", line["component"])
	assert.Equal(t, "bytes=0-29", line["range"])
	assert.Equal(t, "debug", line["level"])
}

func TestNewBadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}
