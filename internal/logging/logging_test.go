package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, zerolog.InfoLevel, lvl)

	lvl, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	require.Equal(t, zerolog.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.InfoLevel)
	log.Debug().Msg("hidden")
	log.Info().Str("channel", "client-1").Msg("channel selected")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	require.Equal(t, "channel selected", entry["message"])
	require.Equal(t, "client-1", entry["channel"])
	require.Equal(t, "client-chat", entry["app"])
}

func TestSetupAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	log, closer, err := Setup("info", path)
	require.NoError(t, err)
	log.Info().Msg("one")
	require.NoError(t, closer.Close())

	log, closer, err = Setup("info", path)
	require.NoError(t, err)
	log.Info().Msg("two")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, bytes.Count(data, []byte("\n")))
}

func TestSetupBadLevel(t *testing.T) {
	_, closer, err := Setup("nope", filepath.Join(t.TempDir(), "x.log"))
	require.Error(t, err)
	require.NoError(t, closer.Close())
}
