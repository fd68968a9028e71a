package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Setup(tt.in, &bytes.Buffer{}), tt.in)
	}

	var buf bytes.Buffer
	Setup("warn", &buf)
	log.Info().Msg("hidden")
	log.Warn().Str("command", "ping").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "command=ping")
}

func TestSetupWithFile(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "bot.log")
	var console bytes.Buffer
	lvl, closer := SetupWithFile("debug", &console, path)
	assert.Equal(t, zerolog.DebugLevel, lvl)

	log.Debug().Str("outcome", "ran").Msg("dispatched")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"outcome":"ran"`)
	assert.Contains(t, console.String(), "outcome=ran")

	_, closer = SetupWithFile("info", &console, "")
	assert.NoError(t, closer.Close())
}
