package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tvkcanada/tvk-be/internal/config"
)

func TestInitSetsLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	Init(config.LogConfig{Level: "warn", JSON: true})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	Init(config.LogConfig{Level: "nonsense", JSON: true})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tvk.log")
	Init(config.LogConfig{Level: "info", JSON: true, File: path, MaxSizeMB: 1})

	log.Info().Str("member", "TVK-00001").Msg("membership activated")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"member":"TVK-00001"`)
	assert.Contains(t, string(data), "membership activated")
}
