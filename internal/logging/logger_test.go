package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "production", "warn")
	logger.Info().Msg("dropped")
	logger.Warn().Str("form_id", "f1").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "f1", entry["form_id"])
	assert.Contains(t, entry, "time")
}

func TestNewWithWriter_Levels(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, NewWithWriter(&bytes.Buffer{}, "", "").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewWithWriter(&bytes.Buffer{}, "", "loud").GetLevel())
	assert.Equal(t, zerolog.DebugLevel, NewWithWriter(&bytes.Buffer{}, "", "DEBUG").GetLevel())
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "development", "info")
	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(buf.Bytes()))
}
