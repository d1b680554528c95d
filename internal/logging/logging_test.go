package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatText, ParseFormat("tint"))
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatAuto, ParseFormat("yaml"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestResolveDefaults(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Resolve(true, "", "").Level)
	assert.Equal(t, slog.LevelInfo, Resolve(false, "", "").Level)
	assert.Equal(t, slog.LevelError, Resolve(true, "json", "error").Level)
}

func TestNewJSONWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: FormatAuto, Level: slog.LevelInfo, Output: &buf})
	l.Debug("hidden")
	l.Info("entry added", "id", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "entry added", rec["msg"])
	assert.EqualValues(t, 3, rec["id"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: FormatText, Level: slog.LevelInfo, Output: &buf}).Info("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(buf.Bytes()))
}
