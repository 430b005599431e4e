package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestWithComponentJSON(t *testing.T) {
	var buf bytes.Buffer
	Setup("info", "json", &buf)

	WithComponent("dispatch").Info("hello", "pattern", "pipeline")

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "dispatch", out["component"])
	assert.Equal(t, "hello", out["msg"])
	assert.Equal(t, "pipeline", out["pattern"])
}

func TestSetupFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	Setup("warn", "text", &buf)

	Get().Info("quiet")
	assert.Zero(t, buf.Len())

	Get().Warn("loud")
	assert.Contains(t, buf.String(), "msg=loud")
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
