package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestInitWriterFiltersByLevel(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer
	InitWriter("warn", &buf)

	Info("hidden message")
	Warn("visible message", "object_id", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")
	assert.Contains(t, out, "object_id=7")
}

func TestInitWriterProductionJSON(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	var buf bytes.Buffer
	InitWriter("info", &buf)

	With("component", "test").Info("hello")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"component":"test"`)
}
