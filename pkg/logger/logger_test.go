package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry))
		out = append(out, entry)
	}
	return out
}

func TestLogger_JSONFieldsAndCaller(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "json", Output: &buf})

	Info("cart line added", map[string]interface{}{"cart_item_id": "abc"})
	Error("persist failed", errors.New("boom"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "cart line added", entries[0]["message"])
	assert.Equal(t, "abc", entries[0]["cart_item_id"])
	assert.Contains(t, entries[0]["caller"], "logger_test.go")

	assert.Equal(t, "error", entries[1]["level"])
	assert.Equal(t, "boom", entries[1]["error"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { Initialize(Config{Level: "info", Format: "json", Output: &bytes.Buffer{}}) })

	Debug("hidden")
	Info("hidden")
	Warn("shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["message"])
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "info", Format: "json", Output: &buf})

	WithContext(map[string]interface{}{"session_id": "s-1"}).Info("hello")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "s-1", entries[0]["session_id"])
}
