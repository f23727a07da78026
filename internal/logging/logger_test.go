package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New("DEBUG", &buf)

	logger.WithField("path", "/api/payments").WithError(errors.New("boom")).Error("upstream failed")

	var entry Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "upstream failed", entry.Message)
	assert.Equal(t, "boom", entry.Error)
	assert.Equal(t, "/api/payments", entry.Fields["path"])
	assert.NotEmpty(t, entry.Caller)
}

func TestLoggerDropsBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("WARN", &buf)

	logger.Info("ignored")
	logger.Debug("ignored")
	logger.Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Info("nothing")
		logger.WithField("k", "v").Error("nothing")
	})
}

func TestForContextStampsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New("INFO", &buf)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	logger.ForContext(ctx).WithField("path", "/admin/payments").Info("gated")
	logger.Info("untagged")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var tagged, untagged Entry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &tagged))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &untagged))
	assert.Equal(t, "req-42", tagged.RequestID)
	assert.Equal(t, "/admin/payments", tagged.Fields["path"])
	assert.Empty(t, untagged.RequestID)
}

func TestForContextWithoutRequestIDReturnsSameLogger(t *testing.T) {
	logger := New("INFO", io.Discard)
	assert.Same(t, logger, logger.ForContext(context.Background()))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestWithAddsBaseFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New("INFO", &buf).With(map[string]interface{}{"component": "proxy"})

	logger.WithField("resource", "payments").Info("relayed")

	var entry Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "proxy", entry.Fields["component"])
	assert.Equal(t, "payments", entry.Fields["resource"])
}

func TestWithFieldsDoesNotModifyCallerMap(t *testing.T) {
	logger := New("INFO", io.Discard)
	fields := map[string]interface{}{"path": "/"}

	logger.WithFields(fields).WithField("status", 200).Info("done")

	assert.Equal(t, map[string]interface{}{"path": "/"}, fields)
}

func TestErrorCallerIsCallSite(t *testing.T) {
	var buf bytes.Buffer
	logger := New("INFO", &buf)

	logger.Error("direct")
	logger.WithError(errors.New("x")).Error("built")

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry Entry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Contains(t, entry.Caller, "logger_test.go")
	}
}

func TestUnencodableFieldKeepsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := New("INFO", &buf)

	logger.WithField("ch", make(chan int)).Info("still written")

	var entry Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "still written", entry.Message)
	assert.Contains(t, entry.Fields, "fields_error")
}
