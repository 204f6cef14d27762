package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(&Config{Level: LevelDebug, ServiceName: "washspec-service", Environment: "test", Output: buf})
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"DEBUG":     LevelDebug,
		" warning ": LevelWarn,
		"error":     LevelError,
		"":          LevelInfo,
		"verbose":   LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLogger_ScopedFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf).WithComponent("washspec")

	logger.WithOperation("filterOptions").
		WithFields(map[string]any{"field": "Buyer", "sheet": "Spec"}).
		WithError(errors.New("boom")).
		Error("Failed to load filter options")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "washspec-service", entry["service"])
	assert.Equal(t, "washspec", entry["component"])
	assert.Equal(t, "filterOptions", entry["operation"])
	assert.Equal(t, "Buyer", entry["field"])
	assert.Equal(t, "Spec", entry["sheet"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "ERROR", entry["level"])
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithUserID(ctx, "qc-inspector")
	logger.Audit(ctx, "washing_specs.updated", "order", "GPAR12345", map[string]any{"version": 2})

	entry := lastEntry(t, &buf)
	assert.Equal(t, "req-1", entry["requestId"])
	assert.Equal(t, "corr-1", entry["correlationId"])
	assert.Equal(t, "qc-inspector", entry["userId"])
	assert.Equal(t, "GPAR12345", entry["resourceId"])
	assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestLogger_WithErrorNil(t *testing.T) {
	logger := NewNop()
	assert.Same(t, logger, logger.WithError(nil))
}
