package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestAuditLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "kspar.audit.jsonl")
	a, err := New(path)
	require.NoError(t, err)

	ctx := context.Background()
	a.RecordSession(ctx, "s_abc", "Parser", nil)
	a.RecordSession(ctx, "s_abc", "faqgen", errors.New("connection refused"))
	a.RecordRun(ctx, "s_abc", "run-1", "partial", 1500*time.Millisecond, map[string]string{"FAQGenerator": "boom"})
	require.NoError(t, a.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 3)

	assert.Equal(t, "session", lines[0]["event_type"])
	assert.Equal(t, "register:Parser", lines[0]["action"])
	assert.Equal(t, "success", lines[0]["status"])

	assert.Equal(t, "failed", lines[1]["status"])
	assert.Equal(t, "connection refused", lines[1]["metadata"].(map[string]any)["error"])

	assert.Equal(t, "pipeline", lines[2]["event_type"])
	assert.Equal(t, "s_abc", lines[2]["actor"])
	metadata := lines[2]["metadata"].(map[string]any)
	assert.Equal(t, "run-1", metadata["run_id"])
	assert.Equal(t, float64(1500), metadata["duration_ms"])
	assert.NotNil(t, metadata["errors"])
}

func TestAuditLoggerTraceID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a, err := New(path)
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "pipeline.run")

	a.RecordRun(ctx, "s_abc", "run-1", "success", time.Second, nil)
	span.End()
	require.NoError(t, a.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, span.SpanContext().TraceID().String(), lines[0]["trace_id"])
}

func TestNilLogger(t *testing.T) {
	var a *Logger
	a.RecordRun(context.Background(), "s", "r", "success", 0, nil)
	assert.NoError(t, a.Close())
}
