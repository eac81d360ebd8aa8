// Package audit appends one JSON line per session registration and pipeline
// run to an audit file.
package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Event types
const (
	TypeSession  = "session"
	TypePipeline = "pipeline"
)

// Event is one audit record
type Event struct {
	Type      string         `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	Actor     string         `json:"actor,omitempty"` // session ID
	Action    string         `json:"action"`          // e.g. "register:descript", "run"
	Status    string         `json:"status"`          // success, partial, failed
	Metadata  map[string]any `json:"metadata,omitempty"`
	TraceID   string         `json:"trace_id,omitempty"`
}

// Logger records audit events. A nil *Logger discards everything.
type Logger struct {
	logger zerolog.Logger
	mu     sync.Mutex
	file   *os.File
}

// New opens path for appending.
func New(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	return &Logger{
		logger: zerolog.New(file).With().Timestamp().Logger(),
		file:   file,
	}, nil
}

// Record writes event and adds it to the current span, if any.
func (a *Logger) Record(ctx context.Context, event Event) {
	if a == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		event.TraceID = span.SpanContext().TraceID().String()

		span.AddEvent(event.Action, trace.WithAttributes(
			attribute.String("audit.type", event.Type),
			attribute.String("audit.status", event.Status),
			attribute.String("audit.actor", event.Actor),
		))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Str("event_type", event.Type).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("status", event.Status).
		Str("trace_id", event.TraceID)

	if event.Metadata != nil {
		entry.Interface("metadata", event.Metadata)
	}

	entry.Msg("")
}

// Close closes the audit file
func (a *Logger) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

// RecordSession records the registration of sessionID with one agent app.
func (a *Logger) RecordSession(ctx context.Context, sessionID, app string, err error) {
	event := Event{
		Type:   TypeSession,
		Actor:  sessionID,
		Action: "register:" + app,
		Status: "success",
	}
	if err != nil {
		event.Status = "failed"
		event.Metadata = map[string]any{"error": err.Error()}
	}
	a.Record(ctx, event)
}

// RecordRun records the outcome of one pipeline run.
func (a *Logger) RecordRun(ctx context.Context, sessionID, runID, status string, duration time.Duration, stepErrors map[string]string) {
	metadata := map[string]any{
		"run_id":      runID,
		"duration_ms": duration.Milliseconds(),
	}
	if len(stepErrors) > 0 {
		metadata["errors"] = stepErrors
	}
	a.Record(ctx, Event{
		Type:     TypePipeline,
		Actor:    sessionID,
		Action:   "run",
		Status:   status,
		Metadata: metadata,
	})
}
