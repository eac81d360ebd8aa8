package tracing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLogExporter(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(NewLogExporter(logger)))
	defer tp.Shutdown(context.Background())

	tracer := tp.Tracer("test")
	ctx, parent := tracer.Start(context.Background(), "pipeline.run")
	_, child := tracer.Start(ctx, "pipeline.step")
	child.SetAttributes(attribute.String("app", "faqgen"))
	EndSpan(child, errors.New("upstream timeout"))
	parent.End()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 span lines, got %d: %s", len(lines), buf.String())
	}

	step := lines[0]
	for _, want := range []string{`"span":"pipeline.step"`, `"app":"faqgen"`, `"status":"Error"`, `"error":"upstream timeout"`, `"parent_span_id"`} {
		if !strings.Contains(step, want) {
			t.Errorf("step span line missing %s: %s", want, step)
		}
	}

	if strings.Contains(lines[1], "parent_span_id") {
		t.Errorf("root span should have no parent: %s", lines[1])
	}
}
