package tracing

import (
	"context"
	"testing"
)

func TestNewIDs(t *testing.T) {
	if NewTraceID() == "" || NewRunID() == "" {
		t.Fatal("empty ID generated")
	}
	if NewTraceID() == NewTraceID() {
		t.Error("NewTraceID returned duplicate IDs")
	}
	if NewRunID() == NewRunID() {
		t.Error("NewRunID returned duplicate IDs")
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithRunID(ctx, "run-1")
	ctx = WithSessionID(ctx, "s_abc")
	ctx = WithAgent(ctx, "faqgen")

	tc := FromContext(ctx)
	if tc.TraceID != "trace-1" {
		t.Errorf("Expected trace ID trace-1, got %s", tc.TraceID)
	}
	if tc.RunID != "run-1" {
		t.Errorf("Expected run ID run-1, got %s", tc.RunID)
	}
	if tc.SessionID != "s_abc" {
		t.Errorf("Expected session ID s_abc, got %s", tc.SessionID)
	}
	if tc.Agent != "faqgen" {
		t.Errorf("Expected agent faqgen, got %s", tc.Agent)
	}
}

func TestEmptyContext(t *testing.T) {
	tc := FromContext(context.Background())
	if tc.TraceID != "" || tc.RunID != "" || tc.SessionID != "" || tc.Agent != "" {
		t.Errorf("Expected empty trace context, got %+v", tc)
	}
}

func TestNewRunContext(t *testing.T) {
	t.Run("fresh context", func(t *testing.T) {
		ctx := NewRunContext(context.Background(), "s_abc")

		if GetTraceID(ctx) == "" {
			t.Error("trace ID not set")
		}
		if GetRunID(ctx) == "" {
			t.Error("run ID not set")
		}
		if GetSessionID(ctx) != "s_abc" {
			t.Errorf("Expected session ID s_abc, got %s", GetSessionID(ctx))
		}
	})

	t.Run("keeps caller trace ID", func(t *testing.T) {
		parent := WithTraceID(context.Background(), "trace-parent")
		ctx := NewRunContext(parent, "s_abc")

		if GetTraceID(ctx) != "trace-parent" {
			t.Errorf("Expected trace-parent, got %s", GetTraceID(ctx))
		}
	})
}
