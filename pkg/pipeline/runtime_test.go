package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/harun/kspar/pkg/product"
	"github.com/harun/kspar/pkg/runtime"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRuntime answers the session and run endpoints the way the agent runtime does.
type fakeRuntime struct {
	mu       sync.Mutex
	sessions []string
	runs     []runtime.RunRequest
	outputs  map[string]string
}

func (f *fakeRuntime) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/apps/"):
		f.sessions = append(f.sessions, r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))

	case r.URL.Path == "/run":
		var req runtime.RunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.runs = append(f.runs, req)

		out, ok := f.outputs[req.AppName]
		if !ok {
			http.Error(w, "app not found", http.StatusNotFound)
			return
		}
		events := []map[string]any{
			{"author": "user", "content": map[string]any{"role": "user", "parts": []map[string]any{{"text": req.NewMessage.Parts[0].Text}}}},
			{"author": req.AppName, "content": map[string]any{"role": "model", "parts": []map[string]any{{"text": "```json\n" + out + "\n```"}}}},
		}
		json.NewEncoder(w).Encode(events)

	default:
		http.NotFound(w, r)
	}
}

func TestPipelineOverRuntimeClient(t *testing.T) {
	fake := &fakeRuntime{outputs: map[string]string{
		"Parser":     structuredJSON,
		"descript":   descriptionJSON,
		"faqgen":     faqJSON,
		"comparator": comparisonJSON,
	}}
	server := httptest.NewServer(fake)
	defer server.Close()

	client, err := runtime.NewClient(runtime.Options{
		BaseURL: server.URL,
		UserID:  "u_123",
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	p := newTestPipeline(t, client, nil, false)
	ctx := context.Background()

	require.NoError(t, p.RegisterSession(ctx, "s_abc", map[string]any{"project_name": "KSPAR"}))
	assert.Equal(t, []string{
		"/apps/Parser/users/u_123/sessions/s_abc",
		"/apps/descript/users/u_123/sessions/s_abc",
		"/apps/faqgen/users/u_123/sessions/s_abc",
		"/apps/comparator/users/u_123/sessions/s_abc",
	}, fake.sessions)

	result, err := p.Run(ctx, "s_abc", product.ExampleRaw())
	require.NoError(t, err)
	assert.True(t, result.Complete())

	require.Len(t, fake.runs, 4)

	// The Parser receives the raw record, the generators the parsed one.
	var raw product.RawProduct
	require.NoError(t, json.Unmarshal([]byte(fake.runs[0].NewMessage.Parts[0].Text), &raw))
	assert.Equal(t, product.ExampleRaw(), raw)

	for _, run := range fake.runs[1:] {
		assert.Equal(t, "u_123", run.UserID)
		assert.Equal(t, "s_abc", run.SessionID)
		assert.Equal(t, runtime.RoleUser, run.NewMessage.Role)
		assert.JSONEq(t, structuredJSON, run.NewMessage.Parts[0].Text)
	}
}

func TestPipelineOverRuntimeClientMissingApp(t *testing.T) {
	fake := &fakeRuntime{outputs: map[string]string{"Parser": structuredJSON}}
	server := httptest.NewServer(fake)
	defer server.Close()

	client, err := runtime.NewClient(runtime.Options{BaseURL: server.URL, UserID: "u_123", Logger: zerolog.Nop()})
	require.NoError(t, err)

	p := newTestPipeline(t, client, nil, false)

	result, err := p.Run(context.Background(), "s_abc", product.ExampleRaw())
	require.ErrorIs(t, err, ErrStepFailed)
	assert.True(t, runtime.IsStatus(err, http.StatusNotFound))
	assert.NotNil(t, result.StructuredData)
	assert.Len(t, fake.runs, 2)
}
