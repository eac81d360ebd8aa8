package llm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harun/kspar/internal/tracing"
	"github.com/harun/kspar/pkg/agents"
	"github.com/harun/kspar/pkg/runtime"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider is a mock implementation of Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Complete(ctx context.Context, request Request) (*Response, error) {
	args := m.Called(ctx, request)
	if resp := args.Get(0); resp != nil {
		return resp.(*Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) Name() string {
	return "mock"
}

func newTestBackend(t *testing.T, provider Provider) *Backend {
	t.Helper()
	b, err := NewBackend(BackendConfig{
		Provider:  provider,
		Registry:  agents.DefaultRegistry().WithModel("gpt-4o-mini"),
		MaxTokens: 1024,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	return b
}

func TestNewBackendRequiresProvider(t *testing.T) {
	_, err := NewBackend(BackendConfig{})
	assert.Error(t, err)
}

func TestBackendRun(t *testing.T) {
	provider := &MockProvider{}
	backend := newTestBackend(t, provider)
	ctx := context.Background()

	require.NoError(t, backend.CreateSession(ctx, "descript", "s_1", map[string]any{"project_name": "KSPAR"}))

	provider.On("Complete", mock.Anything, mock.MatchedBy(func(r Request) bool {
		return r.Model == "gpt-4o-mini" &&
			r.MaxTokens == 1024 &&
			r.Prompt == `{"product_name":"Serum"}` &&
			containsAll(r.System, "Product Description Agent", "marketing_slogan", `"project_name":"KSPAR"`)
	})).Return(&Response{
		Text:  "```json\n{\"product_description\": \"d\", \"marketing_slogan\": \"s\"}\n```",
		Usage: TokenUsage{InputTokens: 10, OutputTokens: 5},
	}, nil).Once()

	out, err := backend.Run(ctx, "descript", "s_1", map[string]string{"product_name": "Serum"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"product_description": "d", "marketing_slogan": "s"}`, string(out))

	provider.AssertExpectations(t)
}

func TestBackendCreateSessionLogs(t *testing.T) {
	var buf bytes.Buffer
	b, err := NewBackend(BackendConfig{
		Provider: &MockProvider{},
		Logger:   zerolog.New(&buf).Level(zerolog.DebugLevel),
	})
	require.NoError(t, err)

	ctx := tracing.WithSessionID(context.Background(), "s_1")
	require.NoError(t, b.CreateSession(ctx, "faqgen", "s_1", map[string]any{"stage": "data_pipeline"}))

	out := buf.String()
	assert.Contains(t, out, `"message":"Session recorded"`)
	assert.Contains(t, out, `"app":"faqgen"`)
	assert.Contains(t, out, `"session_id":"s_1"`)
}

func TestBackendRunErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown app", func(t *testing.T) {
		backend := newTestBackend(t, &MockProvider{})
		_, err := backend.Run(ctx, "translator", "s_1", nil)
		assert.ErrorIs(t, err, ErrUnknownApp)
		assert.ErrorIs(t, backend.CreateSession(ctx, "translator", "s_1", nil), ErrUnknownApp)
	})

	t.Run("session not registered", func(t *testing.T) {
		backend := newTestBackend(t, &MockProvider{})
		_, err := backend.Run(ctx, "Parser", "s_1", nil)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("session registered for another app", func(t *testing.T) {
		backend := newTestBackend(t, &MockProvider{})
		require.NoError(t, backend.CreateSession(ctx, "Parser", "s_1", nil))
		_, err := backend.Run(ctx, "faqgen", "s_1", nil)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("provider failure", func(t *testing.T) {
		provider := &MockProvider{}
		backend := newTestBackend(t, provider)
		require.NoError(t, backend.CreateSession(ctx, "Parser", "s_1", nil))

		provider.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))

		_, err := backend.Run(ctx, "Parser", "s_1", map[string]string{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("prose answer", func(t *testing.T) {
		provider := &MockProvider{}
		backend := newTestBackend(t, provider)
		require.NoError(t, backend.CreateSession(ctx, "faqgen", "s_1", nil))

		provider.On("Complete", mock.Anything, mock.Anything).Return(&Response{Text: "Sure! Here are some FAQs."}, nil)

		_, err := backend.Run(ctx, "faqgen", "s_1", map[string]string{})
		assert.ErrorIs(t, err, runtime.ErrInvalidPayload)
	})
}

func TestSystemPrompt(t *testing.T) {
	def, err := agents.DefaultRegistry().Get(agents.Comparator)
	require.NoError(t, err)

	prompt, err := SystemPrompt(def, `{"type":"object"}`, nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Product Comparator Agent")
	assert.Contains(t, prompt, `{"type":"object"}`)
	assert.NotContains(t, prompt, "Session context")
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider("openai", "sk-test")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = NewProvider("anthropic", "sk-ant-test")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	_, err = NewProvider("gemini", "key")
	assert.Error(t, err)

	_, err = NewProvider("openai", "")
	assert.Error(t, err)
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, "gpt-4o-mini", DefaultModel("openai"))
	assert.NotEmpty(t, DefaultModel("anthropic"))
	assert.Empty(t, DefaultModel("adk"))
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
