package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/harun/kspar/internal/tracing"
	"github.com/harun/kspar/pkg/agents"
	"github.com/harun/kspar/pkg/product"
	"github.com/harun/kspar/pkg/runtime"
	"github.com/rs/zerolog"
)

var (
	// ErrUnknownApp is returned for an app name that no agent definition uses.
	ErrUnknownApp = errors.New("unknown agent app")

	// ErrSessionNotFound is returned when an app is run before its session exists.
	ErrSessionNotFound = errors.New("session not found")
)

// BackendConfig configures a Backend.
type BackendConfig struct {
	Provider    Provider
	Registry    *agents.Registry
	MaxTokens   int
	Temperature float64
	Logger      zerolog.Logger
}

// Backend executes agent definitions with a Provider. Sessions are kept in memory.
type Backend struct {
	provider    Provider
	registry    *agents.Registry
	maxTokens   int
	temperature float64
	logger      zerolog.Logger

	mu       sync.Mutex
	sessions map[string]map[string]any
}

// NewBackend creates a direct model backend.
func NewBackend(cfg BackendConfig) (*Backend, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	registry := cfg.Registry
	if registry == nil {
		registry = agents.DefaultRegistry()
	}

	return &Backend{
		provider:    cfg.Provider,
		registry:    registry,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      cfg.Logger.With().Str("component", "llm-backend").Str("provider", cfg.Provider.Name()).Logger(),
		sessions:    make(map[string]map[string]any),
	}, nil
}

func sessionKey(app, sessionID string) string {
	return app + "/" + sessionID
}

// CreateSession records the session context for app.
func (b *Backend) CreateSession(ctx context.Context, app, sessionID string, sessionContext map[string]any) error {
	if _, ok := b.registry.ByAppName(app); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownApp, app)
	}
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	stored := make(map[string]any, len(sessionContext))
	for k, v := range sessionContext {
		stored[k] = v
	}

	b.mu.Lock()
	b.sessions[sessionKey(app, sessionID)] = stored
	b.mu.Unlock()

	logger := tracing.LoggerFromContext(ctx, b.logger)
	logger.Debug().Str("app", app).Msg("Session recorded")
	return nil
}

// Run executes the agent deployed as app on input and returns its JSON output.
func (b *Backend) Run(ctx context.Context, app, sessionID string, input any) (json.RawMessage, error) {
	def, ok := b.registry.ByAppName(app)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownApp, app)
	}

	b.mu.Lock()
	sessionContext, ok := b.sessions[sessionKey(app, sessionID)]
	b.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", app, ErrSessionNotFound, sessionID)
	}

	schema, err := product.Schema(def.OutputKind)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s input: %w", app, err)
	}

	system, err := SystemPrompt(def, schema, sessionContext)
	if err != nil {
		return nil, err
	}

	logger := tracing.LoggerFromContext(ctx, b.logger).With().Str("app", app).Str("model", def.Model).Logger()
	logger.Debug().Msg("Calling model")

	resp, err := b.provider.Complete(ctx, Request{
		Model:       def.Model,
		System:      system,
		Prompt:      string(payload),
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %s completion failed: %w", app, b.provider.Name(), err)
	}

	logger.Debug().
		Int("input_tokens", resp.Usage.InputTokens).
		Int("output_tokens", resp.Usage.OutputTokens).
		Msg("Model responded")

	out, err := runtime.DecodePayload(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", app, err)
	}
	return out, nil
}

// SystemPrompt builds the instruction sent to the model for def.
func SystemPrompt(def agents.Definition, outputSchema string, sessionContext map[string]any) (string, error) {
	var sb strings.Builder

	sb.WriteString(def.Instruction)
	sb.WriteString("\n\nThe user message is a JSON document. Reply with a single JSON object that validates against this JSON Schema, and nothing else:\n")
	sb.WriteString(outputSchema)

	if len(sessionContext) > 0 {
		data, err := json.Marshal(sessionContext)
		if err != nil {
			return "", fmt.Errorf("failed to encode session context: %w", err)
		}
		sb.WriteString("\n\nSession context: ")
		sb.Write(data)
	}

	return sb.String(), nil
}
