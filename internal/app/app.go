// Package app wires configuration into a ready-to-run pipeline.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/harun/kspar/internal/audit"
	"github.com/harun/kspar/internal/config"
	"github.com/harun/kspar/internal/logger"
	"github.com/harun/kspar/internal/metrics"
	"github.com/harun/kspar/internal/tracing"
	"github.com/harun/kspar/pkg/agents"
	"github.com/harun/kspar/pkg/llm"
	"github.com/harun/kspar/pkg/pipeline"
	"github.com/harun/kspar/pkg/runtime"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newProvider is replaced in tests.
var newProvider = func(name, apiKey string) (llm.Provider, error) {
	return llm.NewProvider(name, apiKey)
}

// App holds the components shared by every command.
type App struct {
	config   *config.Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
	audit    *audit.Logger
	registry *agents.Registry
	runner   pipeline.AgentRunner
	pipeline *pipeline.Pipeline

	tracingEnabled bool
}

// New creates the app from cfg
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{
		config:  cfg,
		logger:  log,
		metrics: metrics.NewMetrics(),
	}

	if cfg.Tracing.Enabled {
		exporter := tracing.NewLogExporter(log.GetZerolog())
		if err := tracing.InitOpenTelemetry(cfg.Tracing.ServiceName, sdktrace.WithBatcher(exporter)); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without distributed tracing")
		} else {
			a.tracingEnabled = true
			log.Debug().Msg("Tracing initialized")
		}
	}

	if cfg.Audit.Path != "" {
		auditLog, err := audit.New(cfg.Audit.Path)
		if err != nil {
			a.shutdownTracing()
			return nil, err
		}
		a.audit = auditLog
	}

	a.registry = BuildRegistry(cfg)

	runner, err := a.newRunner()
	if err != nil {
		a.closeAudit()
		a.shutdownTracing()
		return nil, fmt.Errorf("failed to initialize %s backend: %w", cfg.Runtime.Backend, err)
	}
	a.runner = runner

	p, err := pipeline.New(pipeline.Config{
		Runner:          runner,
		Registry:        a.registry,
		Logger:          log.GetZerolog(),
		Metrics:         a.metrics,
		Audit:           a.audit,
		ContinueOnError: cfg.Pipeline.ContinueOnError,
		ValidateOutputs: cfg.Pipeline.ValidateOutputs,
	})
	if err != nil {
		a.closeAudit()
		a.shutdownTracing()
		return nil, err
	}
	a.pipeline = p

	log.Debug().
		Str("backend", cfg.Runtime.Backend).
		Str("base_url", cfg.Runtime.BaseURL).
		Msg("Pipeline initialized")

	return a, nil
}

// BuildRegistry applies the configured app names and model to the default agents.
func BuildRegistry(cfg *config.Config) *agents.Registry {
	registry := agents.DefaultRegistry().WithAppNames(map[agents.Role]string{
		agents.Parser:       cfg.Agents.Parser,
		agents.Descriptor:   cfg.Agents.Descriptor,
		agents.FAQGenerator: cfg.Agents.FAQGenerator,
		agents.Comparator:   cfg.Agents.Comparator,
	})

	model := cfg.Agents.Model
	if cfg.Runtime.Backend != config.BackendADK {
		if model == "" {
			model = cfg.LLM.Model
		}
		if model == "" {
			model = llm.DefaultModel(providerName(cfg))
		}
	}
	return registry.WithModel(model)
}

func providerName(cfg *config.Config) string {
	if cfg.LLM.Provider != "" {
		return cfg.LLM.Provider
	}
	return cfg.Runtime.Backend
}

func (a *App) newRunner() (pipeline.AgentRunner, error) {
	cfg := a.config
	zl := a.logger.GetZerolog()

	switch cfg.Runtime.Backend {
	case config.BackendADK:
		return runtime.NewClient(runtime.Options{
			BaseURL:           cfg.Runtime.BaseURL,
			UserID:            cfg.Runtime.UserID,
			Timeout:           cfg.Runtime.Timeout(),
			RequestsPerSecond: cfg.Runtime.RequestsPerSecond,
			Logger:            zl,
		})
	case config.BackendOpenAI, config.BackendAnthropic:
		provider, err := newProvider(providerName(cfg), cfg.LLM.APIKey)
		if err != nil {
			return nil, err
		}
		return llm.NewBackend(llm.BackendConfig{
			Provider:    provider,
			Registry:    a.registry,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Logger:      zl,
		})
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Runtime.Backend)
	}
}

// SessionID returns the configured session ID, or a new one when none is set.
func (a *App) SessionID() string {
	if a.config.Runtime.SessionID != "" {
		return a.config.Runtime.SessionID
	}
	return pipeline.NewSessionID()
}

// RunURL describes where agents are executed.
func (a *App) RunURL() string {
	if c, ok := a.runner.(*runtime.Client); ok {
		return c.RunURL()
	}
	return providerName(a.config) + " (direct)"
}

// Close flushes metrics and traces.
func (a *App) Close() error {
	var firstErr error

	if path := a.config.Metrics.TextfilePath; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			firstErr = fmt.Errorf("failed to write metrics textfile: %w", err)
		} else {
			a.logger.Debug().Str("path", path).Msg("Metrics written")
		}
	}

	if err := a.audit.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close audit log: %w", err)
	}
	a.audit = nil

	a.shutdownTracing()
	return firstErr
}

func (a *App) closeAudit() {
	_ = a.audit.Close()
	a.audit = nil
}

func (a *App) shutdownTracing() {
	if !a.tracingEnabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracing.ShutdownOpenTelemetry(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to shut down tracing")
	}
	a.tracingEnabled = false
}

// GetConfig returns the configuration
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetLogger returns the logger
func (a *App) GetLogger() *logger.Logger {
	return a.logger
}

// GetMetrics returns the metrics registry
func (a *App) GetMetrics() *metrics.Metrics {
	return a.metrics
}

// GetRegistry returns the agent definitions in pipeline order
func (a *App) GetRegistry() *agents.Registry {
	return a.registry
}

// GetPipeline returns the pipeline
func (a *App) GetPipeline() *pipeline.Pipeline {
	return a.pipeline
}
