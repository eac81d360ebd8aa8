package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harun/kspar/internal/audit"
	"github.com/harun/kspar/internal/metrics"
	"github.com/harun/kspar/internal/tracing"
	"github.com/harun/kspar/pkg/agents"
	"github.com/harun/kspar/pkg/product"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// ErrParserFailed is returned when the Parser step produced no usable output.
	// Nothing else runs after it.
	ErrParserFailed = errors.New("parser step failed")

	// ErrStepFailed is returned when a generator step failed and the run halted.
	ErrStepFailed = errors.New("pipeline step failed")
)

const sessionIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// AgentRunner executes agents deployed as apps. runtime.Client and llm.Backend
// implement it.
type AgentRunner interface {
	CreateSession(ctx context.Context, app, sessionID string, sessionContext map[string]any) error
	Run(ctx context.Context, app, sessionID string, input any) (json.RawMessage, error)
}

// Config configures a Pipeline.
type Config struct {
	Runner   AgentRunner
	Registry *agents.Registry
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics

	// Audit receives one record per session registration and run. Optional.
	Audit *audit.Logger

	// ContinueOnError keeps running the remaining generators after one fails.
	// The Parser always halts the run.
	ContinueOnError bool

	// ValidateOutputs checks every agent output against its JSON Schema.
	ValidateOutputs bool
}

// Pipeline is the sequential four-agent flow.
type Pipeline struct {
	runner          AgentRunner
	registry        *agents.Registry
	logger          zerolog.Logger
	metrics         *metrics.Metrics
	audit           *audit.Logger
	continueOnError bool
	validateOutputs bool
}

// Result is the aggregated output of one run. Missing outputs are null.
type Result struct {
	StructuredData    json.RawMessage   `json:"StructuredData"`
	DescriptionOutput json.RawMessage   `json:"DescriptionOutput"`
	FAQOutput         json.RawMessage   `json:"FAQOutput"`
	ComparisonOutput  json.RawMessage   `json:"ComparisonOutput"`
	SessionID         string            `json:"SessionID"`
	RunID             string            `json:"RunID"`
	Errors            map[string]string `json:"Errors,omitempty"`
}

// Output returns the stored output for role, or nil.
func (r *Result) Output(role agents.Role) json.RawMessage {
	switch role {
	case agents.Parser:
		return r.StructuredData
	case agents.Descriptor:
		return r.DescriptionOutput
	case agents.FAQGenerator:
		return r.FAQOutput
	case agents.Comparator:
		return r.ComparisonOutput
	}
	return nil
}

func (r *Result) set(role agents.Role, out json.RawMessage) {
	switch role {
	case agents.Parser:
		r.StructuredData = out
	case agents.Descriptor:
		r.DescriptionOutput = out
	case agents.FAQGenerator:
		r.FAQOutput = out
	case agents.Comparator:
		r.ComparisonOutput = out
	}
}

func (r *Result) fail(role agents.Role, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[string(role)] = err.Error()
}

// MarshalJSON renders missing outputs as null.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	a := alias(r)
	for _, field := range []*json.RawMessage{&a.StructuredData, &a.DescriptionOutput, &a.FAQOutput, &a.ComparisonOutput} {
		if len(*field) == 0 {
			*field = json.RawMessage("null")
		}
	}
	return json.Marshal(a)
}

// Complete reports whether every agent produced output.
func (r *Result) Complete() bool {
	return len(r.StructuredData) > 0 && len(r.DescriptionOutput) > 0 &&
		len(r.FAQOutput) > 0 && len(r.ComparisonOutput) > 0
}

// New creates a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("agent runner is required")
	}
	registry := cfg.Registry
	if registry == nil {
		registry = agents.DefaultRegistry()
	}

	return &Pipeline{
		runner:          cfg.Runner,
		registry:        registry,
		logger:          cfg.Logger.With().Str("component", "pipeline").Logger(),
		metrics:         cfg.Metrics,
		audit:           cfg.Audit,
		continueOnError: cfg.ContinueOnError,
		validateOutputs: cfg.ValidateOutputs,
	}, nil
}

// NewSessionID generates a session ID for runs without a configured one.
func NewSessionID() string {
	return "s_" + gonanoid.MustGenerate(sessionIDAlphabet, 12)
}

// Registry returns the agent definitions the pipeline runs.
func (p *Pipeline) Registry() *agents.Registry {
	return p.registry
}

// RegisterSession creates sessionID on every agent app. Every app is attempted;
// the returned error joins all failures.
func (p *Pipeline) RegisterSession(ctx context.Context, sessionID string, sessionContext map[string]any) error {
	ctx = tracing.WithSessionID(ctx, sessionID)
	logger := tracing.LoggerFromContext(ctx, p.logger)

	var errs []error
	for _, def := range p.registry.All() {
		err := p.runner.CreateSession(ctx, def.AppName, sessionID, sessionContext)
		p.metrics.RecordSessionRegistration(def.AppName, err)
		p.audit.RecordSession(ctx, sessionID, def.AppName, err)
		if err != nil {
			logger.Warn().Err(err).Str("app", def.AppName).Msg("Session registration failed")
			errs = append(errs, fmt.Errorf("register session for %s: %w", def.AppName, err))
			continue
		}
		logger.Info().Str("app", def.AppName).Msg("Session registered")
	}

	return errors.Join(errs...)
}

// Run executes the Parser on raw and then each generator on the structured
// record. The returned Result is never nil; on a halting failure it holds the
// outputs produced so far.
func (p *Pipeline) Run(ctx context.Context, sessionID string, raw product.RawProduct) (*Result, error) {
	ctx = tracing.NewRunContext(ctx, sessionID)
	ctx, span := tracing.StartSpan(ctx, "kspar.pipeline", "pipeline.run",
		attribute.String("session_id", sessionID),
	)
	start := time.Now()

	result := &Result{
		SessionID: sessionID,
		RunID:     tracing.GetRunID(ctx),
	}

	err := p.run(ctx, sessionID, raw, result)

	runStatus := "success"
	switch {
	case err != nil:
		runStatus = "failed"
	case len(result.Errors) > 0:
		runStatus = "partial"
	}
	duration := time.Since(start)
	p.metrics.RecordPipelineRun(runStatus, duration)
	p.audit.RecordRun(ctx, sessionID, result.RunID, runStatus, duration, result.Errors)
	span.SetAttributes(attribute.String("status", runStatus))
	tracing.EndSpan(span, err)

	return result, err
}

func (p *Pipeline) run(ctx context.Context, sessionID string, raw product.RawProduct, result *Result) error {
	logger := tracing.LoggerFromContext(ctx, p.logger)
	defs := p.registry.All()
	total := len(defs)

	parser, err := p.registry.Get(agents.Parser)
	if err != nil {
		return err
	}

	logger.Info().Msgf("[STEP 1/%d] Running %s", total, parser.AppName)
	structured, err := p.step(ctx, parser, sessionID, raw)
	if err != nil {
		result.fail(parser.Role, err)
		logger.Error().Err(err).Str("app", parser.AppName).Msg("Parser failed, halting pipeline")
		return fmt.Errorf("%w: %w", ErrParserFailed, err)
	}
	result.set(parser.Role, structured)

	for i, def := range p.registry.Generators() {
		logger.Info().Msgf("[STEP %d/%d] Running %s", i+2, total, def.AppName)

		out, err := p.step(ctx, def, sessionID, structured)
		if err != nil {
			result.fail(def.Role, err)
			if !p.continueOnError {
				logger.Error().Err(err).Str("app", def.AppName).Msg("Step failed, halting pipeline")
				return fmt.Errorf("%w: %s: %w", ErrStepFailed, def.Role, err)
			}
			logger.Warn().Err(err).Str("app", def.AppName).Msg("Step failed, continuing")
			continue
		}
		result.set(def.Role, out)
	}

	logger.Info().Bool("complete", result.Complete()).Msg("Pipeline finished")
	return nil
}

func (p *Pipeline) step(ctx context.Context, def agents.Definition, sessionID string, input any) (json.RawMessage, error) {
	ctx = tracing.WithAgent(ctx, string(def.Role))
	ctx, span := tracing.StartSpan(ctx, "kspar.pipeline", "pipeline.step",
		attribute.String("role", string(def.Role)),
		attribute.String("app", def.AppName),
	)
	start := time.Now()

	out, err := p.runner.Run(ctx, def.AppName, sessionID, input)
	if err == nil && p.validateOutputs {
		err = product.Validate(def.OutputKind, out)
	}

	p.metrics.RecordAgentCall(def.AppName, time.Since(start), err)
	tracing.EndSpan(span, err)

	if err != nil {
		return nil, err
	}
	return out, nil
}
