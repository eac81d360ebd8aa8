package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Backends that can execute the agents.
const (
	BackendADK       = "adk"
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
)

// Config represents the main kspar configuration
type Config struct {
	// Agent runtime connection
	Runtime RuntimeConfig `json:"runtime" mapstructure:"runtime"`

	// Agent app names and model
	Agents AgentsConfig `json:"agents" mapstructure:"agents"`

	// Session registered with every agent app
	Session SessionConfig `json:"session" mapstructure:"session"`

	Pipeline PipelineConfig `json:"pipeline" mapstructure:"pipeline"`

	// Direct model access, used by the openai and anthropic backends
	LLM LLMConfig `json:"llm" mapstructure:"llm"`

	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`

	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	Audit AuditConfig `json:"audit" mapstructure:"audit"`

	// HTTP server for `kspar serve`
	Server ServerConfig `json:"server" mapstructure:"server"`
}

// RuntimeConfig holds the agent runtime connection settings
type RuntimeConfig struct {
	Backend           string  `json:"backend" mapstructure:"backend"` // adk, openai, anthropic
	BaseURL           string  `json:"base_url" mapstructure:"base_url"`
	UserID            string  `json:"user_id" mapstructure:"user_id"`
	SessionID         string  `json:"session_id" mapstructure:"session_id"` // empty generates one per run
	TimeoutSeconds    int     `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second" mapstructure:"requests_per_second"` // 0 disables pacing
}

// Timeout returns the per-request timeout.
func (r RuntimeConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// AgentsConfig names the runtime app each agent is deployed as.
type AgentsConfig struct {
	Parser       string `json:"parser" mapstructure:"parser"`
	Descriptor   string `json:"descriptor" mapstructure:"descriptor"`
	FAQGenerator string `json:"faq_generator" mapstructure:"faq_generator"`
	Comparator   string `json:"comparator" mapstructure:"comparator"`

	// Model overrides every agent's model on the direct backends.
	Model string `json:"model" mapstructure:"model"`
}

// SessionConfig holds the state every session starts with
type SessionConfig struct {
	Context map[string]any `json:"context" mapstructure:"context"`
}

// PipelineConfig controls failure handling and output checks
type PipelineConfig struct {
	ContinueOnError bool `json:"continue_on_error" mapstructure:"continue_on_error"`
	ValidateOutputs bool `json:"validate_outputs" mapstructure:"validate_outputs"`
}

// LLMConfig holds direct model provider settings
type LLMConfig struct {
	Provider    string  `json:"provider" mapstructure:"provider"` // openai, anthropic
	APIKey      string  `json:"api_key" mapstructure:"api_key"`
	Model       string  `json:"model" mapstructure:"model"`
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName string `json:"service_name" mapstructure:"service_name"`
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	// TextfilePath, when set, receives the registry after every CLI run.
	TextfilePath string `json:"textfile_path" mapstructure:"textfile_path"`
}

// AuditConfig holds the run audit trail settings
type AuditConfig struct {
	// Path of the JSON-lines audit file; empty disables auditing.
	Path string `json:"path" mapstructure:"path"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`

	// Admission limits for pipeline requests, 0 disables
	RequestsPerMinute int `json:"requests_per_minute" mapstructure:"requests_per_minute"`
	MaxConcurrent     int `json:"max_concurrent" mapstructure:"max_concurrent"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Backend:        BackendADK,
			BaseURL:        "http://localhost:8000",
			UserID:         "u_123",
			SessionID:      "s_abc",
			TimeoutSeconds: 120,
		},
		Agents: AgentsConfig{
			Parser:       "Parser",
			Descriptor:   "descript",
			FAQGenerator: "faqgen",
			Comparator:   "comparator",
		},
		Session: SessionConfig{
			Context: map[string]any{
				"project_name": "KSPAR",
				"stage":        "data_pipeline",
			},
		},
		Pipeline: PipelineConfig{
			ContinueOnError: false,
			ValidateOutputs: true,
		},
		LLM: LLMConfig{
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Pretty:    true,
			MaxSize:   50,
			MaxAge:    7,
			Redaction: true,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "kspar",
		},
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8080,
			RequestsPerMinute: 60,
			MaxConcurrent:     4,
		},
	}
}

// String returns a JSON representation of the config with the API key masked
func (c *Config) String() string {
	masked := *c
	if masked.LLM.APIKey != "" {
		masked.LLM.APIKey = "********"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// Validate checks that the configuration can drive a pipeline run
func (c *Config) Validate() error {
	switch c.Runtime.Backend {
	case BackendADK:
		if c.Runtime.BaseURL == "" {
			return fmt.Errorf("runtime.base_url is required for the adk backend")
		}
		if c.Runtime.UserID == "" {
			return fmt.Errorf("runtime.user_id is required for the adk backend")
		}
	case BackendOpenAI, BackendAnthropic:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for the %s backend", c.Runtime.Backend)
		}
	default:
		return fmt.Errorf("invalid runtime backend %q (must be: adk, openai, anthropic)", c.Runtime.Backend)
	}

	apps := map[string]string{}
	for field, app := range map[string]string{
		"parser":        c.Agents.Parser,
		"descriptor":    c.Agents.Descriptor,
		"faq_generator": c.Agents.FAQGenerator,
		"comparator":    c.Agents.Comparator,
	} {
		if app == "" {
			return fmt.Errorf("agents.%s: app name is required", field)
		}
		if other, ok := apps[app]; ok {
			return fmt.Errorf("agents.%s: app name %q already used by agents.%s", field, app, other)
		}
		apps[app] = field
	}

	return nil
}
