package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAPIKey validates an API key format
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	}

	return nil
}

// ValidateBaseURL validates the runtime base URL
func (v *Validator) ValidateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("runtime base URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid runtime base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid runtime base URL %q (scheme must be http or https)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid runtime base URL %q (missing host)", raw)
	}
	return nil
}

// ValidateBackend validates the agent backend name
func (v *Validator) ValidateBackend(backend string) error {
	validBackends := []string{BackendADK, BackendOpenAI, BackendAnthropic}
	for _, valid := range validBackends {
		if backend == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid backend: %s (must be one of: %s)", backend, strings.Join(validBackends, ", "))
}

// ValidateTemperature validates temperature value
func (v *Validator) ValidateTemperature(temp float64) error {
	if temp < 0 || temp > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", temp)
	}
	return nil
}

// ValidateMaxTokens validates max tokens value
func (v *Validator) ValidateMaxTokens(tokens int) error {
	if tokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", tokens)
	}
	if tokens > 200000 {
		return fmt.Errorf("max tokens too large (max 200000), got %d", tokens)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidatePort validates a TCP port
func (v *Validator) ValidatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// ValidateConfig performs comprehensive validation and reports every problem
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateBackend(cfg.Runtime.Backend); err != nil {
		errors = append(errors, err)
	}

	if cfg.Runtime.Backend == BackendADK {
		if err := v.ValidateBaseURL(cfg.Runtime.BaseURL); err != nil {
			errors = append(errors, err)
		}
		if strings.TrimSpace(cfg.Runtime.UserID) == "" {
			errors = append(errors, fmt.Errorf("runtime.user_id is required"))
		}
	}
	if cfg.Runtime.TimeoutSeconds < 0 {
		errors = append(errors, fmt.Errorf("runtime.timeout_seconds must be >= 0"))
	}
	if cfg.Runtime.RequestsPerSecond < 0 {
		errors = append(errors, fmt.Errorf("runtime.requests_per_second must be >= 0"))
	}

	// Validate the direct model backends
	if cfg.Runtime.Backend == BackendOpenAI || cfg.Runtime.Backend == BackendAnthropic {
		provider := cfg.LLM.Provider
		if provider == "" {
			provider = cfg.Runtime.Backend
		}
		if err := v.ValidateAPIKey(cfg.LLM.APIKey, provider); err != nil {
			errors = append(errors, fmt.Errorf("llm: %w", err))
		}
	}
	if cfg.LLM.MaxTokens != 0 {
		if err := v.ValidateMaxTokens(cfg.LLM.MaxTokens); err != nil {
			errors = append(errors, fmt.Errorf("llm: %w", err))
		}
	}
	if err := v.ValidateTemperature(cfg.LLM.Temperature); err != nil {
		errors = append(errors, fmt.Errorf("llm: %w", err))
	}

	// Validate agent app names
	seen := make(map[string]bool)
	for _, app := range []struct{ field, name string }{
		{"parser", cfg.Agents.Parser},
		{"descriptor", cfg.Agents.Descriptor},
		{"faq_generator", cfg.Agents.FAQGenerator},
		{"comparator", cfg.Agents.Comparator},
	} {
		if strings.TrimSpace(app.name) == "" {
			errors = append(errors, fmt.Errorf("agents.%s: app name is required", app.field))
			continue
		}
		if seen[app.name] {
			errors = append(errors, fmt.Errorf("agents.%s: duplicate app name %q", app.field, app.name))
		}
		seen[app.name] = true
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}

	if err := v.ValidatePort(cfg.Server.Port); err != nil {
		errors = append(errors, fmt.Errorf("server: %w", err))
	}

	if cfg.Server.RequestsPerMinute < 0 || cfg.Server.MaxConcurrent < 0 {
		errors = append(errors, fmt.Errorf("server: admission limits must be >= 0"))
	}

	if cfg.Tracing.Enabled && cfg.Tracing.ServiceName == "" {
		errors = append(errors, fmt.Errorf("tracing.service_name is required when tracing is enabled"))
	}

	return errors
}
