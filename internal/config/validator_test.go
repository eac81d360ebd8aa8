package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAPIKey(t *testing.T) {
	v := NewValidator()

	t.Run("valid anthropic key", func(t *testing.T) {
		assert.NoError(t, v.ValidateAPIKey("sk-ant-test123", "anthropic"))
	})

	t.Run("invalid anthropic key", func(t *testing.T) {
		assert.Error(t, v.ValidateAPIKey("invalid-key", "anthropic"))
	})

	t.Run("valid openai key", func(t *testing.T) {
		assert.NoError(t, v.ValidateAPIKey("sk-test123", "openai"))
	})

	t.Run("invalid openai key", func(t *testing.T) {
		assert.Error(t, v.ValidateAPIKey("invalid-key", "openai"))
	})

	t.Run("empty key", func(t *testing.T) {
		assert.Error(t, v.ValidateAPIKey("", "anthropic"))
	})
}

func TestValidateBaseURL(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateBaseURL("http://localhost:8000"))
	assert.NoError(t, v.ValidateBaseURL("https://agents.example.com/api"))
	assert.Error(t, v.ValidateBaseURL(""))
	assert.Error(t, v.ValidateBaseURL("localhost:8000"))
	assert.Error(t, v.ValidateBaseURL("ftp://localhost"))
	assert.Error(t, v.ValidateBaseURL("http://"))
}

func TestValidateBackend(t *testing.T) {
	v := NewValidator()

	for _, backend := range []string{"adk", "openai", "anthropic"} {
		assert.NoError(t, v.ValidateBackend(backend), backend)
	}
	assert.Error(t, v.ValidateBackend("gemini"))
	assert.Error(t, v.ValidateBackend(""))
}

func TestValidateTemperature(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateTemperature(0))
	assert.NoError(t, v.ValidateTemperature(0.7))
	assert.NoError(t, v.ValidateTemperature(2))
	assert.Error(t, v.ValidateTemperature(-0.1))
	assert.Error(t, v.ValidateTemperature(2.5))
}

func TestValidateMaxTokens(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateMaxTokens(4096))
	assert.Error(t, v.ValidateMaxTokens(0))
	assert.Error(t, v.ValidateMaxTokens(300000))
}

func TestValidateLogLevel(t *testing.T) {
	v := NewValidator()

	for _, level := range []string{"debug", "info", "warn", "error"} {
		assert.NoError(t, v.ValidateLogLevel(level), level)
	}
	assert.Error(t, v.ValidateLogLevel("verbose"))
}

func TestValidatePort(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidatePort(8080))
	assert.Error(t, v.ValidatePort(0))
	assert.Error(t, v.ValidatePort(70000))
}

func TestValidateConfig(t *testing.T) {
	v := NewValidator()

	t.Run("defaults are valid", func(t *testing.T) {
		assert.Empty(t, v.ValidateConfig(DefaultConfig()))
	})

	t.Run("reports every problem", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Runtime.BaseURL = "not a url"
		cfg.Agents.Descriptor = ""
		cfg.Agents.Comparator = "Parser"
		cfg.Logging.Level = "loud"
		cfg.Server.Port = -1

		errs := v.ValidateConfig(cfg)
		assert.Len(t, errs, 5)
	})

	t.Run("direct backend key format", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Runtime.Backend = BackendAnthropic
		cfg.LLM.APIKey = "sk-not-anthropic"

		errs := v.ValidateConfig(cfg)
		assert.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "Anthropic")
	})

	t.Run("tracing needs a service name", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tracing.Enabled = true
		cfg.Tracing.ServiceName = ""

		assert.Len(t, v.ValidateConfig(cfg), 1)
	})
}
