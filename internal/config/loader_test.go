package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader("/path/to/config.json")
	assert.NotNil(t, loader)
	assert.Equal(t, "/path/to/config.json", loader.configPath)
	assert.Equal(t, "/path/to/config.json", loader.GetConfigPath())
}

func TestLoaderLoad(t *testing.T) {
	t.Run("load default config when file doesn't exist", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "nonexistent.json")

		cfg, err := NewLoader(configPath).WithEnvFile("").Load()

		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("load config from file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")

		testConfig := `{
			"runtime": {
				"base_url": "http://agents.internal:9000",
				"session_id": "s_custom"
			},
			"agents": {
				"descriptor": "describer"
			},
			"pipeline": {
				"continue_on_error": true
			}
		}`
		require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0644))

		cfg, err := NewLoader(configPath).WithEnvFile("").Load()

		require.NoError(t, err)
		assert.Equal(t, "http://agents.internal:9000", cfg.Runtime.BaseURL)
		assert.Equal(t, "s_custom", cfg.Runtime.SessionID)
		assert.Equal(t, "describer", cfg.Agents.Descriptor)
		assert.True(t, cfg.Pipeline.ContinueOnError)

		// Unset values keep their defaults.
		assert.Equal(t, "u_123", cfg.Runtime.UserID)
		assert.Equal(t, "faqgen", cfg.Agents.FAQGenerator)
		assert.True(t, cfg.Pipeline.ValidateOutputs)
	})

	t.Run("environment overrides", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(configPath, []byte(`{"runtime": {"user_id": "u_file"}}`), 0644))

		t.Setenv("KSPAR_RUNTIME_USER_ID", "u_env")
		t.Setenv("KSPAR_RUNTIME_BACKEND", "openai")
		t.Setenv("KSPAR_LLM_API_KEY", "sk-env")
		t.Setenv("KSPAR_SERVER_PORT", "9090")

		cfg, err := NewLoader(configPath).WithEnvFile("").Load()

		require.NoError(t, err)
		assert.Equal(t, "u_env", cfg.Runtime.UserID)
		assert.Equal(t, BackendOpenAI, cfg.Runtime.Backend)
		assert.Equal(t, "openai", cfg.LLM.Provider)
		assert.Equal(t, "sk-env", cfg.LLM.APIKey)
		assert.Equal(t, 9090, cfg.Server.Port)
	})

	t.Run("dotenv file", func(t *testing.T) {
		dir := t.TempDir()
		envFile := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("KSPAR_RUNTIME_SESSION_ID=s_dotenv\n"), 0644))
		t.Cleanup(func() { os.Unsetenv("KSPAR_RUNTIME_SESSION_ID") })

		cfg, err := NewLoader(filepath.Join(dir, "config.json")).WithEnvFile(envFile).Load()

		require.NoError(t, err)
		assert.Equal(t, "s_dotenv", cfg.Runtime.SessionID)
	})

	t.Run("missing dotenv file is ignored", func(t *testing.T) {
		dir := t.TempDir()
		_, err := NewLoader(filepath.Join(dir, "config.json")).WithEnvFile(filepath.Join(dir, ".env")).Load()
		assert.NoError(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(configPath, []byte(`{invalid json}`), 0644))

		_, err := NewLoader(configPath).WithEnvFile("").Load()
		assert.Error(t, err)
	})
}

func TestLoaderSave(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "kspar.json")
	loader := NewLoader(configPath).WithEnvFile("")

	cfg := DefaultConfig()
	cfg.Runtime.BaseURL = "http://saved:8000"
	cfg.Agents.Parser = "parser-v2"
	cfg.Pipeline.ContinueOnError = true

	require.NoError(t, loader.Save(cfg))
	assert.FileExists(t, configPath)

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "http://saved:8000", loaded.Runtime.BaseURL)
	assert.Equal(t, "parser-v2", loaded.Agents.Parser)
	assert.True(t, loaded.Pipeline.ContinueOnError)
	assert.Equal(t, "KSPAR", loaded.Session.Context["project_name"])
}

func TestGetConfigPathDefault(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".kspar", "kspar.json"), NewLoader("").GetConfigPath())
}
