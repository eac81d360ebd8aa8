package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. KSPAR_RUNTIME_BASE_URL.
const EnvPrefix = "KSPAR"

// envKeys are the settings that can be overridden from the environment.
var envKeys = []string{
	"runtime.backend",
	"runtime.base_url",
	"runtime.user_id",
	"runtime.session_id",
	"runtime.timeout_seconds",
	"runtime.requests_per_second",
	"agents.parser",
	"agents.descriptor",
	"agents.faq_generator",
	"agents.comparator",
	"agents.model",
	"pipeline.continue_on_error",
	"pipeline.validate_outputs",
	"llm.provider",
	"llm.api_key",
	"llm.model",
	"llm.max_tokens",
	"llm.temperature",
	"logging.level",
	"logging.file",
	"logging.pretty",
	"tracing.enabled",
	"tracing.service_name",
	"metrics.textfile_path",
	"audit.path",
	"server.host",
	"server.port",
	"server.requests_per_minute",
	"server.max_concurrent",
}

// Loader handles configuration loading
type Loader struct {
	configPath string
	envFile    string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envFile:    ".env",
	}
}

// WithEnvFile sets the dotenv file read before the environment. Empty disables it.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// Load reads the config file, if present, and applies environment overrides.
func (l *Loader) Load() (*Config, error) {
	if l.envFile != "" {
		// Existing environment variables win over the dotenv file.
		if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", l.envFile, err)
		}
	}

	configPath := l.GetConfigPath()
	if configPath == "" {
		return nil, fmt.Errorf("failed to determine config path")
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.LLM.Provider == "" && cfg.Runtime.Backend != BackendADK {
		cfg.LLM.Provider = cfg.Runtime.Backend
	}

	return cfg, nil
}

// Save writes cfg to the config file as JSON
func (l *Loader) Save(cfg *Config) error {
	configPath := l.GetConfigPath()
	if configPath == "" {
		return fmt.Errorf("failed to determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.Set("runtime", cfg.Runtime)
	v.Set("agents", cfg.Agents)
	v.Set("session", cfg.Session)
	v.Set("pipeline", cfg.Pipeline)
	v.Set("llm", cfg.LLM)
	v.Set("logging", cfg.Logging)
	v.Set("tracing", cfg.Tracing)
	v.Set("metrics", cfg.Metrics)
	v.Set("audit", cfg.Audit)
	v.Set("server", cfg.Server)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kspar", "kspar.json")
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
