package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harun/kspar/internal/config"
	"github.com/harun/kspar/internal/logger"
	"github.com/harun/kspar/pkg/agents"
	"github.com/harun/kspar/pkg/llm"
	"github.com/harun/kspar/pkg/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{}

func (stubProvider) Complete(ctx context.Context, request llm.Request) (*llm.Response, error) {
	return &llm.Response{Text: `{}`}, nil
}

func (stubProvider) Name() string { return "stub" }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)
	return log
}

func TestNewADK(t *testing.T) {
	cfg := config.DefaultConfig()

	a, err := New(cfg, testLogger(t))
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &runtime.Client{}, a.runner)
	assert.Equal(t, "http://localhost:8000/run", a.RunURL())
	assert.Equal(t, "s_abc", a.SessionID())
	assert.NotNil(t, a.GetPipeline())
	assert.Len(t, a.GetRegistry().All(), 4)
}

func TestNewDirectBackend(t *testing.T) {
	var gotName, gotKey string
	orig := newProvider
	newProvider = func(name, apiKey string) (llm.Provider, error) {
		gotName, gotKey = name, apiKey
		return stubProvider{}, nil
	}
	t.Cleanup(func() { newProvider = orig })

	cfg := config.DefaultConfig()
	cfg.Runtime.Backend = config.BackendAnthropic
	cfg.LLM.APIKey = "sk-ant-test"

	a, err := New(cfg, testLogger(t))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "anthropic", gotName)
	assert.Equal(t, "sk-ant-test", gotKey)
	assert.IsType(t, &llm.Backend{}, a.runner)
	assert.Equal(t, "anthropic (direct)", a.RunURL())

	def, err := a.GetRegistry().Get(agents.Parser)
	require.NoError(t, err)
	assert.Equal(t, llm.DefaultModel("anthropic"), def.Model)
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Runtime.Backend = "vertex"

	_, err := New(cfg, testLogger(t))
	assert.Error(t, err)
}

func TestSessionIDGenerated(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Runtime.SessionID = ""

	a, err := New(cfg, testLogger(t))
	require.NoError(t, err)

	first := a.SessionID()
	assert.Regexp(t, `^s_`, first)
	assert.NotEqual(t, first, a.SessionID())
}

func TestBuildRegistry(t *testing.T) {
	t.Run("app names", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Agents.Descriptor = "describer"

		def, err := BuildRegistry(cfg).Get(agents.Descriptor)
		require.NoError(t, err)
		assert.Equal(t, "describer", def.AppName)
		assert.Equal(t, agents.DefaultModel, def.Model)
	})

	t.Run("direct model", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Runtime.Backend = config.BackendOpenAI
		cfg.LLM.Model = "gpt-4o"

		def, err := BuildRegistry(cfg).Get(agents.Comparator)
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o", def.Model)
	})
}

func TestCloseWritesMetricsTextfile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metrics.TextfilePath = filepath.Join(t.TempDir(), "kspar.prom")

	a, err := New(cfg, testLogger(t))
	require.NoError(t, err)

	a.GetMetrics().RecordPipelineRun("success", 0)
	require.NoError(t, a.Close())

	data, err := os.ReadFile(cfg.Metrics.TextfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kspar_pipeline_runs_total")
}

func TestAuditTrail(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Audit.Path = filepath.Join(t.TempDir(), "audit", "kspar.jsonl")

	a, err := New(cfg, testLogger(t))
	require.NoError(t, err)
	require.NotNil(t, a.audit)
	require.NoError(t, a.Close())

	assert.FileExists(t, cfg.Audit.Path)
}
