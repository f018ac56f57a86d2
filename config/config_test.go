package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 600, cfg.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.DatabasePath)
	assert.False(t, cfg.AtomicRuns)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
addr: ":9090"
database_path: /tmp/brainstormer.db
provider: anthropic
model_name: claude-3-5-sonnet-20241022
temperature: 0.2
max_tokens: 800
atomic_runs: true
log_format: text
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "/tmp/brainstormer.db", cfg.DatabasePath)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.ModelName)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 800, cfg.MaxTokens)
	assert.True(t, cfg.AtomicRuns)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: openai\nmax_tokens: 400\n"), 0o600))

	t.Setenv("BRAINSTORMER_PROVIDER", "mock")
	t.Setenv("BRAINSTORMER_MAX_TOKENS", "250")
	t.Setenv("BRAINSTORMER_REQUEST_TIMEOUT", "5s")
	t.Setenv("BRAINSTORMER_ATOMIC_RUNS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderMock, cfg.Provider)
	assert.Equal(t, 250, cfg.MaxTokens)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.AtomicRuns)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("BRAINSTORMER_PROVIDER", "palm")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestLoadRejectsBadEnvValue(t *testing.T) {
	t.Setenv("BRAINSTORMER_MAX_TOKENS", "lots")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
