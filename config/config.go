// Package config loads service configuration from defaults, an optional YAML
// file, and BRAINSTORMER_* environment variables, in that order of
// precedence (environment wins).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted by Config.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Config holds every tunable of the service. API credentials are not part of
// it; the provider SDKs read OPENAI_API_KEY and ANTHROPIC_API_KEY themselves.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `yaml:"addr"`
	// DatabasePath is the SQLite file path. Empty selects the in-memory store.
	DatabasePath string `yaml:"database_path"`

	// Provider selects the model backend: openai, anthropic or mock.
	Provider string `yaml:"provider"`
	// ModelName overrides the provider default model.
	ModelName string `yaml:"model_name"`
	// Temperature is the sampling temperature applied to every call.
	Temperature float64 `yaml:"temperature"`
	// MaxTokens bounds the length of each completion.
	MaxTokens int `yaml:"max_tokens"`
	// RequestTimeout bounds each individual model call. Zero disables it.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// MaxRetries is the number of retries after a failed model call.
	MaxRetries int `yaml:"max_retries"`

	// AtomicRuns commits each debate run in a single transaction instead of
	// per-step.
	AtomicRuns bool `yaml:"atomic_runs"`
	// MaxModelCalls bounds model calls per run. Zero means unlimited.
	MaxModelCalls int `yaml:"max_model_calls"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFormat is json or text.
	LogFormat string `yaml:"log_format"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Addr:           ":8080",
		Provider:       ProviderOpenAI,
		Temperature:    0.7,
		MaxTokens:      600,
		RequestTimeout: 60 * time.Second,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load builds the effective configuration. When path is non-empty the YAML
// file at that location is applied over the defaults; environment variables
// are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderMock:
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("config: max_tokens must not be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("config: max_retries must not be negative")
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "BRAINSTORMER_ADDR")
	setString(&c.DatabasePath, "BRAINSTORMER_DB_PATH")
	setString(&c.Provider, "BRAINSTORMER_PROVIDER")
	setString(&c.ModelName, "BRAINSTORMER_MODEL")
	setString(&c.LogLevel, "BRAINSTORMER_LOG_LEVEL")
	setString(&c.LogFormat, "BRAINSTORMER_LOG_FORMAT")

	if err := setFloat(&c.Temperature, "BRAINSTORMER_TEMPERATURE"); err != nil {
		return err
	}
	if err := setInt(&c.MaxTokens, "BRAINSTORMER_MAX_TOKENS"); err != nil {
		return err
	}
	if err := setInt(&c.MaxRetries, "BRAINSTORMER_MAX_RETRIES"); err != nil {
		return err
	}
	if err := setInt(&c.MaxModelCalls, "BRAINSTORMER_MAX_MODEL_CALLS"); err != nil {
		return err
	}
	if err := setDuration(&c.RequestTimeout, "BRAINSTORMER_REQUEST_TIMEOUT"); err != nil {
		return err
	}
	if err := setBool(&c.AtomicRuns, "BRAINSTORMER_ATOMIC_RUNS"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}
