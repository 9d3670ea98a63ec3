package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	OpenRouter struct {
		BaseURL   string `yaml:"base_url"`
		Model     string `yaml:"model"`
		APIKeyEnv string `yaml:"api_key_env"`
		APIKey    string `yaml:"-"`
		Referer   string `yaml:"referer"`
		Title     string `yaml:"title"`
		// Temperature is a pointer so an explicit 0 survives defaulting.
		Temperature      *float64 `yaml:"temperature"`
		MaxTokens        int      `yaml:"max_tokens"`
		ConnectTimeoutMs int      `yaml:"connect_timeout_ms"`
		ReadTimeoutMs    int      `yaml:"read_timeout_ms"`
		WriteTimeoutMs   int      `yaml:"write_timeout_ms"`
	} `yaml:"openrouter"`
	Retry struct {
		MaxAttempts    int `yaml:"max_attempts"`
		InitialDelayMs int `yaml:"initial_delay_ms"`
		MaxDelayMs     int `yaml:"max_delay_ms"`
	} `yaml:"retry"`
	RateLimit struct {
		MinIntervalMs int `yaml:"min_interval_ms"`
	} `yaml:"rate_limit"`
	Redis struct {
		URL       string `yaml:"url"`
		Password  string `yaml:"password"`
		Namespace string `yaml:"namespace"`
	} `yaml:"redis"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Transcript struct {
		Dir string `yaml:"dir"`
	} `yaml:"transcript"`
	Telemetry struct {
		OTLPEndpoint string `yaml:"otlp_endpoint"`
	} `yaml:"telemetry"`
}

// Load reads path, expanding ${VAR} references, and fills in defaults. A missing file
// yields the defaults. The API key is optional here; it may live in the settings store.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	applyDefaults(&cfg)
	cfg.OpenRouter.APIKey = os.Getenv(cfg.OpenRouter.APIKeyEnv)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.OpenRouter.BaseURL == "" {
		cfg.OpenRouter.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.OpenRouter.Model == "" {
		cfg.OpenRouter.Model = "openai/gpt-3.5-turbo"
	}
	if cfg.OpenRouter.APIKeyEnv == "" {
		cfg.OpenRouter.APIKeyEnv = "OPENROUTER_API_KEY"
	}
	if cfg.OpenRouter.Temperature == nil {
		t := 0.7
		cfg.OpenRouter.Temperature = &t
	}
	if cfg.OpenRouter.MaxTokens == 0 {
		cfg.OpenRouter.MaxTokens = 1000
	}
	if cfg.OpenRouter.ConnectTimeoutMs == 0 {
		cfg.OpenRouter.ConnectTimeoutMs = 30000
	}
	if cfg.OpenRouter.ReadTimeoutMs == 0 {
		cfg.OpenRouter.ReadTimeoutMs = 60000
	}
	if cfg.OpenRouter.WriteTimeoutMs == 0 {
		cfg.OpenRouter.WriteTimeoutMs = 30000
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.InitialDelayMs == 0 {
		cfg.Retry.InitialDelayMs = 1000
	}
	if cfg.Retry.MaxDelayMs == 0 {
		cfg.Retry.MaxDelayMs = 8000
	}
	if cfg.RateLimit.MinIntervalMs == 0 {
		cfg.RateLimit.MinIntervalMs = 1000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (c Config) ConnectTimeout() time.Duration { return ms(c.OpenRouter.ConnectTimeoutMs) }
func (c Config) ReadTimeout() time.Duration    { return ms(c.OpenRouter.ReadTimeoutMs) }
func (c Config) WriteTimeout() time.Duration   { return ms(c.OpenRouter.WriteTimeoutMs) }
func (c Config) InitialDelay() time.Duration   { return ms(c.Retry.InitialDelayMs) }
func (c Config) MaxDelay() time.Duration       { return ms(c.Retry.MaxDelayMs) }
func (c Config) MinInterval() time.Duration    { return ms(c.RateLimit.MinIntervalMs) }
