package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 || cfg.OpenRouter.Model != "openai/gpt-3.5-turbo" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if *cfg.OpenRouter.Temperature != 0.7 || cfg.OpenRouter.MaxTokens != 1000 {
		t.Fatalf("unexpected sampling defaults: %+v", cfg.OpenRouter)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.InitialDelay() != time.Second || cfg.MaxDelay() != 8*time.Second {
		t.Fatalf("unexpected retry defaults: %+v", cfg.Retry)
	}
	if cfg.MinInterval() != time.Second {
		t.Fatalf("unexpected rate limit default: %v", cfg.MinInterval())
	}
	if cfg.ConnectTimeout() != 30*time.Second || cfg.ReadTimeout() != 60*time.Second || cfg.WriteTimeout() != 30*time.Second {
		t.Fatal("unexpected timeout defaults")
	}
	if cfg.OpenRouter.APIKey != "" {
		t.Fatal("expected no api key")
	}
}

func TestLoad_EnvSubstitutionAndKey(t *testing.T) {
	t.Setenv("TEST_REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("MY_OR_KEY", "sk-or-v1-xyz")
	p := writeConfig(t, `
server:
  port: 9090
openrouter:
  model: anthropic/claude-3-haiku
  api_key_env: MY_OR_KEY
  max_tokens: 512
retry:
  max_attempts: 5
redis:
  url: ${TEST_REDIS_URL}
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9090 || cfg.OpenRouter.Model != "anthropic/claude-3-haiku" {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.OpenRouter.APIKey != "sk-or-v1-xyz" {
		t.Fatalf("expected key from MY_OR_KEY, got %q", cfg.OpenRouter.APIKey)
	}
	if cfg.OpenRouter.MaxTokens != 512 || cfg.Retry.MaxAttempts != 5 {
		t.Fatalf("overrides lost: %+v", cfg)
	}
	if cfg.Redis.URL != "redis://localhost:6379/2" {
		t.Fatalf("env not expanded: %q", cfg.Redis.URL)
	}
	if *cfg.OpenRouter.Temperature != 0.7 {
		t.Fatal("unset fields must still get defaults")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	p := writeConfig(t, "server: [unterminated")
	if _, err := Load(p); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load("config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OpenRouter.Title != "LawBot" || cfg.Transcript.Dir != "output" {
		t.Fatalf("unexpected shipped config: %+v", cfg)
	}
}

func TestLoad_ExplicitZeroTemperature(t *testing.T) {
	p := writeConfig(t, `
openrouter:
  temperature: 0
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OpenRouter.Temperature == nil || *cfg.OpenRouter.Temperature != 0 {
		t.Fatalf("explicit zero temperature lost: %v", cfg.OpenRouter.Temperature)
	}
}
