package config

import (
	"strings"
	"testing"

	"occasion-listing/internal/score"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	if cfg.Provider != "deepseek" {
		t.Fatalf("provider: %s", cfg.Provider)
	}
	if cfg.ProviderAPIKeyEnv() != "DEEPSEEK_API_KEY" {
		t.Fatalf("api key env: %s", cfg.ProviderAPIKeyEnv())
	}
	if cfg.CatalogCenter.Owner == "" || cfg.CatalogCenter.Repo == "" || cfg.CatalogCenter.Asset != "catalog-bundle.tar.gz" {
		t.Fatalf("catalog center defaults missing: %+v", cfg.CatalogCenter)
	}
	if cfg.Output.Dir != "." || cfg.DefaultTone != "professional" || cfg.RequestTimeoutSec != 300 {
		t.Fatalf("defaults mismatch: %+v", cfg)
	}
	if cfg.Limits.BulletCount != 5 || cfg.Limits.BackendMaxBytes != 249 {
		t.Fatalf("limits defaults mismatch: %+v", cfg.Limits)
	}
	for _, name := range []string{"deepseek", "openai", "claude", "gemini"} {
		if cfg.Providers[name].Model == "" {
			t.Fatalf("provider %s has no model", name)
		}
	}
}

func TestApplyDefaultsKeepsExplicitProvider(t *testing.T) {
	cfg := &Config{Provider: " OpenAI ", Providers: map[string]ProviderConfig{"openai": {Model: "gpt-x"}}}
	cfg.applyDefaults()
	if cfg.Provider != "openai" {
		t.Fatalf("expected openai, got %s", cfg.Provider)
	}
	p := cfg.Providers["openai"]
	if p.Model != "gpt-x" || p.BaseURL != "https://api.openai.com" || p.APIKeyEnv != "OPENAI_API_KEY" {
		t.Fatalf("provider merge mismatch: %+v", p)
	}
	if cfg.ProviderAPIKeyEnv() != "OPENAI_API_KEY" {
		t.Fatalf("api key env: %s", cfg.ProviderAPIKeyEnv())
	}
	cfg.APIKeyEnv = "MY_KEY"
	if cfg.ProviderAPIKeyEnv() != "MY_KEY" {
		t.Fatalf("top-level api_key_env should win")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	bad := &Config{Provider: "mystery"}
	bad.applyDefaults()
	if err := bad.Validate(); err == nil || !strings.Contains(err.Error(), "不支持的 provider") {
		t.Fatalf("expected provider error, got %v", err)
	}

	rubric := &Config{}
	rubric.applyDefaults()
	rubric.Rubric.CustomRules = []score.CustomRule{{ID: "x", Category: "title", Expr: "input.title +"}}
	if err := rubric.Validate(); err == nil || !strings.Contains(err.Error(), "评分规则配置错误") {
		t.Fatalf("expected rubric error, got %v", err)
	}
}
