package config

import (
	"fmt"
	"strings"

	"occasion-listing/internal/compose"
	"occasion-listing/internal/localization"
	"occasion-listing/internal/score"
)

type Config struct {
	Provider          string                    `yaml:"provider"`
	APIKeyEnv         string                    `yaml:"api_key_env"`
	CatalogDir        string                    `yaml:"catalog_dir"`
	CatalogCenter     CatalogCenterConfig       `yaml:"catalog_center"`
	Concurrency       int                       `yaml:"concurrency"`
	MaxRetries        int                       `yaml:"max_retries"`
	RequestTimeoutSec int                       `yaml:"request_timeout_sec"`
	RateLimitPerMin   int                       `yaml:"rate_limit_per_min"`
	DefaultTone       string                    `yaml:"default_tone"`
	Output            OutputConfig              `yaml:"output"`
	Limits            compose.Limits            `yaml:"limits"`
	Localization      localization.Config       `yaml:"localization"`
	Rubric            RubricConfig              `yaml:"rubric"`
	Providers         map[string]ProviderConfig `yaml:"providers"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type RubricConfig struct {
	score.Rubric `yaml:",inline"`
	CustomRules  []score.CustomRule `yaml:"custom_rules"`
}

type ProviderConfig struct {
	BaseURL              string `yaml:"base_url"`
	APIMode              string `yaml:"api_mode"`
	Model                string `yaml:"model"`
	ModelReasoningEffort string `yaml:"model_reasoning_effort"`
	APIKeyEnv            string `yaml:"api_key_env"`
}

type Paths struct {
	HomeDir            string
	RootDir            string
	ConfigPath         string
	CatalogDir         string
	CatalogLockPath    string
	EnvPath            string
	EnvExample         string
	ConfigSource       string
	ResolvedCatalogDir string
}

type CatalogCenterConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Owner      string `yaml:"owner"`
	Repo       string `yaml:"repo"`
	Release    string `yaml:"release"`
	Asset      string `yaml:"asset"`
	TimeoutSec int    `yaml:"timeout_sec"`
	Strict     bool   `yaml:"strict"`
}

func defaultProviders() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"deepseek": {BaseURL: "https://api.deepseek.com", APIMode: "chat", Model: "deepseek-chat", APIKeyEnv: "DEEPSEEK_API_KEY"},
		"openai":   {BaseURL: "https://api.openai.com", APIMode: "chat", Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY"},
		"claude":   {BaseURL: "https://api.anthropic.com", Model: "claude-3-5-sonnet-latest", APIKeyEnv: "ANTHROPIC_API_KEY"},
		"gemini":   {Model: "gemini-1.5-flash", APIKeyEnv: "GEMINI_API_KEY"},
	}
}

func (c *Config) applyDefaults() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = "deepseek"
	}
	if strings.TrimSpace(c.CatalogDir) == "" {
		c.CatalogDir = "~/.occasion-listing/catalogs"
	}
	if strings.TrimSpace(c.CatalogCenter.Owner) == "" {
		c.CatalogCenter.Owner = "occasion-listing"
	}
	if strings.TrimSpace(c.CatalogCenter.Repo) == "" {
		c.CatalogCenter.Repo = "occasion-catalogs"
	}
	if strings.TrimSpace(c.CatalogCenter.Release) == "" {
		c.CatalogCenter.Release = "latest"
	}
	if strings.TrimSpace(c.CatalogCenter.Asset) == "" {
		c.CatalogCenter.Asset = "catalog-bundle.tar.gz"
	}
	if c.CatalogCenter.TimeoutSec <= 0 {
		c.CatalogCenter.TimeoutSec = 20
	}
	if c.Concurrency < 0 {
		c.Concurrency = 0
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RequestTimeoutSec <= 0 {
		c.RequestTimeoutSec = 300
	}
	if c.RateLimitPerMin < 0 {
		c.RateLimitPerMin = 0
	}
	if strings.TrimSpace(c.DefaultTone) == "" {
		c.DefaultTone = "professional"
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		c.Output.Dir = "."
	}
	c.Limits = c.Limits.WithDefaults()
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	for name, def := range defaultProviders() {
		p, ok := c.Providers[name]
		if !ok {
			c.Providers[name] = def
			continue
		}
		if strings.TrimSpace(p.BaseURL) == "" {
			p.BaseURL = def.BaseURL
		}
		if strings.TrimSpace(p.Model) == "" {
			p.Model = def.Model
		}
		if strings.TrimSpace(p.APIMode) == "" {
			p.APIMode = def.APIMode
		}
		if strings.TrimSpace(p.APIKeyEnv) == "" {
			p.APIKeyEnv = def.APIKeyEnv
		}
		c.Providers[name] = p
	}
}

// Validate checks the fields applyDefaults cannot repair.
func (c *Config) Validate() error {
	if _, ok := c.Providers[c.Provider]; !ok {
		return fmt.Errorf("不支持的 provider：%s", c.Provider)
	}
	if _, err := score.New(c.Rubric.Rubric, c.Rubric.CustomRules...); err != nil {
		return fmt.Errorf("评分规则配置错误：%w", err)
	}
	return nil
}

// ProviderAPIKeyEnv returns the env var holding the key for the active
// provider. A top-level api_key_env overrides the provider's own.
func (c *Config) ProviderAPIKeyEnv() string {
	if strings.TrimSpace(c.APIKeyEnv) != "" {
		return c.APIKeyEnv
	}
	return c.Providers[c.Provider].APIKeyEnv
}
