package engine

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration.
type Config struct {
	Server   ServerConfig          `yaml:"server"`
	BibleDB  string                `yaml:"bible_db"`
	StoreDB  string                `yaml:"store_db"`
	Provider ProviderConfig        `yaml:"provider"`
	Engine   EngineConfig          `yaml:"engine"`
	Tiers    map[string]TierConfig `yaml:"tiers"`
	Log      LogConfig             `yaml:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	APIKey          string   `yaml:"api_key"`          //nolint:gosec // configuration field, not a hardcoded secret
	ShutdownTimeout string   `yaml:"shutdown_timeout"` // Duration string (e.g. "10s").
	AllowedOrigins  []string `yaml:"allowed_origins"`  // Hosts allowed to open the chat websocket cross-origin.
	KeepAlive       string   `yaml:"keep_alive"`       // Interval between comments on a quiet event stream (e.g. "15s").
}

// RateLimitConfig controls retries on provider rate limits.
type RateLimitConfig struct {
	MaxRetries int    `yaml:"max_retries"` // Max retries on 429 (default 3).
	BaseDelay  string `yaml:"base_delay"`  // Initial backoff delay as a duration string (e.g. "1s", "500ms").
	MaxWait    string `yaml:"max_wait"`    // Upper bound for a single wait.
}

// ProviderConfig describes the LLM provider.
type ProviderConfig struct {
	Kind      string          `yaml:"kind"`
	BaseURL   string          `yaml:"base_url"`
	APIKey    string          `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Model     string          `yaml:"model"`
	MaxTokens int             `yaml:"max_tokens"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// EngineConfig holds the turn loop settings. Zero values take the Options
// defaults.
type EngineConfig struct {
	MaxRounds       int    `yaml:"max_rounds"`
	TokenBudget     int    `yaml:"token_budget"`
	PreviewInterval string `yaml:"preview_interval"`
	ThinkingBudget  int    `yaml:"thinking_budget"`
}

// TierConfig describes a subscription tier.
type TierConfig struct {
	MessageLimit   int    `yaml:"message_limit"`
	Model          string `yaml:"model"`
	ThinkingBudget int    `yaml:"thinking_budget"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error.
	Format string `yaml:"format"` // text or json.
}

// DefaultTier is the tier of devices without a subscription.
const DefaultTier = "free"

// DefaultTiers mirrors the published plans. Config.Tiers overrides it.
func DefaultTiers() map[string]TierConfig {
	return map[string]TierConfig{
		"free":     {MessageLimit: 30, Model: DefaultModel, ThinkingBudget: DefaultThinkingBudget},
		"student":  {MessageLimit: 200, Model: DefaultModel, ThinkingBudget: DefaultThinkingBudget},
		"believer": {MessageLimit: 300, Model: "claude-sonnet-4-6", ThinkingBudget: 10000},
		"ministry": {MessageLimit: 800, Model: "claude-sonnet-4-6", ThinkingBudget: 10000},
		"seminary": {MessageLimit: 2000, Model: "claude-sonnet-4-6", ThinkingBudget: 10000},
	}
}

// LoadConfig reads a YAML file and returns a Config.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, so API keys can live in the environment (or a .env file)
// instead of the config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.BibleDB == "" {
		return fmt.Errorf("engine: config: bible_db is required")
	}
	if c.Provider.Kind == "" {
		return fmt.Errorf("engine: config: provider kind is required")
	}
	if c.Provider.MaxTokens < 0 {
		return fmt.Errorf("engine: config: provider max_tokens must not be negative")
	}

	for name, d := range map[string]string{
		"server shutdown_timeout":        c.Server.ShutdownTimeout,
		"server keep_alive":              c.Server.KeepAlive,
		"engine preview_interval":        c.Engine.PreviewInterval,
		"provider rate_limit base_delay": c.Provider.RateLimit.BaseDelay,
		"provider rate_limit max_wait":   c.Provider.RateLimit.MaxWait,
	} {
		if _, err := parseDuration(d); err != nil {
			return fmt.Errorf("engine: config: invalid %s %q: %w", name, d, err)
		}
	}

	if c.Engine.MaxRounds < 0 {
		return fmt.Errorf("engine: config: max_rounds must not be negative")
	}
	if c.Engine.TokenBudget < 0 {
		return fmt.Errorf("engine: config: token_budget must not be negative")
	}

	for name, t := range c.Tiers {
		if name == "" {
			return fmt.Errorf("engine: config: tier name is required")
		}
		if t.MessageLimit <= 0 {
			return fmt.Errorf("engine: config: tier %q: message_limit must be positive", name)
		}
	}
	if len(c.Tiers) > 0 {
		if _, ok := c.Tiers[DefaultTier]; !ok {
			return fmt.Errorf("engine: config: tier %q is required", DefaultTier)
		}
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("engine: config: unknown log format %q", c.Log.Format)
	}

	return nil
}

// TierTable returns the configured tiers, or DefaultTiers when none are set.
func (c Config) TierTable() map[string]TierConfig {
	if len(c.Tiers) == 0 {
		return DefaultTiers()
	}
	return c.Tiers
}

// Options converts the engine section into loop Options.
func (c Config) Options() Options {
	interval, _ := parseDuration(c.Engine.PreviewInterval)
	return Options{
		Model:           c.Provider.Model,
		MaxTokens:       c.Provider.MaxTokens,
		MaxRounds:       c.Engine.MaxRounds,
		TokenBudget:     c.Engine.TokenBudget,
		PreviewInterval: interval,
		ThinkingBudget:  c.Engine.ThinkingBudget,
	}
}

// ShutdownGrace returns the configured grace period, 10s by default.
func (c ServerConfig) ShutdownGrace() time.Duration {
	d, _ := parseDuration(c.ShutdownTimeout)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

// KeepAliveInterval returns the configured event stream keep-alive interval,
// 15s by default.
func (c ServerConfig) KeepAliveInterval() time.Duration {
	d, _ := parseDuration(c.KeepAlive)
	if d <= 0 {
		return 15 * time.Second
	}
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
