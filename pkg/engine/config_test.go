package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/koinonia/pkg/modeladapter"
)

const sampleYAML = `
server:
  addr: ":8080"
  api_key: secret
  shutdown_timeout: 5s

bible_db: data/bible.db
store_db: data/koinonia.db

provider:
  kind: anthropic
  api_key: sk-test
  model: claude-haiku-4-5-20251001
  max_tokens: 32000
  rate_limit:
    max_retries: 2
    base_delay: 500ms

engine:
  max_rounds: 4
  token_budget: 50000
  preview_interval: 250ms

tiers:
  free:
    message_limit: 30
    model: claude-haiku-4-5-20251001
    thinking_budget: 7000
  ministry:
    message_limit: 800
    model: claude-sonnet-4-6

log:
  level: debug
  format: json
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "koinonia.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func validConfig() Config {
	return Config{
		BibleDB:  "bible.db",
		Provider: ProviderConfig{Kind: "anthropic", APIKey: "k"},
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownGrace())
	assert.Equal(t, "data/bible.db", cfg.BibleDB)
	assert.Equal(t, "data/koinonia.db", cfg.StoreDB)

	assert.Equal(t, "anthropic", cfg.Provider.Kind)
	assert.Equal(t, 32000, cfg.Provider.MaxTokens)
	assert.Equal(t, 2, cfg.Provider.RateLimit.MaxRetries)

	assert.Equal(t, 800, cfg.Tiers["ministry"].MessageLimit)
	assert.Equal(t, "json", cfg.Log.Format)

	opts := cfg.Options()
	assert.Equal(t, 4, opts.MaxRounds)
	assert.Equal(t, 50000, opts.TokenBudget)
	assert.Equal(t, 250*time.Millisecond, opts.PreviewInterval)
	assert.Equal(t, "claude-haiku-4-5-20251001", opts.Model)
	assert.Equal(t, 32000, opts.MaxTokens)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/no/such/file.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "provider: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine: parse config")
}

func TestLoadConfig_ExpandsEnvVars(t *testing.T) {
	t.Setenv("KOINONIA_TEST_API_KEY", "sk-from-env")

	cfg, err := LoadConfig(writeConfig(t, `
bible_db: bible.db
provider:
  kind: anthropic
  api_key: ${KOINONIA_TEST_API_KEY}
`))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Provider.APIKey)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"no bible db", func(c *Config) { c.BibleDB = "" }, "bible_db is required"},
		{"no provider kind", func(c *Config) { c.Provider.Kind = "" }, "provider kind is required"},
		{"bad duration", func(c *Config) { c.Engine.PreviewInterval = "soon" }, "invalid engine preview_interval"},
		{"negative rounds", func(c *Config) { c.Engine.MaxRounds = -1 }, "max_rounds"},
		{"tier without limit", func(c *Config) {
			c.Tiers = map[string]TierConfig{"free": {}}
		}, `tier "free": message_limit`},
		{"tiers without free", func(c *Config) {
			c.Tiers = map[string]TierConfig{"ministry": {MessageLimit: 1}}
		}, `tier "free" is required`},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "unknown log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_TierTable(t *testing.T) {
	assert.Equal(t, DefaultTiers(), Config{}.TierTable())

	custom := map[string]TierConfig{"free": {MessageLimit: 3}}
	assert.Equal(t, custom, Config{Tiers: custom}.TierTable())
}

func TestServerConfig_ShutdownGraceDefault(t *testing.T) {
	assert.Equal(t, 10*time.Second, ServerConfig{}.ShutdownGrace())
}

func TestServerConfig_KeepAliveInterval(t *testing.T) {
	assert.Equal(t, 15*time.Second, ServerConfig{}.KeepAliveInterval())
	assert.Equal(t, 3*time.Second, ServerConfig{KeepAlive: "3s"}.KeepAliveInterval())

	cfg := Config{BibleDB: "b.db", Provider: ProviderConfig{Kind: "anthropic"}, Server: ServerConfig{KeepAlive: "often"}}
	assert.ErrorContains(t, cfg.Validate(), "invalid server keep_alive")
}

func TestBuildStreamer(t *testing.T) {
	s, err := BuildStreamer(ProviderConfig{
		Kind: "anthropic", APIKey: "k", Model: "m", MaxTokens: 1000,
		RateLimit: RateLimitConfig{MaxRetries: 2},
	})
	require.NoError(t, err)

	rs, ok := s.(*modeladapter.RetryingStreamer)
	require.True(t, ok)
	assert.Equal(t, 1000, rs.ModelMaxTokens())
}

func TestBuildStreamer_NoRetriesByDefault(t *testing.T) {
	fake := &fakeStreamer{err: &modeladapter.RateLimitError{RetryAfter: time.Millisecond}}
	RegisterProvider("limited", func(ProviderConfig) (modeladapter.Streamer, error) { return fake, nil })

	s, err := BuildStreamer(ProviderConfig{Kind: "limited"})
	require.NoError(t, err)
	assert.Same(t, fake, s)

	_, err = s.Stream(context.Background(), modeladapter.Request{})
	var rle *modeladapter.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Len(t, fake.requests, 1)
}

func TestBuildStreamer_Errors(t *testing.T) {
	_, err := BuildStreamer(ProviderConfig{Kind: "oracle"})
	assert.EqualError(t, err, `engine: unknown provider kind "oracle"`)

	_, err = BuildStreamer(ProviderConfig{Kind: "anthropic"})
	assert.ErrorContains(t, err, "api_key is required")

	_, err = BuildStreamer(ProviderConfig{Kind: "anthropic", APIKey: "k", RateLimit: RateLimitConfig{BaseDelay: "later"}})
	assert.ErrorContains(t, err, "invalid base_delay")
}

func TestRegisterProvider(t *testing.T) {
	fake := &fakeStreamer{}
	RegisterProvider("scripted", func(ProviderConfig) (modeladapter.Streamer, error) { return fake, nil })

	s, err := BuildStreamer(ProviderConfig{Kind: "scripted", RateLimit: RateLimitConfig{MaxRetries: 1}})
	require.NoError(t, err)
	assert.IsType(t, &modeladapter.RetryingStreamer{}, s)
}
