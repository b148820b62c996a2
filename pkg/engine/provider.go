package engine

import (
	"fmt"
	"sync"

	"github.com/germanamz/koinonia/pkg/modeladapter"
	"github.com/germanamz/koinonia/pkg/providers/anthropic"
)

// ProviderFactory creates a Streamer from a ProviderConfig.
type ProviderFactory func(cfg ProviderConfig) (modeladapter.Streamer, error)

var (
	factoryMu   sync.RWMutex
	factories   = map[string]ProviderFactory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factories["anthropic"] = newAnthropic
	})
}

// RegisterProvider registers a provider factory under the given kind. Tests
// use it to plug in scripted streamers.
func RegisterProvider(kind string, factory ProviderFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kind] = factory
}

func getFactory(kind string) (ProviderFactory, bool) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[kind]
	return f, ok
}

func newAnthropic(cfg ProviderConfig) (modeladapter.Streamer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("engine: provider anthropic: api_key is required")
	}

	a := anthropic.New(cfg.BaseURL, cfg.APIKey, cfg.Model)
	if cfg.MaxTokens > 0 {
		a.MaxTokens = cfg.MaxTokens
	}
	return a, nil
}

// BuildStreamer creates a Streamer from a ProviderConfig using the registered
// factory for its Kind. Rate limit retries are opt-in: the streamer is only
// wrapped when rate_limit.max_retries is positive, so by default a rejected
// stream open fails the turn and retrying is left to the client.
func BuildStreamer(cfg ProviderConfig) (modeladapter.Streamer, error) {
	factory, ok := getFactory(cfg.Kind)
	if !ok {
		return nil, fmt.Errorf("engine: unknown provider kind %q", cfg.Kind)
	}

	s, err := factory(cfg)
	if err != nil {
		return nil, err
	}

	rl := cfg.RateLimit
	baseDelay, err := parseDuration(rl.BaseDelay)
	if err != nil {
		return nil, fmt.Errorf("engine: provider %q: invalid base_delay %q: %w", cfg.Kind, rl.BaseDelay, err)
	}
	maxWait, err := parseDuration(rl.MaxWait)
	if err != nil {
		return nil, fmt.Errorf("engine: provider %q: invalid max_wait %q: %w", cfg.Kind, rl.MaxWait, err)
	}

	if rl.MaxRetries <= 0 {
		return s, nil
	}
	return modeladapter.NewRetryingStreamer(s, modeladapter.RetryOpts{
		MaxRetries: rl.MaxRetries,
		BaseDelay:  baseDelay,
		MaxWait:    maxWait,
	}), nil
}
