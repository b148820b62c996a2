package engine

import "time"

// Defaults applied to zero Options fields.
const (
	DefaultModel           = "claude-haiku-4-5-20251001"
	DefaultMaxRounds       = 5
	DefaultTokenBudget     = 70000
	DefaultPreviewInterval = 400 * time.Millisecond
	DefaultThinkingBudget  = 7000
)

// Options tunes the turn loop.
type Options struct {
	Model           string
	MaxTokens       int // 0 leaves the provider default.
	MaxRounds       int
	TokenBudget     int
	PreviewInterval time.Duration
	ThinkingBudget  int // Negative disables extended thinking.
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = DefaultMaxRounds
	}
	if o.TokenBudget <= 0 {
		o.TokenBudget = DefaultTokenBudget
	}
	if o.PreviewInterval <= 0 {
		o.PreviewInterval = DefaultPreviewInterval
	}
	switch {
	case o.ThinkingBudget == 0:
		o.ThinkingBudget = DefaultThinkingBudget
	case o.ThinkingBudget < 0:
		o.ThinkingBudget = 0
	}
	return o
}
