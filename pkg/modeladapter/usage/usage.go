// Package usage tracks model token usage across the rounds of a chat turn.
package usage

import "sync"

// TokenCount holds the token counts reported for a single model round.
// Cache counts are the prompt-cache share of the input and are reported
// separately by the provider.
type TokenCount struct {
	InputTokens              int
	OutputTokens             int
	CacheCreationInputTokens int
	CacheReadInputTokens     int
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Add returns the field-wise sum of tc and o.
func (tc TokenCount) Add(o TokenCount) TokenCount {
	return TokenCount{
		InputTokens:              tc.InputTokens + o.InputTokens,
		OutputTokens:             tc.OutputTokens + o.OutputTokens,
		CacheCreationInputTokens: tc.CacheCreationInputTokens + o.CacheCreationInputTokens,
		CacheReadInputTokens:     tc.CacheReadInputTokens + o.CacheReadInputTokens,
	}
}

// Tracker accumulates token usage across multiple rounds.
// It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	entries []TokenCount
}

// Add records a token count entry.
func (t *Tracker) Add(tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, tc)
}

// Last returns the most recent token count entry.
// The bool is false when the tracker has no entries.
func (t *Tracker) Last() (TokenCount, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) == 0 {
		return TokenCount{}, false
	}

	return t.entries[len(t.entries)-1], true
}

// Total returns the aggregate token count across all entries.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total TokenCount
	for _, e := range t.entries {
		total = total.Add(e)
	}

	return total
}

// Count returns the number of recorded entries.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}
