package history

import (
	"context"

	"github.com/germanamz/koinonia/pkg/chats/content"
	"github.com/germanamz/koinonia/pkg/chats/message"
	"github.com/germanamz/koinonia/pkg/tools/toolbox"
)

// perMessageOverhead is the estimated token overhead for each message (role,
// structure delimiters, etc.).
const perMessageOverhead = 4

// perToolOverhead is the estimated token overhead for each tool definition.
const perToolOverhead = 10

// Estimator approximates token counts with a 1-token-per-4-characters
// heuristic. It is the offline CountFunc for providers that cannot count.
type Estimator struct {
	System []string
	Tools  []toolbox.Tool
}

func charsToTokens(chars int) int {
	return (chars + 3) / 4 // round up
}

// Count estimates the input tokens of msgs together with the estimator's
// system blocks and tools. It never fails.
func (e Estimator) Count(_ context.Context, msgs []message.Message) (int, error) {
	return e.fixed() + EstimateMessages(msgs), nil
}

func (e Estimator) fixed() int {
	tokens := 0
	for _, s := range e.System {
		tokens += charsToTokens(len(s)) + perMessageOverhead
	}
	for _, t := range e.Tools {
		tokens += charsToTokens(len(t.Name)+len(t.Description)+len(t.InputSchema)) + perToolOverhead
	}
	return tokens
}

// EstimateMessages estimates the tokens of msgs alone.
func EstimateMessages(msgs []message.Message) int {
	tokens := 0
	for _, m := range msgs {
		tokens += perMessageOverhead
		for _, p := range m.Parts {
			switch v := p.(type) {
			case content.Text:
				tokens += charsToTokens(len(v.Text))
			case content.Thinking:
				tokens += charsToTokens(len(v.Text))
			case content.ToolCall:
				tokens += charsToTokens(len(v.ID) + len(v.Name) + len(v.Arguments))
			case content.ToolResult:
				tokens += charsToTokens(len(v.ToolCallID) + len(v.Content))
			}
		}
	}
	return tokens
}
