// Package history fits a conversation into a model's input token budget by
// dropping the oldest messages.
package history

import (
	"context"
	"fmt"
	"math"

	"github.com/germanamz/koinonia/pkg/chats/message"
	"github.com/germanamz/koinonia/pkg/chats/role"
)

// CountFunc returns the input token count of a request made of msgs. The
// system prompt and tool declarations are fixed by the caller.
type CountFunc func(ctx context.Context, msgs []message.Message) (int, error)

// Trim drops messages from the start of msgs until count reports at most
// budget tokens. The first pass removes an estimate of how many messages are
// over budget, later passes remove one at a time. After each removal the
// history is realigned so it starts on a user message that is not a batch of
// tool results. The last message is always kept, even when it alone is over
// budget. Trim returns the kept messages and their token count.
func Trim(ctx context.Context, msgs []message.Message, budget int, count CountFunc) ([]message.Message, int, error) {
	if len(msgs) == 0 {
		return msgs, 0, nil
	}

	tokens, err := count(ctx, msgs)
	if err != nil {
		return nil, 0, fmt.Errorf("history: count tokens: %w", err)
	}
	if tokens <= budget || len(msgs) == 1 {
		return msgs, tokens, nil
	}

	perMessage := float64(tokens) / float64(len(msgs))
	remove := int(math.Ceil(float64(tokens-budget)/perMessage)) + 1

	trimmed := msgs
	for tokens > budget && len(trimmed) > 1 {
		n := max(1, min(remove, len(trimmed)-1))
		trimmed = align(trimmed[n:])

		tokens, err = count(ctx, trimmed)
		if err != nil {
			return nil, 0, fmt.Errorf("history: count tokens: %w", err)
		}
		remove = 1
	}

	return trimmed, tokens, nil
}

// align drops leading messages until the history starts on a plain user
// message. The last message is never dropped.
func align(msgs []message.Message) []message.Message {
	for len(msgs) > 1 && (msgs[0].Role != role.User || msgs[0].IsToolResults()) {
		msgs = msgs[1:]
	}
	return msgs
}
