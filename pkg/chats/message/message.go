// Package message defines the Message type used in model conversations.
package message

import (
	"strings"

	"github.com/germanamz/koinonia/pkg/chats/content"
	"github.com/germanamz/koinonia/pkg/chats/role"
)

// Message represents a single message in a conversation.
// It is a value type that copies cheaply.
type Message struct {
	Role  role.Role
	Parts []content.Part
}

// New creates a message with the given role and content parts.
func New(r role.Role, parts ...content.Part) Message {
	return Message{Role: r, Parts: parts}
}

// NewText creates a message with a single Text content part.
func NewText(r role.Role, text string) Message {
	return New(r, content.Text{Text: text})
}

// TextContent concatenates the text of all Text parts in the message.
func (m Message) TextContent() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if t, ok := p.(content.Text); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// ToolCalls returns all ToolCall parts in the message.
func (m Message) ToolCalls() []content.ToolCall {
	var calls []content.ToolCall
	for _, p := range m.Parts {
		if tc, ok := p.(content.ToolCall); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// ToolResults returns all ToolResult parts in the message.
func (m Message) ToolResults() []content.ToolResult {
	var results []content.ToolResult
	for _, p := range m.Parts {
		if tr, ok := p.(content.ToolResult); ok {
			results = append(results, tr)
		}
	}
	return results
}

// IsToolResults reports whether the message is a user message made only of
// tool results.
func (m Message) IsToolResults() bool {
	if m.Role != role.User || len(m.Parts) == 0 {
		return false
	}
	for _, p := range m.Parts {
		if _, ok := p.(content.ToolResult); !ok {
			return false
		}
	}
	return true
}

// WithoutThinking returns a copy of the message with every Thinking part
// removed.
func (m Message) WithoutThinking() Message {
	parts := make([]content.Part, 0, len(m.Parts))
	for _, p := range m.Parts {
		if _, ok := p.(content.Thinking); ok {
			continue
		}
		parts = append(parts, p)
	}
	return Message{Role: m.Role, Parts: parts}
}
