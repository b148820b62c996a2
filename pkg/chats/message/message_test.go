package message

import (
	"testing"

	"github.com/germanamz/koinonia/pkg/chats/content"
	"github.com/germanamz/koinonia/pkg/chats/role"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	msg := New(role.User, content.Text{Text: "hello"}, content.Text{Text: " there"})

	assert.Equal(t, role.User, msg.Role)
	assert.Len(t, msg.Parts, 2)
}

func TestNewText(t *testing.T) {
	msg := NewText(role.Assistant, "hi there")

	assert.Equal(t, role.Assistant, msg.Role)
	assert.Len(t, msg.Parts, 1)
	assert.Equal(t, "hi there", msg.Parts[0].(content.Text).Text)
}

func TestMessage_TextContent(t *testing.T) {
	msg := New(role.Assistant,
		content.Thinking{Text: "pondering"},
		content.Text{Text: "hello "},
		content.ToolCall{ID: "1", Name: "read_passage"},
		content.Text{Text: "world"},
	)

	assert.Equal(t, "hello world", msg.TextContent())
}

func TestMessage_ToolCalls(t *testing.T) {
	tc1 := content.ToolCall{ID: "1", Name: "read_passage", Arguments: `{"chapter":1}`}
	tc2 := content.ToolCall{ID: "2", Name: "open_bible_panel", Arguments: `{}`}
	msg := New(role.Assistant, content.Text{Text: "let me look"}, tc1, tc2)

	assert.Equal(t, []content.ToolCall{tc1, tc2}, msg.ToolCalls())
}

func TestMessage_ToolCalls_None(t *testing.T) {
	assert.Nil(t, NewText(role.Assistant, "plain").ToolCalls())
}

func TestMessage_IsToolResults(t *testing.T) {
	results := New(role.User,
		content.ToolResult{ToolCallID: "1", Content: "{}"},
		content.ToolResult{ToolCallID: "2", Content: "{}"},
	)
	assert.True(t, results.IsToolResults())
	assert.Len(t, results.ToolResults(), 2)

	assert.False(t, NewText(role.User, "question").IsToolResults())
	assert.False(t, New(role.User).IsToolResults())
	assert.False(t, New(role.Assistant, content.ToolResult{ToolCallID: "1"}).IsToolResults())
}

func TestMessage_WithoutThinking(t *testing.T) {
	msg := New(role.Assistant,
		content.Thinking{Text: "secret", Signature: "sig"},
		content.Text{Text: "answer"},
		content.ToolCall{ID: "1", Name: "read_passage"},
	)

	stripped := msg.WithoutThinking()

	assert.Len(t, stripped.Parts, 2)
	assert.Equal(t, "answer", stripped.TextContent())
	assert.Len(t, msg.Parts, 3, "original must stay untouched")
}
