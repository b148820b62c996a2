// Package content defines the content parts carried by model messages.
package content

// Part is a piece of content within a message.
type Part interface {
	PartKind() string
}

// Text is a plain text content part.
type Text struct {
	Text string
}

func (t Text) PartKind() string { return "text" }

// Thinking is model reasoning streamed alongside the answer. It is shown to
// the user once and never sent back to the model.
type Thinking struct {
	Text      string
	Signature string
}

func (t Thinking) PartKind() string { return "thinking" }

// ToolCall represents an assistant's request to invoke a tool.
// Arguments holds the raw JSON object to avoid unnecessary deserialization.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

func (tc ToolCall) PartKind() string { return "tool_call" }

// ToolResult holds the output of a tool invocation.
type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

func (tr ToolResult) PartKind() string { return "tool_result" }
