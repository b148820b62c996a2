// Package conversation models chat turns the way the client stores them and
// converts them to and from the provider's alternating message structure.
package conversation

import (
	"encoding/json"
	"fmt"

	"github.com/germanamz/koinonia/pkg/chats/content"
	"github.com/germanamz/koinonia/pkg/chats/message"
	"github.com/germanamz/koinonia/pkg/chats/role"
)

// NoResult is the tool result content sent for an invocation that never
// produced one.
const NoResult = "No result"

// ToolInvocation is one tool call inside an assistant turn. Name is always
// set; Args is filled once and Result at most once, after Args.
type ToolInvocation struct {
	ID     string          `json:"id,omitempty"`
	Name   string          `json:"name"`
	Args   json.RawMessage `json:"args"`
	Result json.RawMessage `json:"result,omitempty"`
}

// BlockType discriminates ContentBlock.
type BlockType string

const (
	BlockText     BlockType = "text"
	BlockToolCall BlockType = "tool_call"
)

// ContentBlock is one segment of the interleaved text and tool rendering of
// an assistant turn.
type ContentBlock struct {
	Type     BlockType       `json:"type"`
	Text     string          `json:"text,omitempty"`
	ToolCall *ToolInvocation `json:"toolCall,omitempty"`
}

// Turn is one message of a conversation as seen by the client.
type Turn struct {
	Role          role.Role        `json:"role"`
	Content       string           `json:"content"`
	Thinking      string           `json:"thinking,omitempty"`
	ToolCalls     []ToolInvocation `json:"toolCalls,omitempty"`
	ContentBlocks []ContentBlock   `json:"contentBlocks,omitempty"`
}

// Reconstruct converts client turns into provider messages. An assistant turn
// with N invocations expands into an assistant message with N tool calls, a
// user message with N tool results in call order and, when the turn has text,
// a trailing assistant text message. Tool call ids are generated as hist_<n>
// from a counter local to this call. Thinking is never carried over.
func Reconstruct(turns []Turn) []message.Message {
	var (
		out     []message.Message
		counter int
	)

	for _, t := range turns {
		switch t.Role {
		case role.User:
			out = append(out, message.NewText(role.User, t.Content))
		case role.Assistant:
			if len(t.ToolCalls) == 0 {
				if t.Content != "" {
					out = append(out, message.NewText(role.Assistant, t.Content))
				}
				continue
			}

			calls := make([]content.Part, len(t.ToolCalls))
			results := make([]content.Part, len(t.ToolCalls))
			for i, inv := range t.ToolCalls {
				id := fmt.Sprintf("hist_%d", counter)
				counter++

				calls[i] = content.ToolCall{ID: id, Name: inv.Name, Arguments: argsString(inv.Args)}
				results[i] = content.ToolResult{ToolCallID: id, Content: resultString(inv.Result)}
			}

			out = append(out,
				message.New(role.Assistant, calls...),
				message.New(role.User, results...),
			)
			if t.Content != "" {
				out = append(out, message.NewText(role.Assistant, t.Content))
			}
		}
	}

	return out
}

// Flatten is the inverse of Reconstruct: tool results are matched back to
// their invocations by tool call id and trailing assistant text is folded into
// the turn that issued the tools.
func Flatten(msgs []message.Message) []Turn {
	var (
		out  []Turn
		open = -1
	)

	for _, m := range msgs {
		switch {
		case m.IsToolResults():
			if open < 0 {
				continue
			}
			t := &out[open]
			for _, r := range m.ToolResults() {
				for i := range t.ToolCalls {
					if t.ToolCalls[i].ID == r.ToolCallID && t.ToolCalls[i].Result == nil {
						t.ToolCalls[i].Result = resultJSON(r.Content)
						break
					}
				}
			}
		case m.Role == role.User:
			open = -1
			out = append(out, Turn{Role: role.User, Content: m.TextContent()})
		default:
			calls := m.ToolCalls()
			if open < 0 {
				out = append(out, Turn{Role: role.Assistant})
				open = len(out) - 1
			}
			t := &out[open]
			t.Content += m.TextContent()
			for _, c := range calls {
				t.ToolCalls = append(t.ToolCalls, ToolInvocation{
					ID:   c.ID,
					Name: c.Name,
					Args: json.RawMessage(c.Arguments),
				})
			}
			if len(calls) == 0 {
				open = -1
			}
		}
	}

	return out
}

func argsString(args json.RawMessage) string {
	if len(args) == 0 || string(args) == "null" {
		return "{}"
	}
	return string(args)
}

func resultString(result json.RawMessage) string {
	if len(result) == 0 || string(result) == "null" {
		return NoResult
	}
	return string(result)
}

func resultJSON(s string) json.RawMessage {
	if s == NoResult || s == "" {
		return nil
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	b, _ := json.Marshal(s)
	return b
}
