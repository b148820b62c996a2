package conversation

import (
	"context"

	"github.com/germanamz/koinonia/pkg/chats/role"
	"github.com/germanamz/koinonia/pkg/events"
)

type recordedBlock struct {
	text string
	call int
}

// Recorder is an events.Sink that assembles the assistant turn from the
// outbound event stream, the same way a client does. Invocations are paired by
// call id when the event carries one and otherwise by the first invocation of
// that name still missing its args or result.
//
// A Recorder is not safe for concurrent use.
type Recorder struct {
	content  string
	thinking string
	calls    []ToolInvocation
	blocks   []recordedBlock
}

// Emit records e. Events that do not contribute to the turn are ignored.
func (r *Recorder) Emit(_ context.Context, e events.Event) error {
	switch e.Kind {
	case events.KindText:
		s, _ := e.Data.(string)
		r.content += s
		if n := len(r.blocks); n > 0 && r.blocks[n-1].call < 0 {
			r.blocks[n-1].text += s
		} else {
			r.blocks = append(r.blocks, recordedBlock{text: s, call: -1})
		}
	case events.KindThinking:
		s, _ := e.Data.(string)
		r.thinking += s
	case events.KindToolCallStart:
		d, ok := e.Data.(events.ToolCallStart)
		if !ok {
			return nil
		}
		r.calls = append(r.calls, ToolInvocation{ID: d.ID, Name: d.Name})
		r.blocks = append(r.blocks, recordedBlock{call: len(r.calls) - 1})
	case events.KindToolCall:
		d, ok := e.Data.(events.ToolCall)
		if !ok {
			return nil
		}
		i := r.find(d.ID, d.Name, func(inv ToolInvocation) bool { return len(inv.Args) == 0 })
		if i < 0 {
			r.calls = append(r.calls, ToolInvocation{ID: d.ID, Name: d.Name})
			r.blocks = append(r.blocks, recordedBlock{call: len(r.calls) - 1})
			i = len(r.calls) - 1
		}
		if len(r.calls[i].Args) == 0 {
			r.calls[i].Args = d.Args
		}
	case events.KindToolResult:
		d, ok := e.Data.(events.ToolResult)
		if !ok {
			return nil
		}
		i := r.find(d.ID, d.Name, func(inv ToolInvocation) bool { return inv.Result == nil })
		if i >= 0 && r.calls[i].Result == nil {
			r.calls[i].Result = d.Result
		}
	}
	return nil
}

func (r *Recorder) find(id, name string, pending func(ToolInvocation) bool) int {
	if id != "" {
		for i, inv := range r.calls {
			if inv.ID == id {
				return i
			}
		}
	}
	for i, inv := range r.calls {
		if inv.Name == name && pending(inv) {
			return i
		}
	}
	return -1
}

// Turn returns the assistant turn recorded so far.
func (r *Recorder) Turn() Turn {
	t := Turn{
		Role:     role.Assistant,
		Content:  r.content,
		Thinking: r.thinking,
	}

	if len(r.calls) > 0 {
		t.ToolCalls = append([]ToolInvocation(nil), r.calls...)
	}
	for _, b := range r.blocks {
		if b.call < 0 {
			t.ContentBlocks = append(t.ContentBlocks, ContentBlock{Type: BlockText, Text: b.text})
			continue
		}
		inv := r.calls[b.call]
		t.ContentBlocks = append(t.ContentBlocks, ContentBlock{Type: BlockToolCall, ToolCall: &inv})
	}

	return t
}

// Empty reports whether nothing was recorded.
func (r *Recorder) Empty() bool {
	return r.content == "" && r.thinking == "" && len(r.calls) == 0
}
