package modeladapter

import (
	"slices"
	"strings"

	"github.com/germanamz/koinonia/pkg/chats/content"
	"github.com/germanamz/koinonia/pkg/chats/message"
	"github.com/germanamz/koinonia/pkg/chats/role"
)

type block struct {
	kind      BlockType
	id        string
	name      string
	text      strings.Builder
	signature strings.Builder
}

// Accumulator assembles the assistant message of one round from its stream
// events. The zero value is ready to use.
type Accumulator struct {
	blocks     map[int]*block
	order      []int
	stopReason string
}

// Add folds ev into the message under construction.
func (a *Accumulator) Add(ev StreamEvent) {
	if a.blocks == nil {
		a.blocks = make(map[int]*block)
	}

	switch ev.Kind {
	case EventBlockStart:
		if _, ok := a.blocks[ev.Index]; !ok {
			a.order = append(a.order, ev.Index)
		}
		a.blocks[ev.Index] = &block{kind: ev.Block, id: ev.ID, name: ev.Name}
	case EventTextDelta, EventThinkingDelta, EventInputJSONDelta:
		a.at(ev).text.WriteString(ev.Text)
	case EventSignatureDelta:
		a.at(ev).signature.WriteString(ev.Text)
	case EventMessageStop:
		a.stopReason = ev.StopReason
	}
}

// at returns the block of ev, opening one of the delta's implied type when the
// provider skipped the start event.
func (a *Accumulator) at(ev StreamEvent) *block {
	b, ok := a.blocks[ev.Index]
	if ok {
		return b
	}

	kind := BlockText
	switch ev.Kind {
	case EventThinkingDelta, EventSignatureDelta:
		kind = BlockThinking
	case EventInputJSONDelta:
		kind = BlockToolUse
	}
	b = &block{kind: kind}
	a.blocks[ev.Index] = b
	a.order = append(a.order, ev.Index)
	return b
}

// Arguments returns the argument JSON received so far for the tool_use block
// at index.
func (a *Accumulator) Arguments(index int) string {
	if b, ok := a.blocks[index]; ok && b.kind == BlockToolUse {
		return b.text.String()
	}
	return ""
}

// StopReason returns the stop reason of the round, empty until message_stop.
func (a *Accumulator) StopReason() string { return a.stopReason }

// Message returns the assistant message with its parts in block order. Empty
// text blocks are dropped and tool calls without arguments get "{}".
func (a *Accumulator) Message() message.Message {
	indexes := slices.Clone(a.order)
	slices.Sort(indexes)

	parts := make([]content.Part, 0, len(indexes))
	for _, i := range indexes {
		b := a.blocks[i]
		switch b.kind {
		case BlockThinking:
			parts = append(parts, content.Thinking{Text: b.text.String(), Signature: b.signature.String()})
		case BlockToolUse:
			args := b.text.String()
			if strings.TrimSpace(args) == "" {
				args = "{}"
			}
			parts = append(parts, content.ToolCall{ID: b.id, Name: b.name, Arguments: args})
		default:
			if b.text.Len() > 0 {
				parts = append(parts, content.Text{Text: b.text.String()})
			}
		}
	}

	return message.New(role.Assistant, parts...)
}
