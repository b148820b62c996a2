package modeladapter

import (
	"context"

	"github.com/germanamz/koinonia/pkg/chats/message"
	"github.com/germanamz/koinonia/pkg/modeladapter/usage"
	"github.com/germanamz/koinonia/pkg/tools/toolbox"
)

// Request is one model round: the fixed system blocks, the conversation so far
// and the tools the model may call.
type Request struct {
	Model          string
	System         []string
	Messages       []message.Message
	Tools          []toolbox.Tool
	MaxTokens      int
	ThinkingBudget int // 0 disables extended thinking.
}

// EventKind identifies a stream event.
type EventKind string

const (
	EventBlockStart     EventKind = "block_start"
	EventTextDelta      EventKind = "text_delta"
	EventThinkingDelta  EventKind = "thinking_delta"
	EventSignatureDelta EventKind = "signature_delta"
	EventInputJSONDelta EventKind = "input_json_delta"
	EventBlockStop      EventKind = "block_stop"
	EventMessageStop    EventKind = "message_stop"
)

// BlockType is the type of a content block opened by EventBlockStart.
type BlockType string

const (
	BlockText     BlockType = "text"
	BlockThinking BlockType = "thinking"
	BlockToolUse  BlockType = "tool_use"
)

// Stop reasons reported with EventMessageStop.
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
)

// StreamEvent is one incremental piece of a streamed model response.
//
// Index identifies the content block the event belongs to. Block is set on
// EventBlockStart; ID and Name are set when a tool_use block starts. Text
// carries the delta for the *_delta kinds. StopReason and Usage are set on
// EventMessageStop.
type StreamEvent struct {
	Kind       EventKind
	Index      int
	Block      BlockType
	ID         string
	Name       string
	Text       string
	StopReason string
	Usage      usage.TokenCount
}

// Stream yields the events of one model round in order. Recv returns io.EOF
// after EventMessageStop. Close releases the underlying connection and is safe
// to call more than once.
type Stream interface {
	Recv() (StreamEvent, error)
	Close() error
}

// Streamer opens streamed model rounds.
type Streamer interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// TokenCounter counts the input tokens of a request without running it.
type TokenCounter interface {
	CountTokens(ctx context.Context, req Request) (int, error)
}

// UsageReporter provides token usage information from a streamer.
// Streamers that embed ModelAdapter implement this interface automatically.
type UsageReporter interface {
	UsageTracker() *usage.Tracker
	ModelMaxTokens() int
}
