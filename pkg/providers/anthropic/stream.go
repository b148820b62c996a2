package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/germanamz/koinonia/pkg/modeladapter"
	"github.com/germanamz/koinonia/pkg/modeladapter/usage"
	"github.com/germanamz/koinonia/pkg/sse"
)

// --- stream event types ---

type apiStreamEvent struct {
	Type         string          `json:"type"`
	Index        int             `json:"index"`
	Message      *apiMessageInfo `json:"message,omitempty"`
	ContentBlock *apiContent     `json:"content_block,omitempty"`
	Delta        *apiDelta       `json:"delta,omitempty"`
	Usage        *apiUsage       `json:"usage,omitempty"`
	Error        *apiError       `json:"error,omitempty"`
}

type apiMessageInfo struct {
	Usage apiUsage `json:"usage"`
}

type apiDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	Thinking    string `json:"thinking"`
	PartialJSON string `json:"partial_json"`
	Signature   string `json:"signature"`
	StopReason  string `json:"stop_reason"`
}

type apiUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// stream decodes a Messages API event stream into modeladapter events.
type stream struct {
	body    io.ReadCloser
	r       *sse.Reader
	tracker *usage.Tracker

	usage      usage.TokenCount
	stopReason string
	done       bool

	closeOnce sync.Once
	closeErr  error
}

func newStream(body io.ReadCloser, tracker *usage.Tracker) *stream {
	return &stream{body: body, r: sse.NewReader(body), tracker: tracker}
}

// Recv implements modeladapter.Stream.
func (s *stream) Recv() (modeladapter.StreamEvent, error) {
	for {
		if s.done {
			return modeladapter.StreamEvent{}, io.EOF
		}

		raw, err := s.r.Next()
		if errors.Is(err, io.EOF) {
			return modeladapter.StreamEvent{}, fmt.Errorf("anthropic: stream ended before message_stop: %w", io.ErrUnexpectedEOF)
		}
		if err != nil {
			return modeladapter.StreamEvent{}, fmt.Errorf("anthropic: %w", err)
		}

		var ev apiStreamEvent
		if err := json.Unmarshal([]byte(raw.Data), &ev); err != nil {
			return modeladapter.StreamEvent{}, fmt.Errorf("anthropic: decode %s event: %w", raw.Name, err)
		}

		out, ok, err := s.convert(ev)
		if err != nil || ok {
			return out, err
		}
	}
}

// convert maps one wire event. ok is false for events that carry no
// modeladapter event, such as pings and usage updates.
func (s *stream) convert(ev apiStreamEvent) (modeladapter.StreamEvent, bool, error) {
	switch ev.Type {
	case "message_start":
		if ev.Message != nil {
			s.addUsage(ev.Message.Usage)
		}

	case "content_block_start":
		if ev.ContentBlock == nil {
			return modeladapter.StreamEvent{}, false, nil
		}
		out := modeladapter.StreamEvent{Kind: modeladapter.EventBlockStart, Index: ev.Index}
		switch ev.ContentBlock.Type {
		case "tool_use":
			out.Block = modeladapter.BlockToolUse
			out.ID = ev.ContentBlock.ID
			out.Name = ev.ContentBlock.Name
		case "thinking", "redacted_thinking":
			out.Block = modeladapter.BlockThinking
		default:
			out.Block = modeladapter.BlockText
		}
		return out, true, nil

	case "content_block_delta":
		if ev.Delta == nil {
			return modeladapter.StreamEvent{}, false, nil
		}
		out := modeladapter.StreamEvent{Index: ev.Index}
		switch ev.Delta.Type {
		case "text_delta":
			out.Kind, out.Text = modeladapter.EventTextDelta, ev.Delta.Text
		case "thinking_delta":
			out.Kind, out.Text = modeladapter.EventThinkingDelta, ev.Delta.Thinking
		case "input_json_delta":
			out.Kind, out.Text = modeladapter.EventInputJSONDelta, ev.Delta.PartialJSON
		case "signature_delta":
			out.Kind, out.Text = modeladapter.EventSignatureDelta, ev.Delta.Signature
		default:
			return modeladapter.StreamEvent{}, false, nil
		}
		return out, true, nil

	case "content_block_stop":
		return modeladapter.StreamEvent{Kind: modeladapter.EventBlockStop, Index: ev.Index}, true, nil

	case "message_delta":
		if ev.Delta != nil && ev.Delta.StopReason != "" {
			s.stopReason = ev.Delta.StopReason
		}
		if ev.Usage != nil {
			// message_delta usage is cumulative for output tokens.
			s.usage.OutputTokens = ev.Usage.OutputTokens
		}

	case "message_stop":
		s.done = true
		if s.tracker != nil {
			s.tracker.Add(s.usage)
		}
		return modeladapter.StreamEvent{
			Kind:       modeladapter.EventMessageStop,
			StopReason: s.stopReason,
			Usage:      s.usage,
		}, true, nil

	case "error":
		msg := "unknown error"
		if ev.Error != nil {
			msg = ev.Error.Type + ": " + ev.Error.Message
		}
		return modeladapter.StreamEvent{}, false, fmt.Errorf("anthropic: stream error: %s", msg)
	}

	return modeladapter.StreamEvent{}, false, nil
}

func (s *stream) addUsage(u apiUsage) {
	s.usage = s.usage.Add(usage.TokenCount{
		InputTokens:              u.InputTokens,
		OutputTokens:             u.OutputTokens,
		CacheCreationInputTokens: u.CacheCreationInputTokens,
		CacheReadInputTokens:     u.CacheReadInputTokens,
	})
}

// Close implements modeladapter.Stream.
func (s *stream) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.body.Close() })
	return s.closeErr
}
