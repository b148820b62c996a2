// Package events defines the outbound event vocabulary of a chat turn and the
// Sink interface every transport implements.
package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/germanamz/koinonia/pkg/presentation"
)

// Kind identifies the type of an outbound event. The string value is the SSE
// event name.
type Kind string

const (
	KindThinking              Kind = "thinking"
	KindText                  Kind = "text"
	KindToolCallStart         Kind = "tool_call_start"
	KindToolCall              Kind = "tool_call"
	KindToolResult            Kind = "tool_result"
	KindOpenPanel             Kind = "open_panel"
	KindPresentationStreaming Kind = "presentation_streaming"
	KindPresentationUpdate    Kind = "presentation_update"
	KindSwitchPresentation    Kind = "switch_presentation"
	KindHighlightVerse        Kind = "highlight_verse"
	KindJournalEntry          Kind = "journal_entry"
	KindRoundLimit            Kind = "round_limit"
	KindError                 Kind = "error"
	KindDone                  Kind = "done"
)

// DoneSentinel is the payload of the terminal done event.
const DoneSentinel = "[DONE]"

// Event is one outbound notification. Data is a string for thinking, text,
// error and done events and one of the payload structs below otherwise.
type Event struct {
	Kind Kind
	Data any
}

// Payload renders the event data the way it travels on the wire: strings
// verbatim, everything else as JSON.
func (e Event) Payload() ([]byte, error) {
	if s, ok := e.Data.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(e.Data)
}

// Text builds a visible answer chunk.
func Text(s string) Event { return Event{Kind: KindText, Data: s} }

// Thinking builds a reasoning chunk.
func Thinking(s string) Event { return Event{Kind: KindThinking, Data: s} }

// Error builds a fatal-for-this-turn error event.
func Error(msg string) Event { return Event{Kind: KindError, Data: msg} }

// Done builds the terminal marker.
func Done() Event { return Event{Kind: KindDone, Data: DoneSentinel} }

// ToolCallStart is emitted as soon as a tool name is known.
type ToolCallStart struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// ToolCall is emitted once the arguments are complete.
type ToolCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ToolResult is emitted after the tool ran.
type ToolResult struct {
	ID     string          `json:"id,omitempty"`
	Name   string          `json:"name"`
	Args   json.RawMessage `json:"args"`
	Result json.RawMessage `json:"result"`
}

// OpenPanel asks the client to open a new Bible panel.
type OpenPanel struct {
	Translation string `json:"translation"`
	BookID      int    `json:"bookId"`
	BookName    string `json:"bookName"`
	Chapter     int    `json:"chapter"`
}

// PresentationStreaming carries a partial live preview of a document being
// written.
type PresentationStreaming struct {
	HTML string `json:"html"`
}

// PresentationUpdate is the authoritative full presentation state.
type PresentationUpdate struct {
	presentation.Document
	PresentationID string `json:"presentationId,omitempty"`
}

// SwitchPresentation asks the client to load another presentation before the
// next turn.
type SwitchPresentation struct {
	PresentationID string `json:"presentationId"`
}

// HighlightVerse asks the client to highlight a word range of a verse.
type HighlightVerse struct {
	Translation string `json:"translation"`
	BookID      int    `json:"bookId"`
	Chapter     int    `json:"chapter"`
	Verse       int    `json:"verse"`
	StartWord   int    `json:"startWord"`
	EndWord     int    `json:"endWord"`
	Color       string `json:"color"`
}

// JournalEntry asks the client to store a journal entry.
type JournalEntry struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	BookID   int    `json:"bookId"`
	BookName string `json:"bookName"`
	Chapter  int    `json:"chapter"`
	Verse    int    `json:"verse,omitempty"`
}

// RoundLimit tells the client the turn stopped because the tool round bound
// was reached.
type RoundLimit struct {
	Rounds  int    `json:"rounds"`
	Message string `json:"message"`
}

// Sink receives events in order. Emit blocks until the event is written so a
// slow consumer slows the producer down.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e Event) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, e Event) error { return f(ctx, e) }

// Tee returns a Sink that forwards every event to each sink in order. All
// sinks see the event even when one fails; the errors are joined.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, e Event) error {
		var errs []error
		for _, s := range sinks {
			if err := s.Emit(ctx, e); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) error { return nil })
