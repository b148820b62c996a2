package studytools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/germanamz/koinonia/pkg/events"
	"github.com/germanamz/koinonia/pkg/passage"
	"github.com/germanamz/koinonia/pkg/presentation"
)

// Dispatcher executes decoded tool calls against a Session.
type Dispatcher struct {
	resolver *passage.Resolver
	log      *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil logger discards log output.
func NewDispatcher(resolver *passage.Resolver, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{resolver: resolver, log: log}
}

type errorResult struct {
	Error string `json:"error"`
}

type messageResult struct {
	Message string `json:"message"`
}

type successResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	TotalLines int    `json:"total_lines,omitempty"`
	Diff       string `json:"diff,omitempty"`
}

// Dispatch runs one tool call. It emits tool_call, then any UI events the
// tool produces, then tool_result, and returns the JSON result for the model.
// The tool_call_start notice is the caller's job since it precedes the
// arguments. The returned error is non-nil only when emitting fails.
func (d *Dispatcher) Dispatch(ctx context.Context, s *Session, id, name string, args json.RawMessage) (string, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	if err := s.emit(ctx, events.KindToolCall, events.ToolCall{ID: id, Name: name, Args: args}); err != nil {
		return "", err
	}

	log := d.log.With("tool", name, "tool_call_id", id)

	var (
		result any
		err    error
	)
	call, decodeErr := Decode(name, args)
	if decodeErr != nil {
		result = errorResult{Error: decodeErr.Error()}
	} else {
		result, err = d.run(ctx, s, call)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if !isSinkError(err) {
				if !isDomainError(err) {
					log.Warn("tool failed", "error", err)
				}
				result = errorResult{Error: err.Error()}
				err = nil
			}
		}
	}
	if err != nil {
		return "", err
	}

	data, mErr := json.Marshal(result)
	if mErr != nil {
		data, _ = json.Marshal(errorResult{Error: mErr.Error()})
	}

	if err := s.emit(ctx, events.KindToolResult, events.ToolResult{
		ID:     id,
		Name:   name,
		Args:   args,
		Result: data,
	}); err != nil {
		return "", err
	}

	log.Debug("tool executed", "result_bytes", len(data))
	return string(data), nil
}

func (d *Dispatcher) run(ctx context.Context, s *Session, call Call) (any, error) {
	switch c := call.(type) {
	case ReadPassageArgs:
		return d.readPassage(ctx, s.Panels, c)
	case OpenBiblePanelArgs:
		return d.openBiblePanel(ctx, s, c)
	case ListPresentationsArgs:
		return listPresentations(s), nil
	case ReadPresentationArgs:
		return readPresentation(ctx, s, c)
	case EditPresentationArgs:
		return editPresentation(ctx, s, c)
	case WritePresentationArgs:
		return writePresentation(ctx, s, c)
	case HighlightVerseArgs:
		return d.highlightVerse(ctx, s, c)
	case WriteJournalEntryArgs:
		return d.writeJournalEntry(ctx, s, c)
	default:
		panic(fmt.Sprintf("studytools: unhandled call %T", call))
	}
}

// sinkError marks failures of the event sink so they abort the turn.
type sinkError struct{ err error }

func (e sinkError) Error() string { return e.err.Error() }
func (e sinkError) Unwrap() error { return e.err }

func emitErr(err error) error {
	if err == nil {
		return nil
	}
	return sinkError{err: err}
}

func isSinkError(err error) bool {
	var se sinkError
	return errors.As(err, &se)
}

// errInvalidArgs marks missing or malformed arguments.
var errInvalidArgs = errors.New("invalid arguments")

func isDomainError(err error) bool {
	return errors.Is(err, passage.ErrBookNotFound) ||
		errors.Is(err, passage.ErrNoVersesFound) ||
		errors.Is(err, presentation.ErrModeMismatch) ||
		errors.Is(err, presentation.ErrInvalidRange) ||
		errors.Is(err, presentation.ErrEmpty) ||
		errors.Is(err, errInvalidArgs)
}
