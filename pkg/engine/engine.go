package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/germanamz/koinonia/pkg/chats/chat"
	"github.com/germanamz/koinonia/pkg/chats/content"
	"github.com/germanamz/koinonia/pkg/chats/message"
	"github.com/germanamz/koinonia/pkg/chats/role"
	"github.com/germanamz/koinonia/pkg/conversation"
	"github.com/germanamz/koinonia/pkg/events"
	"github.com/germanamz/koinonia/pkg/history"
	"github.com/germanamz/koinonia/pkg/modeladapter"
	"github.com/germanamz/koinonia/pkg/modeladapter/usage"
	"github.com/germanamz/koinonia/pkg/passage"
	"github.com/germanamz/koinonia/pkg/presentation"
	"github.com/germanamz/koinonia/pkg/studytools"
)

// ErrNoMessages is returned when a turn carries no conversation to answer.
var ErrNoMessages = errors.New("engine: no messages")

// roundLimitMessage is the notice sent when the round bound stops a turn.
const roundLimitMessage = "Reached the maximum number of tool rounds for this message. Send another message to continue."

// Request is one chat turn: the client's conversation plus the study context
// its tools operate on.
type Request struct {
	Turns        []conversation.Turn
	Panels       []studytools.Panel
	Presentation *presentation.Document
	ActiveID     string
	Catalog      []studytools.Summary

	// Model and ThinkingBudget override Options for this turn when set.
	Model          string
	ThinkingBudget int
}

// Result is what a turn leaves behind for the caller's persistence step.
type Result struct {
	Presentation presentation.Document
	Dirty        bool
	ActiveID     string
	Turn         conversation.Turn
	Rounds       int
	Usage        usage.TokenCount
	Cancelled    bool
}

// Engine runs tool-augmented chat turns against a model. It holds no
// per-turn state and is safe for concurrent use.
type Engine struct {
	streamer   modeladapter.Streamer
	resolver   *passage.Resolver
	dispatcher *studytools.Dispatcher
	opts       Options
	log        *slog.Logger
}

// New creates an Engine. A nil logger discards log output.
func New(streamer modeladapter.Streamer, resolver *passage.Resolver, opts Options, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		streamer:   streamer,
		resolver:   resolver,
		dispatcher: studytools.NewDispatcher(resolver, log),
		opts:       opts.withDefaults(),
		log:        log,
	}
}

// Options returns the effective options after defaults.
func (e *Engine) Options() Options { return e.opts }

type turn struct {
	req     Request
	session *studytools.Session
	sink    events.Sink
	log     *slog.Logger
	rounds  int
	usage   usage.TokenCount
}

// Run answers one turn, writing events to sink in order. It ends with done
// on success. A provider or transport failure emits a single error event and
// is returned. Cancellation emits nothing and reports Result.Cancelled.
func (e *Engine) Run(ctx context.Context, req Request, sink events.Sink) (Result, error) {
	if sink == nil {
		sink = events.Discard
	}

	rec := &conversation.Recorder{}
	out := events.Tee(sink, rec)
	t := &turn{
		req:     req,
		session: studytools.NewSession(out, req.Panels, req.Presentation, req.ActiveID, req.Catalog),
		sink:    out,
		log:     e.log.With("turn_messages", len(req.Turns)),
	}

	err := e.run(ctx, t)

	res := Result{
		Presentation: t.session.Doc.Snapshot(),
		Dirty:        t.session.Dirty(),
		ActiveID:     t.session.ActiveID,
		Turn:         rec.Turn(),
		Rounds:       t.rounds,
		Usage:        t.usage,
	}

	switch {
	case err == nil:
		t.log.Debug("turn complete", "rounds", t.rounds, "input_tokens", t.usage.InputTokens, "output_tokens", t.usage.OutputTokens)
		return res, nil
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		t.log.Info("turn cancelled", "rounds", t.rounds)
		res.Cancelled = true
		return res, nil
	}

	t.log.Error("turn failed", "rounds", t.rounds, "error", err)
	if emitErr := sink.Emit(ctx, events.Error(err.Error())); emitErr != nil {
		t.log.Debug("error event not delivered", "error", emitErr)
	}
	return res, err
}

func (e *Engine) run(ctx context.Context, t *turn) error {
	menu, err := e.resolver.TranslationMenu(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		t.log.Warn("translation menu unavailable", "error", err)
	}

	base := modeladapter.Request{
		Model:          e.opts.Model,
		System:         []string{SystemPrompt},
		Tools:          studytools.Definitions(menu),
		MaxTokens:      e.opts.MaxTokens,
		ThinkingBudget: e.opts.ThinkingBudget,
	}
	if t.req.Model != "" {
		base.Model = t.req.Model
	}
	if t.req.ThinkingBudget != 0 {
		base.ThinkingBudget = max(t.req.ThinkingBudget, 0)
	}
	if pc := PanelContext(t.req.Panels); pc != "" {
		base.System = append(base.System, pc)
	}

	conv := chat.New(conversation.Reconstruct(t.req.Turns)...)
	if conv.Len() == 0 {
		return ErrNoMessages
	}
	trimmed, tokens, err := history.Trim(ctx, conv.Messages(), e.opts.TokenBudget, e.counter(base, t.log))
	if err != nil {
		return err
	}
	conv.Replace(trimmed...)
	t.log.Debug("history prepared", "messages", conv.Len(), "tokens", tokens, "model", base.Model)

	for round := range e.opts.MaxRounds {
		t.rounds = round + 1
		log := t.log.With("round", t.rounds)

		req := base
		req.Messages = conv.Messages()
		msg, stop, err := e.round(ctx, t, req)
		if err != nil {
			return err
		}

		calls := msg.ToolCalls()
		if stop != modeladapter.StopToolUse || len(calls) == 0 {
			log.Debug("model finished", "stop_reason", stop)
			return t.sink.Emit(ctx, events.Done())
		}

		conv.Append(msg.WithoutThinking())

		results := make([]content.Part, 0, len(calls))
		for _, c := range calls {
			out, err := e.dispatcher.Dispatch(ctx, t.session, c.ID, c.Name, json.RawMessage(c.Arguments))
			if err != nil {
				return err
			}
			results = append(results, content.ToolResult{ToolCallID: c.ID, Content: out})
		}
		conv.Append(message.New(role.User, results...))
		log.Debug("tools executed", "calls", len(calls))
	}

	t.log.Warn("round limit reached", "rounds", e.opts.MaxRounds)
	if err := t.sink.Emit(ctx, events.Event{
		Kind: events.KindRoundLimit,
		Data: events.RoundLimit{Rounds: e.opts.MaxRounds, Message: roundLimitMessage},
	}); err != nil {
		return err
	}
	return t.sink.Emit(ctx, events.Done())
}

// round streams one model response, forwarding its deltas, and returns the
// assembled assistant message with its stop reason.
func (e *Engine) round(ctx context.Context, t *turn, req modeladapter.Request) (message.Message, string, error) {
	stream, err := e.streamer.Stream(ctx, req)
	if err != nil {
		return message.Message{}, "", fmt.Errorf("engine: open stream: %w", err)
	}
	defer func() { _ = stream.Close() }()

	var (
		acc     modeladapter.Accumulator
		tools   = map[int]string{}
		preview = rate.Sometimes{Interval: e.opts.PreviewInterval}
	)

	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return message.Message{}, "", fmt.Errorf("engine: read stream: %w", err)
		}
		acc.Add(ev)

		var emit *events.Event
		switch ev.Kind {
		case modeladapter.EventTextDelta:
			if ev.Text != "" {
				emit = ptr(events.Text(ev.Text))
			}
		case modeladapter.EventThinkingDelta:
			if ev.Text != "" {
				emit = ptr(events.Thinking(ev.Text))
			}
		case modeladapter.EventBlockStart:
			if ev.Block == modeladapter.BlockToolUse {
				tools[ev.Index] = ev.Name
				emit = &events.Event{Kind: events.KindToolCallStart, Data: events.ToolCallStart{ID: ev.ID, Name: ev.Name}}
			}
		case modeladapter.EventInputJSONDelta:
			if tools[ev.Index] != studytools.WritePresentation {
				break
			}
			preview.Do(func() {
				if html, ok := partialHTML(acc.Arguments(ev.Index)); ok {
					emit = &events.Event{Kind: events.KindPresentationStreaming, Data: events.PresentationStreaming{HTML: html}}
				}
			})
		case modeladapter.EventMessageStop:
			t.usage = t.usage.Add(ev.Usage)
		}

		if emit != nil {
			if err := t.sink.Emit(ctx, *emit); err != nil {
				return message.Message{}, "", err
			}
		}
	}

	return acc.Message(), acc.StopReason(), nil
}

// counter returns the token counter used for trimming: the provider's exact
// count when available, the local estimate otherwise.
func (e *Engine) counter(base modeladapter.Request, log *slog.Logger) history.CountFunc {
	estimate := history.Estimator{System: base.System, Tools: base.Tools}

	tc, ok := e.streamer.(modeladapter.TokenCounter)
	if !ok {
		return estimate.Count
	}

	exact := true
	return func(ctx context.Context, msgs []message.Message) (int, error) {
		if exact {
			req := base
			req.Messages = msgs
			n, err := tc.CountTokens(ctx, req)
			if err == nil {
				return n, nil
			}
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			log.Warn("token count unavailable, estimating", "error", err)
			exact = false
		}
		return estimate.Count(ctx, msgs)
	}
}

func ptr[T any](v T) *T { return &v }
