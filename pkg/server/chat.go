package server

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/germanamz/koinonia/pkg/chats/role"
	"github.com/germanamz/koinonia/pkg/conversation"
	"github.com/germanamz/koinonia/pkg/engine"
	"github.com/germanamz/koinonia/pkg/events"
	"github.com/germanamz/koinonia/pkg/presentation"
	"github.com/germanamz/koinonia/pkg/sse"
	"github.com/germanamz/koinonia/pkg/store"
	"github.com/germanamz/koinonia/pkg/studytools"
)

// anonymousDevice owns the usage of requests that name no device.
const anonymousDevice = "anonymous"

var errLimitReached = errors.New("server: monthly message limit reached")

// chatRequest is the body of a chat turn.
type chatRequest struct {
	Messages              []conversation.Turn  `json:"messages"`
	Panels                []studytools.Panel   `json:"panels"`
	Presentation          *presentationState   `json:"presentation"`
	PresentationSummaries []studytools.Summary `json:"presentationSummaries"`
	DeviceID              string               `json:"deviceId"`
	ConversationID        string               `json:"conversationId"`
}

// presentationState is the client's current presentation. ID is empty while
// it has never been saved.
type presentationState struct {
	presentation.Document
	ID string `json:"id"`
}

// limitError is the 429 body.
type limitError struct {
	Error string `json:"error"`
	Tier  string `json:"tier"`
	Limit int    `json:"limit"`
	Used  int    `json:"used"`
}

// account is the tier a turn runs under.
type account struct {
	device string
	tier   string
	limits engine.TierConfig
	period string
	used   int
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	acct, err := s.admit(r.Context(), req.DeviceID)
	if errors.Is(err, errLimitReached) {
		writeJSON(w, http.StatusTooManyRequests, acct.limitError())
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	sw := sse.NewWriter(w)
	stop := keepAlive(r.Context(), sw, s.cfg.KeepAlive)
	defer stop()
	s.runTurn(r.Context(), req, acct, sseSink(sw))
}

// keepAlive writes a comment to w every interval until the returned stop
// function is called. stop waits for the last write to finish.
func keepAlive(ctx context.Context, w *sse.Writer, interval time.Duration) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if w.Comment("keep-alive") != nil {
					return
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// sseSink writes events as server-sent events named after their kind.
func sseSink(w *sse.Writer) events.Sink {
	return events.SinkFunc(func(ctx context.Context, e events.Event) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := e.Payload()
		if err != nil {
			return fmt.Errorf("server: encode %s event: %w", e.Kind, err)
		}
		return w.Write(string(e.Kind), data)
	})
}

// admit resolves the device's tier and checks its monthly allowance. Without
// a store every turn runs under the default tier.
func (s *Server) admit(ctx context.Context, device string) (account, error) {
	acct := account{
		device: cmp.Or(device, anonymousDevice),
		tier:   engine.DefaultTier,
		period: store.Period(s.now()),
	}
	if s.store == nil {
		acct.limits = s.cfg.Tiers[acct.tier]
		return acct, nil
	}

	tier, err := s.store.Tier(ctx, acct.device)
	if err != nil {
		return acct, err
	}
	if tier != "" {
		if _, ok := s.cfg.Tiers[tier]; ok {
			acct.tier = tier
		} else {
			s.log.Warn("unknown tier, using default", "device", acct.device, "tier", tier)
		}
	}
	acct.limits = s.cfg.Tiers[acct.tier]

	acct.used, err = s.store.Usage(ctx, acct.device, acct.period)
	if err != nil {
		return acct, err
	}
	if acct.limits.MessageLimit > 0 && acct.used >= acct.limits.MessageLimit {
		return acct, errLimitReached
	}
	return acct, nil
}

func (a account) limitError() limitError {
	return limitError{
		Error: "Monthly message limit reached",
		Tier:  a.tier,
		Limit: a.limits.MessageLimit,
		Used:  a.used,
	}
}

// runTurn runs the engine and persists what the turn produced. The engine's
// done event is held back until the presentation is saved so a newly created
// presentation reaches the client with its id.
func (s *Server) runTurn(ctx context.Context, req chatRequest, acct account, sink events.Sink) {
	log := s.log.With("device", acct.device, "tier", acct.tier)

	held := &holdDone{sink: sink}
	res, err := s.runner.Run(ctx, engineRequest(req, acct), held)

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	savedID := s.persistPresentation(pctx, acct.device, res, log)
	if err == nil && !res.Cancelled {
		s.persistConversation(pctx, req, res, log)
		s.countUsage(pctx, acct, log)
	}

	if !held.done {
		return
	}
	if savedID != "" {
		update := events.Event{Kind: events.KindPresentationUpdate, Data: events.PresentationUpdate{
			Document:       res.Presentation,
			PresentationID: savedID,
		}}
		if err := sink.Emit(ctx, update); err != nil {
			log.Debug("saved presentation not delivered", "error", err)
			return
		}
	}
	if err := sink.Emit(ctx, events.Done()); err != nil {
		log.Debug("done not delivered", "error", err)
	}
}

func engineRequest(req chatRequest, acct account) engine.Request {
	er := engine.Request{
		Turns:          req.Messages,
		Panels:         req.Panels,
		Catalog:        req.PresentationSummaries,
		Model:          acct.limits.Model,
		ThinkingBudget: acct.limits.ThinkingBudget,
	}
	if p := req.Presentation; p != nil {
		doc := p.Document
		doc.Mode = presentation.ParseMode(string(doc.Mode))
		er.Presentation = &doc
		er.ActiveID = p.ID
	}
	return er
}

// persistPresentation saves a presentation the turn changed and returns its
// id when it was newly created.
func (s *Server) persistPresentation(ctx context.Context, device string, res engine.Result, log *slog.Logger) string {
	if s.store == nil || !res.Dirty {
		return ""
	}

	if res.ActiveID != "" {
		if err := s.store.UpdatePresentation(ctx, res.ActiveID, res.Presentation); err != nil {
			log.Error("update presentation", "presentation", res.ActiveID, "error", err)
		}
		return ""
	}

	id, err := s.store.SavePresentation(ctx, device, res.Presentation)
	if err != nil {
		log.Error("save presentation", "error", err)
		return ""
	}
	log.Info("presentation saved", "presentation", id)
	return id
}

// persistConversation appends the user's latest message and the assistant's
// answer to the conversation named by the request.
func (s *Server) persistConversation(ctx context.Context, req chatRequest, res engine.Result, log *slog.Logger) {
	if s.store == nil || req.ConversationID == "" {
		return
	}
	log = log.With("conversation", req.ConversationID)

	if last := req.Messages[len(req.Messages)-1]; last.Role == role.User {
		if _, err := s.store.AppendMessage(ctx, req.ConversationID, last); err != nil {
			log.Error("append user message", "error", err)
			return
		}
	}
	if t := res.Turn; t.Content == "" && t.Thinking == "" && len(t.ToolCalls) == 0 {
		return
	}
	if _, err := s.store.AppendMessage(ctx, req.ConversationID, res.Turn); err != nil {
		log.Error("append assistant message", "error", err)
	}
}

func (s *Server) countUsage(ctx context.Context, acct account, log *slog.Logger) {
	if s.store == nil {
		return
	}
	n, err := s.store.IncrementUsage(ctx, acct.device, acct.period)
	if err != nil {
		log.Error("increment usage", "error", err)
		return
	}
	log.Debug("usage counted", "period", acct.period, "used", n, "limit", acct.limits.MessageLimit)
}

// holdDone forwards every event except done, which it only records.
type holdDone struct {
	sink events.Sink
	done bool
}

func (h *holdDone) Emit(ctx context.Context, e events.Event) error {
	if e.Kind == events.KindDone {
		h.done = true
		return nil
	}
	return h.sink.Emit(ctx, e)
}
