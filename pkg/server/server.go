// Package server exposes the study engine, the Bible text and the saved
// presentations and conversations over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/germanamz/koinonia/pkg/conversation"
	"github.com/germanamz/koinonia/pkg/engine"
	"github.com/germanamz/koinonia/pkg/events"
	"github.com/germanamz/koinonia/pkg/passage"
	"github.com/germanamz/koinonia/pkg/presentation"
	"github.com/germanamz/koinonia/pkg/store"
)

// Runner answers a chat turn. *engine.Engine implements it.
type Runner interface {
	Run(ctx context.Context, req engine.Request, sink events.Sink) (engine.Result, error)
}

// Store is the persistence the server needs. *store.Store implements it.
type Store interface {
	SavePresentation(ctx context.Context, deviceID string, doc presentation.Document) (string, error)
	UpdatePresentation(ctx context.Context, id string, doc presentation.Document) error
	GetPresentation(ctx context.Context, id string) (store.Presentation, error)
	ListPresentations(ctx context.Context, deviceID string) ([]store.Presentation, error)
	DeletePresentation(ctx context.Context, id string) error

	CreateConversation(ctx context.Context, deviceID, title string) (store.Conversation, error)
	GetConversation(ctx context.Context, id string) (store.Conversation, error)
	ListConversations(ctx context.Context, deviceID string) ([]store.Conversation, error)
	RenameConversation(ctx context.Context, id, title string) error
	DeleteConversation(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, id string, t conversation.Turn) (string, error)
	Messages(ctx context.Context, id string) ([]conversation.Turn, error)

	Tier(ctx context.Context, deviceID string) (string, error)
	Usage(ctx context.Context, deviceID, period string) (int, error)
	IncrementUsage(ctx context.Context, deviceID, period string) (int, error)
}

// Config holds the server settings that are not collaborators.
type Config struct {
	// APIKey is the bearer token required on the chat and library routes.
	// Empty disables authentication.
	APIKey string

	// Tiers maps tier names to their limits. Nil uses engine.DefaultTiers.
	Tiers map[string]engine.TierConfig

	// OriginPatterns are the cross-origin hosts allowed to open the chat
	// websocket.
	OriginPatterns []string

	// KeepAlive is the interval between comments on a chat event stream.
	// Zero uses defaultKeepAlive.
	KeepAlive time.Duration
}

// defaultKeepAlive keeps proxies from closing a stream that is quiet while
// the model thinks or tools run.
const defaultKeepAlive = 15 * time.Second

// persistTimeout bounds the post-turn writes, which outlive the request.
const persistTimeout = 10 * time.Second

// Server is the HTTP surface. It holds no per-request state.
type Server struct {
	runner   Runner
	resolver *passage.Resolver
	store    Store
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
}

// New creates a Server. A nil store disables the library routes, usage limits
// and persistence. A nil logger discards log output.
func New(runner Runner, resolver *passage.Resolver, st Store, cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.Tiers == nil {
		cfg.Tiers = engine.DefaultTiers()
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = defaultKeepAlive
	}
	return &Server{
		runner:   runner,
		resolver: resolver,
		store:    st,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Handler returns the routed handler with its middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.health)

	mux.HandleFunc("GET /api/bible/translations", s.translations)
	mux.HandleFunc("GET /api/bible/books/{translation}", s.books)
	mux.HandleFunc("GET /api/bible/chapter/{translation}/{bookId}/{chapter}", s.chapter)
	mux.HandleFunc("GET /api/bible/verse/{translation}/{bookId}/{chapter}/{verse}", s.verse)
	mux.HandleFunc("GET /api/bible/crossrefs/{bookId}/{chapter}", s.crossRefs)
	mux.HandleFunc("GET /api/bible/crossrefs/{bookId}/{chapter}/{verse}", s.crossRefs)

	mux.Handle("POST /api/chat", s.authenticate(http.HandlerFunc(s.chat)))
	mux.Handle("GET /api/chat/ws", s.authenticate(http.HandlerFunc(s.chatWS)))

	if s.store != nil {
		mux.Handle("GET /api/presentations", s.authenticate(http.HandlerFunc(s.listPresentations)))
		mux.Handle("POST /api/presentations", s.authenticate(http.HandlerFunc(s.createPresentation)))
		mux.Handle("GET /api/presentations/{id}", s.authenticate(http.HandlerFunc(s.getPresentation)))
		mux.Handle("PUT /api/presentations/{id}", s.authenticate(http.HandlerFunc(s.updatePresentation)))
		mux.Handle("DELETE /api/presentations/{id}", s.authenticate(http.HandlerFunc(s.deletePresentation)))

		mux.Handle("GET /api/conversations", s.authenticate(http.HandlerFunc(s.listConversations)))
		mux.Handle("POST /api/conversations", s.authenticate(http.HandlerFunc(s.createConversation)))
		mux.Handle("GET /api/conversations/{id}", s.authenticate(http.HandlerFunc(s.getConversation)))
		mux.Handle("PATCH /api/conversations/{id}", s.authenticate(http.HandlerFunc(s.renameConversation)))
		mux.Handle("DELETE /api/conversations/{id}", s.authenticate(http.HandlerFunc(s.deleteConversation)))
		mux.Handle("GET /api/conversations/{id}/messages", s.authenticate(http.HandlerFunc(s.conversationMessages)))
	}

	return s.recoverPanics(s.logRequests(cors(mux)))
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
