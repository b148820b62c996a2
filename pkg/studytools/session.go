package studytools

import (
	"context"

	"github.com/germanamz/koinonia/pkg/events"
	"github.com/germanamz/koinonia/pkg/presentation"
)

// Panel is a Bible panel the user has open.
type Panel struct {
	Translation string `json:"translation"`
	BookName    string `json:"bookName"`
	Chapter     int    `json:"chapter"`
}

// Summary describes a saved presentation in the catalog.
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Mode  string `json:"mode"`
}

// Session is the mutable per-request state tools operate on. It is owned by
// one request and discarded when the request ends.
type Session struct {
	Panels   []Panel
	Doc      *presentation.Document
	ActiveID string
	Catalog  []Summary
	Sink     events.Sink

	dirty bool
}

// NewSession creates a session seeded with the client's presentation state.
// A nil doc starts an empty document-mode presentation.
func NewSession(sink events.Sink, panels []Panel, doc *presentation.Document, activeID string, catalog []Summary) *Session {
	if doc == nil {
		doc = &presentation.Document{Mode: presentation.ModeDocument}
	}
	if sink == nil {
		sink = events.Discard
	}
	return &Session{
		Panels:   panels,
		Doc:      doc,
		ActiveID: activeID,
		Catalog:  catalog,
		Sink:     sink,
	}
}

// Dirty reports whether a tool changed the presentation during this session.
func (s *Session) Dirty() bool { return s.dirty }

func (s *Session) emit(ctx context.Context, kind events.Kind, data any) error {
	return s.Sink.Emit(ctx, events.Event{Kind: kind, Data: data})
}

// publish marks the presentation changed and sends its full state.
func (s *Session) publish(ctx context.Context, id string) error {
	s.dirty = true
	return s.emit(ctx, events.KindPresentationUpdate, events.PresentationUpdate{
		Document:       s.Doc.Snapshot(),
		PresentationID: id,
	})
}

func (s *Session) title(id string) string {
	for _, p := range s.Catalog {
		if p.ID == id && p.Title != "" {
			return p.Title
		}
	}
	return id
}
