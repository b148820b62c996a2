package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/koinonia/pkg/chats/role"
	"github.com/germanamz/koinonia/pkg/conversation"
	"github.com/germanamz/koinonia/pkg/events"
	"github.com/germanamz/koinonia/pkg/sse"
)

var question = Request{
	Messages: []conversation.Turn{{Role: role.User, Content: "What is grace?"}},
	DeviceID: "dev-1",
}

// streamServer answers /api/chat with evs after checking the request.
func streamServer(t *testing.T, evs ...events.Event) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var req Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, question, req)

		sw := sse.NewWriter(w)
		for _, e := range evs {
			data, err := e.Payload()
			assert.NoError(t, err)
			assert.NoError(t, sw.Write(string(e.Kind), data))
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func collect(got *[]Event) Handler {
	return func(e Event) error {
		*got = append(*got, e)
		return nil
	}
}

func TestChat(t *testing.T) {
	ts := streamServer(t,
		events.Thinking("ponder"),
		events.Text("Grace is\nunmerited favor."),
		events.Event{Kind: events.KindToolCallStart, Data: events.ToolCallStart{ID: "toolu_1", Name: "read_passage"}},
		events.Done(),
		events.Text("never delivered"),
	)

	var got []Event
	require.NoError(t, New(ts.URL+"/", "k").Chat(context.Background(), question, collect(&got)))

	require.Len(t, got, 3)
	assert.Equal(t, Event{Kind: events.KindThinking, Data: "ponder"}, got[0])
	assert.Equal(t, "Grace is\nunmerited favor.", got[1].Data)

	var start events.ToolCallStart
	require.NoError(t, got[2].Decode(&start))
	assert.Equal(t, events.ToolCallStart{ID: "toolu_1", Name: "read_passage"}, start)
}

func TestChat_ErrorEvent(t *testing.T) {
	ts := streamServer(t, events.Text("par"), events.Error("engine: read stream: reset"))

	err := New(ts.URL, "k").Chat(context.Background(), question, func(Event) error { return nil })

	var te *TurnError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "engine: read stream: reset", te.Message)
}

func TestChat_Incomplete(t *testing.T) {
	ts := streamServer(t, events.Text("cut"))

	err := New(ts.URL, "k").Chat(context.Background(), question, func(Event) error { return nil })
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestChat_HandlerStops(t *testing.T) {
	ts := streamServer(t, events.Text("a"), events.Text("b"), events.Done())
	stop := errors.New("stop")

	calls := 0
	err := New(ts.URL, "k").Chat(context.Background(), question, func(Event) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestChat_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"Monthly message limit reached","limit":30}`))
	}))
	defer ts.Close()

	err := New(ts.URL, "k").Chat(context.Background(), question, func(Event) error { return nil })

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, "Monthly message limit reached", se.Message)
}

func TestChatWS(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/ws", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		conn, err := websocket.Accept(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer func() { _ = conn.CloseNow() }()

		var req Request
		assert.NoError(t, wsjson.Read(r.Context(), conn, &req))
		assert.Equal(t, question, req)

		for _, f := range []map[string]any{
			{"event": "text", "data": "Amen"},
			{"event": "open_panel", "data": events.OpenPanel{Translation: "KJV", BookID: 43, BookName: "John", Chapter: 3}},
			{"event": "done", "data": events.DoneSentinel},
		} {
			assert.NoError(t, wsjson.Write(r.Context(), conn, f))
		}
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []Event
	require.NoError(t, New(ts.URL, "k").ChatWS(ctx, question, collect(&got)))

	require.Len(t, got, 2)
	assert.Equal(t, Event{Kind: events.KindText, Data: "Amen"}, got[0])

	var panel events.OpenPanel
	require.NoError(t, got[1].Decode(&panel))
	assert.Equal(t, "John", panel.BookName)
}
