package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/germanamz/koinonia/pkg/events"
)

// wsFrame is one event on the chat websocket. Data is the same payload the
// event stream carries, as a JSON string or object.
type wsFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// chatWS serves a chat turn over a websocket. The first client frame is the
// chat request; the server answers with event frames and closes normally
// after done or error.
func (s *Server) chatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.cfg.OriginPatterns})
	if err != nil {
		s.log.Debug("websocket accept", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()

	var req chatRequest
	if err := wsjson.Read(ctx, conn, &req); err != nil {
		_ = conn.Close(websocket.StatusUnsupportedData, "invalid chat request")
		return
	}
	if len(req.Messages) == 0 {
		_ = conn.Close(websocket.StatusPolicyViolation, "messages are required")
		return
	}

	acct, err := s.admit(ctx, req.DeviceID)
	if err != nil {
		msg := "Internal server error"
		if errors.Is(err, errLimitReached) {
			msg = acct.limitError().Error
		} else {
			s.log.Error("admit websocket turn", "error", err)
		}
		_ = wsjson.Write(ctx, conn, wsFrame{Event: string(events.KindError), Data: msg})
		_ = conn.Close(websocket.StatusPolicyViolation, msg)
		return
	}

	// The client may close early; reading drives the close handshake and
	// cancels the turn.
	ctx = conn.CloseRead(ctx)
	s.runTurn(ctx, req, acct, wsSink(conn))
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func wsSink(conn *websocket.Conn) events.Sink {
	var mu sync.Mutex
	return events.SinkFunc(func(ctx context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		return wsjson.Write(ctx, conn, wsFrame{Event: string(e.Kind), Data: e.Data})
	})
}
