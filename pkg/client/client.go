// Package client talks to a koinonia server: it posts chat turns and decodes
// the resulting event stream into callbacks.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/germanamz/koinonia/pkg/conversation"
	"github.com/germanamz/koinonia/pkg/events"
	"github.com/germanamz/koinonia/pkg/presentation"
	"github.com/germanamz/koinonia/pkg/sse"
	"github.com/germanamz/koinonia/pkg/studytools"
)

// ErrIncomplete is returned when a stream ends without done or error.
var ErrIncomplete = errors.New("client: stream ended before done")

// StatusError is returned when the server rejects a request.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: status %d: %s", e.StatusCode, e.Message)
}

// TurnError carries the message of an error event.
type TurnError struct {
	Message string
}

func (e *TurnError) Error() string { return "client: turn failed: " + e.Message }

// Request is a chat turn.
type Request struct {
	Messages              []conversation.Turn  `json:"messages"`
	Panels                []studytools.Panel   `json:"panels,omitempty"`
	Presentation          *Presentation        `json:"presentation,omitempty"`
	PresentationSummaries []studytools.Summary `json:"presentationSummaries,omitempty"`
	DeviceID              string               `json:"deviceId,omitempty"`
	ConversationID        string               `json:"conversationId,omitempty"`
}

// Presentation is the presentation a turn works on.
type Presentation struct {
	presentation.Document
	ID string `json:"id,omitempty"`
}

// Event is one received event. Data is the raw payload: plain text for text,
// thinking and error events, JSON otherwise.
type Event struct {
	Kind events.Kind
	Data string
}

// Decode unmarshals a JSON payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal([]byte(e.Data), v); err != nil {
		return fmt.Errorf("client: decode %s event: %w", e.Kind, err)
	}
	return nil
}

// Handler receives events in order. Returning an error stops the turn.
type Handler func(Event) error

// Client is a koinonia API client.
type Client struct {
	BaseURL string       // Server URL (no trailing slash).
	APIKey  string       // Bearer token; empty sends none.
	HTTP    *http.Client // Falls back to http.DefaultClient.
}

// New creates a Client for baseURL.
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: strings.TrimSuffix(baseURL, "/"), APIKey: apiKey}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) header() http.Header {
	h := http.Header{}
	if c.APIKey != "" {
		h.Set("Authorization", "Bearer "+c.APIKey)
	}
	return h
}

// Chat posts req and calls fn for every event until done. An error event
// ends the turn with a *TurnError.
func (c *Client) Chat(ctx context.Context, req Request, fn Handler) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("client: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	httpReq.Header = c.header()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return fmt.Errorf("client: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	rd := sse.NewReader(resp.Body)
	for {
		ev, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return ErrIncomplete
		}
		if err != nil {
			return err
		}
		if done, err := deliver(Event{Kind: events.Kind(ev.Name), Data: ev.Data}, fn); done || err != nil {
			return err
		}
	}
}

// ChatWS runs a turn over the websocket transport.
func (c *Client) ChatWS(ctx context.Context, req Request, fn Handler) error {
	u := "ws" + strings.TrimPrefix(c.BaseURL, "http") + "/api/chat/ws"
	conn, resp, err := websocket.Dial(ctx, u, &websocket.DialOptions{
		HTTPClient: c.httpClient(),
		HTTPHeader: c.header(),
	})
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return statusError(resp)
		}
		return fmt.Errorf("client: dial websocket: %w", err)
	}
	defer func() { _ = conn.CloseNow() }()

	if err := wsjson.Write(ctx, conn, req); err != nil {
		return fmt.Errorf("client: send request: %w", err)
	}

	for {
		var frame struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return ErrIncomplete
			}
			return fmt.Errorf("client: read frame: %w", err)
		}

		ev := Event{Kind: events.Kind(frame.Event), Data: string(frame.Data)}
		var s string
		if json.Unmarshal(frame.Data, &s) == nil {
			ev.Data = s
		}
		if done, err := deliver(ev, fn); done || err != nil {
			if done {
				_ = conn.Close(websocket.StatusNormalClosure, "")
			}
			return err
		}
	}
}

// deliver hands ev to fn and reports whether the turn is over.
func deliver(ev Event, fn Handler) (bool, error) {
	switch ev.Kind {
	case events.KindDone:
		return true, nil
	case events.KindError:
		return true, &TurnError{Message: ev.Data}
	}
	if err := fn(ev); err != nil {
		return true, err
	}
	return false, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var e struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}
