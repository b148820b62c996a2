package sse

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_FramesEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	require.NoError(t, w.Write("text", []byte("In the beginning")))
	require.NoError(t, w.Write("done", []byte("[DONE]")))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "event: text\ndata: In the beginning\n\nevent: done\ndata: [DONE]\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestWriter_MultiLineData(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	require.NoError(t, w.Write("text", []byte("line one\nline two\n")))

	assert.Equal(t, "event: text\ndata: line one\ndata: line two\ndata: \n\n", rec.Body.String())
}

func TestWriter_CarriageReturns(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	require.NoError(t, w.Write("text", []byte("before\rafter")))
	require.NoError(t, w.Write("text", []byte("a\r\nb")))

	assert.Equal(t, "event: text\ndata: before\ndata: after\n\nevent: text\ndata: a\ndata: b\n\n", rec.Body.String())

	r := NewReader(rec.Body)
	for _, want := range []string{"before\nafter", "a\nb"} {
		e, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, want, e.Data)
	}
}

func TestReader_LineTerminators(t *testing.T) {
	wire := "event: text\rdata: cr\r\revent: text\r\ndata: crlf\r\n\r\nevent: done\ndata: [DONE]\n\n"

	for name, src := range map[string]io.Reader{
		"whole":        strings.NewReader(wire),
		"byte by byte": iotest.OneByteReader(strings.NewReader(wire)),
	} {
		t.Run(name, func(t *testing.T) {
			r := NewReader(src)
			for _, want := range []Event{
				{Name: "text", Data: "cr"},
				{Name: "text", Data: "crlf"},
				{Name: "done", Data: "[DONE]"},
			} {
				e, err := r.Next()
				require.NoError(t, err)
				assert.Equal(t, want, e)
			}
			_, err := r.Next()
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestWriter_Comment(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	require.NoError(t, w.Comment("ping"))

	assert.Equal(t, ": ping\n\n", rec.Body.String())
}

func TestRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	sent := []Event{
		{Name: "thinking", Data: "Let me look at Genesis."},
		{Name: "text", Data: "Verse one\n\nverse two"},
		{Name: "tool_call", Data: `{"name":"read_passage"}`},
		{Name: "text", Data: ""},
		{Name: "done", Data: "[DONE]"},
	}
	for _, e := range sent {
		require.NoError(t, w.Write(e.Name, []byte(e.Data)))
	}

	r := NewReader(rec.Body)
	var got []Event
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, e)
	}

	assert.Equal(t, sent, got)
}

func TestReader_AnthropicStyleStream(t *testing.T) {
	stream := strings.Join([]string{
		"event: message_start",
		`data: {"type":"message_start"}`,
		"",
		": keepalive",
		"",
		"event: ping",
		"data:{}",
		"",
		"id: 7",
		"event: content_block_delta",
		`data: {"type":"content_block_delta"}`,
		"",
	}, "\r\n")

	r := NewReader(strings.NewReader(stream))

	e, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Name: "message_start", Data: `{"type":"message_start"}`}, e)

	e, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Name: "ping", Data: "{}"}, e)

	e, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "content_block_delta", e.Name)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_PendingEventAtEOF(t *testing.T) {
	r := NewReader(strings.NewReader("event: done\ndata: [DONE]"))

	e, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Name: "done", Data: "[DONE]"}, e)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_DataWithoutName(t *testing.T) {
	r := NewReader(strings.NewReader("data: hello\n\n"))

	e, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Data: "hello"}, e)
}
