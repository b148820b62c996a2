// Package sse implements the server-sent events wire format: a Writer for
// streaming responses and a Reader for consuming them.
package sse

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// maxLineSize bounds a single line on the wire. Partial tool arguments and
// presentation snapshots can be large.
const maxLineSize = 1 << 20

// Event is one dispatched server-sent event.
type Event struct {
	Name string
	Data string
}

// Writer writes events to an HTTP response and flushes after each one. It is
// safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
	rc *http.ResponseController
}

// NewWriter prepares w for an event stream by setting the response headers
// and returns a Writer for it. The headers are sent with the first event.
func NewWriter(w http.ResponseWriter) *Writer {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	return &Writer{w: w, rc: http.NewResponseController(w)}
}

// lineBreaks folds every line terminator the format recognizes into "\n".
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Write sends one event. Multi-line data is split into one data line per
// line so the reader reassembles it. Line endings arrive as "\n": a bare
// "\r" would otherwise end the data line early on the client.
func (w *Writer) Write(name string, data []byte) error {
	var b strings.Builder
	if name != "" {
		b.WriteString("event: ")
		b.WriteString(name)
		b.WriteByte('\n')
	}
	for line := range strings.SplitSeq(lineBreaks.Replace(string(data)), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	return w.send(b.String())
}

// Comment sends a comment line, which readers ignore. It keeps idle
// connections open through proxies.
func (w *Writer) Comment(text string) error {
	return w.send(": " + text + "\n\n")
}

func (w *Writer) send(s string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := io.WriteString(w.w, s); err != nil {
		return fmt.Errorf("sse: write: %w", err)
	}
	if err := w.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("sse: flush: %w", err)
	}
	return nil
}

// Reader decodes events from a stream.
type Reader struct {
	sc *bufio.Scanner
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	sc.Split(scanLines)
	return &Reader{sc: sc}
}

// Next returns the next event. It returns io.EOF once the stream ends with
// no pending event. Comments and unknown fields are skipped.
func (r *Reader) Next() (Event, error) {
	var (
		ev      Event
		data    []string
		pending bool
	)

	for r.sc.Scan() {
		line := r.sc.Text()

		if line == "" {
			if !pending {
				continue
			}
			ev.Data = strings.Join(data, "\n")
			return ev, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			ev.Name = value
			pending = true
		case "data":
			data = append(data, value)
			pending = true
		}
	}

	if err := r.sc.Err(); err != nil {
		return Event{}, fmt.Errorf("sse: read: %w", err)
	}
	if pending {
		ev.Data = strings.Join(data, "\n")
		return ev, nil
	}
	return Event{}, io.EOF
}

// scanLines is bufio.ScanLines extended to the three terminators of the
// format: "\r\n", "\n" and a bare "\r".
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexAny(data, "\r\n")
	switch {
	case i < 0:
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	case data[i] == '\n':
		return i + 1, data[:i], nil
	case i+1 < len(data):
		if data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	case atEOF:
		return i + 1, data[:i], nil
	}
	// A trailing "\r" may be the first half of "\r\n".
	return 0, nil, nil
}
