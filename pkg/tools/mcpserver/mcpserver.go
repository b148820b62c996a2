// Package mcpserver exposes the read-only Scripture tools over the Model
// Context Protocol so desktop assistants can query the verse store.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/germanamz/koinonia/pkg/tools/toolbox"
)

// Name is the implementation name announced to MCP clients.
const Name = "koinonia-scripture"

// Server serves a toolbox over MCP.
type Server struct {
	server *mcp.Server
	log    *slog.Logger
}

// New creates a Server announcing version and offering every tool in tb. A
// nil logger discards log output.
func New(version string, tb *toolbox.ToolBox, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil),
		log:    log,
	}
	for _, t := range tb.Tools() {
		s.server.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}, s.handler(t))
	}
	return s
}

// Serve serves requests read from in, writing responses to out, until ctx is
// cancelled or the client disconnects.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return s.run(ctx, &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	})
}

func (s *Server) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// handler adapts a tool to the SDK. Tool failures are reported to the client
// as error results, never as protocol errors.
func (s *Server) handler(t toolbox.Tool) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.Params.Arguments
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}

		start := time.Now()
		out, err := t.Handler(ctx, args)
		log := s.log.With("tool", t.Name, "duration", time.Since(start))
		if err != nil {
			log.Warn("tool failed", "error", err)
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				IsError: true,
			}, nil
		}

		log.Debug("tool served", "bytes", len(out))
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: out}},
		}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
