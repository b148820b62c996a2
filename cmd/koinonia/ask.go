package main

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/germanamz/koinonia/pkg/chats/role"
	"github.com/germanamz/koinonia/pkg/client"
	"github.com/germanamz/koinonia/pkg/conversation"
	"github.com/germanamz/koinonia/pkg/events"
	"github.com/germanamz/koinonia/pkg/studytools"
)

const defaultServerURL = "http://localhost:8080"

var (
	toolStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")) // magenta
	thinkingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            // gray
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))            // yellow
)

type askOptions struct {
	server    string
	apiKey    string
	device    string
	panel     string
	websocket bool
	verbose   bool
	plain     bool
}

func newAskCommand() *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a study question and stream the answer from a running server",
		Example: `  koinonia ask "What does John 1:1 mean?"
  koinonia ask --panel "KJV John 3" "Summarize this chapter"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, strings.Join(args, " "))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.server, "server", "", "server URL (default $KOINONIA_URL or "+defaultServerURL+")")
	f.StringVar(&opts.apiKey, "api-key", "", "API key (default $KOINONIA_API_KEY)")
	f.StringVar(&opts.device, "device", "", "device id usage is counted against")
	f.StringVar(&opts.panel, "panel", "", `open Bible panel as "<translation> <book> <chapter>"`)
	f.BoolVar(&opts.websocket, "ws", false, "use the websocket transport")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "show thinking")
	f.BoolVar(&opts.plain, "plain", false, "print the answer as it streams, without markdown rendering")
	return cmd
}

func runAsk(cmd *cobra.Command, opts *askOptions, question string) error {
	c := client.New(
		cmp.Or(opts.server, os.Getenv("KOINONIA_URL"), defaultServerURL),
		cmp.Or(opts.apiKey, os.Getenv("KOINONIA_API_KEY")),
	)

	req := client.Request{
		Messages: []conversation.Turn{{Role: role.User, Content: question}},
		DeviceID: opts.device,
	}
	if opts.panel != "" {
		p, err := parsePanel(opts.panel)
		if err != nil {
			return err
		}
		req.Panels = []studytools.Panel{p}
	}

	out := cmd.OutOrStdout()
	var answer strings.Builder
	handle := func(e client.Event) error {
		if e.Kind == events.KindText {
			answer.WriteString(e.Data)
			if opts.plain {
				_, _ = io.WriteString(out, e.Data)
			}
			return nil
		}
		printActivity(out, e, opts.verbose)
		return nil
	}

	chat := c.Chat
	if opts.websocket {
		chat = c.ChatWS
	}
	if err := chat(cmd.Context(), req, handle); err != nil {
		return err
	}

	if opts.plain {
		_, _ = fmt.Fprintln(out)
		return nil
	}
	_, _ = fmt.Fprintln(out, renderMarkdown(answer.String()))
	return nil
}

// printActivity reports everything but the answer text on its own line.
func printActivity(w io.Writer, e client.Event, verbose bool) {
	var line string

	switch e.Kind {
	case events.KindThinking:
		if verbose {
			_, _ = io.WriteString(w, thinkingStyle.Render(e.Data))
		}
		return
	case events.KindToolCallStart:
		var s events.ToolCallStart
		if e.Decode(&s) == nil {
			line = toolStyle.Render("⏺ " + s.Name)
		}
	case events.KindOpenPanel:
		var p events.OpenPanel
		if e.Decode(&p) == nil {
			line = noticeStyle.Render(fmt.Sprintf("opened %s %d (%s)", p.BookName, p.Chapter, p.Translation))
		}
	case events.KindPresentationUpdate:
		var p events.PresentationUpdate
		if e.Decode(&p) == nil {
			line = noticeStyle.Render("presentation updated: " + cmp.Or(p.Title, "untitled"))
		}
	case events.KindJournalEntry:
		var j events.JournalEntry
		if e.Decode(&j) == nil {
			line = noticeStyle.Render("journal entry: " + j.Title)
		}
	case events.KindRoundLimit:
		var r events.RoundLimit
		if e.Decode(&r) == nil {
			line = noticeStyle.Render(r.Message)
		}
	}

	if line != "" {
		_, _ = fmt.Fprintln(w, line)
	}
}

// parsePanel reads "<translation> <book> <chapter>"; the book may contain
// spaces.
func parsePanel(s string) (studytools.Panel, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return studytools.Panel{}, fmt.Errorf("panel %q: want \"<translation> <book> <chapter>\"", s)
	}
	ch, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || ch < 1 {
		return studytools.Panel{}, fmt.Errorf("panel %q: invalid chapter", s)
	}
	return studytools.Panel{
		Translation: fields[0],
		BookName:    strings.Join(fields[1:len(fields)-1], " "),
		Chapter:     ch,
	}, nil
}

func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
