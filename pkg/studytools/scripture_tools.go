package studytools

import (
	"context"
	"encoding/json"

	"github.com/germanamz/koinonia/pkg/tools/toolbox"
)

// ScriptureTools returns the session-free Scripture tools as a toolbox, for
// callers outside a chat turn such as the MCP server. read_passage runs
// without open panels; list_translations returns the translation menu.
func (d *Dispatcher) ScriptureTools(translationMenu string) *toolbox.ToolBox {
	tb := toolbox.New()

	for _, def := range Definitions(translationMenu) {
		if def.Name != ReadPassage {
			continue
		}
		def.Handler = func(ctx context.Context, input json.RawMessage) (string, error) {
			call, err := Decode(ReadPassage, input)
			if err != nil {
				return "", err
			}
			res, err := d.readPassage(ctx, nil, call.(ReadPassageArgs))
			if err != nil {
				return "", err
			}
			return marshalResult(res)
		}
		tb.Register(def)
	}

	tb.Register(toolbox.Tool{
		Name:        "list_translations",
		Description: "List the Bible translations available to read_passage.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
		Handler: func(ctx context.Context, _ json.RawMessage) (string, error) {
			ts, err := d.resolver.Translations(ctx)
			if err != nil {
				return "", err
			}
			return marshalResult(ts)
		},
	})

	return tb
}

func marshalResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
