package studytools

import (
	"encoding/json"

	"github.com/germanamz/koinonia/pkg/tools/toolbox"
	"github.com/invopop/jsonschema"
)

type declaration struct {
	args        Call
	description string
}

var declarations = []declaration{
	{
		args:        ReadPassageArgs{},
		description: "Read verses from the Bible, original language source texts, or non-canonical books. Use this to look up specific passages, verify quotes, or explore cross-references. You can read a full chapter or a specific verse range. Non-canonical books available: 1 Enoch, Jubilees, Psalm 151. When include_source_text is true, the original Hebrew (WLC) or Greek (SBLGNT) is returned alongside the translation. When the user has multiple Bible panels open, the same verses from all open panels are returned automatically.",
	},
	{
		args:        OpenBiblePanelArgs{},
		description: "Open a new Bible panel in the user's split-screen view. Only use this when the user explicitly asks to open or show a Bible, translation or passage in a new panel. The user can browse from the opened panel.",
	},
	{
		args:        ListPresentationsArgs{},
		description: "List all saved presentations with their IDs, titles and modes. Use this to find a specific presentation before working on it.",
	},
	{
		args:        ReadPresentationArgs{},
		description: "Read a presentation's content with line numbers. Use this before edit_presentation so you know which lines to change. In document mode, returns the full HTML. In slides mode, specify target: 'outline' (slide titles), 'slide' (one slide's HTML) or 'theme' (the shared CSS). Use presentation_id to target a specific saved presentation.",
	},
	{
		args:        EditPresentationArgs{},
		description: "Edit a presentation. 'edit_lines' replaces a range of lines in the document HTML, a slide or the theme CSS. 'add_slide' inserts a new slide. 'remove_slide' removes a slide. Use read_presentation first to see line numbers. Use presentation_id to target a specific saved presentation.",
	},
	{
		args:        WritePresentationArgs{},
		description: "Write content to the Presentation canvas. Use mode 'document' for a single HTML document (sermon outlines, study guides, handouts) and mode 'slides' for a multi-slide deck (sermon slides, teaching decks). In document mode provide html; in slides mode provide theme_css and slides. Use presentation_id to target a saved presentation or 'new' to create a brand new one.",
	},
	{
		args:        HighlightVerseArgs{},
		description: "Highlight a verse, or a range of its words, in the user's Bible. Use this when the user asks you to mark or highlight something.",
	},
	{
		args:        WriteJournalEntryArgs{},
		description: "Save a journal entry for the user tied to a passage. Only use this when the user asks you to record a reflection, prayer or note in their journal.",
	},
}

// translationProperty is the argument whose description lists the live
// translation menu.
const translationProperty = "translation"

// Definitions returns the declarations of every tool, in a stable order.
// translationMenu is appended to the description of the translation argument
// of read_passage and open_bible_panel.
func Definitions(translationMenu string) []toolbox.Tool {
	out := make([]toolbox.Tool, len(declarations))
	for i, d := range declarations {
		withMenu := d.args.ToolName() == ReadPassage || d.args.ToolName() == OpenBiblePanel
		menu := ""
		if withMenu {
			menu = translationMenu
		}
		out[i] = toolbox.Tool{
			Name:        d.args.ToolName(),
			Description: d.description,
			InputSchema: inputSchema(d.args, menu),
		}
	}
	return out
}

func inputSchema(args Call, translationMenu string) json.RawMessage {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	s := r.Reflect(args)
	s.Version = ""

	if translationMenu != "" && s.Properties != nil {
		if p, ok := s.Properties.Get(translationProperty); ok {
			p.Description += " Available translations: " + translationMenu
		}
	}

	data, err := json.Marshal(s)
	if err != nil {
		// Reflected schemas of plain structs always marshal.
		panic(err)
	}
	return data
}
