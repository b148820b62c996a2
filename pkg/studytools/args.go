package studytools

import (
	"encoding/json"
	"fmt"

	"github.com/germanamz/koinonia/pkg/presentation"
)

// Tool names.
const (
	ReadPassage       = "read_passage"
	OpenBiblePanel    = "open_bible_panel"
	ListPresentations = "list_presentations"
	ReadPresentation  = "read_presentation"
	EditPresentation  = "edit_presentation"
	WritePresentation = "write_presentation"
	HighlightVerse    = "highlight_verse"
	WriteJournalEntry = "write_journal_entry"
)

// NewPresentationID is the presentation_id value that asks write_presentation
// for a brand new presentation.
const NewPresentationID = "new"

// Call is a decoded tool call. The set of implementations is closed.
type Call interface {
	ToolName() string
	sealed()
}

// ReadPassageArgs are the arguments of read_passage.
type ReadPassageArgs struct {
	Translation       string `json:"translation" jsonschema_description:"Bible translation code. Use the same translation the user is reading unless they ask for a different one."`
	BookName          string `json:"book_name" jsonschema_description:"Book name (e.g. \"Genesis\", \"Matthew\", \"1 Corinthians\"). Use the standard English name."`
	Chapter           int    `json:"chapter" jsonschema:"minimum=1" jsonschema_description:"Chapter number."`
	FromVerse         int    `json:"from_verse,omitempty" jsonschema_description:"Starting verse number (inclusive). Omit to start from verse 1."`
	ToVerse           int    `json:"to_verse,omitempty" jsonschema_description:"Ending verse number (inclusive). Omit to read to the end of the chapter."`
	IncludeCrossRefs  bool   `json:"include_cross_refs,omitempty" jsonschema_description:"Whether to include cross-references for the verses read. Defaults to false."`
	IncludeSourceText bool   `json:"include_source_text,omitempty" jsonschema_description:"When true, also returns the original language source text: Hebrew (WLC) for Old Testament books, Greek (SBLGNT) for New Testament books."`
}

// OpenBiblePanelArgs are the arguments of open_bible_panel.
type OpenBiblePanelArgs struct {
	Translation string `json:"translation" jsonschema_description:"Bible translation code to open."`
	BookName    string `json:"book_name" jsonschema_description:"Book name to open to (e.g. \"Genesis\", \"John\"). Use the standard English name."`
	Chapter     int    `json:"chapter,omitempty" jsonschema_description:"Chapter number to open to. Defaults to 1."`
}

// ListPresentationsArgs are the (empty) arguments of list_presentations.
type ListPresentationsArgs struct{}

// ReadPresentationArgs are the arguments of read_presentation.
type ReadPresentationArgs struct {
	PresentationID string `json:"presentation_id,omitempty" jsonschema_description:"ID of the presentation to read. Omit to read the active presentation. A presentation that is not active is switched to and its content is available on the next message."`
	Target         string `json:"target,omitempty" jsonschema:"enum=outline,enum=slide,enum=theme" jsonschema_description:"What to read in slides mode: 'outline' lists slide titles, 'slide' returns one slide's HTML with line numbers, 'theme' returns the shared CSS with line numbers. Omit for document mode."`
	SlideNumber    int    `json:"slide_number,omitempty" jsonschema_description:"Which slide to read (1-based). Required when target is 'slide'."`
}

// EditPresentationArgs are the arguments of edit_presentation.
type EditPresentationArgs struct {
	PresentationID string `json:"presentation_id,omitempty" jsonschema_description:"ID of the presentation to edit. Omit to edit the active presentation. A presentation that is not active is switched to and its content is available on the next message."`
	Action         string `json:"action" jsonschema:"enum=edit_lines,enum=add_slide,enum=remove_slide" jsonschema_description:"The edit action to perform."`
	StartLine      int    `json:"start_line,omitempty" jsonschema_description:"First line number to replace (1-based, inclusive). For edit_lines."`
	EndLine        int    `json:"end_line,omitempty" jsonschema_description:"Last line number to replace (1-based, inclusive). For edit_lines."`
	NewContent     string `json:"new_content,omitempty" jsonschema_description:"Content to insert in place of the lines. May span several lines. An empty string deletes the lines. For edit_lines."`
	SlideNumber    int    `json:"slide_number,omitempty" jsonschema_description:"Slide to edit (1-based) for edit_lines with target 'slide', or slide to remove for remove_slide."`
	Target         string `json:"target,omitempty" jsonschema:"enum=slide,enum=theme" jsonschema_description:"What to edit in slides mode: 'slide' (one slide's HTML) or 'theme' (the shared CSS)."`
	After          *int   `json:"after,omitempty" jsonschema_description:"Position to insert the new slide after (0 = beginning, 1 = after the first slide). Defaults to the end. For add_slide."`
	Title          string `json:"title,omitempty" jsonschema_description:"Title of the new slide. For add_slide."`
	HTML           string `json:"html,omitempty" jsonschema_description:"HTML body fragment of the new slide. For add_slide."`
}

// WritePresentationArgs are the arguments of write_presentation.
type WritePresentationArgs struct {
	PresentationID string               `json:"presentation_id,omitempty" jsonschema_description:"ID of the presentation to overwrite, or 'new' to create a new presentation. Omit to overwrite the active presentation."`
	Title          string               `json:"title" jsonschema_description:"Title of the presentation, shown above the canvas."`
	Mode           string               `json:"mode" jsonschema:"enum=document,enum=slides" jsonschema_description:"'document' for a single HTML page, 'slides' for a multi-slide deck."`
	HTML           string               `json:"html,omitempty" jsonschema_description:"Complete standalone HTML document with <html>, <head> (with <style>) and <body>. Document mode only."`
	ThemeCSS       string               `json:"theme_css,omitempty" jsonschema_description:"Shared CSS for all slides. Slides mode only."`
	Slides         []presentation.Slide `json:"slides,omitempty" jsonschema_description:"Slides of the deck, each with a title and an HTML body fragment. Slides mode only."`
}

// HighlightVerseArgs are the arguments of highlight_verse.
type HighlightVerseArgs struct {
	Translation string `json:"translation" jsonschema_description:"Bible translation code of the verse."`
	BookName    string `json:"book_name" jsonschema_description:"Book name in standard English."`
	Chapter     int    `json:"chapter" jsonschema_description:"Chapter number."`
	Verse       int    `json:"verse" jsonschema_description:"Verse number."`
	StartWord   int    `json:"start_word,omitempty" jsonschema_description:"First word to highlight (0-based). Defaults to the first word."`
	EndWord     *int   `json:"end_word,omitempty" jsonschema_description:"Last word to highlight (0-based, inclusive). Defaults to the last word."`
	Color       string `json:"color,omitempty" jsonschema_description:"Highlight color as a hex string such as #C8902E. Defaults to gold."`
}

// WriteJournalEntryArgs are the arguments of write_journal_entry.
type WriteJournalEntryArgs struct {
	Title       string `json:"title" jsonschema_description:"Short title of the entry."`
	Content     string `json:"content" jsonschema_description:"Body of the journal entry written for the user."`
	Translation string `json:"translation,omitempty" jsonschema_description:"Translation used to resolve the book name. Defaults to KJV."`
	BookName    string `json:"book_name" jsonschema_description:"Book the entry reflects on."`
	Chapter     int    `json:"chapter" jsonschema_description:"Chapter the entry reflects on."`
	Verse       int    `json:"verse,omitempty" jsonschema_description:"Verse the entry reflects on, if any."`
}

func (ReadPassageArgs) ToolName() string       { return ReadPassage }
func (OpenBiblePanelArgs) ToolName() string    { return OpenBiblePanel }
func (ListPresentationsArgs) ToolName() string { return ListPresentations }
func (ReadPresentationArgs) ToolName() string  { return ReadPresentation }
func (EditPresentationArgs) ToolName() string  { return EditPresentation }
func (WritePresentationArgs) ToolName() string { return WritePresentation }
func (HighlightVerseArgs) ToolName() string    { return HighlightVerse }
func (WriteJournalEntryArgs) ToolName() string { return WriteJournalEntry }

func (ReadPassageArgs) sealed()       {}
func (OpenBiblePanelArgs) sealed()    {}
func (ListPresentationsArgs) sealed() {}
func (ReadPresentationArgs) sealed()  {}
func (EditPresentationArgs) sealed()  {}
func (WritePresentationArgs) sealed() {}
func (HighlightVerseArgs) sealed()    {}
func (WriteJournalEntryArgs) sealed() {}

// Decode parses raw arguments for the named tool.
func Decode(name string, raw json.RawMessage) (Call, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	switch name {
	case ReadPassage:
		return decodeInto[ReadPassageArgs](name, raw)
	case OpenBiblePanel:
		return decodeInto[OpenBiblePanelArgs](name, raw)
	case ListPresentations:
		return decodeInto[ListPresentationsArgs](name, raw)
	case ReadPresentation:
		return decodeInto[ReadPresentationArgs](name, raw)
	case EditPresentation:
		return decodeInto[EditPresentationArgs](name, raw)
	case WritePresentation:
		return decodeInto[WritePresentationArgs](name, raw)
	case HighlightVerse:
		return decodeInto[HighlightVerseArgs](name, raw)
	case WriteJournalEntry:
		return decodeInto[WriteJournalEntryArgs](name, raw)
	default:
		return nil, fmt.Errorf("Unknown tool: %s", name) //nolint:staticcheck // shown to the model verbatim
	}
}

func decodeInto[T Call](name string, raw json.RawMessage) (Call, error) {
	var args T
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments for %s: %w", name, err)
	}
	return args, nil
}
