package studytools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/germanamz/koinonia/pkg/events"
	"github.com/germanamz/koinonia/pkg/passage"
)

const defaultHighlightColor = "#C8902E"

type sourceText struct {
	Translation string          `json:"translation"`
	Label       string          `json:"label"`
	Verses      []passage.Verse `json:"verses"`
}

type panelVerses struct {
	Translation string          `json:"translation"`
	Verses      []passage.Verse `json:"verses"`
}

type crossReference struct {
	FromVerse int    `json:"from_verse"`
	Reference string `json:"reference"`
	Relevance int    `json:"relevance"`
}

type passageResult struct {
	Reference       string           `json:"reference"`
	Translation     string           `json:"translation"`
	Verses          []passage.Verse  `json:"verses"`
	SourceText      *sourceText      `json:"source_text,omitempty"`
	OtherPanels     []panelVerses    `json:"other_panels,omitempty"`
	CrossReferences []crossReference `json:"cross_references,omitempty"`
}

func (d *Dispatcher) readPassage(ctx context.Context, panels []Panel, a ReadPassageArgs) (any, error) {
	if a.Translation == "" || a.BookName == "" || a.Chapter < 1 {
		return nil, fmt.Errorf("%w: translation, book_name and chapter are required", errInvalidArgs)
	}

	book, err := d.resolveWithFallback(ctx, a.Translation, a.BookName)
	if err != nil {
		return nil, err
	}

	rng := passage.Range{From: a.FromVerse, To: a.ToVerse}
	verses, err := d.resolver.Verses(ctx, a.Translation, book.ID, a.Chapter, rng)
	if err != nil {
		if errors.Is(err, passage.ErrNoVersesFound) {
			return nil, fmt.Errorf("%w for %s %d in %s", passage.ErrNoVersesFound, book.Name, a.Chapter, a.Translation)
		}
		return nil, err
	}

	res := passageResult{
		Reference:   passage.Reference(book.Name, a.Chapter, rng),
		Translation: a.Translation,
		Verses:      verses,
	}

	if a.IncludeSourceText {
		if src, ok := passage.SourceTranslation(book.ID); ok && src.Translation != a.Translation {
			if vs, err := d.resolver.Verses(ctx, src.Translation, book.ID, a.Chapter, rng); err == nil {
				res.SourceText = &sourceText{Translation: src.Translation, Label: src.Label, Verses: vs}
			} else if !errors.Is(err, passage.ErrNoVersesFound) {
				return nil, err
			}
		}
	}

	primary, err := d.resolver.EffectiveTranslation(ctx, a.Translation, book.ID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{primary: true}
	for _, p := range panels {
		eff, err := d.resolver.EffectiveTranslation(ctx, p.Translation, book.ID)
		if err != nil {
			return nil, err
		}
		if p.Translation == a.Translation || seen[eff] {
			continue
		}
		seen[eff] = true

		vs, err := d.resolver.Verses(ctx, p.Translation, book.ID, a.Chapter, rng)
		if errors.Is(err, passage.ErrNoVersesFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res.OtherPanels = append(res.OtherPanels, panelVerses{Translation: p.Translation, Verses: vs})
	}

	if a.IncludeCrossRefs {
		refs, err := d.resolver.CrossRefs(ctx, a.Translation, book.ID, a.Chapter, rng)
		if err != nil {
			return nil, err
		}
		res.CrossReferences = make([]crossReference, len(refs))
		for i, r := range refs {
			res.CrossReferences[i] = crossReference{FromVerse: r.FromVerse, Reference: r.Reference(), Relevance: r.Relevance}
		}
	}

	return res, nil
}

// resolveWithFallback resolves name in translation, then in the
// deuterocanonical fallback translation whose names are English.
func (d *Dispatcher) resolveWithFallback(ctx context.Context, translation, name string) (passage.Book, error) {
	book, err := d.resolver.ResolveBook(ctx, translation, name)
	if errors.Is(err, passage.ErrBookNotFound) && translation != passage.DeuterocanonicalFallback {
		book, err = d.resolver.ResolveBook(ctx, passage.DeuterocanonicalFallback, name)
	}
	return book, err
}

type openPanelResult struct {
	Success bool   `json:"success"`
	Opened  string `json:"opened"`
}

func (d *Dispatcher) openBiblePanel(ctx context.Context, s *Session, a OpenBiblePanelArgs) (any, error) {
	if a.Translation == "" || a.BookName == "" {
		return nil, fmt.Errorf("%w: translation and book_name are required", errInvalidArgs)
	}

	book, err := d.resolveWithFallback(ctx, a.Translation, a.BookName)
	if err != nil {
		return nil, err
	}

	chapter := a.Chapter
	if chapter < 1 {
		chapter = 1
	}

	if err := s.emit(ctx, events.KindOpenPanel, events.OpenPanel{
		Translation: a.Translation,
		BookID:      book.ID,
		BookName:    book.Name,
		Chapter:     chapter,
	}); err != nil {
		return nil, emitErr(err)
	}

	return openPanelResult{
		Success: true,
		Opened:  fmt.Sprintf("%s %d (%s)", book.Name, chapter, a.Translation),
	}, nil
}

type highlightResult struct {
	Success     bool   `json:"success"`
	Highlighted string `json:"highlighted"`
	Text        string `json:"text"`
}

func (d *Dispatcher) highlightVerse(ctx context.Context, s *Session, a HighlightVerseArgs) (any, error) {
	if a.Translation == "" || a.BookName == "" || a.Chapter < 1 || a.Verse < 1 {
		return nil, fmt.Errorf("%w: translation, book_name, chapter and verse are required", errInvalidArgs)
	}

	book, err := d.resolveWithFallback(ctx, a.Translation, a.BookName)
	if err != nil {
		return nil, err
	}

	verse, err := d.resolver.Verse(ctx, a.Translation, book.ID, a.Chapter, a.Verse)
	if err != nil {
		return nil, err
	}

	words := strings.Fields(verse.Text)
	last := max(len(words)-1, 0)
	start := max(0, min(a.StartWord, last))
	end := last
	if a.EndWord != nil {
		end = max(start, min(*a.EndWord, last))
	}

	color := a.Color
	if color == "" {
		color = defaultHighlightColor
	}

	if err := s.emit(ctx, events.KindHighlightVerse, events.HighlightVerse{
		Translation: a.Translation,
		BookID:      book.ID,
		Chapter:     a.Chapter,
		Verse:       a.Verse,
		StartWord:   start,
		EndWord:     end,
		Color:       color,
	}); err != nil {
		return nil, emitErr(err)
	}

	text := ""
	if len(words) > 0 {
		text = strings.Join(words[start:end+1], " ")
	}
	return highlightResult{
		Success:     true,
		Highlighted: fmt.Sprintf("%s %d:%d words %d-%d", book.Name, a.Chapter, a.Verse, start, end),
		Text:        text,
	}, nil
}

func (d *Dispatcher) writeJournalEntry(ctx context.Context, s *Session, a WriteJournalEntryArgs) (any, error) {
	if a.Title == "" || a.Content == "" || a.BookName == "" || a.Chapter < 1 {
		return nil, fmt.Errorf("%w: title, content, book_name and chapter are required", errInvalidArgs)
	}

	translation := a.Translation
	if translation == "" {
		translation = passage.DeuterocanonicalFallback
	}

	book, err := d.resolveWithFallback(ctx, translation, a.BookName)
	if err != nil {
		return nil, err
	}

	if err := s.emit(ctx, events.KindJournalEntry, events.JournalEntry{
		Title:    a.Title,
		Content:  a.Content,
		BookID:   book.ID,
		BookName: book.Name,
		Chapter:  a.Chapter,
		Verse:    a.Verse,
	}); err != nil {
		return nil, emitErr(err)
	}

	return successResult{
		Success: true,
		Message: fmt.Sprintf("Journal entry %q saved for %s %d.", a.Title, book.Name, a.Chapter),
	}, nil
}
