package studytools

import (
	"context"
	"errors"
	"fmt"

	"github.com/germanamz/koinonia/pkg/events"
	"github.com/germanamz/koinonia/pkg/presentation"
)

type catalogEntry struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Mode   string `json:"mode"`
	Active bool   `json:"active"`
}

type catalogResult struct {
	Total                int            `json:"total"`
	ActivePresentationID *string        `json:"active_presentation_id"`
	Presentations        []catalogEntry `json:"presentations"`
}

func listPresentations(s *Session) any {
	if len(s.Catalog) == 0 {
		return messageResult{Message: "No saved presentations yet. Use write_presentation to create one."}
	}

	entries := make([]catalogEntry, len(s.Catalog))
	for i, p := range s.Catalog {
		mode := p.Mode
		if mode == "" {
			mode = string(presentation.ModeDocument)
		}
		entries[i] = catalogEntry{ID: p.ID, Title: p.Title, Mode: mode, Active: p.ID == s.ActiveID}
	}

	res := catalogResult{Total: len(entries), Presentations: entries}
	if s.ActiveID != "" {
		active := s.ActiveID
		res.ActivePresentationID = &active
	}
	return res
}

// deferSwitch handles a read or edit addressed to a presentation other than
// the active one. The content of that presentation lives on the client, so
// the client is asked to load it and the model is told to wait a turn.
func deferSwitch(ctx context.Context, s *Session, id string) (any, bool, error) {
	if id == "" || id == s.ActiveID {
		return nil, false, nil
	}
	if id == NewPresentationID {
		return nil, true, fmt.Errorf("%w: presentation_id %q is only valid for write_presentation", errInvalidArgs, NewPresentationID)
	}

	if err := s.emit(ctx, events.KindSwitchPresentation, events.SwitchPresentation{PresentationID: id}); err != nil {
		return nil, true, emitErr(err)
	}

	return messageResult{
		Message: fmt.Sprintf("Switching to presentation %q. The content will be loaded and available on your next message. Tell the user you've loaded it and ask what they'd like to do.", s.title(id)),
	}, true, nil
}

type outlineResult struct {
	Mode        presentation.Mode           `json:"mode"`
	TotalSlides int                         `json:"total_slides"`
	Outline     []presentation.OutlineEntry `json:"outline"`
}

type listingResult struct {
	Mode        presentation.Mode `json:"mode"`
	SlideNumber int               `json:"slide_number,omitempty"`
	Title       string            `json:"title,omitempty"`
	TotalLines  int               `json:"total_lines"`
	Content     string            `json:"content"`
}

func readPresentation(ctx context.Context, s *Session, a ReadPresentationArgs) (any, error) {
	if res, switched, err := deferSwitch(ctx, s, a.PresentationID); switched || err != nil {
		return res, err
	}

	doc := s.Doc
	mode := doc.Snapshot().Mode

	switch a.Target {
	case "":
		if mode == presentation.ModeSlides {
			return nil, fmt.Errorf("%w: slides mode, specify target ('outline', 'slide' or 'theme')", presentation.ErrModeMismatch)
		}
		l, err := doc.ReadDocument()
		if errors.Is(err, presentation.ErrEmpty) {
			return messageResult{Message: "No presentation exists yet. Use write_presentation to create one."}, nil
		}
		if err != nil {
			return nil, err
		}
		return listingResult{Mode: mode, TotalLines: l.TotalLines, Content: l.Numbered}, nil

	case "outline":
		outline, err := doc.Outline()
		if err != nil {
			return nil, err
		}
		if len(outline) == 0 {
			return messageResult{Message: "No slides exist yet. Use write_presentation to create slides."}, nil
		}
		return outlineResult{Mode: mode, TotalSlides: len(outline), Outline: outline}, nil

	case "slide":
		slide, l, err := doc.ReadSlide(a.SlideNumber)
		if err != nil {
			return nil, err
		}
		return listingResult{Mode: mode, SlideNumber: a.SlideNumber, Title: slide.Title, TotalLines: l.TotalLines, Content: l.Numbered}, nil

	case "theme":
		l, err := doc.ReadTheme()
		if errors.Is(err, presentation.ErrEmpty) {
			return messageResult{Message: "No theme CSS exists yet."}, nil
		}
		if err != nil {
			return nil, err
		}
		return listingResult{Mode: mode, TotalLines: l.TotalLines, Content: l.Numbered}, nil

	default:
		return nil, fmt.Errorf("%w: invalid target %q, use 'outline', 'slide' or 'theme'", errInvalidArgs, a.Target)
	}
}

func editPresentation(ctx context.Context, s *Session, a EditPresentationArgs) (any, error) {
	if res, switched, err := deferSwitch(ctx, s, a.PresentationID); switched || err != nil {
		return res, err
	}

	doc := s.Doc
	var res successResult

	switch a.Action {
	case "edit_lines":
		var target presentation.Target
		switch a.Target {
		case "":
			target = presentation.DocumentTarget()
		case "slide":
			target = presentation.SlideTarget(a.SlideNumber)
		case "theme":
			target = presentation.ThemeTarget()
		default:
			return nil, fmt.Errorf("%w: invalid target %q, use 'slide' or 'theme'", errInvalidArgs, a.Target)
		}

		edit, err := doc.EditLines(target, a.StartLine, a.EndLine, a.NewContent)
		if err != nil {
			return nil, err
		}

		msg := fmt.Sprintf("replaced lines %d-%d with %d new line(s).", edit.Start, edit.End, edit.Inserted)
		switch target.Kind {
		case presentation.TargetSlide:
			msg = fmt.Sprintf("Slide %d: %s", target.Slide, msg)
		case presentation.TargetTheme:
			msg = "Theme CSS: " + msg
		default:
			msg = "Document: " + msg
		}
		res = successResult{
			Success:    true,
			Message:    msg,
			TotalLines: edit.TotalLines,
			Diff:       edit.Diff,
		}

	case "add_slide":
		after := len(doc.Slides)
		if a.After != nil {
			after = *a.After
		}
		pos, err := doc.AddSlide(after, a.Title, a.HTML)
		if err != nil {
			return nil, err
		}
		res = successResult{
			Success: true,
			Message: fmt.Sprintf("Added slide %q at position %d. Total slides: %d.", doc.Slides[pos-1].Title, pos, len(doc.Slides)),
		}

	case "remove_slide":
		removed, err := doc.RemoveSlide(a.SlideNumber)
		if err != nil {
			return nil, err
		}
		res = successResult{
			Success: true,
			Message: fmt.Sprintf("Removed slide %d (%q). Total slides: %d.", a.SlideNumber, removed.Title, len(doc.Slides)),
		}

	default:
		return nil, fmt.Errorf("%w: unknown edit action %q, use 'edit_lines', 'add_slide' or 'remove_slide'", errInvalidArgs, a.Action)
	}

	if err := s.publish(ctx, s.ActiveID); err != nil {
		return nil, emitErr(err)
	}
	return res, nil
}

func writePresentation(ctx context.Context, s *Session, a WritePresentationArgs) (any, error) {
	if a.Mode != string(presentation.ModeDocument) && a.Mode != string(presentation.ModeSlides) {
		return nil, fmt.Errorf("%w: mode must be 'document' or 'slides'", errInvalidArgs)
	}

	switch a.PresentationID {
	case "":
	case NewPresentationID:
		s.ActiveID = ""
	default:
		s.ActiveID = a.PresentationID
	}

	s.Doc.Write(presentation.Document{
		Title:    a.Title,
		Mode:     presentation.Mode(a.Mode),
		HTML:     a.HTML,
		ThemeCSS: a.ThemeCSS,
		Slides:   a.Slides,
	})

	if err := s.publish(ctx, s.ActiveID); err != nil {
		return nil, emitErr(err)
	}

	return successResult{
		Success: true,
		Message: "Presentation updated. The content is now visible in the Presentation tab.",
	}, nil
}
