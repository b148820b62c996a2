package presentation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Sentinel errors returned by Document operations. They are wrapped with a
// message that is safe to show to the model.
var (
	ErrModeMismatch = errors.New("mode mismatch")
	ErrInvalidRange = errors.New("invalid range")
	ErrEmpty        = errors.New("empty presentation")
)

// Mode selects the shape of a Document.
type Mode string

const (
	ModeDocument Mode = "document"
	ModeSlides   Mode = "slides"
)

// ParseMode maps a wire value to a Mode. Anything other than "slides" is
// document mode.
func ParseMode(s string) Mode {
	if Mode(s) == ModeSlides {
		return ModeSlides
	}
	return ModeDocument
}

// Slide is one fragment of a slides-mode deck.
type Slide struct {
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// Document is the mutable presentation state.
type Document struct {
	Title    string  `json:"title"`
	Mode     Mode    `json:"mode"`
	HTML     string  `json:"html,omitempty"`
	ThemeCSS string  `json:"themeCss,omitempty"`
	Slides   []Slide `json:"slides,omitempty"`
}

// OutlineEntry is one row of a slide outline. Index is 1-based.
type OutlineEntry struct {
	Index int    `json:"index"`
	Title string `json:"title"`
}

// Listing is a piece of content together with its line-numbered rendering.
type Listing struct {
	Content    string
	Numbered   string
	TotalLines int
}

// Edit describes the outcome of EditLines.
type Edit struct {
	Start      int
	End        int
	Inserted   int
	TotalLines int
	Diff       string
}

// Write replaces the whole document. Fields that belong to the other mode are
// reset to their zero values.
func (d *Document) Write(next Document) {
	d.Title = next.Title
	d.Mode = ParseMode(string(next.Mode))

	if d.Mode == ModeSlides {
		d.HTML = ""
		d.ThemeCSS = next.ThemeCSS
		d.Slides = append([]Slide(nil), next.Slides...)
		return
	}

	d.HTML = next.HTML
	d.ThemeCSS = ""
	d.Slides = nil
}

// Snapshot returns a deep copy of the document.
func (d *Document) Snapshot() Document {
	cp := *d
	if cp.Mode == "" {
		cp.Mode = ModeDocument
	}
	cp.Slides = append([]Slide(nil), d.Slides...)
	return cp
}

func (d *Document) slides() bool { return d.Mode == ModeSlides }

// Outline lists the slides of a slides-mode deck.
func (d *Document) Outline() ([]OutlineEntry, error) {
	if !d.slides() {
		return nil, fmt.Errorf("%w: outline is only available in slides mode", ErrModeMismatch)
	}

	out := make([]OutlineEntry, len(d.Slides))
	for i, s := range d.Slides {
		out[i] = OutlineEntry{Index: i + 1, Title: s.Title}
	}
	return out, nil
}

// ReadSlide returns slide n (1-based) and its numbered HTML.
func (d *Document) ReadSlide(n int) (Slide, Listing, error) {
	if !d.slides() {
		return Slide{}, Listing{}, fmt.Errorf("%w: slides can only be read in slides mode", ErrModeMismatch)
	}
	if err := d.checkSlide(n); err != nil {
		return Slide{}, Listing{}, err
	}

	s := d.Slides[n-1]
	return s, listing(s.HTML), nil
}

// ReadTheme returns the numbered theme stylesheet.
func (d *Document) ReadTheme() (Listing, error) {
	if !d.slides() {
		return Listing{}, fmt.Errorf("%w: the theme only exists in slides mode", ErrModeMismatch)
	}
	if d.ThemeCSS == "" {
		return Listing{}, fmt.Errorf("%w: no theme CSS exists yet", ErrEmpty)
	}
	return listing(d.ThemeCSS), nil
}

// ReadDocument returns the numbered HTML of a document-mode presentation.
func (d *Document) ReadDocument() (Listing, error) {
	if d.slides() {
		return Listing{}, fmt.Errorf("%w: the presentation is in slides mode, read the outline, a slide or the theme", ErrModeMismatch)
	}
	if d.HTML == "" {
		return Listing{}, fmt.Errorf("%w: no presentation exists yet, use write_presentation to create one", ErrEmpty)
	}
	return listing(d.HTML), nil
}

// EditLines replaces the inclusive line range [start, end] of target with
// newContent. Zero or out-of-range bounds are clamped into the content: a zero
// start means line 1 and a zero end means start. An empty newContent deletes
// the range.
func (d *Document) EditLines(target Target, start, end int, newContent string) (Edit, error) {
	text, err := d.text(target)
	if err != nil {
		return Edit{}, err
	}

	lines := strings.Split(text, "\n")
	n := len(lines)

	if start == 0 {
		start = 1
	}
	start = max(1, min(start, n))

	if end == 0 {
		end = start
	}
	end = max(start, min(end, n))

	var inserted []string
	if newContent != "" {
		inserted = strings.Split(newContent, "\n")
	}

	out := make([]string, 0, n-(end-start+1)+len(inserted))
	out = append(out, lines[:start-1]...)
	out = append(out, inserted...)
	out = append(out, lines[end:]...)

	updated := strings.Join(out, "\n")
	d.setText(target, updated)

	return Edit{
		Start:      start,
		End:        end,
		Inserted:   len(inserted),
		TotalLines: len(out),
		Diff:       unifiedDiff(target.String(), text, updated),
	}, nil
}

// AddSlide inserts a slide after position after (0 inserts before the first
// slide). after is clamped into [0, len(slides)]. It returns the 1-based
// position of the new slide.
func (d *Document) AddSlide(after int, title, html string) (int, error) {
	if !d.slides() {
		return 0, fmt.Errorf("%w: add_slide is only available in slides mode", ErrModeMismatch)
	}

	after = max(0, min(after, len(d.Slides)))
	if title == "" {
		title = "Untitled Slide"
	}

	d.Slides = append(d.Slides, Slide{})
	copy(d.Slides[after+1:], d.Slides[after:])
	d.Slides[after] = Slide{Title: title, HTML: html}

	return after + 1, nil
}

// RemoveSlide deletes slide n (1-based) and returns it.
func (d *Document) RemoveSlide(n int) (Slide, error) {
	if !d.slides() {
		return Slide{}, fmt.Errorf("%w: remove_slide is only available in slides mode", ErrModeMismatch)
	}
	if err := d.checkSlide(n); err != nil {
		return Slide{}, err
	}

	removed := d.Slides[n-1]
	d.Slides = append(d.Slides[:n-1], d.Slides[n:]...)
	return removed, nil
}

func (d *Document) checkSlide(n int) error {
	if n < 1 || n > len(d.Slides) {
		return fmt.Errorf("%w: invalid slide_number %d, there are %d slides (1-based)", ErrInvalidRange, n, len(d.Slides))
	}
	return nil
}

func (d *Document) text(t Target) (string, error) {
	switch t.Kind {
	case TargetSlide:
		if !d.slides() {
			return "", fmt.Errorf("%w: slide edits are only available in slides mode", ErrModeMismatch)
		}
		if err := d.checkSlide(t.Slide); err != nil {
			return "", err
		}
		return d.Slides[t.Slide-1].HTML, nil
	case TargetTheme:
		if !d.slides() {
			return "", fmt.Errorf("%w: theme edits are only available in slides mode", ErrModeMismatch)
		}
		return d.ThemeCSS, nil
	default:
		if d.slides() {
			return "", fmt.Errorf("%w: the presentation is in slides mode, set target to 'slide' or 'theme'", ErrModeMismatch)
		}
		if d.HTML == "" {
			return "", fmt.Errorf("%w: no presentation exists yet, use write_presentation to create one first", ErrEmpty)
		}
		return d.HTML, nil
	}
}

func (d *Document) setText(t Target, s string) {
	switch t.Kind {
	case TargetSlide:
		d.Slides[t.Slide-1].HTML = s
	case TargetTheme:
		d.ThemeCSS = s
	default:
		d.HTML = s
	}
}

func listing(s string) Listing {
	lines := strings.Split(s, "\n")

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\t%s", i+1, line)
	}

	return Listing{Content: s, Numbered: b.String(), TotalLines: len(lines)}
}

func unifiedDiff(name, before, after string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  1,
	})
	if err != nil {
		return ""
	}
	return diff
}
