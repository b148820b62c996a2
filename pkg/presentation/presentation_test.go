package presentation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func documentWith(html string) *Document {
	d := &Document{}
	d.Write(Document{Title: "Study", Mode: ModeDocument, HTML: html})
	return d
}

func deckWith(slides ...Slide) *Document {
	d := &Document{}
	d.Write(Document{Title: "Deck", Mode: ModeSlides, ThemeCSS: "body {\n  color: black;\n}", Slides: slides})
	return d
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeSlides, ParseMode("slides"))
	assert.Equal(t, ModeDocument, ParseMode("document"))
	assert.Equal(t, ModeDocument, ParseMode(""))
	assert.Equal(t, ModeDocument, ParseMode("bogus"))
}

func TestWrite_ResetsOtherMode(t *testing.T) {
	d := deckWith(Slide{Title: "One", HTML: "<h1>1</h1>"})

	d.Write(Document{Title: "Doc", Mode: ModeDocument, HTML: "<p>hi</p>", ThemeCSS: "ignored", Slides: []Slide{{Title: "x"}}})

	assert.Equal(t, ModeDocument, d.Mode)
	assert.Equal(t, "<p>hi</p>", d.HTML)
	assert.Empty(t, d.ThemeCSS)
	assert.Empty(t, d.Slides)

	d.Write(Document{Title: "Deck", Mode: ModeSlides, HTML: "ignored", ThemeCSS: "h1 {}"})

	assert.Equal(t, ModeSlides, d.Mode)
	assert.Empty(t, d.HTML)
	assert.Equal(t, "h1 {}", d.ThemeCSS)
}

func TestReadDocument_Numbered(t *testing.T) {
	d := documentWith("<html>\n<body>\n</body>\n</html>")

	l, err := d.ReadDocument()
	require.NoError(t, err)

	assert.Equal(t, 4, l.TotalLines)
	assert.Equal(t, "1\t<html>\n2\t<body>\n3\t</body>\n4\t</html>", l.Numbered)
}

func TestReadDocument_Empty(t *testing.T) {
	d := &Document{}

	_, err := d.ReadDocument()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestModeExclusivity_AfterDocumentWrite(t *testing.T) {
	d := documentWith("<p>x</p>")

	_, err := d.Outline()
	assert.ErrorIs(t, err, ErrModeMismatch)

	_, _, err = d.ReadSlide(1)
	assert.ErrorIs(t, err, ErrModeMismatch)

	_, err = d.ReadTheme()
	assert.ErrorIs(t, err, ErrModeMismatch)

	_, err = d.EditLines(SlideTarget(1), 1, 1, "x")
	assert.ErrorIs(t, err, ErrModeMismatch)

	_, err = d.EditLines(ThemeTarget(), 1, 1, "x")
	assert.ErrorIs(t, err, ErrModeMismatch)

	_, err = d.AddSlide(0, "t", "h")
	assert.ErrorIs(t, err, ErrModeMismatch)

	_, err = d.RemoveSlide(1)
	assert.ErrorIs(t, err, ErrModeMismatch)

	assert.Equal(t, "<p>x</p>", d.HTML, "failed operations must not mutate")
}

func TestModeExclusivity_AfterSlidesWrite(t *testing.T) {
	d := deckWith(Slide{Title: "One", HTML: "<h1>1</h1>"})

	_, err := d.ReadDocument()
	assert.ErrorIs(t, err, ErrModeMismatch)

	_, err = d.EditLines(DocumentTarget(), 1, 1, "x")
	assert.ErrorIs(t, err, ErrModeMismatch)

	assert.Equal(t, "<h1>1</h1>", d.Slides[0].HTML)
}

func TestAddSlide_EmptyDeck(t *testing.T) {
	d := deckWith()

	pos, err := d.AddSlide(0, "Intro", "<h1>Intro</h1>")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	outline, err := d.Outline()
	require.NoError(t, err)
	assert.Equal(t, []OutlineEntry{{Index: 1, Title: "Intro"}}, outline)
}

func TestAddSlide_PositionAndDefaults(t *testing.T) {
	d := deckWith(Slide{Title: "A"}, Slide{Title: "C"})

	pos, err := d.AddSlide(1, "B", "")
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	pos, err = d.AddSlide(99, "", "<p>end</p>")
	require.NoError(t, err)
	assert.Equal(t, 4, pos)

	pos, err = d.AddSlide(-3, "First", "")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	outline, err := d.Outline()
	require.NoError(t, err)
	titles := make([]string, len(outline))
	for i, e := range outline {
		titles[i] = e.Title
	}
	assert.Equal(t, []string{"First", "A", "B", "C", "Untitled Slide"}, titles)
}

func TestRemoveSlide(t *testing.T) {
	d := deckWith(Slide{Title: "A"}, Slide{Title: "B"}, Slide{Title: "C"})

	removed, err := d.RemoveSlide(2)
	require.NoError(t, err)
	assert.Equal(t, "B", removed.Title)
	assert.Len(t, d.Slides, 2)

	_, err = d.RemoveSlide(0)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = d.RemoveSlide(3)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestReadSlide(t *testing.T) {
	d := deckWith(Slide{Title: "A", HTML: "<h1>A</h1>\n<p>a</p>"})

	s, l, err := d.ReadSlide(1)
	require.NoError(t, err)
	assert.Equal(t, "A", s.Title)
	assert.Equal(t, 2, l.TotalLines)
	assert.Equal(t, "1\t<h1>A</h1>\n2\t<p>a</p>", l.Numbered)

	_, _, err = d.ReadSlide(2)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestReadTheme_Empty(t *testing.T) {
	d := &Document{}
	d.Write(Document{Mode: ModeSlides})

	_, err := d.ReadTheme()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestEditLines_ReadBackReturnsContent(t *testing.T) {
	d := documentWith("l1\nl2\nl3\nl4\nl5")

	edit, err := d.EditLines(DocumentTarget(), 2, 3, "new a\nnew b\nnew c")
	require.NoError(t, err)
	assert.Equal(t, 2, edit.Start)
	assert.Equal(t, 3, edit.End)
	assert.Equal(t, 3, edit.Inserted)
	assert.Equal(t, 6, edit.TotalLines)

	lines := strings.Split(d.HTML, "\n")
	assert.Equal(t, []string{"new a", "new b", "new c"}, lines[edit.Start-1:edit.Start-1+edit.Inserted])
	assert.Contains(t, edit.Diff, "-l2")
	assert.Contains(t, edit.Diff, "+new a")
}

func TestEditLines_EmptyContentDeletes(t *testing.T) {
	d := documentWith("l1\nl2\nl3\nl4\nl5")

	edit, err := d.EditLines(DocumentTarget(), 2, 4, "")
	require.NoError(t, err)

	assert.Equal(t, 0, edit.Inserted)
	assert.Equal(t, 2, edit.TotalLines)
	assert.Equal(t, "l1\nl5", d.HTML)
}

func TestEditLines_Clamps(t *testing.T) {
	d := documentWith("l1\nl2\nl3")

	edit, err := d.EditLines(DocumentTarget(), 10, 20, "tail")
	require.NoError(t, err)
	assert.Equal(t, 3, edit.Start)
	assert.Equal(t, 3, edit.End)
	assert.Equal(t, "l1\nl2\ntail", d.HTML)

	edit, err = d.EditLines(DocumentTarget(), 0, 0, "head")
	require.NoError(t, err)
	assert.Equal(t, 1, edit.Start)
	assert.Equal(t, 1, edit.End)
	assert.Equal(t, "head\nl2\ntail", d.HTML)

	edit, err = d.EditLines(DocumentTarget(), 3, 1, "x")
	require.NoError(t, err)
	assert.Equal(t, 3, edit.Start)
	assert.Equal(t, 3, edit.End, "end never precedes start")
}

func TestEditLines_SlideAndTheme(t *testing.T) {
	d := deckWith(Slide{Title: "A", HTML: "<h1>A</h1>\n<p>a</p>"})

	_, err := d.EditLines(SlideTarget(1), 2, 2, "<p>changed</p>")
	require.NoError(t, err)
	assert.Equal(t, "<h1>A</h1>\n<p>changed</p>", d.Slides[0].HTML)

	_, err = d.EditLines(ThemeTarget(), 2, 2, "  color: red;")
	require.NoError(t, err)
	assert.Equal(t, "body {\n  color: red;\n}", d.ThemeCSS)

	_, err = d.EditLines(SlideTarget(5), 1, 1, "x")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestEditLines_EmptyDocument(t *testing.T) {
	d := &Document{}

	_, err := d.EditLines(DocumentTarget(), 1, 1, "x")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSnapshot_IsIndependent(t *testing.T) {
	d := deckWith(Slide{Title: "A", HTML: "a"})

	snap := d.Snapshot()
	d.Slides[0].HTML = "changed"

	assert.Equal(t, "a", snap.Slides[0].HTML)
	assert.Equal(t, ModeSlides, snap.Mode)
}

func TestSnapshot_DefaultsMode(t *testing.T) {
	var d Document

	assert.Equal(t, ModeDocument, d.Snapshot().Mode)
}

func TestTarget_String(t *testing.T) {
	assert.Equal(t, "document.html", DocumentTarget().String())
	assert.Equal(t, "slide-2", SlideTarget(2).String())
	assert.Equal(t, "theme.css", ThemeTarget().String())
}
