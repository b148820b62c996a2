package presentation

import "strconv"

// TargetKind names the piece of content an edit addresses.
type TargetKind int

const (
	TargetDocument TargetKind = iota
	TargetSlide
	TargetTheme
)

// Target addresses the document HTML, one slide's HTML or the theme CSS.
type Target struct {
	Kind  TargetKind
	Slide int
}

// DocumentTarget addresses the HTML of a document-mode presentation.
func DocumentTarget() Target { return Target{Kind: TargetDocument} }

// SlideTarget addresses the HTML of slide n (1-based).
func SlideTarget(n int) Target { return Target{Kind: TargetSlide, Slide: n} }

// ThemeTarget addresses the shared stylesheet of a slides deck.
func ThemeTarget() Target { return Target{Kind: TargetTheme} }

func (t Target) String() string {
	switch t.Kind {
	case TargetSlide:
		return "slide-" + strconv.Itoa(t.Slide)
	case TargetTheme:
		return "theme.css"
	default:
		return "document.html"
	}
}
