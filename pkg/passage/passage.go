// Package passage resolves Scripture references against a verse store.
//
// It owns the lookup rules that sit on top of raw storage: case-insensitive
// book names with a secondary non-canonical namespace, transparent redirection
// of non-canonical books to the ENC translation, KJV fallback for
// deuterocanonical books a translation lacks, and the original-language source
// text for each testament. Missing books and empty ranges are reported as
// ErrBookNotFound and ErrNoVersesFound so callers can turn them into
// conversational results.
package passage

import (
	"context"
	"errors"
	"fmt"
)

// Well-known translations and book id ranges.
const (
	NonCanonicalTranslation  = "ENC"
	DeuterocanonicalFallback = "KJV"
	MinDeuterocanonicalBook  = 67
	MinNonCanonicalBook      = 90
	EndOfChapter             = 999
)

const (
	lastOldTestamentBook      = 39
	lastNewTestamentBook      = 66
	hebrewSourceTranslation   = "WLC"
	greekSourceTranslation    = "SBLGNT"
	testamentDeuterocanonical = "DC"
	testamentNonCanonical     = "NC"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrNoVersesFound = errors.New("no verses found")
)

// Translation is one entry of the translation menu.
type Translation struct {
	ShortName string `json:"short_name"`
	FullName  string `json:"full_name"`
	Language  string `json:"language"`
	Direction string `json:"direction"`
}

// Book is a book of a translation.
type Book struct {
	ID         int    `json:"book_id"`
	Name       string `json:"name"`
	Chapters   int    `json:"chapters"`
	ChronOrder int    `json:"chron_order"`
	Testament  string `json:"testament"`
}

// Verse is one verse of a chapter.
type Verse struct {
	Verse int    `json:"verse"`
	Text  string `json:"text"`
}

// CrossRef links a verse to another passage. BookName is the target book's
// name in the translation the lookup was made for.
type CrossRef struct {
	FromVerse  int    `json:"from_verse"`
	ToBook     int    `json:"to_book"`
	ToChapter  int    `json:"to_chapter"`
	ToVerse    int    `json:"to_verse"`
	ToEndVerse int    `json:"to_end_verse,omitempty"`
	Relevance  int    `json:"relevance"`
	BookName   string `json:"book_name"`
}

// Reference renders the target as "<Book> <ch>:<v>[-<end>]".
func (c CrossRef) Reference() string {
	name := c.BookName
	if name == "" {
		name = fmt.Sprintf("Book %d", c.ToBook)
	}
	ref := fmt.Sprintf("%s %d:%d", name, c.ToChapter, c.ToVerse)
	if c.ToEndVerse > 0 {
		ref += fmt.Sprintf("-%d", c.ToEndVerse)
	}
	return ref
}

// Range is an inclusive verse range inside a chapter. A zero From starts at
// verse 1 and a zero To runs to the end of the chapter.
type Range struct {
	From int
	To   int
}

// Bounds returns the concrete first and last verse of the range.
func (r Range) Bounds() (int, int) {
	from, to := r.From, r.To
	if from <= 0 {
		from = 1
	}
	if to <= 0 {
		to = EndOfChapter
	}
	return from, to
}

// Reference renders "<Book> <ch>[:<from>[-<to>]]".
func Reference(book string, chapter int, r Range) string {
	ref := fmt.Sprintf("%s %d", book, chapter)
	if r.From > 0 {
		ref += fmt.Sprintf(":%d", r.From)
		if r.To > 0 && r.To != r.From {
			ref += fmt.Sprintf("-%d", r.To)
		}
	}
	return ref
}

// Source describes the original-language text for a book.
type Source struct {
	Translation string `json:"translation"`
	Label       string `json:"label"`
}

// SourceTranslation returns the Hebrew source for Old Testament books and the
// Greek source for New Testament books. Other books have none.
func SourceTranslation(bookID int) (Source, bool) {
	switch {
	case bookID >= 1 && bookID <= lastOldTestamentBook:
		return Source{Translation: hebrewSourceTranslation, Label: "Hebrew (WLC)"}, true
	case bookID > lastOldTestamentBook && bookID <= lastNewTestamentBook:
		return Source{Translation: greekSourceTranslation, Label: "Greek (SBLGNT)"}, true
	default:
		return Source{}, false
	}
}

// Store is the query-only verse store the Resolver reads from.
type Store interface {
	Translations(ctx context.Context) ([]Translation, error)
	Books(ctx context.Context, translation string) ([]Book, error)
	// BookByName matches name case-insensitively. ok is false when the
	// translation has no such book.
	BookByName(ctx context.Context, translation, name string) (book Book, ok bool, err error)
	Verses(ctx context.Context, translation string, bookID, chapter, from, to int) ([]Verse, error)
	// CrossRefs returns references whose from-verse lies in [from, to], with
	// target book names taken from nameTranslation.
	CrossRefs(ctx context.Context, nameTranslation string, bookID, chapter, from, to int) ([]CrossRef, error)
}
