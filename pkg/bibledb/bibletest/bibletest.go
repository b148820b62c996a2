// Package bibletest builds small seeded verse stores for tests.
package bibletest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/germanamz/koinonia/pkg/bibledb"
	"github.com/germanamz/koinonia/pkg/passage"
	"github.com/stretchr/testify/require"
)

// GenesisOneVerses is the verse count of Genesis 1.
const GenesisOneVerses = 31

// Seeded book ids.
const (
	Genesis = 1
	John    = 43
	Tobit   = 67
	Enoch   = 90
)

// New returns a migrated store in a temp dir seeded with:
//   - KJV and ESV Genesis 1 (31 verses each) and KJV John 1:1-5
//   - WLC Genesis 1:1-3 and SBLGNT John 1:1
//   - KJV Tobit 1:1-2 (ESV has no Tobit)
//   - ENC 1 Enoch 1:1-2
//   - cross references from Genesis 1:1 and 1:3
func New(t *testing.T) *bibledb.Store {
	t.Helper()

	s, err := bibledb.Open(filepath.Join(t.TempDir(), "bible.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	for _, tr := range []passage.Translation{
		{ShortName: "KJV", FullName: "King James Version"},
		{ShortName: "ESV", FullName: "English Standard Version"},
		{ShortName: "WLC", FullName: "Westminster Leningrad Codex", Language: "he", Direction: "rtl"},
		{ShortName: "SBLGNT", FullName: "SBL Greek New Testament", Language: "grc"},
		{ShortName: "ENC", FullName: "Extra-canonical Texts"},
	} {
		require.NoError(t, s.AddTranslation(ctx, tr))
	}

	genesis := passage.Book{ID: Genesis, Name: "Genesis", Chapters: 50, ChronOrder: 1, Testament: "OT"}
	john := passage.Book{ID: John, Name: "John", Chapters: 21, ChronOrder: 43, Testament: "NT"}
	for _, tr := range []string{"KJV", "ESV", "WLC"} {
		require.NoError(t, s.AddBook(ctx, tr, genesis))
	}
	for _, tr := range []string{"KJV", "ESV", "SBLGNT"} {
		require.NoError(t, s.AddBook(ctx, tr, john))
	}
	require.NoError(t, s.AddBook(ctx, "KJV", passage.Book{ID: Tobit, Name: "Tobit", Chapters: 14, ChronOrder: 67, Testament: "DC"}))
	require.NoError(t, s.AddBook(ctx, "ENC", passage.Book{ID: Enoch, Name: "1 Enoch", Chapters: 108, ChronOrder: 90, Testament: "NC"}))

	for _, tr := range []string{"KJV", "ESV"} {
		require.NoError(t, s.AddVerses(ctx, tr, Genesis, 1, chapter(tr, "Genesis 1", GenesisOneVerses)))
	}
	require.NoError(t, s.AddVerses(ctx, "KJV", John, 1, chapter("KJV", "John 1", 5)))
	require.NoError(t, s.AddVerses(ctx, "WLC", Genesis, 1, chapter("WLC", "Genesis 1", 3)))
	require.NoError(t, s.AddVerses(ctx, "SBLGNT", John, 1, chapter("SBLGNT", "John 1", 1)))
	require.NoError(t, s.AddVerses(ctx, "KJV", Tobit, 1, chapter("KJV", "Tobit 1", 2)))
	require.NoError(t, s.AddVerses(ctx, "ENC", Enoch, 1, chapter("ENC", "1 Enoch 1", 2)))

	for _, l := range []bibledb.Link{
		{FromBook: Genesis, FromChapter: 1, FromVerse: 3, ToBook: John, ToChapter: 1, ToVerse: 5, Relevance: 40},
		{FromBook: Genesis, FromChapter: 1, FromVerse: 1, ToBook: John, ToChapter: 1, ToVerse: 1, ToEndVerse: 3, Relevance: 90},
		{FromBook: Genesis, FromChapter: 1, FromVerse: 1, ToBook: John, ToChapter: 1, ToVerse: 4, Relevance: 40},
	} {
		require.NoError(t, s.AddLink(ctx, l))
	}

	return s
}

// VerseText is the seeded text of a verse.
func VerseText(translation, chapterRef string, verse int) string {
	return fmt.Sprintf("%s:%d (%s)", chapterRef, verse, translation)
}

func chapter(translation, ref string, n int) []passage.Verse {
	vs := make([]passage.Verse, n)
	for i := range vs {
		vs[i] = passage.Verse{Verse: i + 1, Text: VerseText(translation, ref, i+1)}
	}
	return vs
}
