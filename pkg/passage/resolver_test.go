package passage_test

import (
	"context"
	"testing"

	"github.com/germanamz/koinonia/pkg/bibledb/bibletest"
	"github.com/germanamz/koinonia/pkg/passage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T) *passage.Resolver {
	t.Helper()
	return passage.NewResolver(bibletest.New(t))
}

func TestResolveBook(t *testing.T) {
	r := newResolver(t)
	ctx := context.Background()

	b, err := r.ResolveBook(ctx, "ESV", "genesis")
	require.NoError(t, err)
	assert.Equal(t, bibletest.Genesis, b.ID)

	// Non-canonical books resolve from any translation.
	b, err = r.ResolveBook(ctx, "KJV", "1 enoch")
	require.NoError(t, err)
	assert.Equal(t, bibletest.Enoch, b.ID)

	_, err = r.ResolveBook(ctx, "KJV", "Hezekiah")
	assert.ErrorIs(t, err, passage.ErrBookNotFound)
}

func TestEffectiveTranslation(t *testing.T) {
	r := newResolver(t)
	ctx := context.Background()

	tr, err := r.EffectiveTranslation(ctx, "ESV", bibletest.Enoch)
	require.NoError(t, err)
	assert.Equal(t, "ENC", tr)

	tr, err = r.EffectiveTranslation(ctx, "ESV", bibletest.Tobit)
	require.NoError(t, err)
	assert.Equal(t, "KJV", tr, "ESV lacks Tobit")

	tr, err = r.EffectiveTranslation(ctx, "KJV", bibletest.Tobit)
	require.NoError(t, err)
	assert.Equal(t, "KJV", tr)

	tr, err = r.EffectiveTranslation(ctx, "ESV", bibletest.Genesis)
	require.NoError(t, err)
	assert.Equal(t, "ESV", tr)
}

func TestVerses(t *testing.T) {
	r := newResolver(t)
	ctx := context.Background()

	vs, err := r.Verses(ctx, "KJV", bibletest.Genesis, 1, passage.Range{})
	require.NoError(t, err)
	assert.Len(t, vs, bibletest.GenesisOneVerses)

	vs, err = r.Verses(ctx, "KJV", bibletest.Genesis, 1, passage.Range{From: 29})
	require.NoError(t, err)
	assert.Len(t, vs, 3)

	vs, err = r.Verses(ctx, "ESV", bibletest.Tobit, 1, passage.Range{})
	require.NoError(t, err)
	assert.Equal(t, bibletest.VerseText("KJV", "Tobit 1", 1), vs[0].Text)

	_, err = r.Verses(ctx, "KJV", bibletest.Genesis, 2, passage.Range{})
	assert.ErrorIs(t, err, passage.ErrNoVersesFound)
}

func TestCrossRefs_OrderedByRelevanceThenVerse(t *testing.T) {
	r := newResolver(t)

	refs, err := r.CrossRefs(context.Background(), "KJV", bibletest.Genesis, 1, passage.Range{})
	require.NoError(t, err)

	require.Len(t, refs, 3)
	assert.Equal(t, 90, refs[0].Relevance)
	assert.Equal(t, 1, refs[1].FromVerse)
	assert.Equal(t, "John 1:4", refs[1].Reference())
	assert.Equal(t, 3, refs[2].FromVerse)

	refs, err = r.CrossRefs(context.Background(), "KJV", bibletest.Genesis, 1, passage.Range{From: 2, To: 3})
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

func TestBooks_AppendsFallbackBooks(t *testing.T) {
	r := newResolver(t)

	books, err := r.Books(context.Background(), "ESV")
	require.NoError(t, err)

	names := make([]string, len(books))
	for i, b := range books {
		names[i] = b.Name
	}
	assert.Equal(t, []string{"Genesis", "John", "Tobit", "1 Enoch"}, names)

	_, err = r.Books(context.Background(), "NOPE")
	assert.ErrorIs(t, err, passage.ErrBookNotFound)
}

func TestTranslationMenu(t *testing.T) {
	r := newResolver(t)

	menu, err := r.TranslationMenu(context.Background())
	require.NoError(t, err)
	assert.Contains(t, menu, "KJV (King James Version)")
	assert.Contains(t, menu, "ESV (English Standard Version)")
}
