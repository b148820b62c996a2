package passage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
)

// Resolver applies the lookup rules on top of a Store. It is stateless and
// safe for concurrent use when the Store is.
type Resolver struct {
	store Store
}

// NewResolver creates a Resolver reading from s.
func NewResolver(s Store) *Resolver {
	return &Resolver{store: s}
}

// Translations returns the translation menu.
func (r *Resolver) Translations(ctx context.Context) ([]Translation, error) {
	ts, err := r.store.Translations(ctx)
	if err != nil {
		return nil, fmt.Errorf("passage: translations: %w", err)
	}
	return ts, nil
}

// TranslationMenu renders the translations as "KJV (King James Version), ...".
func (r *Resolver) TranslationMenu(ctx context.Context) (string, error) {
	ts, err := r.Translations(ctx)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = fmt.Sprintf("%s (%s)", t.ShortName, t.FullName)
	}
	return strings.Join(parts, ", "), nil
}

// ResolveBook looks a book up by name in translation and then among the
// non-canonical books.
func (r *Resolver) ResolveBook(ctx context.Context, translation, name string) (Book, error) {
	for _, tr := range []string{translation, NonCanonicalTranslation} {
		b, ok, err := r.store.BookByName(ctx, tr, strings.TrimSpace(name))
		if err != nil {
			return Book{}, fmt.Errorf("passage: resolve book: %w", err)
		}
		if ok {
			return b, nil
		}
	}
	return Book{}, fmt.Errorf("%w: %q in %s translation", ErrBookNotFound, name, translation)
}

// EffectiveTranslation returns the translation that actually holds bookID's
// text: ENC for non-canonical books, KJV for deuterocanonical books the
// requested translation lacks, and translation otherwise.
func (r *Resolver) EffectiveTranslation(ctx context.Context, translation string, bookID int) (string, error) {
	switch {
	case bookID >= MinNonCanonicalBook:
		return NonCanonicalTranslation, nil
	case bookID >= MinDeuterocanonicalBook:
		vs, err := r.store.Verses(ctx, translation, bookID, 1, 1, 1)
		if err != nil {
			return "", fmt.Errorf("passage: probe deuterocanonical book: %w", err)
		}
		if len(vs) == 0 {
			return DeuterocanonicalFallback, nil
		}
	}
	return translation, nil
}

// Verses returns the verses of rng in the chapter.
func (r *Resolver) Verses(ctx context.Context, translation string, bookID, chapter int, rng Range) ([]Verse, error) {
	eff, err := r.EffectiveTranslation(ctx, translation, bookID)
	if err != nil {
		return nil, err
	}

	from, to := rng.Bounds()
	vs, err := r.store.Verses(ctx, eff, bookID, chapter, from, to)
	if err != nil {
		return nil, fmt.Errorf("passage: verses: %w", err)
	}
	if len(vs) == 0 {
		return nil, fmt.Errorf("%w: book %d chapter %d in %s", ErrNoVersesFound, bookID, chapter, translation)
	}
	return vs, nil
}

// Verse returns a single verse.
func (r *Resolver) Verse(ctx context.Context, translation string, bookID, chapter, verse int) (Verse, error) {
	vs, err := r.Verses(ctx, translation, bookID, chapter, Range{From: verse, To: verse})
	if err != nil {
		return Verse{}, err
	}
	return vs[0], nil
}

// CrossRefs returns the cross references of rng ordered by relevance, highest
// first, with ties broken by ascending from-verse.
func (r *Resolver) CrossRefs(ctx context.Context, translation string, bookID, chapter int, rng Range) ([]CrossRef, error) {
	eff, err := r.EffectiveTranslation(ctx, translation, bookID)
	if err != nil {
		return nil, err
	}

	from, to := rng.Bounds()
	refs, err := r.store.CrossRefs(ctx, eff, bookID, chapter, from, to)
	if err != nil {
		return nil, fmt.Errorf("passage: cross references: %w", err)
	}

	slices.SortStableFunc(refs, func(a, b CrossRef) int {
		if c := cmp.Compare(b.Relevance, a.Relevance); c != 0 {
			return c
		}
		return cmp.Compare(a.FromVerse, b.FromVerse)
	})
	return refs, nil
}

// Books returns the books of translation followed by the KJV deuterocanonical
// books when the translation has none and the non-canonical books.
func (r *Resolver) Books(ctx context.Context, translation string) ([]Book, error) {
	books, err := r.store.Books(ctx, translation)
	if err != nil {
		return nil, fmt.Errorf("passage: books: %w", err)
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("%w: translation %s has no books", ErrBookNotFound, translation)
	}

	hasDC := slices.ContainsFunc(books, func(b Book) bool { return b.Testament == testamentDeuterocanonical })
	if !hasDC && translation != DeuterocanonicalFallback {
		dc, err := r.booksOf(ctx, DeuterocanonicalFallback, testamentDeuterocanonical)
		if err != nil {
			return nil, err
		}
		books = append(books, dc...)
	}

	if translation != NonCanonicalTranslation {
		nc, err := r.booksOf(ctx, NonCanonicalTranslation, testamentNonCanonical)
		if err != nil {
			return nil, err
		}
		books = append(books, nc...)
	}

	return books, nil
}

func (r *Resolver) booksOf(ctx context.Context, translation, testament string) ([]Book, error) {
	all, err := r.store.Books(ctx, translation)
	if err != nil {
		return nil, fmt.Errorf("passage: books: %w", err)
	}
	var out []Book
	for _, b := range all {
		if b.Testament == testament {
			out = append(out, b)
		}
	}
	return out, nil
}
