package bibledb

import (
	"context"
	"fmt"

	"github.com/germanamz/koinonia/pkg/passage"
)

// Link is a cross reference row as stored.
type Link struct {
	FromBook, FromChapter, FromVerse int
	ToBook, ToChapter, ToVerse       int
	ToEndVerse                       int
	Relevance                        int
}

// AddTranslation inserts or replaces a translation.
func (s *Store) AddTranslation(ctx context.Context, t passage.Translation) error {
	if t.Language == "" {
		t.Language = "en"
	}
	if t.Direction == "" {
		t.Direction = "ltr"
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO translations(short_name, full_name, language, direction) VALUES(?, ?, ?, ?)",
		t.ShortName, t.FullName, t.Language, t.Direction)
	if err != nil {
		return fmt.Errorf("bibledb: add translation: %w", err)
	}
	return nil
}

// AddBook inserts or replaces a book of translation.
func (s *Store) AddBook(ctx context.Context, translation string, b passage.Book) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO books(translation, book_id, name, chapters, chron_order, testament) VALUES(?, ?, ?, ?, ?, ?)",
		translation, b.ID, b.Name, b.Chapters, b.ChronOrder, b.Testament)
	if err != nil {
		return fmt.Errorf("bibledb: add book: %w", err)
	}
	return nil
}

// AddVerses inserts a chapter's verses in one transaction.
func (s *Store) AddVerses(ctx context.Context, translation string, bookID, chapter int, verses []passage.Verse) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bibledb: add verses: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO verses(translation, book_id, chapter, verse, text) VALUES(?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("bibledb: add verses: %w", err)
	}
	defer stmt.Close()

	for _, v := range verses {
		if _, err := stmt.ExecContext(ctx, translation, bookID, chapter, v.Verse, v.Text); err != nil {
			return fmt.Errorf("bibledb: add verses: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bibledb: add verses: %w", err)
	}
	return nil
}

// AddLink inserts a cross reference.
func (s *Store) AddLink(ctx context.Context, l Link) error {
	var end any
	if l.ToEndVerse > 0 {
		end = l.ToEndVerse
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cross_references(from_book, from_chapter, from_verse, to_book, to_chapter, to_verse, to_end_verse, relevance)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		l.FromBook, l.FromChapter, l.FromVerse, l.ToBook, l.ToChapter, l.ToVerse, end, l.Relevance)
	if err != nil {
		return fmt.Errorf("bibledb: add link: %w", err)
	}
	return nil
}
