// Package bibledb is the SQLite verse store behind the passage resolver.
package bibledb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/germanamz/koinonia/pkg/passage"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS translations (
		short_name TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT 'en',
		direction TEXT NOT NULL DEFAULT 'ltr'
	);`,
	`CREATE TABLE IF NOT EXISTS books (
		translation TEXT NOT NULL,
		book_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		chapters INTEGER NOT NULL,
		chron_order INTEGER NOT NULL DEFAULT 0,
		testament TEXT NOT NULL,
		PRIMARY KEY (translation, book_id)
	);`,
	`CREATE TABLE IF NOT EXISTS verses (
		translation TEXT NOT NULL,
		book_id INTEGER NOT NULL,
		chapter INTEGER NOT NULL,
		verse INTEGER NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (translation, book_id, chapter, verse)
	);`,
	`CREATE TABLE IF NOT EXISTS cross_references (
		from_book INTEGER NOT NULL,
		from_chapter INTEGER NOT NULL,
		from_verse INTEGER NOT NULL,
		to_book INTEGER NOT NULL,
		to_chapter INTEGER NOT NULL,
		to_verse INTEGER NOT NULL,
		to_end_book INTEGER,
		to_end_chapter INTEGER,
		to_end_verse INTEGER,
		relevance INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_books_name ON books(translation, name COLLATE NOCASE);`,
	`CREATE INDEX IF NOT EXISTS idx_cross_references_from ON cross_references(from_book, from_chapter, from_verse);`,
}

// Store implements passage.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

var _ passage.Store = (*Store)(nil)

// Open opens the database at path. A read-only store cannot be migrated or
// written to.
func Open(path string, readOnly bool) (*Store, error) {
	dsn := path
	if readOnly {
		dsn = fmt.Sprintf("file:%s?mode=ro", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("bibledb: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bibledb: open %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bibledb: migrate: %w", err)
		}
	}
	return nil
}

// Translations implements passage.Store.
func (s *Store) Translations(ctx context.Context) ([]passage.Translation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT short_name, full_name, language, direction FROM translations ORDER BY language, short_name")
	if err != nil {
		return nil, fmt.Errorf("bibledb: translations: %w", err)
	}
	defer rows.Close()

	var out []passage.Translation
	for rows.Next() {
		var t passage.Translation
		if err := rows.Scan(&t.ShortName, &t.FullName, &t.Language, &t.Direction); err != nil {
			return nil, fmt.Errorf("bibledb: translations: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Books implements passage.Store.
func (s *Store) Books(ctx context.Context, translation string) ([]passage.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT book_id, name, chapters, chron_order, testament FROM books WHERE translation = ? ORDER BY book_id",
		translation)
	if err != nil {
		return nil, fmt.Errorf("bibledb: books: %w", err)
	}
	defer rows.Close()

	var out []passage.Book
	for rows.Next() {
		var b passage.Book
		if err := rows.Scan(&b.ID, &b.Name, &b.Chapters, &b.ChronOrder, &b.Testament); err != nil {
			return nil, fmt.Errorf("bibledb: books: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BookByName implements passage.Store.
func (s *Store) BookByName(ctx context.Context, translation, name string) (passage.Book, bool, error) {
	var b passage.Book
	err := s.db.QueryRowContext(ctx,
		"SELECT book_id, name, chapters, chron_order, testament FROM books WHERE translation = ? AND name = ? COLLATE NOCASE LIMIT 1",
		translation, name,
	).Scan(&b.ID, &b.Name, &b.Chapters, &b.ChronOrder, &b.Testament)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return passage.Book{}, false, nil
	case err != nil:
		return passage.Book{}, false, fmt.Errorf("bibledb: book by name: %w", err)
	}
	return b, true, nil
}

// Verses implements passage.Store.
func (s *Store) Verses(ctx context.Context, translation string, bookID, chapter, from, to int) ([]passage.Verse, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT verse, text FROM verses WHERE translation = ? AND book_id = ? AND chapter = ? AND verse >= ? AND verse <= ? ORDER BY verse",
		translation, bookID, chapter, from, to)
	if err != nil {
		return nil, fmt.Errorf("bibledb: verses: %w", err)
	}
	defer rows.Close()

	var out []passage.Verse
	for rows.Next() {
		var v passage.Verse
		if err := rows.Scan(&v.Verse, &v.Text); err != nil {
			return nil, fmt.Errorf("bibledb: verses: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CrossRefs implements passage.Store.
func (s *Store) CrossRefs(ctx context.Context, nameTranslation string, bookID, chapter, from, to int) ([]passage.CrossRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cr.from_verse, cr.to_book, cr.to_chapter, cr.to_verse,
		       COALESCE(cr.to_end_verse, 0), cr.relevance, COALESCE(b.name, '')
		FROM cross_references cr
		LEFT JOIN books b ON b.translation = ? AND b.book_id = cr.to_book
		WHERE cr.from_book = ? AND cr.from_chapter = ? AND cr.from_verse >= ? AND cr.from_verse <= ?
		ORDER BY cr.from_verse, cr.relevance DESC`,
		nameTranslation, bookID, chapter, from, to)
	if err != nil {
		return nil, fmt.Errorf("bibledb: cross references: %w", err)
	}
	defer rows.Close()

	var out []passage.CrossRef
	for rows.Next() {
		var c passage.CrossRef
		if err := rows.Scan(&c.FromVerse, &c.ToBook, &c.ToChapter, &c.ToVerse, &c.ToEndVerse, &c.Relevance, &c.BookName); err != nil {
			return nil, fmt.Errorf("bibledb: cross references: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
