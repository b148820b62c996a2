// Package store persists presentations, chat conversations and per-device
// usage in a read-write SQLite database. It is the collaborator the server
// calls after a turn completes; the engine never touches it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("store: not found")

// listLimit caps list queries.
const listLimit = 50

var schema = []string{
	`CREATE TABLE IF NOT EXISTS presentations (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL,
		title TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT 'document',
		html TEXT NOT NULL DEFAULT '',
		theme_css TEXT NOT NULL DEFAULT '',
		slides TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_presentations_device ON presentations(device_id, updated_at);`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL,
		title TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_device ON conversations(device_id, updated_at);`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		thinking TEXT NOT NULL DEFAULT '',
		tool_calls TEXT NOT NULL DEFAULT 'null',
		content_blocks TEXT NOT NULL DEFAULT 'null',
		created_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);`,
	`CREATE TABLE IF NOT EXISTS tiers (
		device_id TEXT PRIMARY KEY,
		tier TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS usage (
		device_id TEXT NOT NULL,
		period TEXT NOT NULL,
		message_count INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (device_id, period)
	);`,
}

// Store is a SQLite-backed persistence layer. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
	id  func() string
}

// Open opens (creating when needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// SQLite allows one writer; a single connection serializes them.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now, id: uuid.NewString}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) stamp() int64 { return s.now().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// affected maps an UPDATE or DELETE that touched no row to ErrNotFound.
func affected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: %s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("store: %s: %w", op, ErrNotFound)
	}
	return nil
}
