package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/germanamz/koinonia/pkg/chats/role"
	"github.com/germanamz/koinonia/pkg/conversation"
)

// Conversation is a saved chat thread.
type Conversation struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"deviceId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateConversation starts a conversation for deviceID.
func (s *Store) CreateConversation(ctx context.Context, deviceID, title string) (Conversation, error) {
	now := s.stamp()
	c := Conversation{
		ID:        s.id(),
		DeviceID:  deviceID,
		Title:     title,
		CreatedAt: fromMillis(now),
		UpdatedAt: fromMillis(now),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations(id, device_id, title, created_at, updated_at) VALUES(?, ?, ?, ?, ?)",
		c.ID, c.DeviceID, c.Title, now, now)
	if err != nil {
		return Conversation{}, fmt.Errorf("store: create conversation: %w", err)
	}
	return c, nil
}

// GetConversation returns conversation id.
func (s *Store) GetConversation(ctx context.Context, id string) (Conversation, error) {
	var (
		c                Conversation
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, device_id, title, created_at, updated_at FROM conversations WHERE id = ?", id).
		Scan(&c.ID, &c.DeviceID, &c.Title, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, fmt.Errorf("store: get conversation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("store: get conversation: %w", err)
	}
	c.CreatedAt, c.UpdatedAt = fromMillis(created), fromMillis(updated)
	return c, nil
}

// ListConversations returns the most recently active conversations of
// deviceID, newest first.
func (s *Store) ListConversations(ctx context.Context, deviceID string) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, device_id, title, created_at, updated_at FROM conversations
		WHERE device_id = ? ORDER BY updated_at DESC, rowid DESC LIMIT ?`, deviceID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("store: list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Conversation
	for rows.Next() {
		var (
			c                Conversation
			created, updated int64
		)
		if err := rows.Scan(&c.ID, &c.DeviceID, &c.Title, &created, &updated); err != nil {
			return nil, fmt.Errorf("store: list conversations: %w", err)
		}
		c.CreatedAt, c.UpdatedAt = fromMillis(created), fromMillis(updated)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list conversations: %w", err)
	}
	return out, nil
}

// RenameConversation changes the title of conversation id.
func (s *Store) RenameConversation(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE conversations SET title = ? WHERE id = ?", title, id)
	if err != nil {
		return fmt.Errorf("store: rename conversation: %w", err)
	}
	return affected(res, "rename conversation")
}

// DeleteConversation removes conversation id and its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("store: delete conversation: %w", err)
	}
	return affected(res, "delete conversation")
}

// AppendMessage adds t at the end of conversation id and bumps the
// conversation's activity time. It returns the new message id.
func (s *Store) AppendMessage(ctx context.Context, id string, t conversation.Turn) (string, error) {
	if !t.Role.Valid() {
		return "", fmt.Errorf("store: append message: invalid role %q", t.Role)
	}
	calls, err := json.Marshal(t.ToolCalls)
	if err != nil {
		return "", fmt.Errorf("store: append message: %w", err)
	}
	blocks, err := json.Marshal(t.ContentBlocks)
	if err != nil {
		return "", fmt.Errorf("store: append message: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: append message: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.stamp()
	res, err := tx.ExecContext(ctx, "UPDATE conversations SET updated_at = ? WHERE id = ?", now, id)
	if err != nil {
		return "", fmt.Errorf("store: append message: %w", err)
	}
	if err := affected(res, "append message"); err != nil {
		return "", err
	}

	msgID := s.id()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages(id, conversation_id, seq, role, content, thinking, tool_calls, content_blocks, created_at)
		VALUES(?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?), ?, ?, ?, ?, ?, ?)`,
		msgID, id, id, string(t.Role), t.Content, t.Thinking, string(calls), string(blocks), now)
	if err != nil {
		return "", fmt.Errorf("store: append message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: append message: %w", err)
	}
	return msgID, nil
}

// Messages returns the turns of conversation id in order.
func (s *Store) Messages(ctx context.Context, id string) ([]conversation.Turn, error) {
	if _, err := s.GetConversation(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, thinking, tool_calls, content_blocks FROM messages
		WHERE conversation_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("store: messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []conversation.Turn
	for rows.Next() {
		var (
			t             conversation.Turn
			r             string
			calls, blocks string
		)
		if err := rows.Scan(&r, &t.Content, &t.Thinking, &calls, &blocks); err != nil {
			return nil, fmt.Errorf("store: messages: %w", err)
		}
		t.Role = role.Role(r)
		if err := json.Unmarshal([]byte(calls), &t.ToolCalls); err != nil {
			return nil, fmt.Errorf("store: messages: decode tool calls: %w", err)
		}
		if err := json.Unmarshal([]byte(blocks), &t.ContentBlocks); err != nil {
			return nil, fmt.Errorf("store: messages: decode content blocks: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: messages: %w", err)
	}
	return out, nil
}
