package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/germanamz/koinonia/pkg/presentation"
)

// DefaultTitle names presentations saved without a title.
const DefaultTitle = "Untitled Presentation"

// Presentation is a saved presentation document.
type Presentation struct {
	presentation.Document
	ID        string    `json:"id"`
	DeviceID  string    `json:"deviceId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SavePresentation stores doc as a new presentation of deviceID and returns
// its id.
func (s *Store) SavePresentation(ctx context.Context, deviceID string, doc presentation.Document) (string, error) {
	doc = normalize(doc)
	slides, err := json.Marshal(doc.Slides)
	if err != nil {
		return "", fmt.Errorf("store: save presentation: %w", err)
	}

	id, now := s.id(), s.stamp()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO presentations(id, device_id, title, mode, html, theme_css, slides, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, deviceID, doc.Title, string(doc.Mode), doc.HTML, doc.ThemeCSS, string(slides), now, now)
	if err != nil {
		return "", fmt.Errorf("store: save presentation: %w", err)
	}
	return id, nil
}

// UpdatePresentation replaces the content of presentation id.
func (s *Store) UpdatePresentation(ctx context.Context, id string, doc presentation.Document) error {
	doc = normalize(doc)
	slides, err := json.Marshal(doc.Slides)
	if err != nil {
		return fmt.Errorf("store: update presentation: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE presentations SET title = ?, mode = ?, html = ?, theme_css = ?, slides = ?, updated_at = ?
		WHERE id = ?`,
		doc.Title, string(doc.Mode), doc.HTML, doc.ThemeCSS, string(slides), s.stamp(), id)
	if err != nil {
		return fmt.Errorf("store: update presentation: %w", err)
	}
	return affected(res, "update presentation")
}

// GetPresentation returns presentation id.
func (s *Store) GetPresentation(ctx context.Context, id string) (Presentation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, device_id, title, mode, html, theme_css, slides, created_at, updated_at
		FROM presentations WHERE id = ?`, id)

	p, err := scanPresentation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Presentation{}, fmt.Errorf("store: get presentation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Presentation{}, fmt.Errorf("store: get presentation: %w", err)
	}
	return p, nil
}

// ListPresentations returns the most recently updated presentations of
// deviceID, newest first.
func (s *Store) ListPresentations(ctx context.Context, deviceID string) ([]Presentation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, device_id, title, mode, html, theme_css, slides, created_at, updated_at
		FROM presentations WHERE device_id = ? ORDER BY updated_at DESC, rowid DESC LIMIT ?`,
		deviceID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("store: list presentations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Presentation
	for rows.Next() {
		p, err := scanPresentation(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list presentations: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list presentations: %w", err)
	}
	return out, nil
}

// DeletePresentation removes presentation id.
func (s *Store) DeletePresentation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM presentations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("store: delete presentation: %w", err)
	}
	return affected(res, "delete presentation")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPresentation(sc scanner) (Presentation, error) {
	var (
		p                Presentation
		mode, slides     string
		created, updated int64
	)
	if err := sc.Scan(&p.ID, &p.DeviceID, &p.Title, &mode, &p.HTML, &p.ThemeCSS, &slides, &created, &updated); err != nil {
		return Presentation{}, err
	}
	if err := json.Unmarshal([]byte(slides), &p.Slides); err != nil {
		return Presentation{}, fmt.Errorf("decode slides: %w", err)
	}
	p.Mode = presentation.ParseMode(mode)
	p.CreatedAt, p.UpdatedAt = fromMillis(created), fromMillis(updated)
	return p, nil
}

// normalize applies the stored defaults: a title and exclusive mode fields.
func normalize(doc presentation.Document) presentation.Document {
	var out presentation.Document
	out.Write(doc)
	if out.Title == "" {
		out.Title = DefaultTitle
	}
	return out
}
