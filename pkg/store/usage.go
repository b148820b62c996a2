package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Period returns the monthly billing period containing t, e.g. "2026-10".
func Period(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Tier returns the tier of deviceID, or "" when none was set.
func (s *Store) Tier(ctx context.Context, deviceID string) (string, error) {
	var tier string
	err := s.db.QueryRowContext(ctx, "SELECT tier FROM tiers WHERE device_id = ?", deviceID).Scan(&tier)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: tier: %w", err)
	}
	return tier, nil
}

// SetTier assigns a tier to deviceID.
func (s *Store) SetTier(ctx context.Context, deviceID, tier string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tiers(device_id, tier, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET tier = excluded.tier, updated_at = excluded.updated_at`,
		deviceID, tier, s.stamp())
	if err != nil {
		return fmt.Errorf("store: set tier: %w", err)
	}
	return nil
}

// Usage returns how many messages deviceID sent during period.
func (s *Store) Usage(ctx context.Context, deviceID, period string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT message_count FROM usage WHERE device_id = ? AND period = ?", deviceID, period).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: usage: %w", err)
	}
	return n, nil
}

// IncrementUsage counts one message for deviceID in period and returns the
// new total.
func (s *Store) IncrementUsage(ctx context.Context, deviceID, period string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO usage(device_id, period, message_count, updated_at) VALUES(?, ?, 1, ?)
		ON CONFLICT(device_id, period) DO UPDATE SET message_count = message_count + 1, updated_at = excluded.updated_at
		RETURNING message_count`,
		deviceID, period, s.stamp()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: increment usage: %w", err)
	}
	return n, nil
}
