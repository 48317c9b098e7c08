package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"automindmap/internal/models"
)

// Only SHA-256 digests of bearer and reset tokens are stored.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *Store) CreateSession(ctx context.Context, token, userID string, ttl time.Duration) (time.Time, error) {
	now := s.now()
	expires := now.Add(ttl).UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		hashToken(token), userID, formatTime(expires), formatTime(now))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to create session: %w", err)
	}
	return expires, nil
}

// SessionUser returns the owner of a live session token. Unknown and
// expired tokens are ErrNotFound.
func (s *Store) SessionUser(ctx context.Context, token string) (*models.User, error) {
	var userID string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM sessions WHERE token_hash = ? AND expires_at > ?`,
		hashToken(token), formatTime(s.now())).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	return s.UserByID(ctx, userID)
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, hashToken(token))
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) CreatePasswordReset(ctx context.Context, token, userID string, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO password_resets (token_hash, user_id, expires_at) VALUES (?, ?, ?)`,
		hashToken(token), userID, formatTime(s.now().Add(ttl)))
	if err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}
	return nil
}

// ConsumePasswordReset marks a reset token used and returns its user. A
// token works once; unknown, expired or used tokens are ErrNotFound.
func (s *Store) ConsumePasswordReset(ctx context.Context, token string) (string, error) {
	now := formatTime(s.now())
	hash := hashToken(token)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM password_resets WHERE token_hash = ? AND used_at IS NULL AND expires_at > ?`,
		hash, now).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up reset token: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE password_resets SET used_at = ? WHERE token_hash = ?`, now, hash); err != nil {
		return "", fmt.Errorf("failed to mark reset token used: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return userID, nil
}
