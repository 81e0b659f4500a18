package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TokenStore persists bearer tokens in sqlite, keyed by chat id. The token
// is the only durable piece of session state; everything else is re-fetched
// from the backend on restore.
type TokenStore struct {
	db *sql.DB
}

// NewTokenStore creates a token store on an existing database connection.
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Save writes or replaces the token for a chat.
func (s *TokenStore) Save(ctx context.Context, chatID int64, token string) error {
	const q = `INSERT INTO tokens (chat_id, token, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, q, chatID, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Get returns the stored token for a chat, or "" when none is stored.
func (s *TokenStore) Get(ctx context.Context, chatID int64) (string, error) {
	const q = `SELECT token FROM tokens WHERE chat_id = ?`
	var token string
	err := s.db.QueryRowContext(ctx, q, chatID).Scan(&token)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// Delete removes the stored token for a chat. Deleting an absent token is
// not an error.
func (s *TokenStore) Delete(ctx context.Context, chatID int64) error {
	const q = `DELETE FROM tokens WHERE chat_id = ?`
	if _, err := s.db.ExecContext(ctx, q, chatID); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
