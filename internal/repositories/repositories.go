package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moviemate/internal/shared"
)

// SessionRepository is a key-value store over the session_store table.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get returns the value stored under key, or [shared.ErrNotFound].
func (r *SessionRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM session_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: session key %q", shared.ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session key %q: %w", key, err)
	}
	return value, nil
}

// Set upserts the value stored under key.
func (r *SessionRepository) Set(key, value string) error {
	query := `
		INSERT INTO session_store (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write session key %q: %w", key, err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (r *SessionRepository) Delete(keys ...string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, key := range keys {
		if _, err := tx.Exec(`DELETE FROM session_store WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to delete session key %q: %w", key, err)
		}
	}

	return tx.Commit()
}
