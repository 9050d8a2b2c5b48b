package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// Keys stored in the app_state table.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyExpiresAtMS  = "expires_at_ms"
	KeyCodeVerifier = "code_verifier"
)

// StateRepository is a string key-value store over the app_state table.
//
// It is the durable home of the token lifecycle state; the services package
// owns what the values mean.
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a new [StateRepository] with the given database connection
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get retrieves the value for key. The second return is false when the key is absent.
func (r *StateRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM app_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query state key %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the value for key.
func (r *StateRepository) Set(key, value string) error {
	query := `
		INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to set state key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *StateRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM app_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete state key %s: %w", key, err)
	}
	return nil
}
