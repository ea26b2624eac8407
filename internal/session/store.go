// Package session owns the admin credential: its persistence across runs and
// its validity state. The persisted token is the only durable state the tool
// keeps, and only the session manager's transition rules may mutate it.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// tokenKey is the single fixed key the credential is stored under.
const tokenKey = "adminAuthToken"

// Store persists the encoded credential token.
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
	Close() error
}

// SQLiteStore keeps the credential in a small local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the credential database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("session: store path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("session: create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open credential store: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS credentials (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: init credential store: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Load returns the persisted token, or "" when none is stored.
func (s *SQLiteStore) Load() (string, error) {
	var token string
	err := s.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, tokenKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: load credential: %w", err)
	}
	return token, nil
}

// Save stores the token under the fixed credential key.
func (s *SQLiteStore) Save(token string) error {
	_, err := s.db.Exec(`INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, tokenKey, token)
	if err != nil {
		return fmt.Errorf("session: save credential: %w", err)
	}
	return nil
}

// Clear removes the persisted token. Clearing an empty store succeeds.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE key = ?`, tokenKey); err != nil {
		return fmt.Errorf("session: clear credential: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
