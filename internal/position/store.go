// Package position persists per-document resume positions so playback can
// pick up where the listener left off.
package position

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when no position is stored for a document.
var ErrNotFound = errors.New("no saved position")

// Position records where playback last stopped in a document.
type Position struct {
	DocumentPath string    `json:"document_path"`
	Page         int       `json:"page"`
	TotalPages   int       `json:"total_pages"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store is a SQLite-backed position store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the position database under dataDir.
// If dataDir is empty, defaults to ~/.readaloud/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".readaloud", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "positions.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS positions (
			document_path TEXT PRIMARY KEY,
			page INTEGER NOT NULL,
			total_pages INTEGER NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating positions table: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save stores or updates the position for a document.
func (s *Store) Save(ctx context.Context, pos Position) error {
	if pos.DocumentPath == "" {
		return errors.New("document path is required")
	}
	if pos.UpdatedAt.IsZero() {
		pos.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (document_path, page, total_pages, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(document_path) DO UPDATE SET
			page = excluded.page,
			total_pages = excluded.total_pages,
			updated_at = excluded.updated_at
	`, pos.DocumentPath, pos.Page, pos.TotalPages, pos.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving position: %w", err)
	}
	return nil
}

// Get retrieves the saved position for a document path.
func (s *Store) Get(ctx context.Context, documentPath string) (*Position, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_path, page, total_pages, updated_at
		FROM positions WHERE document_path = ?
	`, documentPath)

	var pos Position
	if err := row.Scan(&pos.DocumentPath, &pos.Page, &pos.TotalPages, &pos.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning position: %w", err)
	}
	return &pos, nil
}

// Delete removes the saved position for a document path.
func (s *Store) Delete(ctx context.Context, documentPath string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM positions WHERE document_path = ?", documentPath)
	if err != nil {
		return fmt.Errorf("deleting position: %w", err)
	}
	return nil
}

// List returns all saved positions, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_path, page, total_pages, updated_at
		FROM positions ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var pos Position
		if err := rows.Scan(&pos.DocumentPath, &pos.Page, &pos.TotalPages, &pos.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		positions = append(positions, pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating positions: %w", err)
	}
	return positions, nil
}
