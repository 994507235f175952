// Package storage persists discoveries in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/snapfactlabs/snapfact/internal/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS discoveries (
	id         TEXT PRIMARY KEY,
	image_url  TEXT NOT NULL,
	fact       TEXT NOT NULL,
	user_id    TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_discoveries_created_at ON discoveries (created_at DESC);
`

// Store is a SQLite-backed discovery store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the discovery database at path. Pass
// ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InsertDiscovery saves one (image, fact) pair. The id and creation time are
// assigned here, never by the caller.
func (s *Store) InsertDiscovery(ctx context.Context, imageURL, fact string) (models.Discovery, error) {
	d := models.Discovery{
		ID:        uuid.NewString(),
		ImageURL:  imageURL,
		Fact:      fact,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO discoveries (id, image_url, fact, created_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.ImageURL, d.Fact, d.CreatedAt.UnixNano())
	if err != nil {
		return models.Discovery{}, fmt.Errorf("failed to insert discovery: %w", err)
	}

	return d, nil
}

// ListRecent returns at most n discoveries, most recent first.
func (s *Store) ListRecent(ctx context.Context, n int) ([]models.Discovery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, image_url, fact, user_id, created_at
		 FROM discoveries
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query discoveries: %w", err)
	}
	defer rows.Close()

	discoveries := []models.Discovery{}
	for rows.Next() {
		var d models.Discovery
		var userID sql.NullString
		var createdAt int64
		if err := rows.Scan(&d.ID, &d.ImageURL, &d.Fact, &userID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan discovery: %w", err)
		}
		d.UserID = userID.String
		d.CreatedAt = time.Unix(0, createdAt).UTC()
		discoveries = append(discoveries, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read discoveries: %w", err)
	}

	return discoveries, nil
}
