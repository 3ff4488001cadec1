// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

// Package sqlite implements the store interfaces on a single SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/clipd-dev/clipd/internal/store"
)

// Compile-time interface checks.
var (
	_ store.Store          = (*Store)(nil)
	_ store.ItemStore      = (*itemStore)(nil)
	_ store.TagStore       = (*tagStore)(nil)
	_ store.EmbeddingStore = (*embeddingStore)(nil)
)

// Store implements store.Store backed by a single SQLite database.
type Store struct {
	db *sql.DB
	*itemStore
	*tagStore
	*embeddingStore
}

// New opens (or creates) a SQLite database at dbPath and initialises the
// items, tags, and item_tags tables. maxItems bounds the total item count;
// zero or negative disables eviction.
func New(dbPath string, maxItems int) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging history db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating history db: %w", err)
	}

	return &Store{
		db:             db,
		itemStore:      &itemStore{db: db, maxItems: maxItems},
		tagStore:       &tagStore{db: db},
		embeddingStore: &embeddingStore{db: db},
	}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS items (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	blob       BLOB,
	created_at TEXT NOT NULL,
	source_app TEXT NOT NULL DEFAULT 'Unknown'
);

CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);

CREATE TABLE IF NOT EXISTS tags (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS item_tags (
	item_id INTEGER NOT NULL,
	tag_id  INTEGER NOT NULL,
	PRIMARY KEY (item_id, tag_id),
	FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE,
	FOREIGN KEY (tag_id)  REFERENCES tags(id)  ON DELETE CASCADE
);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// formatTime renders timestamps so lexicographic and chronological order
// agree (UTC, fixed width).
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// ParseTime parses a timestamp stored by formatTime.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
