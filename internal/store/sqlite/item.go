// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/clipd-dev/clipd/internal/store"
)

type itemStore struct {
	db       *sql.DB
	maxItems int
}

func (s *itemStore) InsertItem(ctx context.Context, item *store.Item) error {
	if item.Kind == "" {
		return fmt.Errorf("item kind is empty: %w", store.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx for item insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertItem = `INSERT INTO items (kind, content, blob, created_at, source_app) VALUES (?, ?, ?, ?, ?)`
	source := item.SourceApp
	if source == "" {
		source = store.SourceUnknown
	}
	result, err := tx.ExecContext(ctx, insertItem,
		string(item.Kind), item.Content, item.Blob, formatTime(item.CreatedAt), source,
	)
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted item id: %w", err)
	}

	if err := linkTags(ctx, tx, id, item.Tags); err != nil {
		return err
	}

	if err := s.evictOverflow(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item insert: %w", err)
	}

	item.ID = id
	item.SourceApp = source
	return nil
}

// evictOverflow deletes the oldest items until the configured capacity holds.
// Tag links and embedding records follow via foreign key cascade.
func (s *itemStore) evictOverflow(ctx context.Context, tx *sql.Tx) error {
	if s.maxItems <= 0 {
		return nil
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return fmt.Errorf("counting items for eviction: %w", err)
	}
	if count <= s.maxItems {
		return nil
	}

	const q = `DELETE FROM items WHERE id IN (
	SELECT id FROM items ORDER BY created_at ASC, id ASC LIMIT ?)`
	if _, err := tx.ExecContext(ctx, q, count-s.maxItems); err != nil {
		return fmt.Errorf("evicting %d oldest items: %w", count-s.maxItems, err)
	}
	return nil
}

const itemColumns = `id, kind, content, blob, created_at, source_app`

func (s *itemStore) GetItem(ctx context.Context, id int64) (*store.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item %d: %w", id, err)
	}

	if err := s.attachTags(ctx, []*store.Item{item}); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemStore) ListItems(ctx context.Context, opts store.ListOpts) ([]*store.Item, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	const q = `SELECT ` + itemColumns + ` FROM items ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	items, err := collectItems(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *itemStore) SearchItems(ctx context.Context, text, category string) ([]*store.Item, error) {
	var qb strings.Builder
	qb.WriteString(`SELECT i.id, i.kind, i.content, i.blob, i.created_at, i.source_app FROM items i`)

	var conditions []string
	var args []any

	if category != "" && category != store.CategoryAll {
		qb.WriteString(` JOIN item_tags it ON it.item_id = i.id JOIN tags t ON t.id = it.tag_id`)
		conditions = append(conditions, "t.name = ?")
		args = append(args, category)
	}
	if text != "" {
		// SQLite LIKE is case-insensitive for ASCII. The pattern
		// metacharacters are escaped so query text matches literally.
		conditions = append(conditions, `i.content LIKE '%' || ? || '%' ESCAPE '\'`)
		args = append(args, escapeLike(text))
	}

	if len(conditions) > 0 {
		qb.WriteString(" WHERE ")
		qb.WriteString(strings.Join(conditions, " AND "))
	}
	qb.WriteString(" ORDER BY i.created_at DESC, i.id DESC")

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	items, err := collectItems(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE wildcards in user-supplied query text.
func escapeLike(text string) string {
	return likeEscaper.Replace(text)
}

func (s *itemStore) DeleteItem(ctx context.Context, id int64) error {
	// Tag links and per-provider embedding rows are declared with
	// ON DELETE CASCADE, so a single statement removes all three.
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows for item %d: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("item %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *itemStore) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

// attachTags loads tag names for each item.
func (s *itemStore) attachTags(ctx context.Context, items []*store.Item) error {
	const q = `SELECT t.name FROM tags t JOIN item_tags it ON it.tag_id = t.id WHERE it.item_id = ? ORDER BY t.name`
	for _, item := range items {
		rows, err := s.db.QueryContext(ctx, q, item.ID)
		if err != nil {
			return fmt.Errorf("loading tags for item %d: %w", item.ID, err)
		}
		var names []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close() //nolint:errcheck
				return fmt.Errorf("scanning tag name: %w", err)
			}
			names = append(names, name)
		}
		if err := rows.Err(); err != nil {
			rows.Close() //nolint:errcheck
			return fmt.Errorf("iterating tags for item %d: %w", item.ID, err)
		}
		rows.Close() //nolint:errcheck
		item.Tags = names
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for item scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (*store.Item, error) {
	var item store.Item
	var kind, createdAt string
	var blob []byte
	if err := sc.Scan(&item.ID, &kind, &item.Content, &blob, &createdAt, &item.SourceApp); err != nil {
		return nil, err
	}
	item.Kind = store.ItemKind(kind)
	item.Blob = blob

	var err error
	item.CreatedAt, err = ParseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing item %d created_at: %w", item.ID, err)
	}
	return &item, nil
}

func collectItems(rows *sql.Rows) ([]*store.Item, error) {
	var items []*store.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating item rows: %w", err)
	}
	return items, nil
}
