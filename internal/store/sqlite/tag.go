// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clipd-dev/clipd/internal/store"
)

type tagStore struct {
	db *sql.DB
}

func (s *tagStore) ListTags(ctx context.Context) ([]store.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	var tags []store.Tag
	for rows.Next() {
		var t store.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tag rows: %w", err)
	}
	return tags, nil
}

func (s *tagStore) AddTag(ctx context.Context, itemID int64, name string) error {
	if store.IsReservedCategory(name) {
		return fmt.Errorf("tag %q is reserved: %w", name, store.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx for tag add: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := linkTags(ctx, tx, itemID, []string{name}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *tagStore) RemoveTag(ctx context.Context, itemID int64, name string) error {
	const q = `DELETE FROM item_tags WHERE item_id = ? AND tag_id = (SELECT id FROM tags WHERE name = ?)`
	result, err := s.db.ExecContext(ctx, q, itemID, name)
	if err != nil {
		return fmt.Errorf("removing tag %q from item %d: %w", name, itemID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows for tag removal: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("tag %q on item %d: %w", name, itemID, store.ErrNotFound)
	}
	return nil
}

func (s *tagStore) RenameTag(ctx context.Context, oldName, newName string) error {
	if store.IsReservedCategory(oldName) || store.IsReservedCategory(newName) {
		return fmt.Errorf("reserved category cannot be renamed: %w", store.ErrInvalidInput)
	}
	if newName == "" {
		return fmt.Errorf("new tag name is empty: %w", store.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx for tag rename: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags WHERE name = ?`, newName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking tag %q: %w", newName, err)
	}
	if exists > 0 {
		return fmt.Errorf("tag %q already exists: %w", newName, store.ErrConflict)
	}

	result, err := tx.ExecContext(ctx, `UPDATE tags SET name = ? WHERE name = ?`, newName, oldName)
	if err != nil {
		return fmt.Errorf("renaming tag %q: %w", oldName, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows for tag rename: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("tag %q: %w", oldName, store.ErrNotFound)
	}

	return tx.Commit()
}

func (s *tagStore) DeleteTag(ctx context.Context, name string) error {
	if store.IsReservedCategory(name) {
		return fmt.Errorf("reserved category cannot be deleted: %w", store.ErrInvalidInput)
	}

	// Item links follow via foreign key cascade.
	result, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting tag %q: %w", name, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows for tag delete: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("tag %q: %w", name, store.ErrNotFound)
	}
	return nil
}

// linkTags upserts each tag by name and links it to the item.
func linkTags(ctx context.Context, tx *sql.Tx, itemID int64, names []string) error {
	for _, name := range names {
		if name == "" || store.IsReservedCategory(name) {
			continue
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("upserting tag %q: %w", name, err)
		}

		var tagID int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&tagID); err != nil {
			return fmt.Errorf("resolving tag %q: %w", name, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_tags (item_id, tag_id) VALUES (?, ?) ON CONFLICT(item_id, tag_id) DO NOTHING`,
			itemID, tagID); err != nil {
			return fmt.Errorf("linking tag %q to item %d: %w", name, itemID, err)
		}
	}
	return nil
}
