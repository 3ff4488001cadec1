// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"

	"github.com/clipd-dev/clipd/internal/store"
)

// Each provider owns an isolated `{provider}_embeddings` table, created
// lazily on first save. Switching the active provider never touches another
// provider's records.
type embeddingStore struct {
	db *sql.DB
}

var providerNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func embeddingTable(provider string) (string, error) {
	if !providerNameRe.MatchString(provider) {
		return "", fmt.Errorf("provider name %q: %w", provider, store.ErrInvalidInput)
	}
	return provider + "_embeddings", nil
}

func (s *embeddingStore) ensureTable(ctx context.Context, table string) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	item_id INTEGER PRIMARY KEY,
	vector  BLOB NOT NULL,
	FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
)`, table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}
	return nil
}

func (s *embeddingStore) SaveEmbedding(ctx context.Context, provider string, itemID int64, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("empty vector for item %d: %w", itemID, store.ErrInvalidInput)
	}
	table, err := embeddingTable(provider)
	if err != nil {
		return err
	}
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}

	q := fmt.Sprintf(`INSERT INTO %s (item_id, vector) VALUES (?, ?)
ON CONFLICT(item_id) DO UPDATE SET vector = excluded.vector`, table)
	if _, err := s.db.ExecContext(ctx, q, itemID, encodeVector(vector)); err != nil {
		return fmt.Errorf("upserting embedding for item %d: %w", itemID, err)
	}
	return nil
}

func (s *embeddingStore) GetEmbedding(ctx context.Context, provider string, itemID int64) ([]float32, error) {
	table, err := embeddingTable(provider)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTable(ctx, table); err != nil {
		return nil, err
	}

	var blob []byte
	q := fmt.Sprintf(`SELECT vector FROM %s WHERE item_id = ?`, table)
	err = s.db.QueryRowContext(ctx, q, itemID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("embedding for item %d: %w", itemID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting embedding for item %d: %w", itemID, err)
	}

	vector, err := decodeVector(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding embedding for item %d: %w", itemID, err)
	}
	return vector, nil
}

func (s *embeddingStore) ClearEmbeddings(ctx context.Context, provider string) error {
	table, err := embeddingTable(provider)
	if err != nil {
		return err
	}
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
		return fmt.Errorf("clearing %s: %w", table, err)
	}
	return nil
}

func (s *embeddingStore) ItemsMissingEmbedding(ctx context.Context, provider string) ([]*store.Item, error) {
	table, err := embeddingTable(provider)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTable(ctx, table); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT `+itemColumns+` FROM items
WHERE kind = ? AND id NOT IN (SELECT item_id FROM %s)
ORDER BY created_at ASC, id ASC`, table)

	rows, err := s.db.QueryContext(ctx, q, string(store.ItemKindText))
	if err != nil {
		return nil, fmt.Errorf("listing items missing embeddings: %w", err)
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	return collectItems(rows)
}

// RankBySimilarity scans every stored vector for the provider and ranks by
// cosine similarity. No index; acceptable at local-history scale.
func (s *embeddingStore) RankBySimilarity(ctx context.Context, provider string, query []float32, k int) ([]store.SimilarityMatch, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("empty query vector: %w", store.ErrInvalidInput)
	}
	table, err := embeddingTable(provider)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTable(ctx, table); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT item_id, vector FROM %s`, table))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", table, err)
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	var matches []store.SimilarityMatch
	for rows.Next() {
		var itemID int64
		var blob []byte
		if err := rows.Scan(&itemID, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}
		vector, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for item %d: %w", itemID, err)
		}
		if len(vector) != len(query) {
			// Records embedded under a different model dimension cannot be
			// compared; skip them.
			continue
		}
		matches = append(matches, store.SimilarityMatch{
			ItemID: itemID,
			Score:  cosineSimilarity(query, vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embedding rows: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
