// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

// Package store defines the persistence contracts for clipboard history:
// items, tags, their links, and per-provider embedding tables.
package store

import "context"

// ItemStore manages clipboard items and the capacity invariant.
type ItemStore interface {
	// InsertItem assigns item.ID, persists the item with its tag links
	// (creating missing tags), then evicts the oldest items if the
	// configured capacity would be exceeded.
	InsertItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id int64) (*Item, error)

	// ListItems returns items ordered by capture timestamp descending.
	// It is used for forward pagination only.
	ListItems(ctx context.Context, opts ListOpts) ([]*Item, error)

	// SearchItems is the full-store search path: category (unless the
	// default pseudo-category) restricts to items carrying that tag, and a
	// non-empty text applies a case-insensitive substring predicate.
	SearchItems(ctx context.Context, text, category string) ([]*Item, error)

	// DeleteItem removes the item, its tag links, and its embedding records
	// across every provider table, transactionally.
	DeleteItem(ctx context.Context, id int64) error

	CountItems(ctx context.Context) (int, error)
}

// TagStore manages tags and item-tag links.
type TagStore interface {
	ListTags(ctx context.Context) ([]Tag, error)
	AddTag(ctx context.Context, itemID int64, name string) error
	RemoveTag(ctx context.Context, itemID int64, name string) error

	// RenameTag fails with ErrConflict when newName already exists and with
	// ErrNotFound when oldName is absent.
	RenameTag(ctx context.Context, oldName, newName string) error

	// DeleteTag removes the tag and cascades its item links.
	DeleteTag(ctx context.Context, name string) error
}

// EmbeddingStore manages one embedding table per provider. The provider
// argument scopes every operation; switching providers never touches another
// provider's records.
type EmbeddingStore interface {
	// SaveEmbedding creates the provider table if absent, then upserts the
	// vector keyed by item id.
	SaveEmbedding(ctx context.Context, provider string, itemID int64, vector []float32) error
	GetEmbedding(ctx context.Context, provider string, itemID int64) ([]float32, error)

	// ClearEmbeddings drops every record in the provider's table.
	ClearEmbeddings(ctx context.Context, provider string) error

	// ItemsMissingEmbedding returns text items with no record in the
	// provider's table, oldest first.
	ItemsMissingEmbedding(ctx context.Context, provider string) ([]*Item, error)

	// RankBySimilarity scans the provider's table and returns the top-k
	// matches by cosine similarity, descending.
	RankBySimilarity(ctx context.Context, provider string, query []float32, k int) ([]SimilarityMatch, error)
}

// Store is the full persistence surface owned by the process.
type Store interface {
	ItemStore
	TagStore
	EmbeddingStore
	Close() error
}
