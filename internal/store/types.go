// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package store

import "time"

// ItemKind classifies what a clipboard item carries.
type ItemKind string

const (
	ItemKindText  ItemKind = "text"
	ItemKindImage ItemKind = "image"
	ItemKindLink  ItemKind = "link"
)

// SourceUnknown is recorded when the foreground application cannot be resolved.
const SourceUnknown = "Unknown"

// Reserved pseudo-categories. They are filtering modes, never persisted as
// tags, and can neither be deleted nor renamed.
const (
	CategoryAll      = "Clipboard History"
	CategorySemantic = "AI"
)

// Item is a single captured clipboard entry.
//
// ID is store-assigned and monotonic; 0 means not yet persisted. Exactly one
// of Content and Blob is meaningfully populated: Content for text and link
// items, Blob for image items.
type Item struct {
	ID        int64
	Kind      ItemKind
	Content   string
	Blob      []byte
	CreatedAt time.Time
	SourceApp string
	Tags      []string
}

// IsText reports whether the item carries embeddable text content.
func (i *Item) IsText() bool { return i.Kind == ItemKindText }

// Tag is a user-defined label, many-to-many with items.
type Tag struct {
	ID   int64
	Name string
}

// SimilarityMatch pairs an item id with its cosine similarity to a query
// vector, in [-1, 1].
type SimilarityMatch struct {
	ItemID int64
	Score  float64
}

// ListOpts controls forward pagination of item listings.
type ListOpts struct {
	Limit  int
	Offset int
}

// IsReservedCategory reports whether name is one of the virtual categories.
func IsReservedCategory(name string) bool {
	return name == CategoryAll || name == CategorySemantic
}
