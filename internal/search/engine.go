// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

// Package search serves the two retrieval paths over clipboard history:
// lexical substring filtering and semantic similarity ranking.
package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/clipd-dev/clipd/internal/provider"
	"github.com/clipd-dev/clipd/internal/store"
)

// SimilarityThreshold is the minimum cosine similarity a semantic match must
// reach to be returned.
const SimilarityThreshold = 0.70

// DefaultTopK bounds how many candidates a similarity scan returns before
// threshold filtering.
const DefaultTopK = 50

// ScoredItem is a semantic search hit.
type ScoredItem struct {
	Item  *store.Item
	Score float64
}

// Engine answers lexical and semantic queries and owns paged loading.
type Engine struct {
	store    store.Store
	embedder provider.Factory
	logger   *slog.Logger
}

// NewEngine creates a search engine over the given store. embedder resolves
// the active provider per semantic query.
func NewEngine(st store.Store, embedder provider.Factory, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, embedder: embedder, logger: logger.With("component", "search")}
}

// FilterWindow applies the lexical filter to an in-memory item window.
func (e *Engine) FilterWindow(items []*store.Item, query, category string) []*store.Item {
	terms := splitTerms(query)

	filtered := make([]*store.Item, 0, len(items))
	for _, item := range items {
		if MatchesCategory(item, category) && MatchesTerms(item, terms) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// SearchAll is the full-store lexical path. Low-level store errors degrade
// to an empty result with a log entry; the UI stays usable.
func (e *Engine) SearchAll(ctx context.Context, query, category string) []*store.Item {
	items, err := e.store.SearchItems(ctx, query, category)
	if err != nil {
		e.logger.Error("full-store search failed", "error", err)
		return nil
	}
	return items
}

// Semantic embeds the query with the active provider and ranks stored
// vectors by cosine similarity, keeping matches at or above the threshold.
// Failures propagate so the caller surfaces them instead of silently falling
// back to lexical results.
func (e *Engine) Semantic(ctx context.Context, query string) ([]ScoredItem, error) {
	embedder, err := e.embedder()
	if err != nil {
		return nil, err
	}

	vector, err := embedder.Generate(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := e.store.RankBySimilarity(ctx, embedder.Name(), vector, DefaultTopK)
	if err != nil {
		return nil, err
	}

	results := make([]ScoredItem, 0, len(matches))
	for _, match := range matches {
		if match.Score < SimilarityThreshold {
			// Matches arrive sorted descending; everything after is below
			// the threshold too.
			break
		}
		item, err := e.store.GetItem(ctx, match.ItemID)
		if errors.Is(err, store.ErrNotFound) {
			// The item was deleted between ranking and resolution.
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, ScoredItem{Item: item, Score: match.Score})
	}
	return results, nil
}

// MatchesTerms reports whether every term is a case-insensitive substring of
// the item's lexical scope: text content for text items, joined tag names
// for image items, either for link items.
func MatchesTerms(item *store.Item, terms []string) bool {
	if len(terms) == 0 {
		return true
	}

	var scope string
	switch item.Kind {
	case store.ItemKindText:
		scope = item.Content
	case store.ItemKindImage:
		scope = strings.Join(item.Tags, " ")
	case store.ItemKindLink:
		scope = item.Content + " " + strings.Join(item.Tags, " ")
	default:
		return false
	}
	scope = strings.ToLower(scope)

	for _, term := range terms {
		if !strings.Contains(scope, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// MatchesCategory reports whether the item belongs to the category. The
// default pseudo-category passes everything; otherwise the item's tag set
// must contain the category name, compared case- and whitespace-insensitively.
func MatchesCategory(item *store.Item, category string) bool {
	if category == "" || category == store.CategoryAll {
		return true
	}

	want := strings.TrimSpace(category)
	for _, tag := range item.Tags {
		if strings.EqualFold(strings.TrimSpace(tag), want) {
			return true
		}
	}
	return false
}

func splitTerms(query string) []string {
	return strings.Fields(query)
}
