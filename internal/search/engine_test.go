// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package search_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipd-dev/clipd/internal/provider"
	"github.com/clipd-dev/clipd/internal/search"
	"github.com/clipd-dev/clipd/internal/store"
	"github.com/clipd-dev/clipd/internal/store/sqlite"
	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

func testStore(t *testing.T, name string) *sqlite.Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "clipd-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	st, err := sqlite.New(filepath.Join(dir, name+".db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type stubEmbedder struct {
	name string
	vec  []float32
	err  error
}

func (s stubEmbedder) Name() string { return s.name }

func (s stubEmbedder) Generate(context.Context, string) ([]float32, error) {
	return s.vec, s.err
}

func factoryFor(e provider.Embedder, err error) provider.Factory {
	return func() (provider.Embedder, error) { return e, err }
}

func textItem(content string, tags ...string) *store.Item {
	return &store.Item{Kind: store.ItemKindText, Content: content, Tags: tags, CreatedAt: time.Now()}
}

func TestFilterWindow_ConjunctiveTerms(t *testing.T) {
	engine := search.NewEngine(nil, nil, nil)

	window := []*store.Item{
		textItem("foo bar baz"),
		textItem("Foobar baz"),
		textItem("nothing here"),
	}

	filtered := engine.FilterWindow(window, "foo bar", store.CategoryAll)
	// "Foobar baz" matches: both terms are substrings, independently.
	require.Len(t, filtered, 2)
	assert.Equal(t, "foo bar baz", filtered[0].Content)
	assert.Equal(t, "Foobar baz", filtered[1].Content)

	filtered = engine.FilterWindow(window, "foo  baz", store.CategoryAll)
	assert.Len(t, filtered, 2)

	// Empty query passes everything.
	assert.Len(t, engine.FilterWindow(window, "", store.CategoryAll), 3)
}

func TestMatchesTerms_KindScopes(t *testing.T) {
	image := &store.Item{Kind: store.ItemKindImage, Tags: []string{"screenshot", "receipt"}}
	link := &store.Item{Kind: store.ItemKindLink, Content: "https://example.com/docs", Tags: []string{"reference"}}

	// Image items match on tag names only.
	assert.True(t, search.MatchesTerms(image, []string{"receipt"}))
	assert.False(t, search.MatchesTerms(image, []string{"example"}))

	// Link items match on either URL or tags.
	assert.True(t, search.MatchesTerms(link, []string{"example"}))
	assert.True(t, search.MatchesTerms(link, []string{"reference"}))
	assert.False(t, search.MatchesTerms(link, []string{"missing"}))

	// Case-insensitive throughout.
	assert.True(t, search.MatchesTerms(image, []string{"RECEIPT"}))
}

func TestMatchesCategory(t *testing.T) {
	item := textItem("x", "Work Stuff")

	assert.True(t, search.MatchesCategory(item, store.CategoryAll))
	assert.True(t, search.MatchesCategory(item, ""))
	assert.True(t, search.MatchesCategory(item, "work stuff"))
	assert.True(t, search.MatchesCategory(item, "  Work Stuff  "))
	assert.False(t, search.MatchesCategory(item, "home"))
}

func TestSearchAll_DegradesOnStoreError(t *testing.T) {
	st := testStore(t, "searchall")
	require.NoError(t, st.InsertItem(context.Background(), textItem("findable")))

	engine := search.NewEngine(st, nil, nil)
	items := engine.SearchAll(context.Background(), "findable", store.CategoryAll)
	require.Len(t, items, 1)

	// A broken store degrades to an empty result, never an error.
	require.NoError(t, st.Close())
	assert.Nil(t, engine.SearchAll(context.Background(), "findable", store.CategoryAll))
}

func TestSemantic_RanksAndThresholds(t *testing.T) {
	ctx := context.Background()
	st := testStore(t, "semantic")

	strong := textItem("strong match")
	weak := textItem("weak match")
	require.NoError(t, st.InsertItem(ctx, strong))
	require.NoError(t, st.InsertItem(ctx, weak))

	// cos(query, strong) = 1.0; cos(query, weak) ≈ 0.6 < threshold.
	require.NoError(t, st.SaveEmbedding(ctx, "local", strong.ID, []float32{1, 0}))
	require.NoError(t, st.SaveEmbedding(ctx, "local", weak.ID, []float32{0.6, 0.8}))

	embedder := stubEmbedder{name: "local", vec: []float32{1, 0}}
	engine := search.NewEngine(st, factoryFor(embedder, nil), nil)

	results, err := engine.Semantic(ctx, "query")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, strong.ID, results[0].Item.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSemantic_PropagatesProviderError(t *testing.T) {
	st := testStore(t, "semantic-err")

	provErr := clipderr.New(clipderr.CodeProviderTimeout, "local: request timed out")
	embedder := stubEmbedder{name: "local", err: provErr}
	engine := search.NewEngine(st, factoryFor(embedder, nil), nil)

	// The taxonomy error surfaces unchanged; there is no lexical fallback.
	results, err := engine.Semantic(context.Background(), "query")
	assert.Nil(t, results)
	assert.True(t, clipderr.IsTimeout(err))
}

func TestSemantic_FactoryErrorSurfaces(t *testing.T) {
	st := testStore(t, "semantic-factory")

	wantErr := clipderr.New(clipderr.CodeProviderKeyInvalid, "gemini: missing api_key")
	engine := search.NewEngine(st, factoryFor(nil, wantErr), nil)

	_, err := engine.Semantic(context.Background(), "query")
	assert.True(t, clipderr.IsInvalidAPIKey(err))
}
