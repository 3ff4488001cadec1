// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package session_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipd-dev/clipd/internal/config"
	"github.com/clipd-dev/clipd/internal/provider"
	"github.com/clipd-dev/clipd/internal/search"
	"github.com/clipd-dev/clipd/internal/session"
	"github.com/clipd-dev/clipd/internal/store"
	"github.com/clipd-dev/clipd/internal/store/sqlite"
	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

const waitFor = 5 * time.Second

func testStore(t *testing.T) *sqlite.Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "clipd-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	st, err := sqlite.New(filepath.Join(dir, "session.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (stubEmbedder) Name() string { return "local" }

func (s stubEmbedder) Generate(context.Context, string) ([]float32, error) {
	return s.vec, s.err
}

func startSession(t *testing.T, st *sqlite.Store, factory provider.Factory,
	settings <-chan config.Settings, pageSize int) *session.Session {
	t.Helper()

	engine := search.NewEngine(st, factory, nil)
	pager := search.NewPager(st, pageSize)
	sess := session.New(engine, pager, nil, settings, "local", nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = sess.Run(ctx) }()

	return sess
}

func seed(t *testing.T, st *sqlite.Store, contents ...string) []*store.Item {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := make([]*store.Item, 0, len(contents))
	for i, c := range contents {
		item := &store.Item{Kind: store.ItemKindText, Content: c, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, st.InsertItem(context.Background(), item))
		items = append(items, item)
	}
	return items
}

func TestSession_InitialView(t *testing.T) {
	sess := startSession(t, testStore(t), nil, nil, 10)

	v := sess.View()
	assert.Empty(t, v.Items)
	assert.Equal(t, store.CategoryAll, v.Category)
	assert.Equal(t, "local", v.Provider)
	assert.False(t, v.SearchAll)
	assert.NoError(t, v.SearchErr)
}

func TestSession_PageLoadsAreSequential(t *testing.T) {
	st := testStore(t)
	seed(t, st, "a", "b", "c", "d")
	sess := startSession(t, st, nil, nil, 2)

	// Two immediate requests collapse into one in-flight load.
	sess.LoadNextPage()
	sess.LoadNextPage()

	require.Eventually(t, func() bool {
		v := sess.View()
		return len(v.Items) == 2 && !v.Loading
	}, waitFor, 10*time.Millisecond)

	sess.LoadNextPage()
	require.Eventually(t, func() bool {
		return len(sess.View().Items) == 4
	}, waitFor, 10*time.Millisecond)

	// Newest first across pages, no duplicates.
	v := sess.View()
	contents := make([]string, 0, len(v.Items))
	for _, item := range v.Items {
		contents = append(contents, item.Content)
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, contents)
}

func TestSession_DebouncedSearchCoalesces(t *testing.T) {
	st := testStore(t)
	seed(t, st, "alpha one", "alpha two", "beta")
	sess := startSession(t, st, nil, nil, 10)

	sess.LoadNextPage()
	require.Eventually(t, func() bool {
		return len(sess.View().Items) == 3
	}, waitFor, 10*time.Millisecond)

	// Rapid keystrokes; only the final text should take effect.
	sess.SetSearchText("a")
	sess.SetSearchText("al")
	sess.SetSearchText("alpha")

	require.Eventually(t, func() bool {
		v := sess.View()
		return v.SearchText == "alpha" && len(v.Items) == 2
	}, waitFor, 10*time.Millisecond)
}

func TestSession_CategoryFiltersImmediately(t *testing.T) {
	st := testStore(t)
	items := seed(t, st, "tagged", "untagged")
	require.NoError(t, st.AddTag(context.Background(), items[0].ID, "work"))
	sess := startSession(t, st, nil, nil, 10)

	sess.Reload()
	require.Eventually(t, func() bool {
		return len(sess.View().Items) == 2
	}, waitFor, 10*time.Millisecond)

	sess.SetCategory("work")
	require.Eventually(t, func() bool {
		v := sess.View()
		return len(v.Items) == 1 && v.Items[0].Content == "tagged"
	}, waitFor, 10*time.Millisecond)

	sess.SetCategory(store.CategoryAll)
	require.Eventually(t, func() bool {
		return len(sess.View().Items) == 2
	}, waitFor, 10*time.Millisecond)
}

func TestSession_SemanticSearch(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	items := seed(t, st, "strong", "weak")
	require.NoError(t, st.SaveEmbedding(ctx, "local", items[0].ID, []float32{1, 0}))
	require.NoError(t, st.SaveEmbedding(ctx, "local", items[1].ID, []float32{0, 1}))

	factory := func() (provider.Embedder, error) {
		return stubEmbedder{vec: []float32{1, 0}}, nil
	}
	sess := startSession(t, st, factory, nil, 10)

	sess.SetCategory(store.CategorySemantic)
	sess.SetSearchText("query")

	require.Eventually(t, func() bool {
		v := sess.View()
		return len(v.Items) == 1 && v.Items[0].Content == "strong"
	}, waitFor, 10*time.Millisecond)

	v := sess.View()
	require.NotNil(t, v.Scores)
	assert.InDelta(t, 1.0, v.Scores[items[0].ID], 1e-9)
}

func TestSession_SemanticErrorShowsNoStaleResults(t *testing.T) {
	st := testStore(t)
	seed(t, st, "lexically findable query text")

	provErr := clipderr.New(clipderr.CodeProviderUnavailable, "local: service unavailable")
	factory := func() (provider.Embedder, error) {
		return stubEmbedder{err: provErr}, nil
	}
	sess := startSession(t, st, factory, nil, 10)

	sess.Reload()
	require.Eventually(t, func() bool {
		return len(sess.View().Items) == 1
	}, waitFor, 10*time.Millisecond)

	sess.SetCategory(store.CategorySemantic)
	sess.SetSearchText("query")

	// The failure surfaces as an error with an empty result, never as the
	// lexical matches the query would have found.
	require.Eventually(t, func() bool {
		v := sess.View()
		return v.SearchErr != nil && len(v.Items) == 0
	}, waitFor, 10*time.Millisecond)
	assert.True(t, clipderr.IsServiceUnavailable(sess.View().SearchErr))
}

func TestSession_ProviderChangeClearsSemanticState(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	items := seed(t, st, "strong")
	require.NoError(t, st.SaveEmbedding(ctx, "local", items[0].ID, []float32{1, 0}))

	factory := func() (provider.Embedder, error) {
		return stubEmbedder{vec: []float32{1, 0}}, nil
	}
	settings := make(chan config.Settings, 1)
	sess := startSession(t, st, factory, settings, 10)

	sess.SetCategory(store.CategorySemantic)
	sess.SetSearchText("query")
	require.Eventually(t, func() bool {
		return sess.View().Scores != nil
	}, waitFor, 10*time.Millisecond)

	var cfg config.Settings
	cfg.Embeddings.Provider = config.ProviderOpenAI
	settings <- cfg

	require.Eventually(t, func() bool {
		v := sess.View()
		return v.Provider == config.ProviderOpenAI && v.Scores == nil
	}, waitFor, 10*time.Millisecond)
}

func TestSession_SearchAllShowsAllUnderSemanticCategory(t *testing.T) {
	st := testStore(t)
	seed(t, st, "one", "two", "three")
	sess := startSession(t, st, nil, nil, 10)

	sess.SetSearchAll(true)
	sess.SetCategory(store.CategorySemantic)

	// An empty query under the semantic pseudo-category has nothing to
	// rank; the pseudo-tag must not reach the store as a tag filter, so
	// the full history shows.
	require.Eventually(t, func() bool {
		return len(sess.View().Items) == 3
	}, waitFor, 10*time.Millisecond)
}

func TestSession_SearchAllBypassesWindow(t *testing.T) {
	st := testStore(t)
	for i := 0; i < 5; i++ {
		seed(t, st, fmt.Sprintf("needle %d", i))
	}
	sess := startSession(t, st, nil, nil, 2)

	sess.LoadNextPage()
	require.Eventually(t, func() bool {
		return len(sess.View().Items) == 2
	}, waitFor, 10*time.Millisecond)

	// Full-store search sees past the loaded window.
	sess.SetSearchAll(true)
	require.Eventually(t, func() bool {
		return len(sess.View().Items) == 5
	}, waitFor, 10*time.Millisecond)

	sess.SetSearchAll(false)
	require.Eventually(t, func() bool {
		return len(sess.View().Items) == 2
	}, waitFor, 10*time.Millisecond)
}
