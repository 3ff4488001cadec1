// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package search_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipd-dev/clipd/internal/search"
	"github.com/clipd-dev/clipd/internal/store"
)

func TestPager_WalksHistoryForward(t *testing.T) {
	ctx := context.Background()
	st := testStore(t, "pager")

	for i := 0; i < 5; i++ {
		require.NoError(t, st.InsertItem(ctx, textItem(fmt.Sprintf("item %d", i))))
	}

	pager := search.NewPager(st, 2)
	require.True(t, pager.HasMore())

	page, err := pager.NextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.True(t, pager.HasMore())

	page, err = pager.NextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.True(t, pager.HasMore())

	// The short page flips more-data off.
	page, err = pager.NextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.False(t, pager.HasMore())

	// Exhausted pagers return nothing without touching the store.
	page, err = pager.NextPage(ctx)
	require.NoError(t, err)
	assert.Nil(t, page)
}

func TestPager_ExactMultipleNeedsExtraPage(t *testing.T) {
	ctx := context.Background()
	st := testStore(t, "pager-exact")

	for i := 0; i < 4; i++ {
		require.NoError(t, st.InsertItem(ctx, textItem(fmt.Sprintf("item %d", i))))
	}

	pager := search.NewPager(st, 2)

	for i := 0; i < 2; i++ {
		page, err := pager.NextPage(ctx)
		require.NoError(t, err)
		assert.Len(t, page, 2)
	}
	// A full final page cannot prove exhaustion; one empty page settles it.
	assert.True(t, pager.HasMore())

	page, err := pager.NextPage(ctx)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.False(t, pager.HasMore())
}

func TestPager_FetchLeavesStateToOwner(t *testing.T) {
	ctx := context.Background()
	st := testStore(t, "pager-fetch")

	for i := 0; i < 3; i++ {
		require.NoError(t, st.InsertItem(ctx, textItem(fmt.Sprintf("item %d", i))))
	}

	pager := search.NewPager(st, 2)

	// Snapshot reads stay safe while a fetch runs on another goroutine,
	// the way a session polls HasMore during an in-flight page load.
	fetched := make(chan []*store.Item, 1)
	offset := pager.Offset()
	go func() {
		page, err := pager.Fetch(ctx, offset)
		assert.NoError(t, err)
		fetched <- page
	}()
	for i := 0; i < 100; i++ {
		_ = pager.HasMore()
		_ = pager.Offset()
	}
	page := <-fetched
	assert.Len(t, page, 2)

	// The fetch alone must not move the pager; only Advance does.
	assert.Equal(t, 0, pager.Offset())
	assert.True(t, pager.HasMore())

	pager.Advance(len(page))
	assert.Equal(t, 2, pager.Offset())
	assert.True(t, pager.HasMore())

	page, err := pager.Fetch(ctx, pager.Offset())
	require.NoError(t, err)
	assert.Len(t, page, 1)
	pager.Advance(len(page))
	assert.False(t, pager.HasMore())
}

func TestPager_Reset(t *testing.T) {
	ctx := context.Background()
	st := testStore(t, "pager-reset")

	require.NoError(t, st.InsertItem(ctx, textItem("only")))

	pager := search.NewPager(st, 5)
	page, err := pager.NextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.False(t, pager.HasMore())

	pager.Reset()
	assert.True(t, pager.HasMore())

	page, err = pager.NextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
