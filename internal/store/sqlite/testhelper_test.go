// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clipd-dev/clipd/internal/store"
	"github.com/clipd-dev/clipd/internal/store/sqlite"
)

// testDir creates a temp directory for a test and returns its path.
func testDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "clipd-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// testStore opens a fresh store over a temp database.
func testStore(t *testing.T, name string, maxItems int) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(filepath.Join(testDir(t), name+".db"), maxItems)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// insertText stores a text item at the given offset from a fixed base time.
func insertText(t *testing.T, st *sqlite.Store, content string, offset time.Duration, tags ...string) *store.Item {
	t.Helper()
	item := &store.Item{
		Kind:      store.ItemKindText,
		Content:   content,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(offset),
		Tags:      tags,
	}
	require.NoError(t, st.InsertItem(context.Background(), item))
	return item
}
