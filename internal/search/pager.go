// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package search

import (
	"context"

	"github.com/clipd-dev/clipd/internal/store"
)

// Pager drives forward pagination over the item history. Each page advances
// the offset by exactly the page size; more-data turns false exactly when a
// page comes back short.
//
// Pager state is not synchronized. An owner that runs fetches off its
// state-owning goroutine must read Offset, call Fetch with it, and apply
// Advance back on that goroutine; Fetch itself never touches pager state.
type Pager struct {
	items    store.ItemStore
	pageSize int
	offset   int
	hasMore  bool
}

// NewPager creates a pager with the given fixed page size.
func NewPager(items store.ItemStore, pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Pager{items: items, pageSize: pageSize, hasMore: true}
}

// NextPage loads the next page and advances. Returns nil once the history is
// exhausted. Single-goroutine callers only; see the type comment.
func (p *Pager) NextPage(ctx context.Context) ([]*store.Item, error) {
	if !p.hasMore {
		return nil, nil
	}

	page, err := p.Fetch(ctx, p.offset)
	if err != nil {
		return nil, err
	}
	p.Advance(len(page))
	return page, nil
}

// Fetch loads one page at the given offset without touching pager state.
func (p *Pager) Fetch(ctx context.Context, offset int) ([]*store.Item, error) {
	return p.items.ListItems(ctx, store.ListOpts{Limit: p.pageSize, Offset: offset})
}

// Offset returns the offset of the next unfetched page.
func (p *Pager) Offset() int { return p.offset }

// Advance records a fetched page of the given length, advancing the offset
// and flipping more-data off when the page came back short.
func (p *Pager) Advance(pageLen int) {
	p.offset += p.pageSize
	p.hasMore = pageLen == p.pageSize
}

// HasMore reports whether another page may be available.
func (p *Pager) HasMore() bool { return p.hasMore }

// PageSize returns the fixed page size.
func (p *Pager) PageSize() int { return p.pageSize }

// Reset rewinds the pager to the first page.
func (p *Pager) Reset() {
	p.offset = 0
	p.hasMore = true
}
