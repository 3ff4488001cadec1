// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

// Package session owns the observable UI state: the loaded item window, the
// derived filtered view, and the query controls. Every mutation funnels
// through one event loop so a page-load completion and a filter change can
// never interleave into an inconsistent view.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clipd-dev/clipd/internal/config"
	"github.com/clipd-dev/clipd/internal/search"
	"github.com/clipd-dev/clipd/internal/store"
)

// DebounceInterval is the quiet period after the last search-text change
// before a recomputation runs. Category and search-all toggles bypass it.
const DebounceInterval = 300 * time.Millisecond

// Pool runs store and network work off the state-owning goroutine.
// *ants.Pool satisfies it.
type Pool interface {
	Submit(task func()) error
}

// View is an immutable snapshot of the session state.
type View struct {
	Items      []*store.Item
	Scores     map[int64]float64
	SearchText string
	Category   string
	SearchAll  bool
	Loading    bool
	HasMore    bool
	Provider   string
	SearchErr  error
}

// Session is the single owner of observable state.
type Session struct {
	engine   *search.Engine
	pager    *search.Pager
	pool     Pool
	settings <-chan config.Settings
	logger   *slog.Logger

	cmds     chan func()
	quit     chan struct{}
	quitOnce sync.Once

	// State below is touched only on the Run goroutine.
	window     []*store.Item
	filtered   []*store.Item
	scores     map[int64]float64
	searchText string
	category   string
	searchAll  bool
	loading    bool
	provider   string
	searchErr  error
	generation uint64
	debounce   *time.Timer
}

// New creates a session. settings may be nil when provider changes are not
// observed.
func New(engine *search.Engine, pager *search.Pager, pool Pool,
	settings <-chan config.Settings, providerName string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		engine:   engine,
		pager:    pager,
		pool:     pool,
		settings: settings,
		logger:   logger.With("component", "session"),
		cmds:     make(chan func(), 64),
		quit:     make(chan struct{}),
		category: store.CategoryAll,
		provider: providerName,
	}
}

// Run processes state mutations until the context is cancelled.
func (s *Session) Run(ctx context.Context) error {
	defer s.quitOnce.Do(func() { close(s.quit) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.cmds:
			fn()
		case cfg := <-s.settings:
			s.applySettings(cfg)
		}
	}
}

// post hands a command to the event loop, dropping it once the loop stopped.
func (s *Session) post(fn func()) {
	select {
	case s.cmds <- fn:
	case <-s.quit:
	}
}

// View returns a snapshot, serialized through the event loop.
func (s *Session) View() View {
	reply := make(chan View, 1)
	s.post(func() {
		items := make([]*store.Item, len(s.filtered))
		copy(items, s.filtered)
		reply <- View{
			Items:      items,
			Scores:     s.scores,
			SearchText: s.searchText,
			Category:   s.category,
			SearchAll:  s.searchAll,
			Loading:    s.loading,
			HasMore:    s.pager.HasMore(),
			Provider:   s.provider,
			SearchErr:  s.searchErr,
		}
	})
	select {
	case v := <-reply:
		return v
	case <-s.quit:
		return View{}
	}
}

// SetSearchText records the query text and schedules a debounced
// recomputation, so rapid typing coalesces into one query.
func (s *Session) SetSearchText(text string) {
	s.post(func() {
		if s.searchText == text {
			return
		}
		s.searchText = text

		if s.debounce != nil {
			s.debounce.Stop()
		}
		s.debounce = time.AfterFunc(DebounceInterval, func() {
			s.post(s.recompute)
		})
	})
}

// SetCategory switches the category filter immediately, bypassing debounce.
func (s *Session) SetCategory(category string) {
	s.post(func() {
		if category == "" {
			category = store.CategoryAll
		}
		s.category = category
		s.recompute()
	})
}

// SetSearchAll toggles full-store search immediately, bypassing debounce.
func (s *Session) SetSearchAll(enabled bool) {
	s.post(func() {
		s.searchAll = enabled
		s.recompute()
	})
}

// LoadNextPage requests the next history page. Page loads are strictly
// sequential and suspended while search-all or semantic mode is active.
func (s *Session) LoadNextPage() {
	s.post(func() {
		if s.loading || s.searchAll || s.semanticActive() || !s.pager.HasMore() {
			return
		}
		s.loading = true

		// The pager advances only here on the loop goroutine; the worker
		// fetches at a pinned offset and never touches pager state.
		offset := s.pager.Offset()
		offloadInto(s, func() ([]*store.Item, error) {
			return s.pager.Fetch(context.Background(), offset)
		}, func(page []*store.Item, err error) {
			s.loading = false
			if err != nil {
				s.logger.Error("page load failed", "error", err)
				return
			}
			s.pager.Advance(len(page))
			s.window = append(s.window, page...)
			s.applyLexical()
		})
	})
}

// Reload clears the window and loads the first page again.
func (s *Session) Reload() {
	s.post(func() {
		s.window = nil
		s.pager.Reset()
	})
	s.LoadNextPage()
}

func (s *Session) semanticActive() bool {
	return s.category == store.CategorySemantic && s.searchText != ""
}

// recompute derives the filtered view for the current controls. Results of
// asynchronous paths are discarded when superseded by a newer request.
func (s *Session) recompute() {
	s.generation++
	gen := s.generation
	s.searchErr = nil
	s.scores = nil

	switch {
	case s.semanticActive():
		query := s.searchText
		s.loading = true
		offloadInto(s, func() ([]search.ScoredItem, error) {
			return s.engine.Semantic(context.Background(), query)
		}, func(results []search.ScoredItem, err error) {
			if gen != s.generation {
				return
			}
			s.loading = false
			if err != nil {
				// Never fall back to lexical results here; stale output
				// must not masquerade as semantic.
				s.searchErr = err
				s.filtered = nil
				s.logger.Error("semantic search failed", "error", err)
				return
			}
			items := make([]*store.Item, 0, len(results))
			scores := make(map[int64]float64, len(results))
			for _, r := range results {
				items = append(items, r.Item)
				scores[r.Item.ID] = r.Score
			}
			s.filtered = items
			s.scores = scores
		})

	case s.searchAll:
		query, category := s.searchText, s.category
		if category == store.CategorySemantic {
			// An empty query under the semantic pseudo-category means no
			// semantic ranking is active; the pseudo-tag must never reach
			// the store as a real tag filter.
			category = store.CategoryAll
		}
		s.loading = true
		offloadInto(s, func() ([]*store.Item, error) {
			return s.engine.SearchAll(context.Background(), query, category), nil
		}, func(items []*store.Item, _ error) {
			if gen != s.generation {
				return
			}
			s.loading = false
			s.filtered = items
		})

	default:
		s.applyLexical()
	}
}

// applyLexical filters the loaded window in place on the loop goroutine.
func (s *Session) applyLexical() {
	category := s.category
	if category == store.CategorySemantic {
		// Empty query under the AI category shows the unfiltered window.
		category = store.CategoryAll
	}
	s.filtered = s.engine.FilterWindow(s.window, s.searchText, category)
}

// applySettings mirrors provider changes. A switch during an active semantic
// search clears the semantic result and falls back to lexical filtering
// under the new provider context.
func (s *Session) applySettings(cfg config.Settings) {
	next := cfg.Embeddings.Provider
	if next == s.provider {
		return
	}
	s.provider = next
	s.logger.Info("active provider changed", "provider", next)

	if s.scores != nil || s.semanticActive() {
		s.generation++
		s.scores = nil
		s.searchErr = nil
		s.loading = false
		s.applyLexical()
	}
}

// offload runs work on the pool and applies the result back on the loop.
func offloadInto[T any](s *Session, work func() (T, error), apply func(T, error)) {
	run := func() {
		result, err := work()
		s.post(func() { apply(result, err) })
	}
	if s.pool == nil {
		go run()
		return
	}
	if err := s.pool.Submit(run); err != nil {
		s.logger.Error("offload rejected", "error", err)
		var zero T
		apply(zero, err)
	}
}
