// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

// Package capture polls the system clipboard and persists new items.
package capture

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/clipd-dev/clipd/internal/clipboard"
	"github.com/clipd-dev/clipd/internal/provider"
	"github.com/clipd-dev/clipd/internal/store"
)

// DefaultInterval is the clipboard polling period.
const DefaultInterval = 2 * time.Second

// Pool runs store and network work off the capture goroutine. *ants.Pool
// satisfies it.
type Pool interface {
	Submit(task func()) error
}

// Loop observes the clipboard on a fixed interval and records value changes.
type Loop struct {
	clip       clipboard.Clipboard
	items      store.ItemStore
	embeddings store.EmbeddingStore
	embedder   provider.Factory
	pool       Pool
	interval   time.Duration
	logger     *slog.Logger

	lastText  string
	lastImage []byte
}

// New creates a capture loop. embedder and pool may be nil to disable
// embedding generation on capture.
func New(clip clipboard.Clipboard, items store.ItemStore, embeddings store.EmbeddingStore,
	embedder provider.Factory, pool Pool, interval time.Duration, logger *slog.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		clip:       clip,
		items:      items,
		embeddings: embeddings,
		embedder:   embedder,
		pool:       pool,
		interval:   interval,
		logger:     logger.With("component", "capture"),
	}
}

// Run polls until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Tick reads the clipboard once and records anything that changed since the
// previous tick. Repeated copies of the same value are not re-captured; a
// different value copied back later is captured again.
func (l *Loop) Tick(ctx context.Context) {
	if text, err := l.clip.ReadText(); err != nil {
		l.logger.Warn("clipboard text read failed", "error", err)
	} else if text != "" && text != l.lastText {
		l.captureText(ctx, text)
		l.lastText = text
	}

	if payload, err := l.clip.ReadImage(); err != nil {
		l.logger.Warn("clipboard image read failed", "error", err)
	} else if len(payload) > 0 && !bytes.Equal(payload, l.lastImage) {
		l.captureImage(ctx, payload)
		l.lastImage = payload
	}
}

func (l *Loop) captureText(ctx context.Context, text string) {
	item := &store.Item{
		Kind:      classifyText(text),
		Content:   text,
		CreatedAt: time.Now(),
		SourceApp: l.clip.ForegroundApp(),
	}

	// Insert failures must not stop the loop; they are logged and the
	// value still counts as seen.
	if err := l.items.InsertItem(ctx, item); err != nil {
		l.logger.Error("inserting captured text failed", "error", err)
		return
	}
	l.logger.Debug("captured item", "id", item.ID, "kind", item.Kind, "source", item.SourceApp)

	if item.Kind == store.ItemKindText {
		l.embedAsync(item.ID, text)
	}
}

func (l *Loop) captureImage(ctx context.Context, payload []byte) {
	item := &store.Item{
		Kind:      store.ItemKindImage,
		Blob:      payload,
		CreatedAt: time.Now(),
		SourceApp: l.clip.ForegroundApp(),
	}
	if err := l.items.InsertItem(ctx, item); err != nil {
		l.logger.Error("inserting captured image failed", "error", err)
		return
	}
	l.logger.Debug("captured item", "id", item.ID, "kind", item.Kind, "source", item.SourceApp)
}

// embedAsync requests an embedding off the capture goroutine. A failure is
// logged and never rolls back the item insert.
func (l *Loop) embedAsync(itemID int64, text string) {
	if l.embedder == nil || l.pool == nil {
		return
	}

	task := func() {
		embedder, err := l.embedder()
		if err != nil {
			l.logger.Warn("no active embedder", "item_id", itemID, "error", err)
			return
		}
		vector, err := embedder.Generate(context.Background(), text)
		if err != nil {
			l.logger.Warn("embedding generation failed", "item_id", itemID, "provider", embedder.Name(), "error", err)
			return
		}
		if err := l.embeddings.SaveEmbedding(context.Background(), embedder.Name(), itemID, vector); err != nil {
			l.logger.Warn("embedding save failed", "item_id", itemID, "provider", embedder.Name(), "error", err)
		}
	}

	if err := l.pool.Submit(task); err != nil {
		l.logger.Warn("embedding task rejected", "item_id", itemID, "error", err)
	}
}

// classifyText marks single-token http(s) values as links.
func classifyText(text string) store.ItemKind {
	trimmed := strings.TrimSpace(text)
	if strings.ContainsAny(trimmed, " \t\n") {
		return store.ItemKindText
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		if u, err := url.Parse(trimmed); err == nil && u.Host != "" {
			return store.ItemKindLink
		}
	}
	return store.ItemKindText
}
