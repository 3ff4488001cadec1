// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/panjf2000/ants/v2"

	"github.com/clipd-dev/clipd/internal/backfill"
	"github.com/clipd-dev/clipd/internal/capture"
	"github.com/clipd-dev/clipd/internal/clipboard"
	"github.com/clipd-dev/clipd/internal/config"
	"github.com/clipd-dev/clipd/internal/provider"
	googleprov "github.com/clipd-dev/clipd/internal/provider/google"
	localprov "github.com/clipd-dev/clipd/internal/provider/local"
	openaiprov "github.com/clipd-dev/clipd/internal/provider/openai"
	"github.com/clipd-dev/clipd/internal/search"
	"github.com/clipd-dev/clipd/internal/server"
	"github.com/clipd-dev/clipd/internal/session"
	"github.com/clipd-dev/clipd/internal/store/sqlite"
	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

// poolSize bounds concurrent embedding and store work.
const poolSize = 4

// Engine holds all wired subsystems and manages their lifecycle.
type Engine struct {
	Store    *sqlite.Store
	Settings *config.Manager
	Session  *session.Session
	Capture  *capture.Loop
	Backfill *backfill.Runner
	Server   *server.Server
	Pool     *ants.Pool
}

// WireEngine creates all subsystems and wires them together.
func WireEngine(cfg *config.Settings, logger *slog.Logger) (*Engine, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.History.DBPath), 0o755); err != nil {
		return nil, clipderr.Errorf(clipderr.CodeCLISetupFailure, "creating data directory: %w", err)
	}

	st, err := sqlite.New(cfg.History.DBPath, cfg.History.MaxItems)
	if err != nil {
		return nil, clipderr.Wrap(err, clipderr.CodeCLISetupFailure, "opening store")
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		_ = st.Close()
		return nil, clipderr.Wrap(err, clipderr.CodeCLISetupFailure, "creating worker pool")
	}

	manager := config.NewManager(*cfg)
	embedder := embedderFactory(manager)

	clip := clipboard.System{}
	loop := capture.New(clip, st, st, embedder, pool, cfg.History.CaptureInterval, logger)

	engine := search.NewEngine(st, embedder, logger)
	pager := search.NewPager(st, cfg.History.PageSize)
	sess := session.New(engine, pager, pool, manager.Subscribe(), cfg.Embeddings.Provider, logger)

	runner := backfill.NewRunner(st, embedder, nil, logger)

	srv, err := server.New(server.Config{ListenAddr: cfg.Listen}, server.Deps{
		Store:     st,
		Session:   sess,
		Backfill:  runner,
		Settings:  manager,
		Clipboard: clip,
	}, logger)
	if err != nil {
		pool.Release()
		_ = st.Close()
		return nil, err
	}

	return &Engine{
		Store:    st,
		Settings: manager,
		Session:  sess,
		Capture:  loop,
		Backfill: runner,
		Server:   srv,
		Pool:     pool,
	}, nil
}

// Close releases the worker pool and the store.
func (e *Engine) Close() error {
	e.Pool.Release()
	return e.Store.Close()
}

// embedderFactory resolves the active provider from the settings manager on
// every call, so a provider switch takes effect on the next operation.
func embedderFactory(manager *config.Manager) provider.Factory {
	return func() (provider.Embedder, error) {
		cfg := manager.Current().Embeddings
		switch cfg.Provider {
		case config.ProviderLocal:
			return localprov.New(cfg.Local, nil)
		case config.ProviderGemini:
			return googleprov.New(cfg.Gemini, nil)
		case config.ProviderOpenAI:
			return openaiprov.New(cfg.OpenAI, nil)
		default:
			return nil, clipderr.Errorf(clipderr.CodeProviderUnknown, "unknown provider %q", cfg.Provider)
		}
	}
}
