// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

// Package backfill generates embeddings for previously captured text items
// that lack one under the active provider.
package backfill

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clipd-dev/clipd/internal/provider"
	"github.com/clipd-dev/clipd/internal/store"
	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

// State is a job lifecycle state.
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Progress is reported after every item.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// Status is a point-in-time snapshot of a job.
type Status struct {
	ID         string     `json:"id"`
	Provider   string     `json:"provider"`
	State      State      `json:"state"`
	Processed  int        `json:"processed"`
	Total      int        `json:"total"`
	Failures   int        `json:"failures"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Job is one backfill run. Cancellation is cooperative, checked at every
// item boundary; partial progress is retained.
type Job struct {
	id       string
	provider string
	cancel   context.CancelFunc

	mu        sync.Mutex
	state     State
	processed int
	total     int
	failures  int
	started   time.Time
	finished  *time.Time
}

// Cancel requests a cooperative stop. The job observes it before starting
// the next item.
func (j *Job) Cancel() { j.cancel() }

// Status returns a snapshot of the job.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Status{
		ID:         j.id,
		Provider:   j.provider,
		State:      j.state,
		Processed:  j.processed,
		Total:      j.total,
		Failures:   j.failures,
		StartedAt:  j.started,
		FinishedAt: j.finished,
	}
}

func (j *Job) finish(state State) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = state
	now := time.Now()
	j.finished = &now
}

// Runner serializes backfill jobs: at most one runs at a time.
type Runner struct {
	embeddings store.EmbeddingStore
	embedder   provider.Factory
	logger     *slog.Logger
	onProgress func(Progress)

	mu      sync.Mutex
	current *Job
}

// NewRunner creates a backfill runner. onProgress may be nil.
func NewRunner(embeddings store.EmbeddingStore, embedder provider.Factory,
	onProgress func(Progress), logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		embeddings: embeddings,
		embedder:   embedder,
		onProgress: onProgress,
		logger:     logger.With("component", "backfill"),
	}
}

// Start launches a backfill job for the active provider. Fails with a
// conflict while another job is running.
func (r *Runner) Start(ctx context.Context) (*Job, error) {
	embedder, err := r.embedder()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && r.current.Status().State == StateRunning {
		return nil, clipderr.New(clipderr.CodeBackfillActive, "a backfill job is already running")
	}

	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		id:       uuid.NewString(),
		provider: embedder.Name(),
		cancel:   cancel,
		state:    StateRunning,
		started:  time.Now(),
	}
	r.current = job

	go r.run(jobCtx, job, embedder)
	return job, nil
}

// Status returns the most recent job, if any.
func (r *Runner) Status() (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return Status{}, false
	}
	return r.current.Status(), true
}

// Cancel requests a stop of the running job, if any.
func (r *Runner) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || r.current.Status().State != StateRunning {
		return false
	}
	r.current.Cancel()
	return true
}

// run processes the item snapshot sequentially. A per-item failure is logged
// and counted but never aborts the job; only a snapshot-level fault fails it.
func (r *Runner) run(ctx context.Context, job *Job, embedder provider.Embedder) {
	defer job.cancel()

	items, err := r.embeddings.ItemsMissingEmbedding(ctx, embedder.Name())
	if err != nil {
		r.logger.Error("item snapshot failed", "job", job.id, "error", err)
		job.finish(StateFailed)
		return
	}

	job.mu.Lock()
	job.total = len(items)
	job.mu.Unlock()

	r.logger.Info("backfill started", "job", job.id, "provider", embedder.Name(), "total", len(items))

	for _, item := range items {
		select {
		case <-ctx.Done():
			job.finish(StateCancelled)
			r.logger.Info("backfill cancelled", "job", job.id, "processed", job.Status().Processed)
			return
		default:
		}

		if err := r.embedItem(ctx, embedder, item); err != nil {
			job.mu.Lock()
			job.failures++
			job.mu.Unlock()
			r.logger.Warn("backfill item failed", "job", job.id, "item_id", item.ID, "error", err)
		}

		job.mu.Lock()
		job.processed++
		progress := Progress{Processed: job.processed, Total: job.total}
		job.mu.Unlock()

		if r.onProgress != nil {
			r.onProgress(progress)
		}
	}

	job.finish(StateCompleted)
	status := job.Status()
	r.logger.Info("backfill completed", "job", job.id, "processed", status.Processed, "failures", status.Failures)
}

func (r *Runner) embedItem(ctx context.Context, embedder provider.Embedder, item *store.Item) error {
	vector, err := embedder.Generate(ctx, item.Content)
	if err != nil {
		return err
	}
	return r.embeddings.SaveEmbedding(ctx, embedder.Name(), item.ID, vector)
}
