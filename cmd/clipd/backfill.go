// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipd-dev/clipd/internal/backfill"
)

func newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Generate missing embeddings",
		Long:  "Embed every text item that has no vector under the active provider. Ctrl-C cancels at the next item boundary.",
		RunE:  runBackfill,
	}
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	logger := newLogger()
	engine, err := WireEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer engine.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	progress := func(p backfill.Progress) {
		fmt.Fprintf(cmd.OutOrStdout(), "\r%d/%d", p.Processed, p.Total)
	}
	runner := backfill.NewRunner(engine.Store, embedderFactory(engine.Settings), progress, logger)

	job, err := runner.Start(ctx)
	if err != nil {
		return err
	}

	// The runner completes in the background; poll until it settles.
	for {
		status := job.Status()
		if status.State != backfill.StateRunning {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %d processed, %d failed\n",
				status.State, status.Processed, status.Failures)
			return nil
		}

		select {
		case <-ctx.Done():
			job.Cancel()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
