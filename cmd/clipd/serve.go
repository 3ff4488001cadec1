// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the clipboard daemon",
		Long:  "Capture the clipboard on an interval, keep the search session live, and expose the local HTTP API.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
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

	go func() {
		if err := engine.Session.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("session stopped", "error", err)
		}
	}()
	engine.Session.LoadNextPage()

	go func() {
		if err := engine.Capture.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("capture loop stopped", "error", err)
		}
	}()

	logger.Info("clipd started", "listen", cfg.Listen, "db", cfg.History.DBPath,
		"provider", cfg.Embeddings.Provider)

	return engine.Server.Start(ctx)
}
