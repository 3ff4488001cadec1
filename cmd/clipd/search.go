// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clipd-dev/clipd/internal/search"
	"github.com/clipd-dev/clipd/internal/store"
	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search clipboard history",
		Long:  "Run a one-shot lexical search over the full history, or a semantic search with --semantic.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().String("category", "", "restrict to items carrying this tag")
	cmd.Flags().Bool("semantic", false, "rank by embedding similarity with the active provider")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	query := strings.Join(args, " ")
	category, _ := cmd.Flags().GetString("category")
	semantic, _ := cmd.Flags().GetBool("semantic")

	searcher := search.NewEngine(engine.Store, embedderFactory(engine.Settings), logger)

	if semantic {
		results, err := searcher.Semantic(cmd.Context(), query)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "%6d  %.3f  %s\n", r.Item.ID, r.Score, preview(r.Item))
		}
		return nil
	}

	if category == "" {
		category = store.CategoryAll
	}
	items, err := engine.Store.SearchItems(cmd.Context(), query, category)
	if err != nil {
		return clipderr.Wrap(err, clipderr.CodeStoreDatabaseFailure, "searching history")
	}
	for _, item := range items {
		fmt.Fprintf(cmd.OutOrStdout(), "%6d  %s  %s\n", item.ID, item.CreatedAt.Format("2006-01-02 15:04"), preview(item))
	}
	return nil
}

// preview renders one line of item content for terminal output.
func preview(item *store.Item) string {
	if item.Kind == store.ItemKindImage {
		return fmt.Sprintf("[image %d bytes]", len(item.Blob))
	}
	text := strings.ReplaceAll(item.Content, "\n", " ")
	if runes := []rune(text); len(runes) > 80 {
		text = string(runes[:80]) + "…"
	}
	return text
}
