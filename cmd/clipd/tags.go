// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage tags",
	}

	cmd.AddCommand(
		newTagsListCmd(),
		newTagsRenameCmd(),
		newTagsDeleteCmd(),
	)
	return cmd
}

func newTagsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tags",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, func(e *Engine) error {
				tags, err := e.Store.ListTags(cmd.Context())
				if err != nil {
					return err
				}
				for _, t := range tags {
					fmt.Fprintln(cmd.OutOrStdout(), t.Name)
				}
				return nil
			})
		},
	}
}

func newTagsRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a tag everywhere it is used",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(e *Engine) error {
				return e.Store.RenameTag(cmd.Context(), args[0], args[1])
			})
		},
	}
}

func newTagsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a tag and detach it from every item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(e *Engine) error {
				return e.Store.DeleteTag(cmd.Context(), args[0])
			})
		},
	}
}

// withEngine wires the engine for a one-shot command and tears it down after.
func withEngine(_ *cobra.Command, fn func(*Engine) error) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	engine, err := WireEngine(cfg, newLogger())
	if err != nil {
		return err
	}
	defer engine.Close() //nolint:errcheck

	return fn(engine)
}
