// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/clipd-dev/clipd/internal/store"
	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export clipboard history as YAML",
		Long:  "Write the full text and link history to stdout or a file. Image payloads are skipped.",
		RunE:  runExport,
	}

	cmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	cmd.Flags().Int("limit", 0, "export at most this many items (0 = all)")

	return cmd
}

type exportItem struct {
	ID        int64     `yaml:"id"`
	Kind      string    `yaml:"kind"`
	Content   string    `yaml:"content,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
	SourceApp string    `yaml:"source_app"`
	Tags      []string  `yaml:"tags,omitempty"`
}

func runExport(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	output, _ := cmd.Flags().GetString("output")

	return withEngine(cmd, func(e *Engine) error {
		if limit <= 0 {
			count, err := e.Store.CountItems(cmd.Context())
			if err != nil {
				return err
			}
			limit = count
		}
		if limit == 0 {
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode([]exportItem{})
		}

		items, err := e.Store.ListItems(cmd.Context(), store.ListOpts{Limit: limit})
		if err != nil {
			return err
		}

		out := make([]exportItem, 0, len(items))
		for _, item := range items {
			if item.Kind == store.ItemKindImage {
				continue
			}
			out = append(out, exportItem{
				ID:        item.ID,
				Kind:      string(item.Kind),
				Content:   item.Content,
				CreatedAt: item.CreatedAt,
				SourceApp: item.SourceApp,
				Tags:      item.Tags,
			})
		}

		w := cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return clipderr.Wrapf(err, clipderr.CodeCLISetupFailure, "creating %s", output)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		enc := yaml.NewEncoder(w)
		defer enc.Close() //nolint:errcheck
		return enc.Encode(out)
	})
}
