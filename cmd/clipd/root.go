// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipd-dev/clipd/internal/config"
	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

// NewRootCmd creates the root clipd command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clipd",
		Short:         "clipd — clipboard history with semantic search",
		Long:          "clipd captures the system clipboard into a searchable local history with lexical and embedding-based retrieval.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	// Global flags — these map to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "path to data directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newServeCmd(),
		newSearchCmd(),
		newBackfillCmd(),
		newTagsCmd(),
		newExportCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return clipderr.Errorf(clipderr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// Auto-discover clipd.yaml from standard locations. SetConfigType is
		// intentionally omitted so Viper never tries the bare config name,
		// which would collide with the ./clipd binary in the project root.
		v.SetConfigName("clipd")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/clipd")
		v.AddConfigPath("/etc/clipd")
		// No config file is fine — defaults and env vars still apply.
		// Parse or permission errors must surface.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return clipderr.Errorf(clipderr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
		}
	}

	if err := v.BindPFlag("data_dir", cmd.Root().PersistentFlags().Lookup("data-dir")); err != nil {
		return clipderr.Errorf(clipderr.CodeCLISetupFailure, "binding data-dir flag: %w", err)
	}
	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return clipderr.Errorf(clipderr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}

	return nil
}

// loadSettings resolves the effective settings from the global Viper.
func loadSettings() (*config.Settings, error) {
	return config.FromViper(viper.GetViper())
}

// newLogger builds the process logger, honoring --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
