// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

// Package config holds process-wide settings: storage limits, the active
// embedding provider, and per-provider connection fields.
package config

import (
	"errors"
	"net"
	"path/filepath"
	"strings"
	"time"

	clipderr "github.com/clipd-dev/clipd/pkg/errors"
	"github.com/spf13/viper"
)

// Provider identifiers. Each one owns an isolated embedding table.
const (
	ProviderLocal  = "local"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Settings is the top-level clipd configuration.
type Settings struct {
	DataDir    string           `mapstructure:"data_dir" json:"data_dir"`
	Listen     string           `mapstructure:"listen" json:"listen"`
	History    HistoryConfig    `mapstructure:"history" json:"history"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings" json:"embeddings"`
}

// HistoryConfig controls capture and storage of clipboard items.
type HistoryConfig struct {
	DBPath          string        `mapstructure:"db_path" json:"db_path"`
	MaxItems        int           `mapstructure:"max_items" json:"max_items"`
	PageSize        int           `mapstructure:"page_size" json:"page_size"`
	CaptureInterval time.Duration `mapstructure:"capture_interval" json:"capture_interval"`
}

// EmbeddingsConfig selects the active provider and its connection fields.
type EmbeddingsConfig struct {
	Provider string              `mapstructure:"provider" json:"provider"`
	Local    LocalProviderConfig `mapstructure:"local" json:"local"`
	Gemini   CloudProviderConfig `mapstructure:"gemini" json:"gemini"`
	OpenAI   CloudProviderConfig `mapstructure:"openai" json:"openai"`
}

// LocalProviderConfig points at a local embedding HTTP service.
type LocalProviderConfig struct {
	BaseURL string `mapstructure:"base_url" json:"base_url"`
}

// CloudProviderConfig holds an API key and model for a cloud provider.
// BaseURL is optional, useful for testing against a mock server.
type CloudProviderConfig struct {
	APIKey  string `mapstructure:"api_key" json:"api_key"`
	Model   string `mapstructure:"model" json:"model"`
	BaseURL string `mapstructure:"base_url" json:"base_url"`
}

// SetDefaults registers default values on the given Viper.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", ".")
	v.SetDefault("listen", "127.0.0.1:18690")
	v.SetDefault("history.db_path", "")
	v.SetDefault("history.max_items", 1000)
	v.SetDefault("history.page_size", 50)
	v.SetDefault("history.capture_interval", 2*time.Second)
	v.SetDefault("embeddings.provider", ProviderLocal)
	v.SetDefault("embeddings.local.base_url", "localhost:8080")
	v.SetDefault("embeddings.gemini.model", "text-embedding-004")
	v.SetDefault("embeddings.openai.model", "text-embedding-3-small")
}

// SetupEnv binds CLIPD_-prefixed environment variables.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("CLIPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper unmarshals and validates settings from the given Viper.
func FromViper(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, clipderr.Errorf(clipderr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if s.History.DBPath == "" {
		s.History.DBPath = filepath.Join(s.DataDir, "clipd.db")
	}

	if errs := s.Validate(); len(errs) > 0 {
		return nil, clipderr.Errorf(clipderr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}
	return &s, nil
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix CLIPD_).
func Load(path string) (*Settings, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, clipderr.Errorf(clipderr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// Validate checks the settings for logical errors, collecting all issues
// rather than stopping at the first one.
func (s *Settings) Validate() []error {
	var errs []error

	if _, _, err := net.SplitHostPort(s.Listen); err != nil {
		errs = append(errs, clipderr.Errorf(clipderr.CodeConfigValidateInvalidValue,
			"config: listen must be host:port, got %q", s.Listen))
	}

	if s.History.MaxItems <= 0 {
		errs = append(errs, clipderr.Errorf(clipderr.CodeConfigValidateInvalidValue,
			"config: history.max_items must be positive, got %d", s.History.MaxItems))
	}
	if s.History.PageSize <= 0 {
		errs = append(errs, clipderr.Errorf(clipderr.CodeConfigValidateInvalidValue,
			"config: history.page_size must be positive, got %d", s.History.PageSize))
	}
	if s.History.CaptureInterval < 100*time.Millisecond {
		errs = append(errs, clipderr.Errorf(clipderr.CodeConfigValidateInvalidValue,
			"config: history.capture_interval must be at least 100ms, got %s", s.History.CaptureInterval))
	}

	switch s.Embeddings.Provider {
	case ProviderLocal, ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, clipderr.Errorf(clipderr.CodeConfigValidateInvalidValue,
			"config: embeddings.provider must be one of [local, gemini, openai], got %q",
			s.Embeddings.Provider))
	}

	return errs
}
