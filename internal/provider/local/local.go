// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

// Package local implements the embedding client for a self-hosted HTTP
// embedding service.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clipd-dev/clipd/internal/config"
	"github.com/clipd-dev/clipd/internal/provider"
	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

const requestTimeout = 10 * time.Second

// Compile-time interface check.
var _ provider.Embedder = (*Client)(nil)

// Client posts text to a local embedding service and decodes the vector.
//
// Wire format: POST {"content": text} to the configured URL, response
// {"embedding": [float, ...]}.
type Client struct {
	endpoint  string
	httpc     *http.Client
	reachable provider.Reachability
}

// New creates a local embedding client. A base URL without a scheme is
// prefixed with http://.
func New(cfg config.LocalProviderConfig, reachable provider.Reachability) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, clipderr.New(clipderr.CodeProviderURLInvalid, "local: missing base_url",
			clipderr.FieldProvider(config.ProviderLocal))
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, clipderr.New(clipderr.CodeProviderURLInvalid, "local: invalid base_url "+cfg.BaseURL,
			clipderr.FieldProvider(config.ProviderLocal))
	}

	if reachable == nil {
		reachable = provider.Online
	}

	return &Client{
		endpoint:  u.String(),
		httpc:     &http.Client{Timeout: requestTimeout},
		reachable: reachable,
	}, nil
}

func (c *Client) Name() string { return config.ProviderLocal }

type embedRequest struct {
	Content string `json:"content"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (c *Client) Generate(ctx context.Context, text string) ([]float32, error) {
	if err := provider.CheckInput(text, c.reachable, config.ProviderLocal); err != nil {
		return nil, err
	}

	body, err := json.Marshal(embedRequest{Content: text})
	if err != nil {
		return nil, clipderr.Wrap(err, clipderr.CodeProviderInputInvalid, "local: encoding request",
			clipderr.FieldProvider(config.ProviderLocal))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, clipderr.Wrap(err, clipderr.CodeProviderURLInvalid, "local: building request",
			clipderr.FieldProvider(config.ProviderLocal))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, provider.ClassifyTransport(err, config.ProviderLocal, true)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, clipderr.New(clipderr.CodeProviderUnavailable, "local: service unavailable",
			clipderr.FieldProvider(config.ProviderLocal))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, clipderr.New(clipderr.CodeProviderServerFailure, "local: server error "+resp.Status,
			clipderr.FieldProvider(config.ProviderLocal), clipderr.FieldStatus(resp.StatusCode))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.ClassifyTransport(err, config.ProviderLocal, true)
	}

	var out embedResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, clipderr.Wrap(err, clipderr.CodeProviderDecodingFailure, "local: decoding response",
			clipderr.FieldProvider(config.ProviderLocal))
	}
	if len(out.Embedding) == 0 {
		return nil, clipderr.New(clipderr.CodeProviderDecodingFailure, "local: response carries no embedding",
			clipderr.FieldProvider(config.ProviderLocal))
	}
	return out.Embedding, nil
}
