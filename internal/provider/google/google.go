// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

// Package google implements the embedding client for the Gemini API.
package google

import (
	"context"
	"errors"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/clipd-dev/clipd/internal/config"
	"github.com/clipd-dev/clipd/internal/provider"
	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

const requestTimeout = 30 * time.Second

// Compile-time interface check.
var _ provider.Embedder = (*Client)(nil)

// Client embeds text via the Gemini embedContent endpoint. The SDK owns the
// wire format: model and key are percent-encoded into the URL, the request
// body is {model, content:{parts:[{text}]}}, and the response carries
// {embedding:{values:[...]}}.
type Client struct {
	client    *genai.Client
	model     string
	reachable provider.Reachability
}

// New creates a Gemini embedding client. Returns InvalidAPIKey when the key
// is missing.
func New(cfg config.CloudProviderConfig, reachable provider.Reachability) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, clipderr.New(clipderr.CodeProviderKeyInvalid, "gemini: missing api_key",
			clipderr.FieldProvider(config.ProviderGemini))
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: requestTimeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, clipderr.Wrap(err, clipderr.CodeProviderNetworkFailure, "gemini: creating client",
			clipderr.FieldProvider(config.ProviderGemini))
	}

	if reachable == nil {
		reachable = provider.Online
	}

	return &Client{client: client, model: cfg.Model, reachable: reachable}, nil
}

func (c *Client) Name() string { return config.ProviderGemini }

func (c *Client) Generate(ctx context.Context, text string) ([]float32, error) {
	if err := provider.CheckInput(text, c.reachable, config.ProviderGemini); err != nil {
		return nil, err
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.model, genai.Text(text), nil)
	if err != nil {
		// An upstream error body {error:{message}} surfaces as a network
		// error carrying that message.
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, clipderr.Wrap(err, clipderr.CodeProviderNetworkFailure, "gemini: "+apiErr.Message,
				clipderr.FieldProvider(config.ProviderGemini), clipderr.FieldStatus(apiErr.Code))
		}
		return nil, provider.ClassifyTransport(err, config.ProviderGemini, false)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, clipderr.New(clipderr.CodeProviderDecodingFailure, "gemini: response carries no embedding",
			clipderr.FieldProvider(config.ProviderGemini))
	}
	return resp.Embeddings[0].Values, nil
}
