// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

// Package openai implements the embedding client for the OpenAI API.
package openai

import (
	"context"
	"errors"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/clipd-dev/clipd/internal/config"
	"github.com/clipd-dev/clipd/internal/provider"
	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

const requestTimeout = 30 * time.Second

// Compile-time interface check.
var _ provider.Embedder = (*Client)(nil)

// Client embeds text via the OpenAI embeddings endpoint. The SDK owns the
// wire format: bearer-auth header, request body {input, model}, response
// {data:[{embedding}]} of which the first element is used.
type Client struct {
	client    openaisdk.Client
	model     string
	reachable provider.Reachability
}

// New creates an OpenAI embedding client. Returns InvalidAPIKey when the key
// is missing.
func New(cfg config.CloudProviderConfig, reachable provider.Reachability) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, clipderr.New(clipderr.CodeProviderKeyInvalid, "openai: missing api_key",
			clipderr.FieldProvider(config.ProviderOpenAI))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(requestTimeout),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	if reachable == nil {
		reachable = provider.Online
	}

	return &Client{
		client:    openaisdk.NewClient(opts...),
		model:     cfg.Model,
		reachable: reachable,
	}, nil
}

func (c *Client) Name() string { return config.ProviderOpenAI }

func (c *Client) Generate(ctx context.Context, text string) ([]float32, error) {
	if err := provider.CheckInput(text, c.reachable, config.ProviderOpenAI); err != nil {
		return nil, err
	}

	resp, err := c.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfString: param.NewOpt(text)},
		Model: openaisdk.EmbeddingModel(c.model),
	})
	if err != nil {
		var apiErr *openaisdk.Error
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == 401 || apiErr.StatusCode == 403 {
				return nil, clipderr.Wrap(err, clipderr.CodeProviderKeyInvalid, "openai: rejected api key",
					clipderr.FieldProvider(config.ProviderOpenAI), clipderr.FieldStatus(apiErr.StatusCode))
			}
			return nil, clipderr.Wrap(err, clipderr.CodeProviderServerFailure, "openai: server error",
				clipderr.FieldProvider(config.ProviderOpenAI), clipderr.FieldStatus(apiErr.StatusCode))
		}
		return nil, provider.ClassifyTransport(err, config.ProviderOpenAI, false)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, clipderr.New(clipderr.CodeProviderDecodingFailure, "openai: response carries no embedding",
			clipderr.FieldProvider(config.ProviderOpenAI))
	}

	raw := resp.Data[0].Embedding
	vector := make([]float32, len(raw))
	for i, v := range raw {
		vector[i] = float32(v)
	}
	return vector, nil
}
