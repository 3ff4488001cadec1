// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipd-dev/clipd/internal/config"
	"github.com/clipd-dev/clipd/internal/provider/openai"
	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

func alwaysOnline() bool { return true }

func newClient(t *testing.T, baseURL string) *openai.Client {
	t.Helper()
	c, err := openai.New(config.CloudProviderConfig{
		APIKey:  "sk-test",
		Model:   "text-embedding-3-small",
		BaseURL: baseURL,
	}, alwaysOnline)
	require.NoError(t, err)
	return c
}

func TestOpenAIClient_MissingKey(t *testing.T) {
	_, err := openai.New(config.CloudProviderConfig{Model: "m"}, alwaysOnline)
	assert.True(t, clipderr.IsInvalidAPIKey(err))
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req["input"])
		assert.Equal(t, "text-embedding-3-small", req["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float64{0.5, -0.25}},
			},
			"model": "text-embedding-3-small",
		})
	}))
	defer srv.Close()

	vec, err := newClient(t, srv.URL).Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25}, vec)
}

func TestOpenAIClient_RejectedKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Incorrect API key provided", "type": "invalid_request_error"},
		})
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).Generate(context.Background(), "x")
	assert.True(t, clipderr.IsInvalidAPIKey(err), "got %v", err)
}

func TestOpenAIClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "boom", "type": "server_error"},
		})
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).Generate(context.Background(), "x")
	assert.True(t, clipderr.IsServerError(err), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, clipderr.ServerStatus(err))
}

func TestOpenAIClient_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []any{}})
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).Generate(context.Background(), "x")
	assert.True(t, clipderr.IsDecodingError(err), "got %v", err)
}

func TestOpenAIClient_EmptyInput(t *testing.T) {
	_, err := newClient(t, "http://localhost:1").Generate(context.Background(), "")
	assert.True(t, clipderr.IsInvalidInput(err))
}
