// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorCodec_RoundTrip(t *testing.T) {
	vec := []float32{0, 1.5, -3.25, 1e-7}

	decoded, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)
}

func TestVectorCodec_RejectsTruncatedBlob(t *testing.T) {
	blob := encodeVector([]float32{1, 2})
	_, err := decodeVector(blob[:len(blob)-1])
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{2, 0}, []float32{5, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-3, 0}), 1e-9)

	// A zero-norm vector scores zero instead of dividing by zero.
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
