// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
)

func TestGenerateToken(t *testing.T) {
	t.Run("token is hex of full entropy", func(t *testing.T) {
		token, hash, err := auth.GenerateToken()
		require.NoError(t, err)

		raw, err := hex.DecodeString(token)
		require.NoError(t, err)
		assert.Len(t, raw, auth.TokenBytes)
		assert.Equal(t, auth.HashToken(token), hash)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for range 100 {
			token, _, err := auth.GenerateToken()
			require.NoError(t, err)
			assert.False(t, seen[token])
			seen[token] = true
		}
	})

	t.Run("hash differs from token", func(t *testing.T) {
		token, hash, err := auth.GenerateToken()
		require.NoError(t, err)
		assert.NotEqual(t, token, hash)
	})
}

func TestHashToken(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, auth.HashToken("abc"), auth.HashToken("abc"))
	})

	t.Run("distinct inputs give distinct hashes", func(t *testing.T) {
		assert.NotEqual(t, auth.HashToken("abc"), auth.HashToken("abd"))
	})
}
