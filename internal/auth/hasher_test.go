// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
)

func TestHashPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces valid hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	})

	t.Run("different passwords produce different hashes", func(t *testing.T) {
		hash1, err := hasher.Hash("password1")
		require.NoError(t, err)
		hash2, err := hasher.Hash("password2")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrEmptyPassword)
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		assert.True(t, hasher.Verify("correctpassword", hash))
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		assert.False(t, hasher.Verify("wrongpassword", hash))
	})

	t.Run("malformed hash is a mismatch", func(t *testing.T) {
		assert.False(t, hasher.Verify("password", "not-a-valid-hash"))
	})

	t.Run("empty hash is a mismatch", func(t *testing.T) {
		assert.False(t, hasher.Verify("password", ""))
	})

	t.Run("wrong algorithm is a mismatch", func(t *testing.T) {
		assert.False(t, hasher.Verify("password", "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"))
	})

	t.Run("truncated hash is a mismatch", func(t *testing.T) {
		hash, err := hasher.Hash("password")
		require.NoError(t, err)

		assert.False(t, hasher.Verify("password", hash[:len(hash)-10]))
	})

	t.Run("empty password never verifies", func(t *testing.T) {
		hash, err := hasher.Hash("password")
		require.NoError(t, err)

		assert.False(t, hasher.Verify("", hash))
	})
}
