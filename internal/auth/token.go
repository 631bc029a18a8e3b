// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/samber/oops"
)

// TokenBytes is the entropy of session and reset tokens.
// 32 bytes = 256 bits, 64 hex characters on the wire.
const TokenBytes = 32

// GenerateToken creates a secure random opaque token and its hash.
// Returns (plaintext_token, sha256_hash, error). The plaintext goes to the
// client; only the hash is stored.
func GenerateToken() (token, hash string, err error) {
	tokenBytes := make([]byte, TokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("AUTH_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashToken(token)

	return token, hash, nil
}

// HashToken computes the SHA-256 hash of an opaque token, hex encoded.
// This is the at-rest representation of session and reset tokens. Token
// checks are store lookups keyed on this hash; the plaintext is never
// compared against stored state directly.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
