// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatehouse/gatehouse/internal/auth"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "alice@example.com", false},
		{"subdomain", "bob@mail.example.com", false},
		{"plus addressing", "carol+test@example.com", false},
		{"minimal", "a@b", false},
		{"empty", "", true},
		{"no at sign", "alice.example.com", true},
		{"two at signs", "alice@@example.com", true},
		{"empty local part", "@example.com", true},
		{"empty domain", "alice@", true},
		{"embedded space", "alice smith@example.com", true},
		{"at max length", strings.Repeat("a", auth.MaxEmailLength-len("@example.com")) + "@example.com", false},
		{"over max length", strings.Repeat("a", auth.MaxEmailLength) + "@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccountState(t *testing.T) {
	t.Run("fresh account has no session or reset", func(t *testing.T) {
		account := &auth.Account{}
		assert.False(t, account.HasSession())
		assert.False(t, account.HasPendingReset())
	})

	t.Run("session token implies active session", func(t *testing.T) {
		hash := auth.HashToken("some-token")
		account := &auth.Account{SessionTokenHash: &hash}
		assert.True(t, account.HasSession())
		assert.False(t, account.HasPendingReset())
	})

	t.Run("reset token implies pending reset", func(t *testing.T) {
		hash := auth.HashToken("some-token")
		account := &auth.Account{ResetTokenHash: &hash}
		assert.False(t, account.HasSession())
		assert.True(t, account.HasPendingReset())
	})
}
