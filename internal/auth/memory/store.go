// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package memory provides an in-memory auth.UserStore for tests and embedding.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// Store implements auth.UserStore with mutex-guarded maps. All invariants of
// the interface hold, including the atomic reset-token compare-and-swap in
// ReplacePassword: the mutex makes each operation a single atomic step.
type Store struct {
	mu        sync.Mutex
	accounts  map[ulid.ULID]*auth.Account
	byEmail   map[string]ulid.ULID
	bySession map[string]ulid.ULID
	byReset   map[string]ulid.ULID
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:  make(map[ulid.ULID]*auth.Account),
		byEmail:   make(map[string]ulid.ULID),
		bySession: make(map[string]ulid.ULID),
		byReset:   make(map[string]ulid.ULID),
	}
}

// Create stores a new account.
func (s *Store) Create(_ context.Context, email, passwordHash string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, oops.Code("ACCOUNT_DUPLICATE_EMAIL").Wrap(auth.ErrDuplicateEmail)
	}

	now := time.Now()
	account := &auth.Account{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.accounts[account.ID] = account
	s.byEmail[email] = account.ID

	return copyAccount(account), nil
}

// FindByEmail retrieves an account by email, or (nil, nil) if absent.
func (s *Store) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, nil
	}
	return copyAccount(s.accounts[id]), nil
}

// FindBySession retrieves the account holding the session token hash,
// or (nil, nil) if absent.
func (s *Store) FindBySession(_ context.Context, tokenHash string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.bySession[tokenHash]
	if !ok {
		return nil, nil
	}
	return copyAccount(s.accounts[id]), nil
}

// SetSessionToken sets or clears the session token hash.
func (s *Store) SetSessionToken(_ context.Context, id ulid.ULID, tokenHash *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").With("account_id", id.String()).Wrap(auth.ErrNotFound)
	}

	if account.SessionTokenHash != nil {
		delete(s.bySession, *account.SessionTokenHash)
	}
	account.SessionTokenHash = cloneToken(tokenHash)
	if account.SessionTokenHash != nil {
		s.bySession[*account.SessionTokenHash] = id
	}
	account.UpdatedAt = time.Now()
	return nil
}

// SetResetToken sets or clears the reset token hash, superseding any
// outstanding token.
func (s *Store) SetResetToken(_ context.Context, id ulid.ULID, tokenHash *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").With("account_id", id.String()).Wrap(auth.ErrNotFound)
	}

	if account.ResetTokenHash != nil {
		delete(s.byReset, *account.ResetTokenHash)
	}
	account.ResetTokenHash = cloneToken(tokenHash)
	if account.ResetTokenHash != nil {
		s.byReset[*account.ResetTokenHash] = id
	}
	account.UpdatedAt = time.Now()
	return nil
}

// ReplacePassword consumes the reset token and installs the new password
// hash in one atomic step. Exactly one of two concurrent callers with the
// same token succeeds; the loser gets ErrNotFound.
func (s *Store) ReplacePassword(_ context.Context, resetTokenHash, newPasswordHash string, clearSession bool) (ulid.ULID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byReset[resetTokenHash]
	if !ok {
		return ulid.ULID{}, oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}

	account := s.accounts[id]
	account.PasswordHash = newPasswordHash
	account.ResetTokenHash = nil
	delete(s.byReset, resetTokenHash)

	if clearSession && account.SessionTokenHash != nil {
		delete(s.bySession, *account.SessionTokenHash)
		account.SessionTokenHash = nil
	}

	account.UpdatedAt = time.Now()
	return id, nil
}

// copyAccount returns a copy so callers cannot mutate stored state.
func copyAccount(a *auth.Account) *auth.Account {
	c := *a
	c.SessionTokenHash = cloneToken(a.SessionTokenHash)
	c.ResetTokenHash = cloneToken(a.ResetTokenHash)
	return &c
}

func cloneToken(t *string) *string {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Compile-time interface check.
var _ auth.UserStore = (*Store)(nil)
