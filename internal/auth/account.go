// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxEmailLength bounds stored email addresses.
const MaxEmailLength = 254

// emailRegex is a permissive shape check: one '@' with non-empty local and
// domain parts, no whitespace. Deliverability is not this package's problem.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// Account represents a registered account.
//
// SessionTokenHash is non-nil iff the account has an active session.
// ResetTokenHash is non-nil iff a password reset is outstanding. Both hold
// SHA-256 hashes of the opaque tokens, never the tokens themselves.
type Account struct {
	ID               ulid.ULID
	Email            string
	PasswordHash     string
	SessionTokenHash *string
	ResetTokenHash   *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasSession returns true if the account has an active session.
func (a *Account) HasSession() bool {
	return a.SessionTokenHash != nil
}

// HasPendingReset returns true if a password reset is outstanding.
func (a *Account) HasPendingReset() bool {
	return a.ResetTokenHash != nil
}

// ValidateEmail validates an email address against storage rules.
// Emails are compared case-sensitively, exactly as stored.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email must contain a single '@' and no whitespace")
	}
	return nil
}

// UserStore is the durable record store the Service depends on. Any backend
// may implement it; postgres and memory subpackages provide the two shipped
// implementations.
//
// Implementations report backend I/O failure by wrapping ErrStoreUnavailable
// and report missing records on updates by wrapping ErrNotFound. Lookups
// return (nil, nil) when no record matches.
type UserStore interface {
	// Create stores a new account. Fails with ErrDuplicateEmail if the
	// email is already registered.
	Create(ctx context.Context, email, passwordHash string) (*Account, error)

	// FindByEmail retrieves an account by email (case-sensitive).
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindBySession retrieves the account holding the given session token hash.
	FindBySession(ctx context.Context, tokenHash string) (*Account, error)

	// SetSessionToken sets (non-nil) or clears (nil) the session token hash.
	// Clearing an already-clear token is not an error. Concurrent sets for
	// the same account are last-write-wins.
	SetSessionToken(ctx context.Context, id ulid.ULID, tokenHash *string) error

	// SetResetToken sets (non-nil) or clears (nil) the reset token hash.
	// Setting overwrites any outstanding token: only the most recent reset
	// request stays valid.
	SetResetToken(ctx context.Context, id ulid.ULID, tokenHash *string) error

	// ReplacePassword atomically consumes the reset token identified by
	// resetTokenHash, installing newPasswordHash and clearing the reset
	// token in one step. When clearSession is true the session token is
	// cleared in the same step. Returns the affected account's ID, or
	// ErrNotFound if the token hash matches no account. Under two
	// concurrent calls with the same token, exactly one succeeds.
	ReplacePassword(ctx context.Context, resetTokenHash, newPasswordHash string, clearSession bool) (ulid.ULID, error)
}
