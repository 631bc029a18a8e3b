// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import "errors"

// Sentinel errors forming the caller-facing taxonomy. Service and store
// methods wrap these with oops codes; callers match with errors.Is.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when registering an email already on record.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned on failed login or session creation.
	// It deliberately does not distinguish an unknown email from a wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnknownEmail is returned when a password reset is requested for an
	// email with no account.
	ErrUnknownEmail = errors.New("unknown email")

	// ErrInvalidResetToken is returned when completing a reset with an
	// absent, unknown, or already-consumed token.
	ErrInvalidResetToken = errors.New("invalid reset token")

	// ErrStoreUnavailable is returned when the backing store fails.
	// Callers may retry; the core never retries internally.
	ErrStoreUnavailable = errors.New("store unavailable")
)
