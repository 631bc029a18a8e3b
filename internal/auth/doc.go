// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth implements the gatehouse credential and session core.
//
// # Domain Types
//
// Account is the single durable record: one row per registered email,
// carrying the password hash and the hashes of the current session and
// reset tokens. Tokens handed to clients are opaque random strings; only
// their SHA-256 hashes are ever stored.
//
// # Services
//
// Service orchestrates the full lifecycle:
//   - Register / ValidateLogin / CreateSession / AccountFromSession /
//     DestroySession for credentials and sessions
//   - RequestPasswordReset / ResetPassword for the single-use reset flow
//
// Service takes its UserStore and PasswordHasher as constructor
// dependencies so an in-memory store can stand in for PostgreSQL in tests.
package auth
