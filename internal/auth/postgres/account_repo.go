// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package postgres provides the PostgreSQL implementation of auth.UserStore.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// poolIface is the subset of pgxpool.Pool the repository uses. pgxmock's
// pool satisfies it for tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements auth.UserStore using PostgreSQL.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create stores a new account. The email uniqueness constraint is the
// authoritative duplicate check.
func (r *AccountRepository) Create(ctx context.Context, email, passwordHash string) (*auth.Account, error) {
	now := time.Now()
	account := &auth.Account{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		account.ID.String(),
		account.Email,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code("ACCOUNT_DUPLICATE_EMAIL").Wrap(auth.ErrDuplicateEmail)
		}
		return nil, unavailable("ACCOUNT_CREATE_FAILED", "insert account", err)
	}
	return account, nil
}

// FindByEmail retrieves an account by email (case-sensitive), or (nil, nil)
// if no account matches.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, session_token_hash, reset_token_hash, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("ACCOUNT_GET_BY_EMAIL_FAILED", "get account by email", err)
	}
	return account, nil
}

// FindBySession retrieves the account holding the session token hash, or
// (nil, nil) if no account matches.
func (r *AccountRepository) FindBySession(ctx context.Context, tokenHash string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, session_token_hash, reset_token_hash, created_at, updated_at
		FROM accounts
		WHERE session_token_hash = $1
	`, tokenHash)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("ACCOUNT_GET_BY_SESSION_FAILED", "get account by session token", err)
	}
	return account, nil
}

// SetSessionToken sets or clears the session token hash.
func (r *AccountRepository) SetSessionToken(ctx context.Context, id ulid.ULID, tokenHash *string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET session_token_hash = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), tokenHash, time.Now())
	if err != nil {
		return unavailable("ACCOUNT_SET_SESSION_FAILED", "update session token", err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("account_id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// SetResetToken sets or clears the reset token hash, superseding any
// outstanding token.
func (r *AccountRepository) SetResetToken(ctx context.Context, id ulid.ULID, tokenHash *string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET reset_token_hash = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), tokenHash, time.Now())
	if err != nil {
		return unavailable("ACCOUNT_SET_RESET_FAILED", "update reset token", err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("account_id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ReplacePassword consumes the reset token and installs the new password
// hash in a single UPDATE keyed on the token hash. Racing callers with the
// same token serialize on the row: the second sees zero rows and gets
// ErrNotFound.
func (r *AccountRepository) ReplacePassword(ctx context.Context, resetTokenHash, newPasswordHash string, clearSession bool) (ulid.ULID, error) {
	query := `
		UPDATE accounts
		SET password_hash = $2, reset_token_hash = NULL, updated_at = $3
		WHERE reset_token_hash = $1
		RETURNING id
	`
	if clearSession {
		query = `
		UPDATE accounts
		SET password_hash = $2, reset_token_hash = NULL, session_token_hash = NULL, updated_at = $3
		WHERE reset_token_hash = $1
		RETURNING id
	`
	}

	var idStr string
	err := r.pool.QueryRow(ctx, query, resetTokenHash, newPasswordHash, time.Now()).Scan(&idStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return ulid.ULID{}, oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return ulid.ULID{}, unavailable("ACCOUNT_REPLACE_PASSWORD_FAILED", "replace password", err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return ulid.ULID{}, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}
	return id, nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr            string
		email            string
		passwordHash     string
		sessionTokenHash *string
		resetTokenHash   *string
		createdAt        time.Time
		updatedAt        time.Time
	)

	err := row.Scan(&idStr, &email, &passwordHash, &sessionTokenHash, &resetTokenHash, &createdAt, &updatedAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers map to absent-record semantics
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Account{
		ID:               id,
		Email:            email,
		PasswordHash:     passwordHash,
		SessionTokenHash: sessionTokenHash,
		ResetTokenHash:   resetTokenHash,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}, nil
}

// unavailable wraps a backend failure so callers can match
// auth.ErrStoreUnavailable while keeping the cause in the chain.
func unavailable(code, operation string, err error) error {
	return oops.Code(code).
		With("operation", operation).
		Wrap(errors.Join(auth.ErrStoreUnavailable, err))
}

// Compile-time interface check.
var _ auth.UserStore = (*AccountRepository)(nil)
