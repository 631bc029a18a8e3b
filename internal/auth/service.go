// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MetricsRecorder receives authentication outcome events. The observability
// package provides the prometheus-backed implementation.
type MetricsRecorder interface {
	RecordRegistration(result string)
	RecordLogin(result string)
	RecordReset(result string)
}

// Metric result labels.
const (
	ResultOK             = "ok"
	ResultDenied         = "denied"
	ResultDuplicateEmail = "duplicate_email"
	ResultUnknownEmail   = "unknown_email"
	ResultInvalidToken   = "invalid_token"
)

// dummyPasswordHash is verified when an email has no account, so response
// time does not reveal whether the email exists. This is NOT a real
// credential - it is a fake hash that can never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing uniformity, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service orchestrates registration, login, sessions, and password resets.
type Service struct {
	store   UserStore
	hasher  PasswordHasher
	logger  *slog.Logger
	metrics MetricsRecorder

	// invalidateSessions controls whether a successful password reset also
	// clears the account's live session.
	invalidateSessions bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics recorder. Without it, no metrics are recorded.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(s *Service) { s.metrics = metrics }
}

// WithSessionInvalidation makes a successful password reset clear the
// account's active session atomically with the password change.
func WithSessionInvalidation() Option {
	return func(s *Service) { s.invalidateSessions = true }
}

// NewService creates a Service with the given dependencies.
func NewService(store UserStore, hasher PasswordHasher, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("user store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}

	s := &Service{
		store:  store,
		hasher: hasher,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("logger is required")
	}
	return s, nil
}

// Register creates a new account for the email with a freshly hashed
// password. The plaintext password is not retained beyond this call.
func (s *Service) Register(ctx context.Context, email, password string) (*Account, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "find account by email").
			Wrap(err)
	}
	if existing != nil {
		s.recordRegistration(ResultDuplicateEmail)
		return nil, oops.Code("AUTH_DUPLICATE_EMAIL").Wrap(ErrDuplicateEmail)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := s.store.Create(ctx, email, hash)
	if err != nil {
		// Lost a race against a concurrent registration: the store's
		// uniqueness constraint is the authoritative check.
		if errors.Is(err, ErrDuplicateEmail) {
			s.recordRegistration(ResultDuplicateEmail)
			return nil, oops.Code("AUTH_DUPLICATE_EMAIL").Wrap(ErrDuplicateEmail)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "account registered", "account_id", account.ID.String())
	s.recordRegistration(ResultOK)
	return account, nil
}

// ValidateLogin reports whether the email and password identify an account.
// An unknown email yields false, not an error, and costs a full hash
// verification so callers cannot enumerate accounts by timing.
func (s *Service) ValidateLogin(ctx context.Context, email, password string) (bool, error) {
	_, ok, err := s.authenticate(ctx, email, password)
	return ok, err
}

// authenticate looks up an account and verifies the password against it,
// verifying against a dummy hash when the account is absent.
func (s *Service) authenticate(ctx context.Context, email, password string) (*Account, bool, error) {
	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find account by email").
			Wrap(err)
	}

	targetHash := dummyPasswordHash
	if account != nil {
		targetHash = account.PasswordHash
	}

	// Always run verification, present or not.
	valid := s.hasher.Verify(password, targetHash)
	if account == nil || !valid {
		return nil, false, nil
	}
	return account, true, nil
}

// CreateSession authenticates the credentials and issues a fresh opaque
// session token, replacing any previous session for the account. The failure
// does not distinguish an unknown email from a wrong password.
func (s *Service) CreateSession(ctx context.Context, email, password string) (string, error) {
	account, ok, err := s.authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	if !ok {
		s.recordLogin(ResultDenied)
		return "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	token, hash, err := GenerateToken()
	if err != nil {
		return "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	if err := s.store.SetSessionToken(ctx, account.ID, &hash); err != nil {
		return "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session token").
			With("account_id", account.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "session created", "account_id", account.ID.String())
	s.recordLogin(ResultOK)
	return token, nil
}

// AccountFromSession resolves an opaque session token to its account.
// An empty, unknown, or stale token yields (nil, nil): an unauthenticated
// request is a normal outcome, not a failure. Errors are store failures only.
func (s *Service) AccountFromSession(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, nil
	}

	account, err := s.store.FindBySession(ctx, HashToken(token))
	if err != nil {
		return nil, oops.Code("AUTH_SESSION_LOOKUP_FAILED").
			With("operation", "find account by session token").
			Wrap(err)
	}
	return account, nil
}

// DestroySession clears the account's session token. Destroying an
// already-absent session is not an error.
func (s *Service) DestroySession(ctx context.Context, accountID ulid.ULID) error {
	if err := s.store.SetSessionToken(ctx, accountID, nil); err != nil {
		return oops.Code("AUTH_SESSION_DESTROY_FAILED").
			With("operation", "clear session token").
			With("account_id", accountID.String()).
			Wrap(err)
	}

	s.logger.DebugContext(ctx, "session destroyed", "account_id", accountID.String())
	return nil
}

// RequestPasswordReset issues a fresh single-use reset token for the email,
// superseding any outstanding token. Fails with ErrUnknownEmail when no
// account matches; callers that want enumeration resistance should mask that
// error rather than surface it.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "find account by email").
			Wrap(err)
	}
	if account == nil {
		s.recordReset(ResultUnknownEmail)
		return "", oops.Code("AUTH_UNKNOWN_EMAIL").Wrap(ErrUnknownEmail)
	}

	token, hash, err := GenerateToken()
	if err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate reset token").
			Wrap(err)
	}

	if err := s.store.SetResetToken(ctx, account.ID, &hash); err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "persist reset token").
			With("account_id", account.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset requested", "account_id", account.ID.String())
	return token, nil
}

// ResetPassword consumes a reset token and installs a new password hash as
// one atomic store operation, so a token can never be used twice even under
// concurrent completion attempts. With session invalidation enabled, the
// account's live session is cleared in the same step.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		s.recordReset(ResultInvalidToken)
		return oops.Code("AUTH_RESET_TOKEN_INVALID").Wrap(ErrInvalidResetToken)
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	accountID, err := s.store.ReplacePassword(ctx, HashToken(token), newHash, s.invalidateSessions)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.recordReset(ResultInvalidToken)
			return oops.Code("AUTH_RESET_TOKEN_INVALID").Wrap(ErrInvalidResetToken)
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "replace password").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		"account_id", accountID.String(),
		"session_invalidated", s.invalidateSessions,
	)
	s.recordReset(ResultOK)
	return nil
}

func (s *Service) recordRegistration(result string) {
	if s.metrics != nil {
		s.metrics.RecordRegistration(result)
	}
}

func (s *Service) recordLogin(result string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(result)
	}
}

func (s *Service) recordReset(result string) {
	if s.metrics != nil {
		s.metrics.RecordReset(result)
	}
}
