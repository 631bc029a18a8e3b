// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gatehouse/gatehouse/internal/auth"
	authpg "github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/store"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// NewAccountCmd creates the account subcommand group.
func NewAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Administer user accounts",
		Long:  `Administer user accounts directly against the database.`,
	}

	cmd.AddCommand(newAccountRegisterCmd())
	cmd.AddCommand(newAccountResetRequestCmd())
	cmd.AddCommand(newAccountResetCompleteCmd())

	return cmd
}

func newAccountRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <email>",
		Short: "Register a new account",
		Long:  `Register a new account with the given email. The password is read from the terminal.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *auth.Service) error {
				password, err := promptPassword(cmd, "Password: ")
				if err != nil {
					return err
				}

				account, err := svc.Register(ctx, args[0], password)
				if err != nil {
					return err
				}
				cmd.Printf("Account created: %s\n", account.ID)
				return nil
			})
		},
	}
}

func newAccountResetRequestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-request <email>",
		Short: "Issue a password reset token",
		Long: `Issue a single-use password reset token for the account with the given
email. The token is printed once and cannot be recovered afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *auth.Service) error {
				token, err := svc.RequestPasswordReset(ctx, args[0])
				if err != nil {
					return err
				}
				cmd.Printf("Reset token: %s\n", token)
				return nil
			})
		},
	}
}

func newAccountResetCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-complete <token>",
		Short: "Complete a password reset",
		Long:  `Consume a reset token and set a new password, read from the terminal.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *auth.Service) error {
				password, err := promptPassword(cmd, "New password: ")
				if err != nil {
					return err
				}

				if err := svc.ResetPassword(ctx, args[0], password); err != nil {
					return err
				}
				cmd.Println("Password reset")
				return nil
			})
		},
	}
}

// withService connects to the database, builds the auth service, and runs fn
// with it.
func withService(cmd *cobra.Command, fn func(context.Context, *auth.Service) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required (flag, config file, or DATABASE_URL)")
	}

	ctx := cmd.Context()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	opts := []auth.Option{auth.WithLogger(slog.New(slog.DiscardHandler))}
	if cfg.InvalidateSessionsOnReset {
		opts = append(opts, auth.WithSessionInvalidation())
	}

	svc, err := auth.NewService(authpg.NewAccountRepository(pool), auth.NewArgon2idHasher(), opts...)
	if err != nil {
		return err
	}

	return fn(ctx, svc)
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	cmd.Print(prompt)
	password, err := readPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
	}
	return string(password), nil
}
