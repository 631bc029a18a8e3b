// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the gatehouse CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatehouse",
		Short: "Gatehouse - account authentication service",
		Long: `Gatehouse manages user accounts: registration, password login,
bearer-token sessions, and single-use password resets, backed by PostgreSQL.`,
	}

	// Global flags. Flag names use underscores so they map directly onto
	// config file keys.
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().String("database_url", "", "PostgreSQL connection URL (default: DATABASE_URL env)")
	cmd.PersistentFlags().String("log_format", config.DefaultLogFormat, "log format (json or text)")
	cmd.PersistentFlags().Bool("invalidate_sessions_on_reset", false, "revoke live sessions when a password is reset")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewAccountCmd())

	return cmd
}

// loadConfig builds the runtime configuration from the global config file
// and the flags of the invoked command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}
