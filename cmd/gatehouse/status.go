// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"encoding/json"
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/store"
)

// MigrationStatus holds the schema state reported by the status command.
type MigrationStatus struct {
	Reachable bool   `json:"reachable"`
	Version   uint   `json:"version"`
	Dirty     bool   `json:"dirty"`
	Error     string `json:"error,omitempty"`
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database and migration status",
		Long:  `Check database connectivity and report the current schema migration version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required (flag, config file, or DATABASE_URL)")
	}

	status := queryMigrationStatus(cfg.DatabaseURL)

	if jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return oops.Code("STATUS_FORMAT_FAILED").Wrap(err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(formatStatus(status))
	return nil
}

func queryMigrationStatus(databaseURL string) MigrationStatus {
	var status MigrationStatus

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer func() { _ = migrator.Close() }() //nolint:errcheck // best-effort cleanup

	version, dirty, err := migrator.Version()
	if err != nil {
		status.Error = err.Error()
		return status
	}

	status.Reachable = true
	status.Version = version
	status.Dirty = dirty
	return status
}

func formatStatus(status MigrationStatus) string {
	if !status.Reachable {
		return fmt.Sprintf("database: unreachable (%s)", status.Error)
	}
	if status.Version == 0 {
		return "database: reachable\nschema: no migrations applied"
	}
	dirty := ""
	if status.Dirty {
		dirty = " (dirty)"
	}
	return fmt.Sprintf("database: reachable\nschema: version %d%s", status.Version, dirty)
}
