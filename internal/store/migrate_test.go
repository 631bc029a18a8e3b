// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package store

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMigrate implements migrateIface with scripted results.
type fakeMigrate struct {
	upErr      error
	downErr    error
	version    uint
	dirty      bool
	versionErr error
	sourceErr  error
	dbErr      error

	upCalls   int
	downCalls int
}

func (f *fakeMigrate) Up() error {
	f.upCalls++
	return f.upErr
}

func (f *fakeMigrate) Down() error {
	f.downCalls++
	return f.downErr
}

func (f *fakeMigrate) Version() (uint, bool, error) {
	return f.version, f.dirty, f.versionErr
}

func (f *fakeMigrate) Close() (error, error) {
	return f.sourceErr, f.dbErr
}

func TestMigratorUp(t *testing.T) {
	t.Run("applies pending migrations", func(t *testing.T) {
		fake := &fakeMigrate{}
		m := &Migrator{m: fake}

		require.NoError(t, m.Up())
		assert.Equal(t, 1, fake.upCalls)
	})

	t.Run("no change is not an error", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{upErr: migrate.ErrNoChange}}
		assert.NoError(t, m.Up())
	})

	t.Run("propagates failure", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{upErr: errors.New("syntax error")}}
		err := m.Up()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "syntax error")
	})
}

func TestMigratorDown(t *testing.T) {
	t.Run("rolls back", func(t *testing.T) {
		fake := &fakeMigrate{}
		m := &Migrator{m: fake}

		require.NoError(t, m.Down())
		assert.Equal(t, 1, fake.downCalls)
	})

	t.Run("no change is not an error", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{downErr: migrate.ErrNoChange}}
		assert.NoError(t, m.Down())
	})
}

func TestMigratorVersion(t *testing.T) {
	t.Run("reports current version", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{version: 3, dirty: true}}

		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(3), version)
		assert.True(t, dirty)
	})

	t.Run("unmigrated database is version zero", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}

		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(0), version)
		assert.False(t, dirty)
	})

	t.Run("propagates failure", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: errors.New("connection refused")}}

		_, _, err := m.Version()
		assert.Error(t, err)
	})
}

func TestMigratorClose(t *testing.T) {
	t.Run("clean close", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{}}
		assert.NoError(t, m.Close())
	})

	t.Run("source error surfaces", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{sourceErr: errors.New("source closed")}}
		assert.Error(t, m.Close())
	})

	t.Run("database error surfaces", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{dbErr: errors.New("db closed")}}
		assert.Error(t, m.Close())
	})
}
