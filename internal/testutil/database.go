// Package testutil builds throwaway databases for package tests.
package testutil

import (
	"fmt"
	"testing"
	"utility-billing-backend/config"
	"utility-billing-backend/seeds"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with every model migrated.
// The pool is capped at one connection, so concurrent transactions queue up the way
// row locks make them queue on Postgres.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.MigrateDatabase(db))
	require.NoError(t, config.CreateProvisionedCustomerIndex(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// NewSeededTestDB is NewTestDB plus the reference data provisioning depends on.
func NewSeededTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := NewTestDB(t)
	require.NoError(t, seeds.SeedBillingReferenceData(db))
	return db
}
