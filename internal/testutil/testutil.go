// Package testutil provides common test utilities for the billing service.
// It sets up throwaway databases and event recorders.
package testutil

import (
	"testing"
	"time"

	"github.com/erp/billing/internal/infrastructure/persistence"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewTestDB opens a migrated in-memory SQLite database that lives until the test ends.
// A single connection is kept so every query sees the same database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), persistence.GormConfig(logger.Discard))
	require.NoError(t, err, "Failed to open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate")
	return db
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
