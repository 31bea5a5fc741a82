//go:build integration

package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/erp/billing/internal/infrastructure/migration"
	"github.com/erp/billing/internal/infrastructure/persistence"
	"github.com/erp/billing/migrations"
)

// PostgresDB is a migrated PostgreSQL container
type PostgresDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	DSN   string
	t     *testing.T
}

// NewPostgresDB starts a PostgreSQL container and applies the migrations.
// The container is terminated when the test ends.
func NewPostgresDB(t *testing.T) *PostgresDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("billing_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	pg := &PostgresDB{DSN: dsn, t: t}
	pg.DB, pg.SqlDB = pg.Connect()
	runMigrations(t, pg.SqlDB)
	return pg
}

// Connect opens an additional connection pool to the same database
func (p *PostgresDB) Connect() (*gorm.DB, *sql.DB) {
	p.t.Helper()

	gl := logger.Discard
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gl = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(gormpostgres.Open(p.DSN), persistence.GormConfig(gl))
	require.NoError(p.t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(p.t, err, "Failed to get underlying SQL DB")
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	p.t.Cleanup(func() { _ = sqlDB.Close() })

	return db, sqlDB
}

func runMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	m, err := migration.New(sqlDB, migrations.FS, nil)
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")
}
