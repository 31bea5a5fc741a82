package locking

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DefaultPoolSize is the connection cap of the advisory lock pool
const DefaultPoolSize = 4

// OpenPostgresPool opens the pool that PostgresAdvisoryLocker pins its
// connections from. At most size locks are held at once; further Acquire
// calls wait for a free connection.
func OpenPostgresPool(dsn string, size int) (*sql.DB, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open lock pool: %w", err)
	}
	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(size)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}
