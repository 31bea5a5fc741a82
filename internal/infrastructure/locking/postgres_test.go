package locking

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockRows(ok bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(ok)
}

func TestPostgresAdvisoryLocker_AcquireAndRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	key := "billing:seq:invoice-year:2026"
	mock.ExpectQuery(regexp.QuoteMeta(tryAdvisoryLock)).WithArgs(key).WillReturnRows(lockRows(true))
	mock.ExpectQuery(regexp.QuoteMeta(advisoryUnlock)).WithArgs(key).
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	l := NewPostgresAdvisoryLocker(db)
	lock, err := l.Acquire(context.Background(), key, time.Second)
	require.NoError(t, err)
	require.NoError(t, lock.Release(context.Background()))
	require.NoError(t, lock.Release(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdvisoryLocker_PollsUntilFree(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	key := "billing:seq:offer:2026-10-15"
	mock.ExpectQuery(regexp.QuoteMeta(tryAdvisoryLock)).WithArgs(key).WillReturnRows(lockRows(false))
	mock.ExpectQuery(regexp.QuoteMeta(tryAdvisoryLock)).WithArgs(key).WillReturnRows(lockRows(true))
	mock.ExpectQuery(regexp.QuoteMeta(advisoryUnlock)).WithArgs(key).
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	l := NewPostgresAdvisoryLocker(db).WithPollInterval(5 * time.Millisecond)
	lock, err := l.Acquire(context.Background(), key, time.Second)
	require.NoError(t, err)
	require.NoError(t, lock.Release(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdvisoryLocker_Unavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	key := "billing:seq:offer:2026-10-15"
	mock.ExpectQuery(regexp.QuoteMeta(tryAdvisoryLock)).WithArgs(key).WillReturnRows(lockRows(false))

	l := NewPostgresAdvisoryLocker(db)
	_, err = l.Acquire(context.Background(), key, 0)
	assert.ErrorIs(t, err, shared.ErrLockUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdvisoryLocker_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(tryAdvisoryLock)).WillReturnError(errors.New("connection reset"))

	_, err = NewPostgresAdvisoryLocker(db).Acquire(context.Background(), "k", time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrLockUnavailable)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresAdvisoryLocker_UnlockNotHeld(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(tryAdvisoryLock)).WithArgs("k").WillReturnRows(lockRows(true))
	mock.ExpectQuery(regexp.QuoteMeta(advisoryUnlock)).WithArgs("k").
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(false))

	lock, err := NewPostgresAdvisoryLocker(db).Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	err = lock.Release(context.Background())
	assert.ErrorContains(t, err, "not held")
}

func TestPostgresAdvisoryLocker_PoolExhausted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	mock.ExpectQuery(regexp.QuoteMeta(tryAdvisoryLock)).WithArgs("offer").WillReturnRows(lockRows(true))
	mock.ExpectQuery(regexp.QuoteMeta(advisoryUnlock)).WithArgs("offer").
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	l := NewPostgresAdvisoryLocker(db).WithPollInterval(5 * time.Millisecond)
	held, err := l.Acquire(context.Background(), "offer", time.Second)
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), "invoice", 20*time.Millisecond)
	assert.ErrorIs(t, err, shared.ErrLockUnavailable)
	assert.ErrorContains(t, err, "lock pool exhausted")

	require.NoError(t, held.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenPostgresPool(t *testing.T) {
	db, err := OpenPostgresPool("postgres://billing@localhost:5432/billing?sslmode=disable", 0)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, DefaultPoolSize, db.Stats().MaxOpenConnections)
}
