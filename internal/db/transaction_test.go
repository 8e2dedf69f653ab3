package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, database.Migrate(context.Background()))
	return database
}

var fastRetry = retryPolicy{attempts: 3, base: time.Millisecond, max: 4 * time.Millisecond}

func TestRetryRestartsOnLockedMessage(t *testing.T) {
	attempts := 0
	err := fastRetry.run(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestRetryStopsOnOtherErrors(t *testing.T) {
	attempts := 0
	err := fastRetry.run(context.Background(), func() error {
		attempts++
		return errors.New("constraint failed: UNIQUE constraint failed: rooms.id")
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestRetryGivesUpAfterAttempts(t *testing.T) {
	attempts := 0
	err := fastRetry.run(context.Background(), func() error {
		attempts++
		return errors.New("database table is locked")
	})
	require.ErrorContains(t, err, "locked")
	require.Equal(t, 3, attempts)
}

func TestRetryReturnsLockErrorWhenDeadlineTooShort(t *testing.T) {
	slow := retryPolicy{attempts: 5, base: time.Second, max: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	attempts := 0
	err := slow.run(ctx, func() error {
		attempts++
		return errors.New("database is locked")
	})
	require.ErrorContains(t, err, "database is locked")
	require.Equal(t, 1, attempts)
}

func TestRetryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := fastRetry.run(ctx, func() error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestRetryDelayIsCappedWithJitter(t *testing.T) {
	p := retryPolicy{attempts: 10, base: 10 * time.Millisecond, max: 40 * time.Millisecond}
	for attempt := 1; attempt <= 8; attempt++ {
		d := p.delay(attempt)
		require.GreaterOrEqual(t, d, min(p.base<<(attempt-1), p.max))
		require.LessOrEqual(t, d, p.max+p.max/2)
	}
}

func TestIsContention(t *testing.T) {
	require.False(t, isContention(nil))
	require.False(t, isContention(context.DeadlineExceeded))
	require.False(t, isContention(errors.New("no such table: rooms")))
	require.True(t, isContention(errors.New("database is locked")))
}

// Two handles on one file stand in for the daemon and a CLI writer.
func TestExecRetriesWhileAnotherWriterHoldsTheLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatroom.db")
	holder, err := Open(Config{Path: path, BusyTimeoutMs: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = holder.Close() })
	writer, err := Open(Config{Path: path, BusyTimeoutMs: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	ctx := context.Background()
	_, err = holder.ExecContext(ctx, `CREATE TABLE notes (body TEXT)`)
	require.NoError(t, err)

	tx, err := holder.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, `INSERT INTO notes (body) VALUES ('daemon')`)
	require.NoError(t, err)

	_, err = writer.ExecContext(ctx, `INSERT INTO notes (body) VALUES ('blocked')`)
	require.True(t, isContention(err), "want a lock error, got %v", err)

	released := make(chan error, 1)
	go func() {
		time.Sleep(20 * time.Millisecond)
		released <- tx.Commit()
	}()
	_, err = writer.execWithRetry(ctx, `INSERT INTO notes (body) VALUES ('cli')`)
	require.NoError(t, err)
	require.NoError(t, <-released)

	var count int
	require.NoError(t, writer.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&count))
	require.Equal(t, 2, count)
}

func TestWriteTxRestartsWholeTransaction(t *testing.T) {
	database := setupTestDB(t)
	attempts := 0

	err := database.WriteTx(context.Background(), func(tx *sql.Tx) error {
		attempts++
		if attempts < 2 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
}

func TestMigrateIsIdempotent(t *testing.T) {
	database := setupTestDB(t)
	require.NoError(t, database.Migrate(context.Background()))

	version, err := database.schemaVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, SchemaVersion, version)
}
