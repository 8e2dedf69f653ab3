package db

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// retryPolicy restarts a write that lost a lock race with another process on
// the same file, typically `chatroom serve` against a CLI `send` or `seed`.
// busy_timeout already makes SQLite wait inside a statement; what reaches
// here is SQLITE_BUSY after that wait, or SQLITE_BUSY_SNAPSHOT from a
// deferred transaction whose read snapshot went stale. Neither succeeds by
// waiting longer, only by running the whole unit again.
type retryPolicy struct {
	attempts int
	base     time.Duration
	max      time.Duration
}

var writeRetry = retryPolicy{
	attempts: 5,
	base:     10 * time.Millisecond,
	max:      250 * time.Millisecond,
}

// delay is capped exponential backoff with up to 50% jitter, so two writers
// that collided do not retry in lockstep.
func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.base << (attempt - 1)
	if d <= 0 || d > p.max {
		d = p.max
	}
	return d + time.Duration(rand.Int63n(int64(d/2+1)))
}

func (p retryPolicy) run(ctx context.Context, fn func() error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil || !isContention(err) || attempt >= p.attempts {
			return err
		}
		wait := p.delay(attempt)
		// A request deadline that cannot cover the wait gets the lock error,
		// not a less useful deadline error.
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			return err
		}
		if err := sleepWithContext(ctx, wait); err != nil {
			return err
		}
	}
}

// WriteTx runs fn in a transaction and restarts it on lock contention. fn
// may run more than once and must not keep state across attempts.
func (db *DB) WriteTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return writeRetry.run(ctx, func() error {
		return db.Transaction(ctx, fn)
	})
}

// execWithRetry is the single-statement form used by the repositories.
func (db *DB) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := writeRetry.run(ctx, func() error {
		var execErr error
		result, execErr = db.ExecContext(ctx, query, args...)
		return execErr
	})
	return result, err
}

// isContention matches SQLITE_BUSY and SQLITE_LOCKED with any extended code.
// Errors that lost the driver type (formatted with %v by a caller) are
// matched by SQLite's message text.
func isContention(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "database is locked") ||
		strings.Contains(message, "database table is locked")
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
