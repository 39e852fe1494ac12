package sqlclient

import (
	"context"
	"errors"
	"time"

	"github.com/forbearing/docdb/types/errs"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// deadlockCode is PostgreSQL's SQLSTATE for a detected deadlock.
const deadlockCode = "40P01"

// DefaultMaxRetries is the transaction coordinator's default retry budget
// for outermost-scope deadlocks.
const DefaultMaxRetries = 3

// Transaction runs body inside a transaction scope. The outermost call
// issues BEGIN/COMMIT/ROLLBACK; a call nested within an already-active
// transaction (the body's tx handle carries its scope depth) delegates to
// gorm's own savepoint handling, issuing SAVEPOINT/ROLLBACK TO SAVEPOINT
// instead. Only the outermost scope retries on a detected deadlock, with
// linear backoff (50ms * attempt) up to maxRetries; a deadlock surfacing
// from a nested scope propagates to the caller untouched, so the outermost
// scope is the one that replays the whole transaction.
func (c *Client) Transaction(ctx context.Context, body func(tx *Client) error, maxRetries int) error {
	run := func() error {
		return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return body(&Client{db: tx, depth: c.depth + 1})
		})
	}

	if c.depth > 0 {
		return run()
	}

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = run()
		if err == nil || !isDeadlock(err) {
			return err
		}
		time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
	}
	return errs.Transaction("deadlock persisted after %d retries: %v", maxRetries, err)
}

func isDeadlock(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == deadlockCode
}
