// Package sqlclient implements the engine's SQL client and transaction
// coordinator: placeholder translation, nested transaction scopes backed
// by gorm's savepoint support, and deadlock retry at the outermost scope.
package sqlclient

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/forbearing/docdb/types/errs"
	"gorm.io/gorm"
)

// Client wraps a *gorm.DB connection (or an active transaction handle)
// with the engine's query/quote/transaction contract. depth is the nesting
// level of the transaction scope this handle belongs to: 0 outside any
// transaction, 1 inside the outermost BEGIN, 2+ inside savepoints.
type Client struct {
	db    *gorm.DB
	depth int
}

// New wraps an established gorm connection.
func New(db *gorm.DB) *Client { return &Client{db: db} }

// Query runs text (with `?` placeholders, translated to the dialect's
// positional form) against params and returns the resulting rows.
func (c *Client) Query(ctx context.Context, text string, params ...any) (*sql.Rows, error) {
	rows, err := c.db.WithContext(ctx).Raw(translatePlaceholders(text), params...).Rows()
	if err != nil {
		return nil, errs.Database(err, "query")
	}
	return rows, nil
}

// Exec runs text (with `?` placeholders) for its side effects, returning
// the number of rows affected. Used by the adapter for DDL and row-level
// CRUD statements that don't return result sets.
func (c *Client) Exec(ctx context.Context, text string, params ...any) (int64, error) {
	tx := c.db.WithContext(ctx).Exec(translatePlaceholders(text), params...)
	if tx.Error != nil {
		return 0, errs.Database(tx.Error, "exec")
	}
	return tx.RowsAffected, nil
}

// Ping verifies the underlying connection is reachable.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return errs.Database(err, "ping: acquire *sql.DB")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errs.Database(err, "ping")
	}
	return nil
}

// Quote renders literal as a safely quoted SQL string literal.
func (c *Client) Quote(literal string) string {
	return "'" + strings.ReplaceAll(literal, "'", "''") + "'"
}

// Disconnect closes the underlying connection pool. It fails while a
// transaction scope is active on this handle.
func (c *Client) Disconnect() error {
	if c.depth > 0 {
		return errs.Transaction("disconnect while a transaction is active")
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return errs.Database(err, "disconnect: acquire *sql.DB")
	}
	if err := sqlDB.Close(); err != nil {
		return errs.Database(err, "disconnect")
	}
	return nil
}

// translatePlaceholders rewrites the engine's `?` placeholders into the
// dialect's `$1, $2, …` positional form.
func translatePlaceholders(text string) string {
	var b strings.Builder
	n := 0
	for _, r := range text {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
