package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Transactor implements ports.DBTransactor using pgxpool.Pool. Every
// transaction it opens carries a lock_timeout, so a unit of work that
// cannot win its row locks fails with SQLSTATE 55P03 instead of queueing
// behind a long-running peer.
type Transactor struct {
	pool     Pool
	lockWait time.Duration
}

// NewTransactor creates a new Transactor wrapping the connection pool.
// lockWait bounds the row-lock wait; zero leaves the server default.
func NewTransactor(pool Pool, lockWait time.Duration) *Transactor {
	return &Transactor{pool: pool, lockWait: lockWait}
}

// Begin starts a new database transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if t.lockWait > 0 {
		// SET LOCAL scopes the timeout to this transaction only.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.lockWait.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("set lock_timeout: %w", err)
		}
	}
	return tx, nil
}
