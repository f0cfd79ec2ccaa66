package postgres

import (
	"context"
	"fmt"
	"time"

	"core-banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerRepo implements ports.LedgerRepository. The ledger_entries table is
// append-only: this repo issues INSERTs and SELECTs, never UPDATE or DELETE.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

const ledgerColumns = `id, user_id, account_id, kind, amount, counterparty_user_id, counterparty_account_id, created_at`

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	e := &domain.LedgerEntry{}
	err := row.Scan(
		&e.ID, &e.UserID, &e.AccountID, &e.Kind, &e.Amount,
		&e.CounterpartyUserID, &e.CounterpartyAccountID, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Append inserts one immutable entry within the caller's transaction.
func (r *LedgerRepo) Append(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (id, user_id, account_id, kind, amount, counterparty_user_id, counterparty_account_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.UserID, e.AccountID, e.Kind, e.Amount,
		e.CounterpartyUserID, e.CounterpartyAccountID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// SumTransfersSince aggregates transfer-kind magnitudes for a user from
// since onward, read through the caller's transaction.
func (r *LedgerRepo) SumTransfersSince(ctx context.Context, tx pgx.Tx, userID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE user_id = $1 AND kind = $2 AND created_at >= $3`

	var sum decimal.Decimal
	err := tx.QueryRow(ctx, query, userID, domain.EntryKindTransfer, since).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transfers: %w", err)
	}
	return sum, nil
}

// ListForAccount fetches up to limit entries for an account, newest first.
func (r *LedgerRepo) ListForAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries
		WHERE account_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries for account: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListForUser fetches a user's entries newest first, optionally bounded by
// a [from, to] creation-time range.
func (r *LedgerRepo) ListForUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries
		WHERE user_id = $1
		AND ($2::timestamptz IS NULL OR created_at >= $2)
		AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list entries for user: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
