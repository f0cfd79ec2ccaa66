package ports

import (
	"context"
	"time"

	"core-banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetForUpdate takes the user's row lock. Must run inside tx. The limit
	// policy locks the user before summing the spending window, so two units
	// moving the same user's money serialize on the ceiling check even when
	// they touch disjoint accounts.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.User, error)
}

// AccountRepository defines persistence operations for accounts.
// Methods accepting pgx.Tx run inside a unit of work and rely on row-level
// locking; the movement engine calls GetForUpdate in sorted id order when a
// unit touches more than one account.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	// GetByIDForUser returns nil when the account does not exist OR belongs
	// to another user; callers cannot tell the two apart.
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Account, error)
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	// GetPrimaryForUser returns the user's oldest account, the target of
	// email-addressed transfers.
	GetPrimaryForUser(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
	// GetForUpdate takes the account's row lock. Must run inside tx.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error)
	// UpdateBalance rewrites the balance. Must run inside tx while the
	// caller holds the row lock from GetForUpdate.
	UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error
}

// LedgerRepository defines persistence for the append-only ledger log.
type LedgerRepository interface {
	// Append inserts one immutable entry within the same unit of work as the
	// balance mutation it describes. Entries are never updated or deleted.
	Append(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
	// SumTransfersSince aggregates transfer-kind magnitudes for a user from
	// since onward, read through the open unit of work so concurrent
	// uncommitted movements stay invisible.
	SumTransfersSince(ctx context.Context, tx pgx.Tx, userID uuid.UUID, since time.Time) (decimal.Decimal, error)
	// ListForAccount returns up to limit entries, newest first. Lock-free.
	ListForAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.LedgerEntry, error)
	// ListForUser returns entries newest first, optionally bounded by a
	// [from, to] creation-time range. Lock-free.
	ListForUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]domain.LedgerEntry, error)
}

// BeneficiaryRepository defines persistence for registered external payees.
type BeneficiaryRepository interface {
	Create(ctx context.Context, b *domain.Beneficiary) error
	// GetByIDForUser returns nil when absent or owned by another user.
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Beneficiary, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error)
}

// DBTransactor provides database transaction management. Implementations
// bound the lock wait so a unit that cannot acquire its row locks aborts
// cleanly with a retryable error.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
