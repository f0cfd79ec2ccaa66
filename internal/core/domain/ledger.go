package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry. The kind encodes the direction of the
// balance effect; amounts are stored as positive magnitudes.
type EntryKind string

const (
	EntryKindDeposit  EntryKind = "deposit"
	EntryKindWithdraw EntryKind = "withdraw"
	EntryKindTransfer EntryKind = "transfer"
)

// LedgerEntry is an immutable record of one balance-affecting event.
// A transfer writes two entries: a transfer-kind debit on the source account
// and a deposit-kind credit on the destination, equal in magnitude and
// cross-referencing each other's account. Deposits and withdrawals write one.
type LedgerEntry struct {
	ID                    uuid.UUID       `json:"id"`
	UserID                uuid.UUID       `json:"user_id"`
	AccountID             uuid.UUID       `json:"account_id"`
	Kind                  EntryKind       `json:"kind"`
	Amount                decimal.Decimal `json:"amount"`
	CounterpartyUserID    *uuid.UUID      `json:"counterparty_user_id,omitempty"`
	CounterpartyAccountID *uuid.UUID      `json:"counterparty_account_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

// SignedEffect is the entry's contribution to its account's balance:
// positive for credits, negative for debits.
func (e *LedgerEntry) SignedEffect() decimal.Decimal {
	if e.Kind == EntryKindDeposit {
		return e.Amount
	}
	return e.Amount.Neg()
}

// ValidAmount reports whether d is a well-formed money amount for a movement
// request: strictly positive, at most 2 decimal places. Checked before any
// lock is taken.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Exponent() >= -2
}
