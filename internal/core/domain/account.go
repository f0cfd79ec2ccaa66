package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType tags the product kind of an account.
type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeChecking AccountType = "checking"
)

// AccountStatus is the transactability state of an account.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	// AccountStatusFrozen blocks every debit. Credits remain allowed so that
	// inbound funds are never bounced by a security hold.
	AccountStatusFrozen AccountStatus = "frozen"
)

// Account is a user-owned balance record. The balance is mutated only by the
// movement engine, under a held row lock, as part of a balanced ledger write.
type Account struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	AccountNumber string          `json:"account_number"`
	Type          AccountType     `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
	Status        AccountStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsFrozen reports whether debits are blocked by a security hold.
func (a *Account) IsFrozen() bool {
	return a.Status == AccountStatusFrozen
}

// HasFunds reports whether the balance covers a debit of amount.
func (a *Account) HasFunds(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// ValidAccountType reports whether s is a recognised account type tag.
func ValidAccountType(s string) bool {
	switch AccountType(s) {
	case AccountTypeSavings, AccountTypeChecking:
		return true
	}
	return false
}
