package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User owns accounts and beneficiaries and carries the per-user transfer
// ceiling. Identity verification happens upstream; no credentials are stored.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	// DailyTransferLimit overrides the configured system default when set.
	DailyTransferLimit *decimal.Decimal `json:"daily_transfer_limit,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

// TransferCeiling resolves the user's effective rolling 24-hour ceiling.
func (u *User) TransferCeiling(systemDefault decimal.Decimal) decimal.Decimal {
	if u.DailyTransferLimit != nil {
		return *u.DailyTransferLimit
	}
	return systemDefault
}
