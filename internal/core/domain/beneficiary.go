package domain

import (
	"time"

	"github.com/google/uuid"
)

// Beneficiary is a pre-registered external payee, identified by an account
// number outside this system. It is not an Account: transfers to it cross the
// system boundary and book no in-system credit entry.
type Beneficiary struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	AccountNumber string    `json:"account_number"`
	Nickname      string    `json:"nickname"`
	CreatedAt     time.Time `json:"created_at"`
}
