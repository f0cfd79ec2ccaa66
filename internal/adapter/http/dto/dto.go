package dto

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=100"`
	Email string `json:"email" binding:"required,email,max=254"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID  string          `json:"user_id"`
	Token   string          `json:"token"`
	Expiry  int64           `json:"expiry"` // Unix timestamp
	Account AccountResponse `json:"account"`
}

// OpenAccountRequest is the request body for opening an additional account.
type OpenAccountRequest struct {
	Type string `json:"type" binding:"required,oneof=savings checking"`
}

// AccountResponse is the response body for account queries.
type AccountResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	Type          string `json:"type"`
	Balance       string `json:"balance"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// DepositRequest is the request body for a deposit. Amounts travel as
// strings so fixed-point precision survives JSON.
type DepositRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid"`
	Amount    string `json:"amount" binding:"required,money"`
}

// WithdrawRequest is the request body for a withdrawal.
type WithdrawRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid"`
	Amount    string `json:"amount" binding:"required,money"`
}

// InternalTransferRequest is the request body for a transfer between two of
// the caller's own accounts.
type InternalTransferRequest struct {
	FromAccountID string `json:"from_account_id" binding:"required,uuid"`
	ToAccountID   string `json:"to_account_id" binding:"required,uuid"`
	Amount        string `json:"amount" binding:"required,money"`
}

// ExternalTransferRequest is the request body for a transfer to a
// registered beneficiary.
type ExternalTransferRequest struct {
	FromAccountID     string `json:"from_account_id" binding:"required,uuid"`
	BeneficiaryID     string `json:"beneficiary_id" binding:"required,uuid"`
	Amount            string `json:"amount" binding:"required,money"`
	AuthorizationCode string `json:"authorization_code" binding:"required,len=6,numeric"`
}

// EmailTransferRequest is the request body for an email-addressed transfer.
type EmailTransferRequest struct {
	RecipientEmail string `json:"recipient_email" binding:"required,email"`
	Amount         string `json:"amount" binding:"required,money"`
}

// AuthorizeTransferResponse delivers the single-use authorization code.
// A production deployment would hand the code to an out-of-band channel
// instead of the response body; see the demo_delivery config flag.
type AuthorizeTransferResponse struct {
	Code      string `json:"code,omitempty"`
	ExpiresAt int64  `json:"expires_at"` // Unix timestamp
}

// MovementResponse is the response body for a committed funds movement.
type MovementResponse struct {
	EntryID    string `json:"entry_id"`
	AccountID  string `json:"account_id"`
	Kind       string `json:"kind"`
	Amount     string `json:"amount"`
	NewBalance string `json:"new_balance"`
	CreatedAt  string `json:"created_at"`
}

// BeneficiaryRequest is the request body for registering an external payee.
type BeneficiaryRequest struct {
	AccountNumber string `json:"account_number" binding:"required,min=6,max=34,safe_id"`
	Nickname      string `json:"nickname" binding:"required,min=1,max=50"`
}

// BeneficiaryResponse is the response body for beneficiary queries.
type BeneficiaryResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	Nickname      string `json:"nickname"`
	CreatedAt     string `json:"created_at"`
}

// LedgerEntryResponse is the response body for ledger reads.
type LedgerEntryResponse struct {
	ID                    string  `json:"id"`
	AccountID             string  `json:"account_id"`
	Kind                  string  `json:"kind"`
	Amount                string  `json:"amount"`
	SignedAmount          string  `json:"signed_amount"`
	CounterpartyUserID    *string `json:"counterparty_user_id,omitempty"`
	CounterpartyAccountID *string `json:"counterparty_account_id,omitempty"`
	CreatedAt             string  `json:"created_at"`
}
