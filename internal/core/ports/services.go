package ports

import (
	"context"
	"time"

	"core-banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// --- Funds-movement engine ---

// MovementService is the funds-movement engine. Every operation is one
// atomic unit of work: validate, lock, limit-check, mutate, log, commit.
// A failure at any stage rolls back everything; no partial balance change
// and no orphan ledger entry are ever visible.
type MovementService interface {
	Deposit(ctx context.Context, req DepositRequest) (*MovementResult, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*MovementResult, error)
	TransferInternal(ctx context.Context, req InternalTransferRequest) (*MovementResult, error)
	TransferExternal(ctx context.Context, req ExternalTransferRequest) (*MovementResult, error)
	TransferByEmail(ctx context.Context, req EmailTransferRequest) (*MovementResult, error)
}

// DepositRequest credits an account owned by UserID.
type DepositRequest struct {
	UserID    uuid.UUID
	AccountID uuid.UUID
	Amount    decimal.Decimal
}

// WithdrawRequest debits an account owned by UserID.
type WithdrawRequest struct {
	UserID    uuid.UUID
	AccountID uuid.UUID
	Amount    decimal.Decimal
}

// InternalTransferRequest moves funds between two accounts of the same user.
type InternalTransferRequest struct {
	UserID        uuid.UUID
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
}

// ExternalTransferRequest moves funds to a registered beneficiary outside the
// system. AuthorizationCode is the single-use capability issued beforehand.
type ExternalTransferRequest struct {
	UserID            uuid.UUID
	FromAccountID     uuid.UUID
	BeneficiaryID     uuid.UUID
	Amount            decimal.Decimal
	AuthorizationCode string
}

// EmailTransferRequest moves funds between the primary accounts of two
// different users, the recipient resolved by email.
type EmailTransferRequest struct {
	UserID         uuid.UUID
	RecipientEmail string
	Amount         decimal.Decimal
}

// MovementResult reports the committed outcome of a movement operation.
// Entry is the caller-side ledger entry; NewBalance the caller-side account
// balance after commit.
type MovementResult struct {
	Entry      *domain.LedgerEntry
	NewBalance decimal.Decimal
}

// --- Limit policy ---

// LimitPolicy enforces the rolling 24-hour transfer ceiling. Check must be
// called after the unit's row locks are held and before any balance
// mutation, through the unit's own transaction.
type LimitPolicy interface {
	Check(ctx context.Context, tx pgx.Tx, userID uuid.UUID, proposed decimal.Decimal) error
}

// --- Authorization capability (OTP stand-in) ---

// AuthCodeStore issues and consumes single-use external-transfer
// authorization codes. Issue hands the code to the delivery collaborator;
// Consume is atomic, so a code verifies at most once.
type AuthCodeStore interface {
	Issue(ctx context.Context, userID uuid.UUID) (code string, expiresAt time.Time, err error)
	Consume(ctx context.Context, userID uuid.UUID, code string) (bool, error)
}

// --- Identity ---

// TokenService mints and validates the identity tokens the authentication
// collaborator hands to every engine call.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (uuid.UUID, error)
}

// --- Account management ---

// AccountService covers registration and account lifecycle outside the
// movement path.
type AccountService interface {
	// Register creates a user with one default checking account and returns
	// the identity token for subsequent calls.
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Open(ctx context.Context, userID uuid.UUID, accountType domain.AccountType) (*domain.Account, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	Get(ctx context.Context, userID, accountID uuid.UUID) (*domain.Account, error)
}

// RegisterRequest holds validated input for user registration.
type RegisterRequest struct {
	Name  string
	Email string
}

// RegisterResponse is the registration result.
type RegisterResponse struct {
	User    *domain.User
	Account *domain.Account
	Token   string
	Expiry  time.Time
}

// --- Beneficiaries ---

// BeneficiaryService manages the per-user directory of external payees.
type BeneficiaryService interface {
	Add(ctx context.Context, userID uuid.UUID, accountNumber, nickname string) (*domain.Beneficiary, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error)
}

// --- History ---

// HistoryService exposes ordered ledger reads for presentation. These reads
// take no locks and may observe a slightly stale snapshot.
type HistoryService interface {
	ForAccount(ctx context.Context, userID, accountID uuid.UUID, limit int) ([]domain.LedgerEntry, error)
	ForUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]domain.LedgerEntry, error)
}
