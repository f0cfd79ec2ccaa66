package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"core-banking-ledger/internal/core/domain"
	"core-banking-ledger/internal/core/ports"
	"core-banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// pgLockNotAvailable is raised when lock_timeout expires before a row lock
// is granted. Nothing has been committed at that point, so the caller may
// safely retry.
const pgLockNotAvailable = "55P03"

// MovementServiceImpl implements ports.MovementService. Every operation runs
// as one database transaction: row locks are taken in sorted account-id
// order, the limit policy is consulted under those locks, balances and
// ledger entries are written together, and the deferred rollback undoes
// everything unless commit is reached.
type MovementServiceImpl struct {
	accountRepo ports.AccountRepository
	ledgerRepo  ports.LedgerRepository
	benefRepo   ports.BeneficiaryRepository
	userRepo    ports.UserRepository
	limits      ports.LimitPolicy
	authCodes   ports.AuthCodeStore
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewMovementService creates a new MovementServiceImpl.
func NewMovementService(
	accountRepo ports.AccountRepository,
	ledgerRepo ports.LedgerRepository,
	benefRepo ports.BeneficiaryRepository,
	userRepo ports.UserRepository,
	limits ports.LimitPolicy,
	authCodes ports.AuthCodeStore,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *MovementServiceImpl {
	return &MovementServiceImpl{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		benefRepo:   benefRepo,
		userRepo:    userRepo,
		limits:      limits,
		authCodes:   authCodes,
		transactor:  transactor,
		log:         log,
	}
}

// Deposit credits an account. Inbound funds are not limit-checked and a
// frozen account may still receive them.
func (s *MovementServiceImpl) Deposit(ctx context.Context, req ports.DepositRequest) (*ports.MovementResult, error) {
	if !domain.ValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	acct, err := s.lockOwnedAccount(ctx, dbTx, req.AccountID, req.UserID)
	if err != nil {
		return nil, err
	}

	newBalance := acct.Balance.Add(req.Amount)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, acct.ID, newBalance); err != nil {
		return nil, storageErr("update balance", err)
	}

	entry := &domain.LedgerEntry{
		ID:        uuid.New(),
		UserID:    req.UserID,
		AccountID: acct.ID,
		Kind:      domain.EntryKindDeposit,
		Amount:    req.Amount,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ledgerRepo.Append(ctx, dbTx, entry); err != nil {
		return nil, storageErr("append ledger entry", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storageErr("commit tx", err)
	}

	s.log.Info().
		Str("entry_id", entry.ID.String()).
		Str("account_id", acct.ID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("deposit committed")

	return &ports.MovementResult{Entry: entry, NewBalance: newBalance}, nil
}

// Withdraw debits an account after frozen and funds checks.
func (s *MovementServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawRequest) (*ports.MovementResult, error) {
	if !domain.ValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	acct, err := s.lockOwnedAccount(ctx, dbTx, req.AccountID, req.UserID)
	if err != nil {
		return nil, err
	}

	if acct.IsFrozen() {
		return nil, apperror.ErrAccountFrozen()
	}
	if !acct.HasFunds(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	newBalance := acct.Balance.Sub(req.Amount)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, acct.ID, newBalance); err != nil {
		return nil, storageErr("update balance", err)
	}

	entry := &domain.LedgerEntry{
		ID:        uuid.New(),
		UserID:    req.UserID,
		AccountID: acct.ID,
		Kind:      domain.EntryKindWithdraw,
		Amount:    req.Amount,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ledgerRepo.Append(ctx, dbTx, entry); err != nil {
		return nil, storageErr("append ledger entry", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storageErr("commit tx", err)
	}

	s.log.Info().
		Str("entry_id", entry.ID.String()).
		Str("account_id", acct.ID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("withdrawal committed")

	return &ports.MovementResult{Entry: entry, NewBalance: newBalance}, nil
}

// TransferInternal moves funds between two accounts of the same user.
func (s *MovementServiceImpl) TransferInternal(ctx context.Context, req ports.InternalTransferRequest) (*ports.MovementResult, error) {
	if !domain.ValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	// Rejected before any lock is taken.
	if req.FromAccountID == req.ToAccountID {
		return nil, apperror.ErrSelfTransfer()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	accts, err := s.lockAccounts(ctx, dbTx, req.FromAccountID, req.ToAccountID)
	if err != nil {
		return nil, err
	}
	src, dst := accts[req.FromAccountID], accts[req.ToAccountID]
	if src.UserID != req.UserID || dst.UserID != req.UserID {
		return nil, apperror.ErrAccountNotFound()
	}

	if err := s.limits.Check(ctx, dbTx, req.UserID, req.Amount); err != nil {
		return nil, err
	}
	if src.IsFrozen() {
		return nil, apperror.ErrAccountFrozen()
	}
	if !src.HasFunds(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	srcBalance := src.Balance.Sub(req.Amount)
	dstBalance := dst.Balance.Add(req.Amount)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, src.ID, srcBalance); err != nil {
		return nil, storageErr("update source balance", err)
	}
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, dst.ID, dstBalance); err != nil {
		return nil, storageErr("update destination balance", err)
	}

	debit, credit := pairedEntries(req.UserID, src.ID, req.UserID, dst.ID, req.Amount)
	if err := s.ledgerRepo.Append(ctx, dbTx, debit); err != nil {
		return nil, storageErr("append debit entry", err)
	}
	if err := s.ledgerRepo.Append(ctx, dbTx, credit); err != nil {
		return nil, storageErr("append credit entry", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storageErr("commit tx", err)
	}

	s.log.Info().
		Str("entry_id", debit.ID.String()).
		Str("from_account", src.ID.String()).
		Str("to_account", dst.ID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("internal transfer committed")

	return &ports.MovementResult{Entry: debit, NewBalance: srcBalance}, nil
}

// TransferExternal moves funds to a registered beneficiary. The counterparty
// is outside the system, so only the debit-side entry is booked: the credit
// happens on the external network across the system boundary.
func (s *MovementServiceImpl) TransferExternal(ctx context.Context, req ports.ExternalTransferRequest) (*ports.MovementResult, error) {
	if !domain.ValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}

	ok, err := s.authCodes.Consume(ctx, req.UserID, req.AuthorizationCode)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("consume auth code: %w", err))
	}
	if !ok {
		return nil, apperror.ErrAuthorizationFailed()
	}

	benef, err := s.benefRepo.GetByIDForUser(ctx, req.BeneficiaryID, req.UserID)
	if err != nil {
		return nil, storageErr("get beneficiary", err)
	}
	if benef == nil {
		return nil, apperror.ErrNotFound("Beneficiary")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	src, err := s.lockOwnedAccount(ctx, dbTx, req.FromAccountID, req.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.limits.Check(ctx, dbTx, req.UserID, req.Amount); err != nil {
		return nil, err
	}
	if src.IsFrozen() {
		return nil, apperror.ErrAccountFrozen()
	}
	if !src.HasFunds(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	newBalance := src.Balance.Sub(req.Amount)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, src.ID, newBalance); err != nil {
		return nil, storageErr("update balance", err)
	}

	entry := &domain.LedgerEntry{
		ID:        uuid.New(),
		UserID:    req.UserID,
		AccountID: src.ID,
		Kind:      domain.EntryKindTransfer,
		Amount:    req.Amount,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ledgerRepo.Append(ctx, dbTx, entry); err != nil {
		return nil, storageErr("append ledger entry", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storageErr("commit tx", err)
	}

	s.log.Info().
		Str("entry_id", entry.ID.String()).
		Str("from_account", src.ID.String()).
		Str("beneficiary_id", benef.ID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("external transfer committed")

	return &ports.MovementResult{Entry: entry, NewBalance: newBalance}, nil
}

// TransferByEmail moves funds between the primary accounts of two different
// users, the recipient resolved by email.
func (s *MovementServiceImpl) TransferByEmail(ctx context.Context, req ports.EmailTransferRequest) (*ports.MovementResult, error) {
	if !domain.ValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}

	recipient, err := s.userRepo.GetByEmail(ctx, req.RecipientEmail)
	if err != nil {
		return nil, storageErr("resolve recipient", err)
	}
	if recipient == nil {
		return nil, apperror.ErrNotFound("Recipient")
	}
	if recipient.ID == req.UserID {
		return nil, apperror.ErrSelfTransfer()
	}

	srcRef, err := s.accountRepo.GetPrimaryForUser(ctx, req.UserID)
	if err != nil {
		return nil, storageErr("get sender account", err)
	}
	if srcRef == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	dstRef, err := s.accountRepo.GetPrimaryForUser(ctx, recipient.ID)
	if err != nil {
		return nil, storageErr("get recipient account", err)
	}
	if dstRef == nil {
		return nil, apperror.ErrNotFound("Recipient")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	accts, err := s.lockAccounts(ctx, dbTx, srcRef.ID, dstRef.ID)
	if err != nil {
		return nil, err
	}
	src, dst := accts[srcRef.ID], accts[dstRef.ID]
	if src.UserID != req.UserID {
		return nil, apperror.ErrAccountNotFound()
	}

	if err := s.limits.Check(ctx, dbTx, req.UserID, req.Amount); err != nil {
		return nil, err
	}
	if src.IsFrozen() {
		return nil, apperror.ErrAccountFrozen()
	}
	if !src.HasFunds(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	srcBalance := src.Balance.Sub(req.Amount)
	dstBalance := dst.Balance.Add(req.Amount)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, src.ID, srcBalance); err != nil {
		return nil, storageErr("update source balance", err)
	}
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, dst.ID, dstBalance); err != nil {
		return nil, storageErr("update destination balance", err)
	}

	debit, credit := pairedEntries(req.UserID, src.ID, recipient.ID, dst.ID, req.Amount)
	if err := s.ledgerRepo.Append(ctx, dbTx, debit); err != nil {
		return nil, storageErr("append debit entry", err)
	}
	if err := s.ledgerRepo.Append(ctx, dbTx, credit); err != nil {
		return nil, storageErr("append credit entry", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storageErr("commit tx", err)
	}

	s.log.Info().
		Str("entry_id", debit.ID.String()).
		Str("from_user", req.UserID.String()).
		Str("to_user", recipient.ID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("email transfer committed")

	return &ports.MovementResult{Entry: debit, NewBalance: srcBalance}, nil
}

// lockOwnedAccount takes the account's row lock and verifies ownership.
// A missing account and a foreign-owned account report identically.
func (s *MovementServiceImpl) lockOwnedAccount(ctx context.Context, tx pgx.Tx, accountID, userID uuid.UUID) (*domain.Account, error) {
	acct, err := s.accountRepo.GetForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, storageErr("lock account", err)
	}
	if acct == nil || acct.UserID != userID {
		return nil, apperror.ErrAccountNotFound()
	}
	return acct, nil
}

// lockAccounts takes row locks on every listed account in ascending id
// order. The fixed global order is what keeps two crossing transfers
// (A→B racing B→A) from deadlocking on each other's rows.
func (s *MovementServiceImpl) lockAccounts(ctx context.Context, tx pgx.Tx, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	slices.SortFunc(sorted, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	out := make(map[uuid.UUID]*domain.Account, len(sorted))
	for _, id := range sorted {
		acct, err := s.accountRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, storageErr("lock account", err)
		}
		if acct == nil {
			return nil, apperror.ErrAccountNotFound()
		}
		out[id] = acct
	}
	return out, nil
}

// pairedEntries builds the two halves of a transfer: a transfer-kind debit
// on the source and a deposit-kind credit on the destination, equal in
// magnitude and cross-referencing each other's account. The counterparty
// user is recorded only when the transfer crosses users.
func pairedEntries(fromUserID uuid.UUID, fromAccountID uuid.UUID, toUserID uuid.UUID, toAccountID uuid.UUID, amount decimal.Decimal) (*domain.LedgerEntry, *domain.LedgerEntry) {
	now := time.Now().UTC()

	debit := &domain.LedgerEntry{
		ID:                    uuid.New(),
		UserID:                fromUserID,
		AccountID:             fromAccountID,
		Kind:                  domain.EntryKindTransfer,
		Amount:                amount,
		CounterpartyAccountID: &toAccountID,
		CreatedAt:             now,
	}
	credit := &domain.LedgerEntry{
		ID:                    uuid.New(),
		UserID:                toUserID,
		AccountID:             toAccountID,
		Kind:                  domain.EntryKindDeposit,
		Amount:                amount,
		CounterpartyAccountID: &fromAccountID,
		CreatedAt:             now,
	}
	if fromUserID != toUserID {
		debit.CounterpartyUserID = &toUserID
		credit.CounterpartyUserID = &fromUserID
	}
	return debit, credit
}

// storageErr classifies a storage failure: a lock-wait expiry becomes the
// retryable SYS_002, everything else the generic SYS_001.
func storageErr(op string, err error) *apperror.AppError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return apperror.ErrLockTimeout(fmt.Errorf("%s: %w", op, err))
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}
