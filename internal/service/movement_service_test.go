package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"core-banking-ledger/internal/core/domain"
	"core-banking-ledger/internal/core/ports"
	"core-banking-ledger/internal/core/ports/mocks"
	"core-banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type movementTestDeps struct {
	svc         *MovementServiceImpl
	accountRepo *mocks.MockAccountRepository
	ledgerRepo  *mocks.MockLedgerRepository
	benefRepo   *mocks.MockBeneficiaryRepository
	userRepo    *mocks.MockUserRepository
	limits      *mocks.MockLimitPolicy
	authCodes   *mocks.MockAuthCodeStore
	transactor  *mocks.MockDBTransactor
	ctrl        *gomock.Controller
}

func setupMovementService(t *testing.T) *movementTestDeps {
	ctrl := gomock.NewController(t)
	d := &movementTestDeps{
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		ledgerRepo:  mocks.NewMockLedgerRepository(ctrl),
		benefRepo:   mocks.NewMockBeneficiaryRepository(ctrl),
		userRepo:    mocks.NewMockUserRepository(ctrl),
		limits:      mocks.NewMockLimitPolicy(ctrl),
		authCodes:   mocks.NewMockAuthCodeStore(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewMovementService(
		d.accountRepo, d.ledgerRepo, d.benefRepo, d.userRepo,
		d.limits, d.authCodes, d.transactor, zerolog.Nop(),
	)
	return d
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// decEq matches a decimal.Decimal by numeric value rather than
// representation.
type decEq struct{ want decimal.Decimal }

func (m decEq) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}
func (m decEq) String() string { return "decimal == " + m.want.String() }

func activeAccount(id, userID uuid.UUID, balance string) *domain.Account {
	return &domain.Account{
		ID:            id,
		UserID:        userID,
		AccountNumber: "100000000001",
		Type:          domain.AccountTypeChecking,
		Balance:       dec(balance),
		Status:        domain.AccountStatusActive,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}

// ==================== Deposit Tests ====================

func TestMovementService_Deposit_Success(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, accountID).
		Return(activeAccount(accountID, userID, "100.00"), nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, accountID, decEq{dec("150.00")}).Return(nil)

	var appended *domain.LedgerEntry
	d.ledgerRepo.EXPECT().Append(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, e *domain.LedgerEntry) error {
			appended = e
			return nil
		})

	result, err := d.svc.Deposit(ctx, ports.DepositRequest{
		UserID:    userID,
		AccountID: accountID,
		Amount:    dec("50.00"),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.NewBalance.Equal(dec("150.00")))

	require.NotNil(t, appended)
	assert.Equal(t, domain.EntryKindDeposit, appended.Kind)
	assert.Equal(t, accountID, appended.AccountID)
	assert.True(t, appended.Amount.Equal(dec("50.00")))
	assert.Nil(t, appended.CounterpartyAccountID)
}

func TestMovementService_Deposit_InvalidAmount(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	for _, amount := range []string{"0", "-5.00", "1.001"} {
		result, err := d.svc.Deposit(context.Background(), ports.DepositRequest{
			UserID:    uuid.New(),
			AccountID: uuid.New(),
			Amount:    dec(amount),
		})
		assert.Nil(t, result, "amount %s", amount)
		assertAppError(t, err, "VAL_001")
	}
}

func TestMovementService_Deposit_ForeignAccount(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	// Account exists but belongs to someone else.
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, accountID).
		Return(activeAccount(accountID, uuid.New(), "100.00"), nil)

	result, err := d.svc.Deposit(ctx, ports.DepositRequest{
		UserID:    uuid.New(),
		AccountID: accountID,
		Amount:    dec("50.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, "ACC_001")
}

func TestMovementService_Deposit_FrozenAccountStillCredits(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	tx := &mockTx{}

	frozen := activeAccount(accountID, userID, "10.00")
	frozen.Status = domain.AccountStatusFrozen

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, accountID).Return(frozen, nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, accountID, decEq{dec("35.00")}).Return(nil)
	d.ledgerRepo.EXPECT().Append(ctx, tx, gomock.Any()).Return(nil)

	result, err := d.svc.Deposit(ctx, ports.DepositRequest{
		UserID:    userID,
		AccountID: accountID,
		Amount:    dec("25.00"),
	})
	require.NoError(t, err)
	assert.True(t, result.NewBalance.Equal(dec("35.00")))
}

// ==================== Withdraw Tests ====================

func TestMovementService_Withdraw_Success(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, accountID).
		Return(activeAccount(accountID, userID, "100.00"), nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, accountID, decEq{dec("60.00")}).Return(nil)

	var appended *domain.LedgerEntry
	d.ledgerRepo.EXPECT().Append(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, e *domain.LedgerEntry) error {
			appended = e
			return nil
		})

	result, err := d.svc.Withdraw(ctx, ports.WithdrawRequest{
		UserID:    userID,
		AccountID: accountID,
		Amount:    dec("40.00"),
	})
	require.NoError(t, err)
	assert.True(t, result.NewBalance.Equal(dec("60.00")))
	assert.Equal(t, domain.EntryKindWithdraw, appended.Kind)
}

func TestMovementService_Withdraw_InsufficientFunds(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, accountID).
		Return(activeAccount(accountID, userID, "10.00"), nil)

	result, err := d.svc.Withdraw(ctx, ports.WithdrawRequest{
		UserID:    userID,
		AccountID: accountID,
		Amount:    dec("20.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, "ACC_003")
}

func TestMovementService_Withdraw_ExactBalanceAllowed(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, accountID).
		Return(activeAccount(accountID, userID, "20.00"), nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, accountID, decEq{dec("0.00")}).Return(nil)
	d.ledgerRepo.EXPECT().Append(ctx, tx, gomock.Any()).Return(nil)

	result, err := d.svc.Withdraw(ctx, ports.WithdrawRequest{
		UserID:    userID,
		AccountID: accountID,
		Amount:    dec("20.00"),
	})
	require.NoError(t, err)
	assert.True(t, result.NewBalance.IsZero())
}

func TestMovementService_Withdraw_FrozenAccount(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	tx := &mockTx{}

	frozen := activeAccount(accountID, userID, "100.00")
	frozen.Status = domain.AccountStatusFrozen

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, accountID).Return(frozen, nil)

	result, err := d.svc.Withdraw(ctx, ports.WithdrawRequest{
		UserID:    userID,
		AccountID: accountID,
		Amount:    dec("10.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, "ACC_002")
}

// ==================== Internal Transfer Tests ====================

func TestMovementService_TransferInternal_Success(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	fromID := uuid.New()
	toID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, fromID).
		Return(activeAccount(fromID, userID, "100.00"), nil)
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, toID).
		Return(activeAccount(toID, userID, "5.00"), nil)
	d.limits.EXPECT().Check(ctx, tx, userID, decEq{dec("30.00")}).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, fromID, decEq{dec("70.00")}).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, toID, decEq{dec("35.00")}).Return(nil)

	var entries []*domain.LedgerEntry
	d.ledgerRepo.EXPECT().Append(ctx, tx, gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, e *domain.LedgerEntry) error {
			entries = append(entries, e)
			return nil
		})

	result, err := d.svc.TransferInternal(ctx, ports.InternalTransferRequest{
		UserID:        userID,
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        dec("30.00"),
	})
	require.NoError(t, err)
	assert.True(t, result.NewBalance.Equal(dec("70.00")))

	// Two entries, one per leg, cross-referencing each other's account.
	require.Len(t, entries, 2)
	debit, credit := entries[0], entries[1]
	assert.Equal(t, domain.EntryKindTransfer, debit.Kind)
	assert.Equal(t, fromID, debit.AccountID)
	require.NotNil(t, debit.CounterpartyAccountID)
	assert.Equal(t, toID, *debit.CounterpartyAccountID)
	assert.Equal(t, domain.EntryKindDeposit, credit.Kind)
	assert.Equal(t, toID, credit.AccountID)
	require.NotNil(t, credit.CounterpartyAccountID)
	assert.Equal(t, fromID, *credit.CounterpartyAccountID)
	assert.True(t, debit.Amount.Equal(credit.Amount))
	// Same user on both sides: no counterparty user recorded.
	assert.Nil(t, debit.CounterpartyUserID)
	assert.Nil(t, credit.CounterpartyUserID)
}

func TestMovementService_TransferInternal_SelfTransfer(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	accountID := uuid.New()
	// Rejected before Begin: no transactor expectation is set.
	result, err := d.svc.TransferInternal(context.Background(), ports.InternalTransferRequest{
		UserID:        uuid.New(),
		FromAccountID: accountID,
		ToAccountID:   accountID,
		Amount:        dec("10.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, "TRF_001")
}

func TestMovementService_TransferInternal_LockOrderIsSorted(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	lo := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	hi := uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")
	require.Negative(t, bytes.Compare(lo[:], hi[:]))

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	// Source id sorts above destination id, yet the lower id is locked
	// first.
	gomock.InOrder(
		d.accountRepo.EXPECT().GetForUpdate(ctx, tx, lo).
			Return(activeAccount(lo, userID, "0.00"), nil),
		d.accountRepo.EXPECT().GetForUpdate(ctx, tx, hi).
			Return(activeAccount(hi, userID, "100.00"), nil),
	)
	d.limits.EXPECT().Check(ctx, tx, userID, gomock.Any()).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, hi, decEq{dec("90.00")}).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, lo, decEq{dec("10.00")}).Return(nil)
	d.ledgerRepo.EXPECT().Append(ctx, tx, gomock.Any()).Times(2).Return(nil)

	_, err := d.svc.TransferInternal(ctx, ports.InternalTransferRequest{
		UserID:        userID,
		FromAccountID: hi,
		ToAccountID:   lo,
		Amount:        dec("10.00"),
	})
	require.NoError(t, err)
}

func TestMovementService_TransferInternal_LimitExceeded(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	fromID := uuid.New()
	toID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Account, error) {
			return activeAccount(id, userID, "100000.00"), nil
		})
	d.limits.EXPECT().Check(ctx, tx, userID, gomock.Any()).
		Return(apperror.ErrDailyLimitExceeded(dec("5000.00")))

	result, err := d.svc.TransferInternal(ctx, ports.InternalTransferRequest{
		UserID:        userID,
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        dec("10000.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, "LIM_001")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "5000.00", appErr.Details["remaining_allowance"])
}

func TestMovementService_TransferInternal_DestinationNotOwned(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	fromID := uuid.New()
	toID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Account, error) {
			if id == fromID {
				return activeAccount(id, userID, "100.00"), nil
			}
			return activeAccount(id, uuid.New(), "0.00"), nil
		})

	result, err := d.svc.TransferInternal(ctx, ports.InternalTransferRequest{
		UserID:        userID,
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        dec("10.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, "ACC_001")
}

// ==================== External Transfer Tests ====================

func TestMovementService_TransferExternal_Success(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	fromID := uuid.New()
	benefID := uuid.New()
	tx := &mockTx{}

	d.authCodes.EXPECT().Consume(ctx, userID, "482913").Return(true, nil)
	d.benefRepo.EXPECT().GetByIDForUser(ctx, benefID, userID).Return(&domain.Beneficiary{
		ID:            benefID,
		UserID:        userID,
		AccountNumber: "990011223344",
		Nickname:      "landlord",
	}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, fromID).
		Return(activeAccount(fromID, userID, "500.00"), nil)
	d.limits.EXPECT().Check(ctx, tx, userID, decEq{dec("200.00")}).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, fromID, decEq{dec("300.00")}).Return(nil)

	var appended *domain.LedgerEntry
	d.ledgerRepo.EXPECT().Append(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, e *domain.LedgerEntry) error {
			appended = e
			return nil
		})

	result, err := d.svc.TransferExternal(ctx, ports.ExternalTransferRequest{
		UserID:            userID,
		FromAccountID:     fromID,
		BeneficiaryID:     benefID,
		Amount:            dec("200.00"),
		AuthorizationCode: "482913",
	})
	require.NoError(t, err)
	assert.True(t, result.NewBalance.Equal(dec("300.00")))

	// The counterparty lives outside the system: a single debit-side entry.
	assert.Equal(t, domain.EntryKindTransfer, appended.Kind)
	assert.Nil(t, appended.CounterpartyAccountID)
	assert.Nil(t, appended.CounterpartyUserID)
}

func TestMovementService_TransferExternal_BadAuthCode(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.authCodes.EXPECT().Consume(ctx, userID, "000000").Return(false, nil)

	result, err := d.svc.TransferExternal(ctx, ports.ExternalTransferRequest{
		UserID:            userID,
		FromAccountID:     uuid.New(),
		BeneficiaryID:     uuid.New(),
		Amount:            dec("50.00"),
		AuthorizationCode: "000000",
	})
	assert.Nil(t, result)
	assertAppError(t, err, "AUTH_002")
}

func TestMovementService_TransferExternal_UnknownBeneficiary(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	benefID := uuid.New()

	d.authCodes.EXPECT().Consume(ctx, userID, "482913").Return(true, nil)
	d.benefRepo.EXPECT().GetByIDForUser(ctx, benefID, userID).Return(nil, nil)

	result, err := d.svc.TransferExternal(ctx, ports.ExternalTransferRequest{
		UserID:            userID,
		FromAccountID:     uuid.New(),
		BeneficiaryID:     benefID,
		Amount:            dec("50.00"),
		AuthorizationCode: "482913",
	})
	assert.Nil(t, result)
	assertAppError(t, err, "ACC_001")
}

// ==================== Email Transfer Tests ====================

func TestMovementService_TransferByEmail_Success(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	senderID := uuid.New()
	recipientID := uuid.New()
	srcID := uuid.New()
	dstID := uuid.New()
	tx := &mockTx{}

	d.userRepo.EXPECT().GetByEmail(ctx, "bob@example.com").Return(&domain.User{
		ID:    recipientID,
		Name:  "Bob",
		Email: "bob@example.com",
	}, nil)
	d.accountRepo.EXPECT().GetPrimaryForUser(ctx, senderID).
		Return(activeAccount(srcID, senderID, "100.00"), nil)
	d.accountRepo.EXPECT().GetPrimaryForUser(ctx, recipientID).
		Return(activeAccount(dstID, recipientID, "0.00"), nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Account, error) {
			if id == srcID {
				return activeAccount(srcID, senderID, "100.00"), nil
			}
			return activeAccount(dstID, recipientID, "0.00"), nil
		})
	d.limits.EXPECT().Check(ctx, tx, senderID, decEq{dec("25.00")}).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, srcID, decEq{dec("75.00")}).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, dstID, decEq{dec("25.00")}).Return(nil)

	var entries []*domain.LedgerEntry
	d.ledgerRepo.EXPECT().Append(ctx, tx, gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, e *domain.LedgerEntry) error {
			entries = append(entries, e)
			return nil
		})

	result, err := d.svc.TransferByEmail(ctx, ports.EmailTransferRequest{
		UserID:         senderID,
		RecipientEmail: "bob@example.com",
		Amount:         dec("25.00"),
	})
	require.NoError(t, err)
	assert.True(t, result.NewBalance.Equal(dec("75.00")))

	require.Len(t, entries, 2)
	debit, credit := entries[0], entries[1]
	assert.Equal(t, senderID, debit.UserID)
	assert.Equal(t, recipientID, credit.UserID)
	require.NotNil(t, debit.CounterpartyUserID)
	assert.Equal(t, recipientID, *debit.CounterpartyUserID)
	require.NotNil(t, credit.CounterpartyUserID)
	assert.Equal(t, senderID, *credit.CounterpartyUserID)
}

func TestMovementService_TransferByEmail_UnknownRecipient(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.userRepo.EXPECT().GetByEmail(ctx, "ghost@example.com").Return(nil, nil)

	result, err := d.svc.TransferByEmail(ctx, ports.EmailTransferRequest{
		UserID:         uuid.New(),
		RecipientEmail: "ghost@example.com",
		Amount:         dec("25.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, "ACC_001")
}

func TestMovementService_TransferByEmail_ToSelf(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	d.userRepo.EXPECT().GetByEmail(ctx, "me@example.com").Return(&domain.User{
		ID:    userID,
		Email: "me@example.com",
	}, nil)

	result, err := d.svc.TransferByEmail(ctx, ports.EmailTransferRequest{
		UserID:         userID,
		RecipientEmail: "me@example.com",
		Amount:         dec("25.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, "TRF_001")
}

// ==================== Rollback Behaviour ====================

func TestMovementService_TransferInternal_AppendFailureAbortsUnit(t *testing.T) {
	d := setupMovementService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	fromID := uuid.New()
	toID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetForUpdate(ctx, tx, gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Account, error) {
			return activeAccount(id, userID, "100.00"), nil
		})
	d.limits.EXPECT().Check(ctx, tx, userID, gomock.Any()).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, gomock.Any(), gomock.Any()).Times(2).Return(nil)
	d.ledgerRepo.EXPECT().Append(ctx, tx, gomock.Any()).
		Return(fmt.Errorf("insert failed"))

	// Commit is never reached; the deferred rollback discards the staged
	// balance writes.
	result, err := d.svc.TransferInternal(ctx, ports.InternalTransferRequest{
		UserID:        userID,
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        dec("10.00"),
	})
	assert.Nil(t, result)
	assertAppError(t, err, "SYS_001")
}

// ==================== Helper ====================

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}
