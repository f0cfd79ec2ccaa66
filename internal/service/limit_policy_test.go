package service

import (
	"context"
	"testing"
	"time"

	"core-banking-ledger/internal/core/domain"
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

type limitTestDeps struct {
	policy     *RollingLimitPolicy
	userRepo   *mocks.MockUserRepository
	ledgerRepo *mocks.MockLedgerRepository
	ctrl       *gomock.Controller
}

func setupLimitPolicy(t *testing.T, systemDefault string) *limitTestDeps {
	ctrl := gomock.NewController(t)
	d := &limitTestDeps{
		userRepo:   mocks.NewMockUserRepository(ctrl),
		ledgerRepo: mocks.NewMockLedgerRepository(ctrl),
		ctrl:       ctrl,
	}
	d.policy = NewRollingLimitPolicy(d.userRepo, d.ledgerRepo, dec(systemDefault), zerolog.Nop())
	return d
}

func (d *limitTestDeps) expectWindow(ctx context.Context, tx pgx.Tx, userID uuid.UUID, user *domain.User, spent string) {
	d.userRepo.EXPECT().GetForUpdate(ctx, tx, userID).Return(user, nil)
	d.ledgerRepo.EXPECT().SumTransfersSince(ctx, tx, userID, windowStartMatcher{}).
		Return(dec(spent), nil)
}

// windowStartMatcher accepts any timestamp roughly 24 hours in the past.
type windowStartMatcher struct{}

func (windowStartMatcher) Matches(x any) bool {
	ts, ok := x.(time.Time)
	if !ok {
		return false
	}
	age := time.Since(ts)
	return age > 23*time.Hour+59*time.Minute && age < 24*time.Hour+time.Minute
}
func (windowStartMatcher) String() string { return "time ~24h ago" }

func TestLimitPolicy_UnderCeilingAllowed(t *testing.T) {
	d := setupLimitPolicy(t, "50000.00")
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	d.expectWindow(ctx, tx, userID, &domain.User{ID: userID}, "45000.00")

	err := d.policy.Check(ctx, tx, userID, dec("4000.00"))
	require.NoError(t, err)
}

func TestLimitPolicy_ExactCeilingAllowed(t *testing.T) {
	d := setupLimitPolicy(t, "50000.00")
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	d.expectWindow(ctx, tx, userID, &domain.User{ID: userID}, "45000.00")

	err := d.policy.Check(ctx, tx, userID, dec("5000.00"))
	require.NoError(t, err)
}

func TestLimitPolicy_OverCeilingReportsRemaining(t *testing.T) {
	d := setupLimitPolicy(t, "50000.00")
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	d.expectWindow(ctx, tx, userID, &domain.User{ID: userID}, "45000.00")

	err := d.policy.Check(ctx, tx, userID, dec("10000.00"))
	assertAppError(t, err, "LIM_001")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "5000.00", appErr.Details["remaining_allowance"])
}

func TestLimitPolicy_PerUserOverrideWins(t *testing.T) {
	d := setupLimitPolicy(t, "50000.00")
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	override := dec("1000.00")
	d.expectWindow(ctx, tx, userID, &domain.User{ID: userID, DailyTransferLimit: &override}, "0.00")

	err := d.policy.Check(ctx, tx, userID, dec("1500.00"))
	assertAppError(t, err, "LIM_001")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "1000.00", appErr.Details["remaining_allowance"])
}

func TestLimitPolicy_RemainingFlooredAtZero(t *testing.T) {
	d := setupLimitPolicy(t, "50000.00")
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	// A ceiling lowered after heavy spend can leave the window total above
	// it; the reported allowance must not go negative.
	override := decimal.NewFromInt(100)
	d.expectWindow(ctx, tx, userID, &domain.User{ID: userID, DailyTransferLimit: &override}, "250.00")

	err := d.policy.Check(ctx, tx, userID, dec("10.00"))
	assertAppError(t, err, "LIM_001")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "0.00", appErr.Details["remaining_allowance"])
}

func TestLimitPolicy_LocksUserBeforeSumming(t *testing.T) {
	d := setupLimitPolicy(t, "50000.00")
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	// The window sum is only trustworthy once the user row lock is held:
	// a unit summing first could race a sibling unit on disjoint accounts.
	gomock.InOrder(
		d.userRepo.EXPECT().GetForUpdate(ctx, tx, userID).Return(&domain.User{ID: userID}, nil),
		d.ledgerRepo.EXPECT().SumTransfersSince(ctx, tx, userID, windowStartMatcher{}).
			Return(dec("0.00"), nil),
	)

	require.NoError(t, d.policy.Check(ctx, tx, userID, dec("10.00")))
}

func TestLimitPolicy_UnknownUser(t *testing.T) {
	d := setupLimitPolicy(t, "50000.00")
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	d.userRepo.EXPECT().GetForUpdate(ctx, tx, userID).Return(nil, nil)

	err := d.policy.Check(ctx, tx, userID, dec("10.00"))
	assertAppError(t, err, "ACC_001")
}
