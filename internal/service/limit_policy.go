package service

import (
	"context"
	"time"

	"core-banking-ledger/internal/core/ports"
	"core-banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RollingLimitPolicy enforces the per-user transfer ceiling over a trailing
// 24-hour window. The window rolls with the clock rather than resetting at
// midnight: the spend is summed from transfer-kind entries booked in the
// last 24 hours, inside the caller's transaction so a concurrent transfer
// on the same user cannot slip past the ceiling.
type RollingLimitPolicy struct {
	userRepo      ports.UserRepository
	ledgerRepo    ports.LedgerRepository
	systemDefault decimal.Decimal
	log           zerolog.Logger
}

// NewRollingLimitPolicy creates a new RollingLimitPolicy. systemDefault is
// the ceiling applied to users without an individual override.
func NewRollingLimitPolicy(userRepo ports.UserRepository, ledgerRepo ports.LedgerRepository, systemDefault decimal.Decimal, log zerolog.Logger) *RollingLimitPolicy {
	return &RollingLimitPolicy{
		userRepo:      userRepo,
		ledgerRepo:    ledgerRepo,
		systemDefault: systemDefault,
		log:           log,
	}
}

// Check reports whether the user may spend proposed on top of the window's
// existing transfer total. On rejection the error carries the remaining
// allowance before the proposed amount, floored at zero.
//
// The user row lock is taken before summing: the ceiling is per user while
// the engine's other locks are per account, so without it two units over
// disjoint accounts would read the same committed window total and jointly
// overshoot. The user lock is always acquired after the account locks and
// nothing is locked afterwards, so the two lock tiers cannot cycle.
func (p *RollingLimitPolicy) Check(ctx context.Context, tx pgx.Tx, userID uuid.UUID, proposed decimal.Decimal) error {
	user, err := p.userRepo.GetForUpdate(ctx, tx, userID)
	if err != nil {
		return storageErr("lock user for limit check", err)
	}
	if user == nil {
		return apperror.ErrAccountNotFound()
	}
	ceiling := user.TransferCeiling(p.systemDefault)

	since := time.Now().UTC().Add(-24 * time.Hour)
	spent, err := p.ledgerRepo.SumTransfersSince(ctx, tx, userID, since)
	if err != nil {
		return storageErr("sum window transfers", err)
	}

	if spent.Add(proposed).GreaterThan(ceiling) {
		remaining := ceiling.Sub(spent)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		p.log.Warn().
			Str("user_id", userID.String()).
			Str("proposed", proposed.StringFixed(2)).
			Str("remaining", remaining.StringFixed(2)).
			Msg("transfer rejected by daily limit")
		return apperror.ErrDailyLimitExceeded(remaining)
	}
	return nil
}

// ensure interface compliance
var _ ports.LimitPolicy = (*RollingLimitPolicy)(nil)
