package service

import (
	"context"
	"fmt"
	"time"

	"core-banking-ledger/internal/core/domain"
	"core-banking-ledger/internal/core/ports"
	"core-banking-ledger/pkg/apperror"

	"github.com/google/uuid"
)

const (
	historyDefaultLimit = 20
	historyMaxLimit     = 100
)

type historyService struct {
	accountRepo ports.AccountRepository
	ledgerRepo  ports.LedgerRepository
}

// NewHistoryService creates a new ledger read service.
func NewHistoryService(accountRepo ports.AccountRepository, ledgerRepo ports.LedgerRepository) ports.HistoryService {
	return &historyService{accountRepo: accountRepo, ledgerRepo: ledgerRepo}
}

// ForAccount returns the account's entries newest first. The limit is
// clamped to [1, 100]; zero or negative falls back to the default page.
func (s *historyService) ForAccount(ctx context.Context, userID, accountID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	account, err := s.accountRepo.GetByIDForUser(ctx, accountID, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	if limit <= 0 {
		limit = historyDefaultLimit
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}

	entries, err := s.ledgerRepo.ListForAccount(ctx, accountID, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list entries: %w", err))
	}
	return entries, nil
}

// ForUser returns the user's entries newest first, optionally bounded by a
// creation-time range.
func (s *historyService) ForUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]domain.LedgerEntry, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperror.Validation("'to' must not precede 'from'")
	}

	entries, err := s.ledgerRepo.ListForUser(ctx, userID, from, to)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list entries: %w", err))
	}
	return entries, nil
}
