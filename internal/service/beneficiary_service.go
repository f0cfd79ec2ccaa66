package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"core-banking-ledger/internal/core/domain"
	"core-banking-ledger/internal/core/ports"
	"core-banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// pgUniqueViolation is the duplicate-key error. The (user_id, account_number)
// uniqueness of beneficiaries is enforced by the database, not pre-checked.
const pgUniqueViolation = "23505"

type beneficiaryService struct {
	benefRepo ports.BeneficiaryRepository
	log       zerolog.Logger
}

// NewBeneficiaryService creates a new beneficiary directory service.
func NewBeneficiaryService(benefRepo ports.BeneficiaryRepository, log zerolog.Logger) ports.BeneficiaryService {
	return &beneficiaryService{benefRepo: benefRepo, log: log}
}

// Add registers an external payee. The account number is opaque: it points
// outside the system and is never resolved against local accounts.
func (s *beneficiaryService) Add(ctx context.Context, userID uuid.UUID, accountNumber, nickname string) (*domain.Beneficiary, error) {
	b := &domain.Beneficiary{
		ID:            uuid.New(),
		UserID:        userID,
		AccountNumber: accountNumber,
		Nickname:      nickname,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.benefRepo.Create(ctx, b); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, apperror.ErrDuplicateRecord("Beneficiary")
		}
		return nil, apperror.InternalError(fmt.Errorf("create beneficiary: %w", err))
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("beneficiary_id", b.ID.String()).
		Msg("beneficiary registered")

	return b, nil
}

func (s *beneficiaryService) List(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error) {
	out, err := s.benefRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list beneficiaries: %w", err))
	}
	return out, nil
}
