package postgres

import (
	"context"
	"errors"
	"fmt"

	"core-banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BeneficiaryRepo implements ports.BeneficiaryRepository.
type BeneficiaryRepo struct {
	pool Pool
}

// NewBeneficiaryRepo creates a new BeneficiaryRepo.
func NewBeneficiaryRepo(pool Pool) *BeneficiaryRepo {
	return &BeneficiaryRepo{pool: pool}
}

// Create inserts a new beneficiary into the database.
func (r *BeneficiaryRepo) Create(ctx context.Context, b *domain.Beneficiary) error {
	query := `INSERT INTO beneficiaries (id, user_id, account_number, nickname, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		b.ID, b.UserID, b.AccountNumber, b.Nickname, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert beneficiary: %w", err)
	}
	return nil
}

// GetByIDForUser fetches a beneficiary owned by userID. Missing and
// foreign-owned records both return nil.
func (r *BeneficiaryRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Beneficiary, error) {
	query := `SELECT id, user_id, account_number, nickname, created_at
		FROM beneficiaries WHERE id = $1 AND user_id = $2`

	b := &domain.Beneficiary{}
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&b.ID, &b.UserID, &b.AccountNumber, &b.Nickname, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get beneficiary by id: %w", err)
	}
	return b, nil
}

// ListByUser fetches all beneficiaries registered by a user.
func (r *BeneficiaryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error) {
	query := `SELECT id, user_id, account_number, nickname, created_at
		FROM beneficiaries WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	defer rows.Close()

	var out []domain.Beneficiary
	for rows.Next() {
		b := domain.Beneficiary{}
		if err := rows.Scan(&b.ID, &b.UserID, &b.AccountNumber, &b.Nickname, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan beneficiary: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
