package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"core-banking-ledger/internal/core/domain"
	"core-banking-ledger/internal/core/ports"
	"core-banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type accountService struct {
	userRepo    ports.UserRepository
	accountRepo ports.AccountRepository
	tokenSvc    ports.TokenService
	log         zerolog.Logger
}

// NewAccountService creates a new account management service.
func NewAccountService(
	userRepo ports.UserRepository,
	accountRepo ports.AccountRepository,
	tokenSvc ports.TokenService,
	log zerolog.Logger,
) ports.AccountService {
	return &accountService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		tokenSvc:    tokenSvc,
		log:         log,
	}
}

// Register creates a user together with their default checking account and
// mints the identity token used on every later call.
func (s *accountService) Register(ctx context.Context, req ports.RegisterRequest) (*ports.RegisterResponse, error) {
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check existing user: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateRecord("User")
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.New(),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	account, err := s.openAccount(ctx, user.ID, domain.AccountTypeChecking)
	if err != nil {
		return nil, err
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("account_id", account.ID.String()).
		Msg("user registered")

	return &ports.RegisterResponse{
		User:    user,
		Account: account,
		Token:   token,
		Expiry:  expiry,
	}, nil
}

// Open creates an additional account of the given type for the user.
func (s *accountService) Open(ctx context.Context, userID uuid.UUID, accountType domain.AccountType) (*domain.Account, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("User")
	}
	return s.openAccount(ctx, userID, accountType)
}

func (s *accountService) List(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list accounts: %w", err))
	}
	return accounts, nil
}

func (s *accountService) Get(ctx context.Context, userID, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByIDForUser(ctx, accountID, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return account, nil
}

func (s *accountService) openAccount(ctx context.Context, userID uuid.UUID, accountType domain.AccountType) (*domain.Account, error) {
	number, err := generateAccountNumber()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate account number: %w", err))
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:            uuid.New(),
		UserID:        userID,
		AccountNumber: number,
		Type:          accountType,
		Balance:       decimal.Zero,
		Status:        domain.AccountStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}
	return account, nil
}

// generateAccountNumber produces a 12-digit number with a fixed bank prefix.
// Collisions are caught by the unique constraint on account_number.
func generateAccountNumber() (string, error) {
	max := big.NewInt(1_000_000_000) // 9 random digits
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("100%09d", n), nil
}
