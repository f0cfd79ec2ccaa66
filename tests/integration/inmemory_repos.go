package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"core-banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// memStore is the shared in-memory database backing the integration repos.
// Balance mutations and ledger appends are staged on a memTx and become
// visible only at Commit, so a failed unit of work leaves no trace. Each
// account carries a row mutex that memTx holds from GetForUpdate until the
// transaction finishes, mirroring SELECT ... FOR UPDATE semantics.
type memStore struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*domain.User
	accounts      map[uuid.UUID]*domain.Account
	entries       []domain.LedgerEntry
	beneficiaries map[uuid.UUID]*domain.Beneficiary
	rowLocks      map[uuid.UUID]*sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[uuid.UUID]*domain.User),
		accounts:      make(map[uuid.UUID]*domain.Account),
		beneficiaries: make(map[uuid.UUID]*domain.Beneficiary),
		rowLocks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *memStore) rowLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}
	return l
}

// memTx stages mutations until Commit. The embedded pgx.Tx is never invoked;
// the repos type-assert back to *memTx and only Commit/Rollback are called
// through the interface.
type heldLock struct {
	id uuid.UUID
	mu *sync.Mutex
}

type memTx struct {
	pgx.Tx
	store *memStore

	mu       sync.Mutex
	held     []heldLock
	balances map[uuid.UUID]decimal.Decimal
	staged   []domain.LedgerEntry
	finished bool
}

func (t *memTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return pgx.ErrTxClosed
	}

	t.store.mu.Lock()
	for id, balance := range t.balances {
		acct, ok := t.store.accounts[id]
		if !ok {
			t.store.mu.Unlock()
			return fmt.Errorf("account %s vanished mid-transaction", id)
		}
		acct.Balance = balance
		acct.UpdatedAt = time.Now().UTC()
	}
	t.store.entries = append(t.store.entries, t.staged...)
	t.store.mu.Unlock()

	t.finish()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return pgx.ErrTxClosed
	}
	t.finish()
	return nil
}

// finish releases held row locks. Caller holds t.mu.
func (t *memTx) finish() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].mu.Unlock()
	}
	t.held = nil
	t.finished = true
}

// lockRow blocks until the row lock for id is free and registers it for
// release at Commit/Rollback. Re-locking a row this tx already holds is a
// no-op, like FOR UPDATE inside one transaction.
func (t *memTx) lockRow(id uuid.UUID) {
	t.mu.Lock()
	for _, held := range t.held {
		if held.id == id {
			t.mu.Unlock()
			return
		}
	}
	t.mu.Unlock()

	lock := t.store.rowLock(id)
	lock.Lock()
	t.mu.Lock()
	t.held = append(t.held, heldLock{id: id, mu: lock})
	t.mu.Unlock()
}

func asMemTx(tx pgx.Tx) (*memTx, error) {
	mt, ok := tx.(*memTx)
	if !ok {
		return nil, fmt.Errorf("expected *memTx, got %T", tx)
	}
	return mt, nil
}

// --- Transactor ---

type memTransactor struct {
	store *memStore
}

func newMemTransactor(store *memStore) *memTransactor {
	return &memTransactor{store: store}
}

func (t *memTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{store: t.store, balances: make(map[uuid.UUID]decimal.Decimal)}, nil
}

// --- User Repo ---

type memUserRepo struct {
	store *memStore
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == user.Email {
			return fmt.Errorf("email already registered")
		}
	}
	cp := *user
	r.store.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.User, error) {
	mt, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	_, exists := r.store.users[id]
	r.store.mu.RUnlock()
	if !exists {
		return nil, nil
	}

	mt.lockRow(id)
	return r.GetByID(ctx, id)
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// --- Account Repo ---

type memAccountRepo struct {
	store *memStore
}

func (r *memAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.accounts {
		if a.AccountNumber == account.AccountNumber {
			return fmt.Errorf("account number already taken")
		}
	}
	cp := *account
	r.store.accounts[account.ID] = &cp
	return nil
}

func (r *memAccountRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	a, ok := r.store.accounts[id]
	if !ok || a.UserID != userID {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memAccountRepo) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, a := range r.store.accounts {
		if a.AccountNumber == number {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memAccountRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []domain.Account
	for _, a := range r.store.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memAccountRepo) GetPrimaryForUser(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	accounts, err := r.ListByUser(ctx, userID)
	if err != nil || len(accounts) == 0 {
		return nil, err
	}
	return &accounts[0], nil
}

func (r *memAccountRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	mt, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	_, exists := r.store.accounts[id]
	r.store.mu.RUnlock()
	if !exists {
		return nil, nil
	}

	mt.lockRow(id)

	r.store.mu.RLock()
	a, ok := r.store.accounts[id]
	if !ok {
		r.store.mu.RUnlock()
		return nil, nil
	}
	cp := *a
	r.store.mu.RUnlock()

	mt.mu.Lock()
	if staged, ok := mt.balances[id]; ok {
		cp.Balance = staged
	}
	mt.mu.Unlock()
	return &cp, nil
}

func (r *memAccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	mt, err := asMemTx(tx)
	if err != nil {
		return err
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.finished {
		return pgx.ErrTxClosed
	}
	mt.balances[id] = balance
	return nil
}

// --- Ledger Repo ---

type memLedgerRepo struct {
	store *memStore

	// appendErr, when set, makes the next Append fail. Used to test that a
	// failed unit of work leaves balances and the log untouched.
	mu        sync.Mutex
	appendErr error
}

func (r *memLedgerRepo) failNextAppend(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendErr = err
}

func (r *memLedgerRepo) Append(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	r.mu.Lock()
	if r.appendErr != nil {
		err := r.appendErr
		r.appendErr = nil
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	mt, err := asMemTx(tx)
	if err != nil {
		return err
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.finished {
		return pgx.ErrTxClosed
	}
	mt.staged = append(mt.staged, *entry)
	return nil
}

func (r *memLedgerRepo) SumTransfersSince(ctx context.Context, tx pgx.Tx, userID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	mt, err := asMemTx(tx)
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	r.store.mu.RLock()
	for i := range r.store.entries {
		e := &r.store.entries[i]
		if e.UserID == userID && e.Kind == domain.EntryKindTransfer && !e.CreatedAt.Before(since) {
			sum = sum.Add(e.Amount)
		}
	}
	r.store.mu.RUnlock()

	mt.mu.Lock()
	for i := range mt.staged {
		e := &mt.staged[i]
		if e.UserID == userID && e.Kind == domain.EntryKindTransfer && !e.CreatedAt.Before(since) {
			sum = sum.Add(e.Amount)
		}
	}
	mt.mu.Unlock()
	return sum, nil
}

func (r *memLedgerRepo) ListForAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []domain.LedgerEntry
	for i := len(r.store.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.store.entries[i].AccountID == accountID {
			out = append(out, r.store.entries[i])
		}
	}
	return out, nil
}

func (r *memLedgerRepo) ListForUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]domain.LedgerEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []domain.LedgerEntry
	for i := len(r.store.entries) - 1; i >= 0; i-- {
		e := r.store.entries[i]
		if e.UserID != userID {
			continue
		}
		if from != nil && e.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && e.CreatedAt.After(*to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// --- Beneficiary Repo ---

type memBeneficiaryRepo struct {
	store *memStore
}

func (r *memBeneficiaryRepo) Create(ctx context.Context, b *domain.Beneficiary) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.beneficiaries {
		if existing.UserID == b.UserID && existing.AccountNumber == b.AccountNumber {
			// Shaped like the database's unique-constraint rejection.
			return &pgconn.PgError{Code: "23505", ConstraintName: "beneficiaries_user_id_account_number_key"}
		}
	}
	cp := *b
	r.store.beneficiaries[b.ID] = &cp
	return nil
}

func (r *memBeneficiaryRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Beneficiary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	b, ok := r.store.beneficiaries[id]
	if !ok || b.UserID != userID {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *memBeneficiaryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []domain.Beneficiary
	for _, b := range r.store.beneficiaries {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
