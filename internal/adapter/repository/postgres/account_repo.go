package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/infrastructure/postgres/generated"
	"github.com/iho/farmledger/internal/usecase"
)

// sponsorGraphLockKey is the advisory lock key serializing sponsor edge
// changes.
const sponsorGraphLockKey int64 = 0x66617231

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{
		queries: generated.New(db),
	}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	err := txQueries(tx).CreateAccount(ctx, generated.CreateAccountParams{
		ID:        account.ID,
		SponsorID: stringPtrToText(account.SponsorID),
		Version:   account.Version,
		CreatedAt: timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(account.UpdatedAt),
	})
	if isUniqueViolation(err) {
		return domain.ErrAccountExists
	}

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	row, err := txQueries(tx).GetAccountByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// GetByIDsForUpdate locks multiple accounts in id order. Missing ids are
// skipped; callers compare the result length.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	rows, err := txQueries(tx).GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// BumpVersion increments the account version and returns it.
func (r *AccountRepository) BumpVersion(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) (int64, error) {
	version, err := txQueries(tx).BumpAccountVersion(ctx, generated.BumpAccountVersionParams{
		ID:        id,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrAccountNotFound
	}

	return version, err
}

// SetSponsor links an unsponsored account to sponsorID.
func (r *AccountRepository) SetSponsor(ctx context.Context, tx usecase.Transaction, id, sponsorID string, updatedAt time.Time) error {
	n, err := txQueries(tx).SetAccountSponsor(ctx, generated.SetAccountSponsorParams{
		ID:        id,
		SponsorID: stringToText(sponsorID),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSponsorAlreadySet
	}

	return nil
}

// LockSponsorGraph takes a transaction-scoped advisory lock.
func (r *AccountRepository) LockSponsorGraph(ctx context.Context, tx usecase.Transaction) error {
	return txQueries(tx).LockSponsorGraph(ctx, sponsorGraphLockKey)
}

// SponsorChain returns up to depth ancestors of id, nearest first.
func (r *AccountRepository) SponsorChain(ctx context.Context, id string, depth int) ([]string, error) {
	return sponsorChain(ctx, r.queries, id, depth)
}

// SponsorChainTx reads the chain inside tx.
func (r *AccountRepository) SponsorChainTx(ctx context.Context, tx usecase.Transaction, id string, depth int) ([]string, error) {
	return sponsorChain(ctx, txQueries(tx), id, depth)
}

func sponsorChain(ctx context.Context, q *generated.Queries, id string, depth int) ([]string, error) {
	if depth <= 0 {
		return nil, nil
	}

	return q.GetSponsorChain(ctx, generated.GetSponsorChainParams{
		ID:       id,
		MaxDepth: int32(depth),
	})
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:        row.ID,
		SponsorID: textToStringPtr(row.SponsorID),
		Version:   row.Version,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
