package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/infrastructure/postgres/generated"
	"github.com/iho/farmledger/internal/usecase"
)

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	queries *generated.Queries
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db generated.DBTX) *BalanceRepository {
	return &BalanceRepository{
		queries: generated.New(db),
	}
}

// Get returns the cached balance, or a zero balance if none was written yet.
func (r *BalanceRepository) Get(ctx context.Context, accountID string, currency domain.Currency) (*domain.Balance, error) {
	return getBalance(ctx, r.queries, accountID, currency)
}

// GetTx reads the balance inside tx. The caller holds the account lock.
func (r *BalanceRepository) GetTx(ctx context.Context, tx usecase.Transaction, accountID string, currency domain.Currency) (*domain.Balance, error) {
	return getBalance(ctx, txQueries(tx), accountID, currency)
}

func getBalance(ctx context.Context, q *generated.Queries, accountID string, currency domain.Currency) (*domain.Balance, error) {
	row, err := q.GetBalance(ctx, generated.GetBalanceParams{
		AccountID: accountID,
		Currency:  string(currency),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.Balance{
				AccountID: accountID,
				Currency:  currency,
				Amount:    decimal.Zero,
				UpdatedAt: time.Time{},
			}, nil
		}
		return nil, err
	}

	return rowToBalance(row), nil
}

// Upsert writes the cached balance.
func (r *BalanceRepository) Upsert(ctx context.Context, tx usecase.Transaction, balance *domain.Balance) error {
	return txQueries(tx).UpsertBalance(ctx, generated.UpsertBalanceParams{
		AccountID: balance.AccountID,
		Currency:  string(balance.Currency),
		Amount:    decimalToNumeric(balance.Amount),
		UpdatedAt: timeToPgTimestamptz(balance.UpdatedAt),
	})
}

// ListByAccount lists every currency balance of an account.
func (r *BalanceRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Balance, error) {
	return listBalances(ctx, r.queries, accountID)
}

// ListByAccountTx lists balances inside tx.
func (r *BalanceRepository) ListByAccountTx(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.Balance, error) {
	return listBalances(ctx, txQueries(tx), accountID)
}

func listBalances(ctx context.Context, q *generated.Queries, accountID string) ([]*domain.Balance, error) {
	rows, err := q.ListBalancesByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	balances := make([]*domain.Balance, 0, len(rows))
	for _, row := range rows {
		balances = append(balances, rowToBalance(row))
	}

	return balances, nil
}

func rowToBalance(row generated.Balance) *domain.Balance {
	return &domain.Balance{
		AccountID: row.AccountID,
		Currency:  domain.Currency(row.Currency),
		Amount:    numericToDecimal(row.Amount),
		UpdatedAt: row.UpdatedAt.Time,
	}
}
