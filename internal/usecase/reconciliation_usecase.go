package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/domain"
)

// ReconciliationUseCase checks cached balances against the ledger. It only
// reports; a mismatch is never corrected automatically.
type ReconciliationUseCase struct {
	uow         *UnitOfWork
	accountRepo AccountRepository
	balanceRepo BalanceRepository
	entryRepo   EntryRepository
	metrics     Metrics
	logger      zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	uow *UnitOfWork,
	accountRepo AccountRepository,
	balanceRepo BalanceRepository,
	entryRepo EntryRepository,
	metrics Metrics,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &ReconciliationUseCase{
		uow:         uow,
		accountRepo: accountRepo,
		balanceRepo: balanceRepo,
		entryRepo:   entryRepo,
		metrics:     metrics,
		logger:      logger.With().Str("component", "reconciliation").Logger(),
	}
}

// CurrencyReconciliation compares one currency of one account.
type CurrencyReconciliation struct {
	Currency          domain.Currency
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID    string
	Currencies   []CurrencyReconciliation
	IsReconciled bool
	LastChecked  time.Time
}

// Reconcile recomputes every balance of an account from its completed
// entries. The result is returned together with domain.ErrReconciliationMismatch
// when any currency differs.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	var result *ReconciliationResult
	err := uc.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
		// Holding the account lock keeps balances and entries from moving
		// between the two reads.
		if _, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID); err != nil {
			return err
		}

		balances, err := uc.balanceRepo.ListByAccountTx(ctx, tx, accountID)
		if err != nil {
			return err
		}

		sums, err := uc.entryRepo.SumCompletedTx(ctx, tx, accountID)
		if err != nil {
			return err
		}

		result = compareBalances(accountID, balances, sums)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.IsReconciled {
		uc.metrics.ReconciliationMismatch(accountID)
		for _, c := range result.Currencies {
			if c.Difference.IsZero() {
				continue
			}
			uc.logger.Error().
				Str("account_id", accountID).
				Str("currency", string(c.Currency)).
				Str("recorded", c.RecordedBalance.String()).
				Str("calculated", c.CalculatedBalance.String()).
				Str("difference", c.Difference.String()).
				Msg("balance does not match ledger")
		}
		return result, fmt.Errorf("%w: account %s", domain.ErrReconciliationMismatch, accountID)
	}

	return result, nil
}

func compareBalances(accountID string, balances []*domain.Balance, sums map[domain.Currency]decimal.Decimal) *ReconciliationResult {
	recorded := make(map[domain.Currency]decimal.Decimal, len(balances))
	for _, b := range balances {
		recorded[b.Currency] = b.Amount
	}

	currencies := make([]domain.Currency, 0, len(recorded)+len(sums))
	for c := range recorded {
		currencies = append(currencies, c)
	}
	for c := range sums {
		if _, ok := recorded[c]; !ok {
			currencies = append(currencies, c)
		}
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })

	result := &ReconciliationResult{
		AccountID:    accountID,
		IsReconciled: true,
		LastChecked:  time.Now().UTC(),
	}

	for _, c := range currencies {
		rec := recorded[c]
		calc := sums[c]
		diff := rec.Sub(calc)
		if !diff.IsZero() {
			result.IsReconciled = false
		}
		result.Currencies = append(result.Currencies, CurrencyReconciliation{
			Currency:          c,
			RecordedBalance:   rec,
			CalculatedBalance: calc,
			Difference:        diff,
		})
	}

	return result
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	CheckedAt          time.Time
}

// ReconcileAll reconciles every account page by page. It returns the report
// and domain.ErrReconciliationMismatch when any account differs.
func (uc *ReconciliationUseCase) ReconcileAll(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		Discrepancies: make([]*ReconciliationResult, 0),
	}

	for offset := 0; ; offset += MaxPageSize {
		accounts, err := uc.accountRepo.List(ctx, MaxPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			result, err := uc.Reconcile(ctx, account.ID)
			if err != nil && !errors.Is(err, domain.ErrReconciliationMismatch) {
				return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
			}

			report.TotalAccounts++
			if result.IsReconciled {
				report.ReconciledAccounts++
			} else {
				report.Discrepancies = append(report.Discrepancies, result)
			}
		}

		if len(accounts) < MaxPageSize {
			break
		}
	}

	report.CheckedAt = time.Now().UTC()

	if len(report.Discrepancies) > 0 {
		return report, fmt.Errorf("%w: %d of %d accounts", domain.ErrReconciliationMismatch, len(report.Discrepancies), report.TotalAccounts)
	}
	return report, nil
}
