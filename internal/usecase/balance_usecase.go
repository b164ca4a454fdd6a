package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/domain"
)

// BalanceManager is the only writer of cached balances. Every balance change
// is paired with a ledger entry in the same transaction.
type BalanceManager struct {
	uow         *UnitOfWork
	accountRepo AccountRepository
	balanceRepo BalanceRepository
	entryRepo   EntryRepository
	idGen       IDGenerator
	metrics     Metrics
}

// NewBalanceManager creates a new BalanceManager.
func NewBalanceManager(
	uow *UnitOfWork,
	accountRepo AccountRepository,
	balanceRepo BalanceRepository,
	entryRepo EntryRepository,
	idGen IDGenerator,
	metrics Metrics,
) *BalanceManager {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &BalanceManager{
		uow:         uow,
		accountRepo: accountRepo,
		balanceRepo: balanceRepo,
		entryRepo:   entryRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// CreditInput represents input for a balance credit.
type CreditInput struct {
	Metadata          map[string]any
	ExternalReference *string
	EventID           *string
	AccountID         string
	Description       string
	Currency          domain.Currency
	Kind              domain.EntryKind
	Amount            decimal.Decimal
}

// DebitInput represents input for a balance debit. Amount is positive; the
// recorded entry carries the negated amount.
type DebitInput CreditInput

func (in CreditInput) validate() error {
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return err
	}
	if err := domain.ValidateCurrency(in.Currency); err != nil {
		return err
	}
	if !in.Kind.IsValid() {
		return domain.ErrInvalidEntryKind
	}
	if in.ExternalReference != nil {
		if err := domain.ValidateReference(*in.ExternalReference); err != nil {
			return err
		}
	}
	return domain.ValidateMetadata(in.Metadata)
}

// Credit writes one completed entry and increases the balance atomically.
func (m *BalanceManager) Credit(ctx context.Context, input CreditInput) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := m.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
		var err error
		entry, err = m.CreditTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditTx credits inside an existing transaction.
func (m *BalanceManager) CreditTx(ctx context.Context, tx Transaction, input CreditInput) (*domain.LedgerEntry, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	return m.apply(ctx, tx, input, input.Amount)
}

// Debit writes one completed entry and decreases the balance atomically.
// Returns domain.ErrInsufficientFunds without any mutation if the balance is
// too low.
func (m *BalanceManager) Debit(ctx context.Context, input DebitInput) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := m.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
		var err error
		entry, err = m.DebitTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// DebitTx debits inside an existing transaction.
func (m *BalanceManager) DebitTx(ctx context.Context, tx Transaction, input DebitInput) (*domain.LedgerEntry, error) {
	in := CreditInput(input)
	if err := in.validate(); err != nil {
		return nil, err
	}
	return m.apply(ctx, tx, in, in.Amount.Neg())
}

func (m *BalanceManager) apply(ctx context.Context, tx Transaction, input CreditInput, delta decimal.Decimal) (*domain.LedgerEntry, error) {
	if _, err := m.accountRepo.GetByIDForUpdate(ctx, tx, input.AccountID); err != nil {
		return nil, err
	}

	balance, err := m.balanceRepo.GetTx(ctx, tx, input.AccountID, input.Currency)
	if err != nil {
		return nil, err
	}

	var newAmount decimal.Decimal
	if delta.IsNegative() {
		if err := balance.ValidateDebit(delta.Neg()); err != nil {
			// Counted as a rejected attempt; the unit always rolls back.
			m.metrics.InsufficientFunds(input.Kind)
			return nil, err
		}
		newAmount = balance.ApplyDebit(delta.Neg())
	} else {
		newAmount = balance.ApplyCredit(delta)
	}

	now := time.Now().UTC()
	version, err := m.accountRepo.BumpVersion(ctx, tx, input.AccountID, now)
	if err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		ID:                m.idGen.Generate(),
		AccountID:         input.AccountID,
		Amount:            delta,
		Currency:          input.Currency,
		Kind:              input.Kind,
		Status:            domain.EntryStatusCompleted,
		Description:       input.Description,
		Metadata:          input.Metadata,
		ExternalReference: input.ExternalReference,
		EventID:           input.EventID,
		BalanceAfter:      decimal.NewNullDecimal(newAmount),
		AccountVersion:    version,
		CreatedAt:         now,
	}

	if err := m.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	balance.Amount = newAmount
	balance.UpdatedAt = now
	if err := m.balanceRepo.Upsert(ctx, tx, balance); err != nil {
		return nil, err
	}

	AfterCommit(ctx, func() {
		m.metrics.EntryRecorded(entry.Kind, entry.Currency, entry.Amount)
	})

	return entry, nil
}

// CompletePendingTx moves a pending credit entry to completed and applies it
// to the balance. The entry must have been loaded for update in tx.
func (m *BalanceManager) CompletePendingTx(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error {
	if !entry.CanTransitionTo(domain.EntryStatusCompleted) {
		return domain.ErrInvalidEntryTransition
	}
	if !entry.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	if _, err := m.accountRepo.GetByIDForUpdate(ctx, tx, entry.AccountID); err != nil {
		return err
	}

	balance, err := m.balanceRepo.GetTx(ctx, tx, entry.AccountID, entry.Currency)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	version, err := m.accountRepo.BumpVersion(ctx, tx, entry.AccountID, now)
	if err != nil {
		return err
	}

	balance.Amount = balance.ApplyCredit(entry.Amount)
	balance.UpdatedAt = now

	entry.Status = domain.EntryStatusCompleted
	entry.BalanceAfter = decimal.NewNullDecimal(balance.Amount)
	entry.AccountVersion = version

	if err := m.entryRepo.UpdateStatus(ctx, tx, entry); err != nil {
		return err
	}
	if err := m.balanceRepo.Upsert(ctx, tx, balance); err != nil {
		return err
	}

	AfterCommit(ctx, func() {
		m.metrics.EntryRecorded(entry.Kind, entry.Currency, entry.Amount)
	})

	return nil
}

// GetBalance returns the cached balance of an account in one currency.
func (m *BalanceManager) GetBalance(ctx context.Context, accountID string, currency domain.Currency) (decimal.Decimal, error) {
	if err := domain.ValidateCurrency(currency); err != nil {
		return decimal.Zero, err
	}
	if _, err := m.accountRepo.GetByID(ctx, accountID); err != nil {
		return decimal.Zero, err
	}

	balance, err := m.balanceRepo.Get(ctx, accountID, currency)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.Amount, nil
}

// ListBalances returns every cached balance of an account.
func (m *BalanceManager) ListBalances(ctx context.Context, accountID string) ([]*domain.Balance, error) {
	if _, err := m.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return m.balanceRepo.ListByAccount(ctx, accountID)
}
