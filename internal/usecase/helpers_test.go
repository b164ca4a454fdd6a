package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/testutil/memstore"
	"github.com/iho/farmledger/internal/usecase"
	"github.com/iho/farmledger/internal/usecase/mocks"
)

// engine wires every use case over one in-memory store.
type engine struct {
	store          *memstore.Store
	idGen          *mocks.MockIDGenerator
	uow            *usecase.UnitOfWork
	guard          *usecase.IdempotencyGuard
	balances       *usecase.BalanceManager
	referral       *usecase.ReferralUseCase
	sponsors       *usecase.SponsorUseCase
	positions      *usecase.PositionUseCase
	accrual        *usecase.AccrualUseCase
	rewards        *usecase.RewardUseCase
	deposits       *usecase.DepositUseCase
	withdrawals    *usecase.WithdrawalUseCase
	reconciliation *usecase.ReconciliationUseCase
	entries        *usecase.EntryUseCase
}

type engineOption func(*engineConfig)

type engineConfig struct {
	fees    map[domain.Currency]decimal.Decimal
	accrual usecase.AccrualConfig
	metrics usecase.Metrics
}

func withFee(currency domain.Currency, fee string) engineOption {
	return func(c *engineConfig) {
		c.fees[currency] = decimal.RequireFromString(fee)
	}
}

func withAccrualConfig(cfg usecase.AccrualConfig) engineOption {
	return func(c *engineConfig) {
		c.accrual = cfg
	}
}

func withMetrics(m usecase.Metrics) engineOption {
	return func(c *engineConfig) {
		c.metrics = m
	}
}

// countingMetrics records the measurements the ledger tests assert on.
type countingMetrics struct {
	usecase.NopMetrics

	mu        sync.Mutex
	entries   map[domain.EntryKind]int
	committed int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{entries: map[domain.EntryKind]int{}}
}

func (m *countingMetrics) EntryRecorded(kind domain.EntryKind, _ domain.Currency, _ decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[kind]++
}

func (m *countingMetrics) Distribution(result string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == usecase.DistributionCommitted {
		m.committed++
	}
}

func (m *countingMetrics) recorded(kind domain.EntryKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[kind]
}

func (m *countingMetrics) committedDistributions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.committed
}

func newEngine(t *testing.T, opts ...engineOption) *engine {
	t.Helper()

	cfg := &engineConfig{fees: map[domain.Currency]decimal.Decimal{}, metrics: usecase.NopMetrics{}}
	for _, opt := range opts {
		opt(cfg)
	}

	store := memstore.New()
	idGen := mocks.NewMockIDGenerator()
	logger := zerolog.Nop()
	metrics := cfg.metrics

	uow := usecase.NewUnitOfWork(store, nil, 5*time.Second)
	guard := usecase.NewIdempotencyGuard(uow, store.ProcessedEvents(), metrics)
	balances := usecase.NewBalanceManager(uow, store.Accounts(), store.Balances(), store.Entries(), idGen, metrics)
	referral := usecase.NewReferralUseCase(uow, store.Accounts(), balances, store.Outbox(), idGen, metrics)
	positions := usecase.NewPositionUseCase(uow, guard, store.Accounts(), store.Positions(), idGen)

	accrual := usecase.NewAccrualUseCase(
		uow, store.Positions(), balances, referral, store.Outbox(), idGen, metrics, logger, cfg.accrual,
	)
	deposits := usecase.NewDepositUseCase(
		uow, guard, balances, positions, store.Accounts(), store.Entries(), store.Outbox(), idGen,
	)
	withdrawals := usecase.NewWithdrawalUseCase(
		uow, balances, store.Withdrawals(), store.Entries(), store.Outbox(), idGen, metrics, cfg.fees,
	)
	reconciliation := usecase.NewReconciliationUseCase(
		uow, store.Accounts(), store.Balances(), store.Entries(), metrics, logger,
	)

	return &engine{
		store:          store,
		idGen:          idGen,
		uow:            uow,
		guard:          guard,
		balances:       balances,
		referral:       referral,
		sponsors:       usecase.NewSponsorUseCase(uow, store.Accounts(), idGen),
		positions:      positions,
		accrual:        accrual,
		rewards:        usecase.NewRewardUseCase(guard, balances, referral, store.Outbox(), idGen),
		deposits:       deposits,
		withdrawals:    withdrawals,
		reconciliation: reconciliation,
		entries:        usecase.NewEntryUseCase(store.Entries()),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (e *engine) account(t *testing.T, id string) {
	t.Helper()
	_, err := e.sponsors.CreateAccount(context.Background(), usecase.CreateAccountInput{ID: id})
	require.NoError(t, err)
}

func (e *engine) sponsoredAccount(t *testing.T, id, sponsorID string) {
	t.Helper()
	_, err := e.sponsors.CreateAccount(context.Background(), usecase.CreateAccountInput{ID: id, SponsorID: &sponsorID})
	require.NoError(t, err)
}

// chain creates ids[0] with no sponsor and each following id sponsored by
// the previous one, so the last id has the longest sponsor chain.
func (e *engine) chain(t *testing.T, ids ...string) {
	t.Helper()
	e.account(t, ids[0])
	for i := 1; i < len(ids); i++ {
		e.sponsoredAccount(t, ids[i], ids[i-1])
	}
}

func (e *engine) fund(t *testing.T, accountID string, currency domain.Currency, amount string) {
	t.Helper()
	_, err := e.balances.Credit(context.Background(), usecase.CreditInput{
		AccountID: accountID,
		Amount:    dec(amount),
		Currency:  currency,
		Kind:      domain.EntryKindAdjustment,
	})
	require.NoError(t, err)
}

func (e *engine) requireBalance(t *testing.T, accountID string, currency domain.Currency, want string) {
	t.Helper()
	got, err := e.balances.GetBalance(context.Background(), accountID, currency)
	require.NoError(t, err)
	require.Truef(t, got.Equal(dec(want)), "balance of %s: want %s, got %s", accountID, want, got)
}

func (e *engine) requireReconciled(t *testing.T, accountIDs ...string) {
	t.Helper()
	for _, id := range accountIDs {
		result, err := e.reconciliation.Reconcile(context.Background(), id)
		require.NoError(t, err, "account %s", id)
		require.True(t, result.IsReconciled, "account %s", id)
	}
}

func (e *engine) entriesOf(kind domain.EntryKind) []*domain.LedgerEntry {
	var out []*domain.LedgerEntry
	for _, entry := range e.store.AllEntries() {
		if entry.Kind == kind {
			out = append(out, entry)
		}
	}
	return out
}
