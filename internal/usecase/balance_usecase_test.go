package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/usecase"
)

func TestBalanceManager_CreditAndDebit(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	e.account(t, "alice")

	credit, err := e.balances.Credit(ctx, usecase.CreditInput{
		AccountID: "alice",
		Amount:    dec("10.5"),
		Currency:  domain.CurrencyTON,
		Kind:      domain.EntryKindDeposit,
		Metadata:  map[string]any{"source": "test"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusCompleted, credit.Status)
	assert.True(t, credit.Amount.Equal(dec("10.5")))
	assert.True(t, credit.BalanceAfter.Valid)
	assert.True(t, credit.BalanceAfter.Decimal.Equal(dec("10.5")))
	assert.Equal(t, int64(1), credit.AccountVersion)

	debit, err := e.balances.Debit(ctx, usecase.DebitInput{
		AccountID: "alice",
		Amount:    dec("4"),
		Currency:  domain.CurrencyTON,
		Kind:      domain.EntryKindWithdrawal,
	})
	require.NoError(t, err)
	assert.True(t, debit.Amount.Equal(dec("-4")), "debit entries carry a negative amount")
	assert.True(t, debit.BalanceAfter.Decimal.Equal(dec("6.5")))
	assert.Equal(t, int64(2), debit.AccountVersion)

	e.requireBalance(t, "alice", domain.CurrencyTON, "6.5")
	e.requireBalance(t, "alice", domain.CurrencyPoints, "0")
	e.requireReconciled(t, "alice")
}

func TestBalanceManager_DebitInsufficientFundsLeavesNoTrace(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	e.account(t, "alice")
	e.fund(t, "alice", domain.CurrencyPoints, "3")

	before := len(e.store.AllEntries())

	_, err := e.balances.Debit(ctx, usecase.DebitInput{
		AccountID: "alice",
		Amount:    dec("3.000000000000000001"),
		Currency:  domain.CurrencyPoints,
		Kind:      domain.EntryKindWithdrawal,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Len(t, e.store.AllEntries(), before)
	e.requireBalance(t, "alice", domain.CurrencyPoints, "3")
	e.requireReconciled(t, "alice")
}

func TestBalanceManager_RejectsInvalidInput(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")

	tests := []struct {
		name    string
		input   usecase.CreditInput
		wantErr error
	}{
		{
			name:    "zero amount",
			input:   usecase.CreditInput{AccountID: "alice", Amount: dec("0"), Currency: domain.CurrencyTON, Kind: domain.EntryKindDeposit},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			input:   usecase.CreditInput{AccountID: "alice", Amount: dec("-1"), Currency: domain.CurrencyTON, Kind: domain.EntryKindDeposit},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "too precise",
			input:   usecase.CreditInput{AccountID: "alice", Amount: dec("0.0000000000000000001"), Currency: domain.CurrencyTON, Kind: domain.EntryKindDeposit},
			wantErr: domain.ErrAmountTooPrecise,
		},
		{
			name:    "unknown currency",
			input:   usecase.CreditInput{AccountID: "alice", Amount: dec("1"), Currency: "BTC", Kind: domain.EntryKindDeposit},
			wantErr: domain.ErrInvalidCurrency,
		},
		{
			name:    "unknown kind",
			input:   usecase.CreditInput{AccountID: "alice", Amount: dec("1"), Currency: domain.CurrencyTON, Kind: "transfer"},
			wantErr: domain.ErrInvalidEntryKind,
		},
		{
			name:    "unknown account",
			input:   usecase.CreditInput{AccountID: "nobody", Amount: dec("1"), Currency: domain.CurrencyTON, Kind: domain.EntryKindDeposit},
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.balances.Credit(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Empty(t, e.store.AllEntries())
}

func TestBalanceManager_FailedEntryWriteRollsBackBalance(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")
	e.fund(t, "alice", domain.CurrencyTON, "1")

	storeDown := errors.New("store unavailable")
	e.store.FailEntriesWhen(func(*domain.LedgerEntry) error { return storeDown })

	_, err := e.balances.Credit(context.Background(), usecase.CreditInput{
		AccountID: "alice",
		Amount:    dec("5"),
		Currency:  domain.CurrencyTON,
		Kind:      domain.EntryKindDeposit,
	})
	require.ErrorIs(t, err, storeDown)

	e.store.FailEntriesWhen(nil)

	e.requireBalance(t, "alice", domain.CurrencyTON, "1")
	account, err := e.sponsors.GetAccount(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.Version, "version bump must roll back with the entry")
	e.requireReconciled(t, "alice")
}

func TestBalanceManager_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")
	e.fund(t, "alice", domain.CurrencyPoints, "100")

	const workers = 50
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)

	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			_, err := e.balances.Debit(context.Background(), usecase.DebitInput{
				AccountID: "alice",
				Amount:    dec("3"),
				Currency:  domain.CurrencyPoints,
				Kind:      domain.EntryKindWithdrawal,
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrInsufficientFunds):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(33), succeeded.Load())
	assert.Equal(t, int32(17), rejected.Load())
	e.requireBalance(t, "alice", domain.CurrencyPoints, "1")
	e.requireReconciled(t, "alice")
}

func TestBalanceManager_GetBalanceUnknownAccount(t *testing.T) {
	e := newEngine(t)

	_, err := e.balances.GetBalance(context.Background(), "ghost", domain.CurrencyTON)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestBalanceManager_ListBalances(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")
	e.fund(t, "alice", domain.CurrencyTON, "2")
	e.fund(t, "alice", domain.CurrencyPoints, "7")

	balances, err := e.balances.ListBalances(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, domain.CurrencyPoints, balances[0].Currency)
	assert.Equal(t, domain.CurrencyTON, balances[1].Currency)
}
