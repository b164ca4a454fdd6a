package usecase_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/usecase"
)

func depositInput(accountID, ref, amount string) usecase.DepositInput {
	return usecase.DepositInput{
		AccountID:         accountID,
		ExternalReference: ref,
		Currency:          domain.CurrencyTON,
		Amount:            dec(amount),
	}
}

func TestDepositUseCase_ConfirmTwiceCreditsOnce(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")
	ctx := context.Background()

	input := usecase.ConfirmDepositInput{DepositInput: depositInput("alice", "0xabc", "12.5")}

	first, err := e.deposits.Confirm(ctx, input)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	require.NotNil(t, first.Entry)
	assert.Equal(t, domain.EntryStatusCompleted, first.Entry.Status)

	second, err := e.deposits.Confirm(ctx, input)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	e.requireBalance(t, "alice", domain.CurrencyTON, "12.5")
	assert.Len(t, e.entriesOf(domain.EntryKindDeposit), 1)
	e.requireReconciled(t, "alice")

	events := e.store.AllOutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypeDepositConfirmed, events[0].EventType)
}

func TestDepositUseCase_ConcurrentConfirmations(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")

	input := usecase.ConfirmDepositInput{DepositInput: depositInput("alice", "0xrace", "1")}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		credited   int
		duplicates int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := e.deposits.Confirm(context.Background(), input)
			assert.NoError(t, err)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if result.Duplicate {
				duplicates++
			} else {
				credited++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, credited)
	assert.Equal(t, 9, duplicates)
	e.requireBalance(t, "alice", domain.CurrencyTON, "1")
}

func TestDepositUseCase_PendingThenConfirm(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")
	ctx := context.Background()

	pending, err := e.deposits.RecordPending(ctx, depositInput("alice", "0xdef", "3"))
	require.NoError(t, err)
	require.NotNil(t, pending.Entry)
	assert.Equal(t, domain.EntryStatusPending, pending.Entry.Status)
	e.requireBalance(t, "alice", domain.CurrencyTON, "0")

	again, err := e.deposits.RecordPending(ctx, depositInput("alice", "0xdef", "3"))
	require.NoError(t, err)
	assert.True(t, again.Duplicate)

	confirmed, err := e.deposits.Confirm(ctx, usecase.ConfirmDepositInput{DepositInput: depositInput("alice", "0xdef", "3")})
	require.NoError(t, err)
	assert.False(t, confirmed.Duplicate)
	assert.Equal(t, pending.Entry.ID, confirmed.Entry.ID, "pending entry is completed in place")
	assert.Equal(t, domain.EntryStatusCompleted, confirmed.Entry.Status)

	e.requireBalance(t, "alice", domain.CurrencyTON, "3")
	assert.Len(t, e.entriesOf(domain.EntryKindDeposit), 1)
	e.requireReconciled(t, "alice")
}

func TestDepositUseCase_ConfirmMismatchedPending(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")
	ctx := context.Background()

	_, err := e.deposits.RecordPending(ctx, depositInput("alice", "0x111", "3"))
	require.NoError(t, err)

	_, err = e.deposits.Confirm(ctx, usecase.ConfirmDepositInput{DepositInput: depositInput("alice", "0x111", "30")})
	require.ErrorIs(t, err, domain.ErrInvalidReference)
	e.requireBalance(t, "alice", domain.CurrencyTON, "0")
}

func TestDepositUseCase_Fail(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")
	ctx := context.Background()

	_, err := e.deposits.RecordPending(ctx, depositInput("alice", "0xbad", "3"))
	require.NoError(t, err)

	failed, err := e.deposits.Fail(ctx, "0xbad")
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusFailed, failed.Status)

	_, err = e.deposits.Confirm(ctx, usecase.ConfirmDepositInput{DepositInput: depositInput("alice", "0xbad", "3")})
	require.ErrorIs(t, err, domain.ErrInvalidEntryTransition)
	e.requireBalance(t, "alice", domain.CurrencyTON, "0")

	_, err = e.deposits.Fail(ctx, "0xbad")
	require.ErrorIs(t, err, domain.ErrInvalidEntryTransition)

	_, err = e.deposits.Fail(ctx, "0xunknown")
	require.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestDepositUseCase_ConfirmOpensFarmingPosition(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")
	ctx := context.Background()

	expires := time.Now().UTC().Add(30 * 24 * time.Hour)
	result, err := e.deposits.Confirm(ctx, usecase.ConfirmDepositInput{
		DepositInput: depositInput("alice", "0xfarm", "100"),
		Farming: &usecase.FarmingTerms{
			Kind:          domain.PositionKindFarming,
			RatePerSecond: dec("0.00001"),
			ExpiresAt:     &expires,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Position)
	assert.True(t, result.Position.Principal.Equal(dec("100")))
	assert.True(t, result.Position.Active)
	assert.Equal(t, domain.CurrencyTON, result.Position.Currency)

	positions, err := e.positions.ListByAccount(ctx, "alice", 10, 0)
	require.NoError(t, err)
	assert.Len(t, positions, 1)

	events := e.store.AllOutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, result.Position.ID, events[0].Payload["position_id"])
}

func TestDepositUseCase_InvalidFarmingTermsRollBackCredit(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")

	_, err := e.deposits.Confirm(context.Background(), usecase.ConfirmDepositInput{
		DepositInput: depositInput("alice", "0xneg", "5"),
		Farming: &usecase.FarmingTerms{
			Kind:          domain.PositionKindFarming,
			RatePerSecond: dec("-1"),
		},
	})
	require.ErrorIs(t, err, domain.ErrInvalidRate)

	e.requireBalance(t, "alice", domain.CurrencyTON, "0")
	assert.Empty(t, e.store.AllEntries())

	seen, err := e.guard.Seen(context.Background(), usecase.ScopeDeposit, "0xneg")
	require.NoError(t, err)
	assert.False(t, seen, "the reference must stay free for a corrected retry")
}

func TestDepositUseCase_Validation(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")

	tests := []struct {
		name    string
		input   usecase.DepositInput
		wantErr error
	}{
		{"empty reference", depositInput("alice", " ", "1"), domain.ErrInvalidReference},
		{"zero amount", depositInput("alice", "0x1", "0"), domain.ErrInvalidAmount},
		{"unknown account", depositInput("bob", "0x2", "1"), domain.ErrAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.deposits.Confirm(context.Background(), usecase.ConfirmDepositInput{DepositInput: tt.input})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// staleEntryRepo misses the first lookup by reference, like a READ COMMITTED
// statement that ran before a concurrent RecordPending committed.
type staleEntryRepo struct {
	usecase.EntryRepository
	missed atomic.Bool
}

func (r *staleEntryRepo) GetByExternalReferenceTx(ctx context.Context, tx usecase.Transaction, kind domain.EntryKind, ref string) (*domain.LedgerEntry, error) {
	if r.missed.CompareAndSwap(false, true) {
		return nil, domain.ErrEntryNotFound
	}
	return r.EntryRepository.GetByExternalReferenceTx(ctx, tx, kind, ref)
}

func TestDepositUseCase_ConfirmAfterConcurrentPendingCredits(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")
	ctx := context.Background()

	pending, err := e.deposits.RecordPending(ctx, depositInput("alice", "0xrace", "4"))
	require.NoError(t, err)

	deposits := usecase.NewDepositUseCase(
		e.uow, e.guard, e.balances, e.positions, e.store.Accounts(),
		&staleEntryRepo{EntryRepository: e.store.Entries()},
		e.store.Outbox(), e.idGen,
	)

	confirmed, err := deposits.Confirm(ctx, usecase.ConfirmDepositInput{DepositInput: depositInput("alice", "0xrace", "4")})
	require.NoError(t, err)
	assert.False(t, confirmed.Duplicate)
	require.NotNil(t, confirmed.Entry)
	assert.Equal(t, pending.Entry.ID, confirmed.Entry.ID)
	assert.Equal(t, domain.EntryStatusCompleted, confirmed.Entry.Status)

	e.requireBalance(t, "alice", domain.CurrencyTON, "4")
	assert.Len(t, e.entriesOf(domain.EntryKindDeposit), 1)
	e.requireReconciled(t, "alice")
}

func TestDepositUseCase_ConfirmAfterConcurrentConfirmIsDuplicate(t *testing.T) {
	e := newEngine(t)
	e.account(t, "alice")
	ctx := context.Background()

	input := usecase.ConfirmDepositInput{DepositInput: depositInput("alice", "0xboth", "2")}
	_, err := e.deposits.Confirm(ctx, input)
	require.NoError(t, err)

	deposits := usecase.NewDepositUseCase(
		e.uow, e.guard, e.balances, e.positions, e.store.Accounts(),
		&staleEntryRepo{EntryRepository: e.store.Entries()},
		e.store.Outbox(), e.idGen,
	)

	second, err := deposits.Confirm(ctx, input)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	e.requireBalance(t, "alice", domain.CurrencyTON, "2")
}
