package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/domain"
)

// DepositUseCase ingests externally confirmed deposits. Each deposit is keyed
// by its external reference (for example an on-chain transaction hash).
type DepositUseCase struct {
	uow         *UnitOfWork
	guard       *IdempotencyGuard
	balances    *BalanceManager
	positions   *PositionUseCase
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
}

// NewDepositUseCase creates a new DepositUseCase.
func NewDepositUseCase(
	uow *UnitOfWork,
	guard *IdempotencyGuard,
	balances *BalanceManager,
	positions *PositionUseCase,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *DepositUseCase {
	return &DepositUseCase{
		uow:         uow,
		guard:       guard,
		balances:    balances,
		positions:   positions,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
	}
}

// DepositInput represents an externally sourced deposit.
type DepositInput struct {
	Metadata          map[string]any
	AccountID         string
	ExternalReference string
	Description       string
	Currency          domain.Currency
	Amount            decimal.Decimal
}

// FarmingTerms opens a farming position with the deposited amount as
// principal when a deposit is confirmed.
type FarmingTerms struct {
	ExpiresAt     *time.Time
	Kind          domain.PositionKind
	RatePerSecond decimal.Decimal
}

// ConfirmDepositInput represents a confirmed deposit.
type ConfirmDepositInput struct {
	Farming *FarmingTerms
	DepositInput
}

// DepositResult is the outcome of a deposit call.
type DepositResult struct {
	Entry     *domain.LedgerEntry
	Position  *domain.Position
	Duplicate bool
}

func (in DepositInput) validate() error {
	if err := domain.ValidateReference(in.ExternalReference); err != nil {
		return err
	}
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return err
	}
	if err := domain.ValidateCurrency(in.Currency); err != nil {
		return err
	}
	return domain.ValidateMetadata(in.Metadata)
}

// RecordPending registers a deposit seen but not yet final. It writes a
// pending entry and leaves the balance untouched.
func (uc *DepositUseCase) RecordPending(ctx context.Context, input DepositInput) (*DepositResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	result := &DepositResult{}
	admitted, err := uc.guard.Guard(ctx, ScopeDeposit, input.ExternalReference, func(ctx context.Context, tx Transaction) error {
		account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.AccountID)
		if err != nil {
			return err
		}

		ref := input.ExternalReference
		entry := &domain.LedgerEntry{
			ID:                uc.idGen.Generate(),
			AccountID:         input.AccountID,
			Amount:            input.Amount,
			Currency:          input.Currency,
			Kind:              domain.EntryKindDeposit,
			Status:            domain.EntryStatusPending,
			Description:       input.Description,
			Metadata:          input.Metadata,
			ExternalReference: &ref,
			AccountVersion:    account.Version,
			CreatedAt:         time.Now().UTC(),
		}
		if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
			return err
		}

		result.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !admitted {
		return &DepositResult{Duplicate: true}, nil
	}
	return result, nil
}

// settleTx completes the recorded entry for the deposit, or writes a completed
// one when none exists. duplicate reports a deposit that was already credited.
func (uc *DepositUseCase) settleTx(ctx context.Context, tx Transaction, input ConfirmDepositInput) (*domain.LedgerEntry, bool, error) {
	ref := input.ExternalReference

	entry, err := uc.entryRepo.GetByExternalReferenceTx(ctx, tx, domain.EntryKindDeposit, ref)
	if errors.Is(err, domain.ErrEntryNotFound) {
		var admitted bool
		admitted, err = uc.guard.AdmitOnceTx(ctx, tx, ScopeDeposit, ref)
		if err != nil {
			return nil, false, err
		}
		if admitted {
			entry, err = uc.balances.CreditTx(ctx, tx, CreditInput{
				AccountID:         input.AccountID,
				Amount:            input.Amount,
				Currency:          input.Currency,
				Kind:              domain.EntryKindDeposit,
				Description:       input.Description,
				Metadata:          input.Metadata,
				ExternalReference: &ref,
			})
			return entry, false, err
		}

		// The reference was admitted by a transaction that committed while
		// this one waited on the key. A new statement sees its entry, which
		// may still be pending.
		entry, err = uc.entryRepo.GetByExternalReferenceTx(ctx, tx, domain.EntryKindDeposit, ref)
		if errors.Is(err, domain.ErrEntryNotFound) {
			return nil, true, nil
		}
	}
	if err != nil {
		return nil, false, err
	}

	switch entry.Status {
	case domain.EntryStatusCompleted:
		uc.guard.metrics.DuplicateEvent(ScopeDeposit)
		return entry, true, nil
	case domain.EntryStatusFailed:
		return nil, false, fmt.Errorf("%w: deposit %s already failed", domain.ErrInvalidEntryTransition, ref)
	}
	if entry.AccountID != input.AccountID || entry.Currency != input.Currency || !entry.Amount.Equal(input.Amount) {
		return nil, false, fmt.Errorf("%w: deposit %s does not match its pending record", domain.ErrInvalidReference, ref)
	}
	if err := uc.balances.CompletePendingTx(ctx, tx, entry); err != nil {
		return nil, false, err
	}
	return entry, false, nil
}

// Confirm credits a deposit exactly once. A pending entry recorded earlier is
// completed in place; otherwise the reference is admitted and a completed
// entry written. Farming terms open a position in the same transaction.
func (uc *DepositUseCase) Confirm(ctx context.Context, input ConfirmDepositInput) (*DepositResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var result *DepositResult
	err := uc.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
		var err error
		result, err = uc.confirmTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *DepositUseCase) confirmTx(ctx context.Context, tx Transaction, input ConfirmDepositInput) (*DepositResult, error) {
	ref := input.ExternalReference

	entry, duplicate, err := uc.settleTx(ctx, tx, input)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return &DepositResult{Entry: entry, Duplicate: true}, nil
	}

	result := &DepositResult{Entry: entry}

	if input.Farming != nil {
		position, err := uc.positions.OpenTx(ctx, tx, OpenPositionInput{
			AccountID:         input.AccountID,
			Kind:              input.Farming.Kind,
			Currency:          input.Currency,
			Principal:         input.Amount,
			RatePerSecond:     input.Farming.RatePerSecond,
			ExpiresAt:         input.Farming.ExpiresAt,
			ExternalReference: &ref,
		})
		if err != nil {
			return nil, err
		}
		result.Position = position
	}

	payload := domain.DepositConfirmedEvent{
		EntryID:           entry.ID,
		AccountID:         entry.AccountID,
		Amount:            entry.Amount.String(),
		Currency:          string(entry.Currency),
		ExternalReference: ref,
	}
	if result.Position != nil {
		payload.PositionID = result.Position.ID
	}

	event, err := newOutboxEvent(
		uc.idGen.Generate(),
		domain.AggregateTypeAccount,
		entry.AccountID,
		domain.EventTypeDepositConfirmed,
		payload,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	return result, nil
}

// Fail marks a pending deposit as failed. The balance is never touched.
func (uc *DepositUseCase) Fail(ctx context.Context, externalReference string) (*domain.LedgerEntry, error) {
	if err := domain.ValidateReference(externalReference); err != nil {
		return nil, err
	}

	var entry *domain.LedgerEntry
	err := uc.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
		var err error
		entry, err = uc.entryRepo.GetByExternalReferenceTx(ctx, tx, domain.EntryKindDeposit, externalReference)
		if err != nil {
			return err
		}
		if !entry.CanTransitionTo(domain.EntryStatusFailed) {
			return domain.ErrInvalidEntryTransition
		}
		entry.Status = domain.EntryStatusFailed
		return uc.entryRepo.UpdateStatus(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
