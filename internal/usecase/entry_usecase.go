package usecase

import (
	"context"

	"github.com/iho/farmledger/internal/domain"
)

// EntryUseCase answers ledger queries for audit and support.
type EntryUseCase struct {
	entryRepo EntryRepository
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(entryRepo EntryRepository) *EntryUseCase {
	return &EntryUseCase{
		entryRepo: entryRepo,
	}
}

// GetEntriesByAccountInput represents input for listing entries.
type GetEntriesByAccountInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// GetEntriesByAccount lists entries for an account, newest first.
func (uc *EntryUseCase) GetEntriesByAccount(ctx context.Context, input GetEntriesByAccountInput) ([]*domain.LedgerEntry, error) {
	limit, offset := clampPage(input.Limit, input.Offset)
	return uc.entryRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}

// GetEntriesByKind lists entries of one kind across all accounts.
func (uc *EntryUseCase) GetEntriesByKind(ctx context.Context, kind domain.EntryKind, limit, offset int) ([]*domain.LedgerEntry, error) {
	if !kind.IsValid() {
		return nil, domain.ErrInvalidEntryKind
	}
	limit, offset = clampPage(limit, offset)
	return uc.entryRepo.ListByKind(ctx, kind, limit, offset)
}

// GetEntriesByExternalReference lists entries recorded for an external event.
func (uc *EntryUseCase) GetEntriesByExternalReference(ctx context.Context, ref string) ([]*domain.LedgerEntry, error) {
	if err := domain.ValidateReference(ref); err != nil {
		return nil, err
	}
	return uc.entryRepo.ListByExternalReference(ctx, ref)
}

// GetEntriesByEventID lists the reward and commission entries of one event.
func (uc *EntryUseCase) GetEntriesByEventID(ctx context.Context, eventID string) ([]*domain.LedgerEntry, error) {
	if err := domain.ValidateReference(eventID); err != nil {
		return nil, err
	}
	return uc.entryRepo.ListByEventID(ctx, eventID)
}

// GetEntry retrieves an entry by ID.
func (uc *EntryUseCase) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return uc.entryRepo.GetByID(ctx, id)
}
