package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/usecase"
	"github.com/iho/farmledger/internal/usecase/mocks"
)

func TestEntryUseCase_GetEntriesByAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	entryRepo.EXPECT().ListByAccount(gomock.Any(), "acc-1", 10, 0).Return([]*domain.LedgerEntry{
		{ID: "e1", AccountID: "acc-1", Amount: decimal.NewFromInt(100)},
		{ID: "e2", AccountID: "acc-1", Amount: decimal.NewFromInt(-50)},
	}, nil)

	uc := usecase.NewEntryUseCase(entryRepo)

	entries, err := uc.GetEntriesByAccount(context.Background(), usecase.GetEntriesByAccountInput{
		AccountID: "acc-1",
		Limit:     10,
		Offset:    0,
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestEntryUseCase_GetEntriesByAccountClampsPage(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"default limit", 0, 0, usecase.DefaultPageSize, 0},
		{"max limit", 1000, 5, usecase.MaxPageSize, 5},
		{"negative offset", 10, -3, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			entryRepo := mocks.NewMockEntryRepository(ctrl)
			entryRepo.EXPECT().
				ListByAccount(gomock.Any(), "acc-1", tt.wantLimit, tt.wantOffset).
				Return(nil, nil)

			uc := usecase.NewEntryUseCase(entryRepo)
			_, err := uc.GetEntriesByAccount(context.Background(), usecase.GetEntriesByAccountInput{
				AccountID: "acc-1",
				Limit:     tt.limit,
				Offset:    tt.offset,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEntryUseCase_GetEntriesByKind(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	entryRepo.EXPECT().ListByKind(gomock.Any(), domain.EntryKindReferralCommission, 20, 0).Return([]*domain.LedgerEntry{
		{ID: "e1", Kind: domain.EntryKindReferralCommission},
	}, nil)

	uc := usecase.NewEntryUseCase(entryRepo)

	entries, err := uc.GetEntriesByKind(context.Background(), domain.EntryKindReferralCommission, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}

func TestEntryUseCase_GetEntriesByKindRejectsUnknownKind(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc := usecase.NewEntryUseCase(mocks.NewMockEntryRepository(ctrl))

	_, err := uc.GetEntriesByKind(context.Background(), domain.EntryKind("transfer"), 10, 0)
	if !errors.Is(err, domain.ErrInvalidEntryKind) {
		t.Fatalf("expected ErrInvalidEntryKind, got %v", err)
	}
}

func TestEntryUseCase_GetEntriesByExternalReference(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ref := "0xabc"
	entryRepo := mocks.NewMockEntryRepository(ctrl)
	entryRepo.EXPECT().ListByExternalReference(gomock.Any(), ref).Return([]*domain.LedgerEntry{
		{ID: "e1", Kind: domain.EntryKindDeposit, ExternalReference: &ref},
	}, nil)

	uc := usecase.NewEntryUseCase(entryRepo)

	entries, err := uc.GetEntriesByExternalReference(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || *entries[0].ExternalReference != ref {
		t.Errorf("expected the deposit entry for %s, got %+v", ref, entries)
	}

	if _, err := uc.GetEntriesByExternalReference(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference for blank reference, got %v", err)
	}
}

func TestEntryUseCase_GetEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	entryRepo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, domain.ErrEntryNotFound)

	uc := usecase.NewEntryUseCase(entryRepo)

	if _, err := uc.GetEntry(context.Background(), "missing"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}
