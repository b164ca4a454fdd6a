package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/domain"
)

// PositionUseCase opens and queries farming positions.
type PositionUseCase struct {
	uow          *UnitOfWork
	guard        *IdempotencyGuard
	accountRepo  AccountRepository
	positionRepo PositionRepository
	idGen        IDGenerator
}

// NewPositionUseCase creates a new PositionUseCase.
func NewPositionUseCase(
	uow *UnitOfWork,
	guard *IdempotencyGuard,
	accountRepo AccountRepository,
	positionRepo PositionRepository,
	idGen IDGenerator,
) *PositionUseCase {
	return &PositionUseCase{
		uow:          uow,
		guard:        guard,
		accountRepo:  accountRepo,
		positionRepo: positionRepo,
		idGen:        idGen,
	}
}

// OpenPositionInput represents input for opening a position.
type OpenPositionInput struct {
	ActivatedAt       *time.Time
	ExpiresAt         *time.Time
	ExternalReference *string
	AccountID         string
	Kind              domain.PositionKind
	Currency          domain.Currency
	Principal         decimal.Decimal
	RatePerSecond     decimal.Decimal
}

// Open creates an active position. With an external reference the call is
// idempotent and a repeat returns the position created first.
func (uc *PositionUseCase) Open(ctx context.Context, input OpenPositionInput) (*domain.Position, error) {
	if input.ExternalReference == nil {
		var position *domain.Position
		err := uc.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
			var err error
			position, err = uc.OpenTx(ctx, tx, input)
			return err
		})
		if err != nil {
			return nil, err
		}
		return position, nil
	}

	var position *domain.Position
	admitted, err := uc.guard.Guard(ctx, ScopePosition, *input.ExternalReference, func(ctx context.Context, tx Transaction) error {
		var err error
		position, err = uc.OpenTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !admitted {
		return uc.positionRepo.GetByExternalReference(ctx, *input.ExternalReference)
	}
	return position, nil
}

// OpenTx creates a position inside an existing transaction.
func (uc *PositionUseCase) OpenTx(ctx context.Context, tx Transaction, input OpenPositionInput) (*domain.Position, error) {
	now := time.Now().UTC()
	activatedAt := now
	if input.ActivatedAt != nil {
		activatedAt = input.ActivatedAt.UTC()
	}

	position := &domain.Position{
		ID:                uc.idGen.Generate(),
		AccountID:         input.AccountID,
		Kind:              input.Kind,
		Currency:          input.Currency,
		Principal:         input.Principal,
		RatePerSecond:     input.RatePerSecond,
		ActivatedAt:       activatedAt,
		LastAccruedAt:     activatedAt,
		ExpiresAt:         input.ExpiresAt,
		ExternalReference: input.ExternalReference,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := position.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount(position.Principal); err != nil {
		return nil, err
	}

	if _, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.AccountID); err != nil {
		return nil, err
	}

	if err := uc.positionRepo.Create(ctx, tx, position); err != nil {
		return nil, err
	}

	return position, nil
}

// Get retrieves a position by ID.
func (uc *PositionUseCase) Get(ctx context.Context, id string) (*domain.Position, error) {
	return uc.positionRepo.GetByID(ctx, id)
}

// ListByAccount lists the positions of an account.
func (uc *PositionUseCase) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Position, error) {
	limit, offset = clampPage(limit, offset)
	return uc.positionRepo.ListByAccount(ctx, accountID, limit, offset)
}
