package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/infrastructure/postgres/generated"
	"github.com/iho/farmledger/internal/usecase"
)

// PositionRepository implements usecase.PositionRepository.
type PositionRepository struct {
	queries *generated.Queries
}

// NewPositionRepository creates a new PositionRepository.
func NewPositionRepository(db generated.DBTX) *PositionRepository {
	return &PositionRepository{
		queries: generated.New(db),
	}
}

// Create inserts a position.
func (r *PositionRepository) Create(ctx context.Context, tx usecase.Transaction, p *domain.Position) error {
	return txQueries(tx).CreatePosition(ctx, generated.CreatePositionParams{
		ID:                p.ID,
		AccountID:         p.AccountID,
		Kind:              string(p.Kind),
		Currency:          string(p.Currency),
		Principal:         decimalToNumeric(p.Principal),
		RatePerSecond:     decimalToNumeric(p.RatePerSecond),
		ActivatedAt:       timeToPgTimestamptz(p.ActivatedAt),
		LastAccruedAt:     timeToPgTimestamptz(p.LastAccruedAt),
		ExpiresAt:         timePtrToPgTimestamptz(p.ExpiresAt),
		ExternalReference: stringPtrToText(p.ExternalReference),
		Active:            p.Active,
		CreatedAt:         timeToPgTimestamptz(p.CreatedAt),
		UpdatedAt:         timeToPgTimestamptz(p.UpdatedAt),
	})
}

// GetByID retrieves a position by ID.
func (r *PositionRepository) GetByID(ctx context.Context, id string) (*domain.Position, error) {
	row, err := r.queries.GetPositionByID(ctx, id)
	return positionOrNotFound(row, err)
}

// GetByIDForUpdate locks a position row.
func (r *PositionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Position, error) {
	row, err := txQueries(tx).GetPositionByIDForUpdate(ctx, id)
	return positionOrNotFound(row, err)
}

// GetByExternalReference retrieves the position opened for ref.
func (r *PositionRepository) GetByExternalReference(ctx context.Context, ref string) (*domain.Position, error) {
	row, err := r.queries.GetPositionByExternalReference(ctx, stringToText(ref))
	return positionOrNotFound(row, err)
}

// ListDue pages through active positions not yet accrued up to now.
func (r *PositionRepository) ListDue(ctx context.Context, now time.Time, afterID string, limit int) ([]*domain.Position, error) {
	rows, err := r.queries.ListDuePositions(ctx, generated.ListDuePositionsParams{
		LastAccruedAt: timeToPgTimestamptz(now),
		ID:            afterID,
		Limit:         int32(limit),
	})
	return rowsToPositions(rows, err)
}

// AdvanceAccrual moves the accrual cursor with a compare-and-set on from.
func (r *PositionRepository) AdvanceAccrual(ctx context.Context, tx usecase.Transaction, id string, from, to time.Time, active bool, updatedAt time.Time) error {
	if to.Before(from) {
		return domain.ErrStaleAccrualWindow
	}

	n, err := txQueries(tx).AdvancePositionAccrual(ctx, generated.AdvancePositionAccrualParams{
		AccruedTo:   timeToPgTimestamptz(to),
		Active:      active,
		UpdatedAt:   timeToPgTimestamptz(updatedAt),
		ID:          id,
		AccruedFrom: timeToPgTimestamptz(from),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrStaleAccrualWindow
	}

	return nil
}

// ListByAccount lists positions of an account, newest first.
func (r *PositionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Position, error) {
	rows, err := r.queries.ListPositionsByAccount(ctx, generated.ListPositionsByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	return rowsToPositions(rows, err)
}

func positionOrNotFound(row generated.Position, err error) (*domain.Position, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, err
	}

	return rowToPosition(row), nil
}

func rowsToPositions(rows []generated.Position, err error) ([]*domain.Position, error) {
	if err != nil {
		return nil, err
	}

	positions := make([]*domain.Position, 0, len(rows))
	for _, row := range rows {
		positions = append(positions, rowToPosition(row))
	}

	return positions, nil
}

func rowToPosition(row generated.Position) *domain.Position {
	return &domain.Position{
		ID:                row.ID,
		AccountID:         row.AccountID,
		Kind:              domain.PositionKind(row.Kind),
		Currency:          domain.Currency(row.Currency),
		Principal:         numericToDecimal(row.Principal),
		RatePerSecond:     numericToDecimal(row.RatePerSecond),
		ActivatedAt:       row.ActivatedAt.Time.UTC(),
		LastAccruedAt:     row.LastAccruedAt.Time.UTC(),
		ExpiresAt:         pgTimestamptzToTimePtr(row.ExpiresAt),
		ExternalReference: textToStringPtr(row.ExternalReference),
		Active:            row.Active,
		CreatedAt:         row.CreatedAt.Time,
		UpdatedAt:         row.UpdatedAt.Time,
	}
}
