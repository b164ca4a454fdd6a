package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/infrastructure/postgres/generated"
	"github.com/iho/farmledger/internal/usecase"
)

// WithdrawalRepository implements usecase.WithdrawalRepository.
type WithdrawalRepository struct {
	queries *generated.Queries
}

// NewWithdrawalRepository creates a new WithdrawalRepository.
func NewWithdrawalRepository(db generated.DBTX) *WithdrawalRepository {
	return &WithdrawalRepository{
		queries: generated.New(db),
	}
}

// Create inserts a withdrawal request.
func (r *WithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, w *domain.WithdrawalRequest) error {
	return txQueries(tx).CreateWithdrawal(ctx, generated.CreateWithdrawalParams{
		ID:                 w.ID,
		AccountID:          w.AccountID,
		Currency:           string(w.Currency),
		Amount:             decimalToNumeric(w.Amount),
		Fee:                decimalToNumeric(w.Fee),
		Destination:        w.Destination,
		State:              string(w.State),
		Reason:             w.Reason,
		ReservationEntryID: w.ReservationEntryID,
		FeeEntryID:         stringToText(w.FeeEntryID),
		CreatedAt:          timeToPgTimestamptz(w.CreatedAt),
		UpdatedAt:          timeToPgTimestamptz(w.UpdatedAt),
	})
}

// GetByID retrieves a withdrawal request by ID.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	row, err := r.queries.GetWithdrawalByID(ctx, id)
	return withdrawalOrNotFound(row, err)
}

// GetByIDForUpdate locks a withdrawal request.
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.WithdrawalRequest, error) {
	row, err := txQueries(tx).GetWithdrawalByIDForUpdate(ctx, id)
	return withdrawalOrNotFound(row, err)
}

// Update writes the state and timestamps of a request.
func (r *WithdrawalRepository) Update(ctx context.Context, tx usecase.Transaction, w *domain.WithdrawalRequest) error {
	n, err := txQueries(tx).UpdateWithdrawal(ctx, generated.UpdateWithdrawalParams{
		ID:          w.ID,
		State:       string(w.State),
		Reason:      w.Reason,
		ApprovedAt:  timePtrToPgTimestamptz(w.ApprovedAt),
		RejectedAt:  timePtrToPgTimestamptz(w.RejectedAt),
		CompletedAt: timePtrToPgTimestamptz(w.CompletedAt),
		UpdatedAt:   timeToPgTimestamptz(w.UpdatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrWithdrawalNotFound
	}

	return nil
}

// ListByState lists requests in a state, oldest first.
func (r *WithdrawalRepository) ListByState(ctx context.Context, state domain.WithdrawalState, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	rows, err := r.queries.ListWithdrawalsByState(ctx, generated.ListWithdrawalsByStateParams{
		State:  string(state),
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	return rowsToWithdrawals(rows, err)
}

// ListByAccount lists requests of an account, newest first.
func (r *WithdrawalRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	rows, err := r.queries.ListWithdrawalsByAccount(ctx, generated.ListWithdrawalsByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	return rowsToWithdrawals(rows, err)
}

func withdrawalOrNotFound(row generated.WithdrawalRequest, err error) (*domain.WithdrawalRequest, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWithdrawalNotFound
		}
		return nil, err
	}

	return rowToWithdrawal(row), nil
}

func rowsToWithdrawals(rows []generated.WithdrawalRequest, err error) ([]*domain.WithdrawalRequest, error) {
	if err != nil {
		return nil, err
	}

	out := make([]*domain.WithdrawalRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToWithdrawal(row))
	}

	return out, nil
}

func rowToWithdrawal(row generated.WithdrawalRequest) *domain.WithdrawalRequest {
	w := &domain.WithdrawalRequest{
		ID:                 row.ID,
		AccountID:          row.AccountID,
		Currency:           domain.Currency(row.Currency),
		Amount:             numericToDecimal(row.Amount),
		Fee:                numericToDecimal(row.Fee),
		Destination:        row.Destination,
		State:              domain.WithdrawalState(row.State),
		Reason:             row.Reason,
		ReservationEntryID: row.ReservationEntryID,
		CreatedAt:          row.CreatedAt.Time,
		UpdatedAt:          row.UpdatedAt.Time,
		ApprovedAt:         pgTimestamptzToTimePtr(row.ApprovedAt),
		RejectedAt:         pgTimestamptzToTimePtr(row.RejectedAt),
		CompletedAt:        pgTimestamptzToTimePtr(row.CompletedAt),
	}
	if row.FeeEntryID.Valid {
		w.FeeEntryID = row.FeeEntryID.String
	}

	return w
}
