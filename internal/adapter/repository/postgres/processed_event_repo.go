package postgres

import (
	"context"
	"time"

	"github.com/iho/farmledger/internal/infrastructure/postgres/generated"
	"github.com/iho/farmledger/internal/usecase"
)

// ProcessedEventRepository implements usecase.ProcessedEventRepository on
// the processed_events primary key.
type ProcessedEventRepository struct {
	queries *generated.Queries
}

// NewProcessedEventRepository creates a new ProcessedEventRepository.
func NewProcessedEventRepository(db generated.DBTX) *ProcessedEventRepository {
	return &ProcessedEventRepository{
		queries: generated.New(db),
	}
}

// Register inserts (scope, ref). A concurrent insert of the same key waits
// for the other transaction and then reports false if it committed.
func (r *ProcessedEventRepository) Register(ctx context.Context, tx usecase.Transaction, scope, ref string, at time.Time) (bool, error) {
	n, err := txQueries(tx).RegisterProcessedEvent(ctx, generated.RegisterProcessedEventParams{
		Scope:       scope,
		Ref:         ref,
		ProcessedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// Exists reports whether (scope, ref) was committed.
func (r *ProcessedEventRepository) Exists(ctx context.Context, scope, ref string) (bool, error) {
	return r.queries.ProcessedEventExists(ctx, generated.ProcessedEventExistsParams{
		Scope: scope,
		Ref:   ref,
	})
}
