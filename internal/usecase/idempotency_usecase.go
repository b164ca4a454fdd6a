package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/farmledger/internal/domain"
)

// IdempotencyGuard admits an external reference at most once per scope.
// Registration is a row insert under a primary key, written in the same
// transaction as the credit it protects.
type IdempotencyGuard struct {
	uow     *UnitOfWork
	repo    ProcessedEventRepository
	metrics Metrics
}

// NewIdempotencyGuard creates a new IdempotencyGuard.
func NewIdempotencyGuard(uow *UnitOfWork, repo ProcessedEventRepository, metrics Metrics) *IdempotencyGuard {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &IdempotencyGuard{
		uow:     uow,
		repo:    repo,
		metrics: metrics,
	}
}

// AdmitOnceTx registers ref in tx. It returns false if ref was already
// admitted. A concurrent registration of the same ref blocks until the other
// transaction finishes.
func (g *IdempotencyGuard) AdmitOnceTx(ctx context.Context, tx Transaction, scope, ref string) (bool, error) {
	if err := domain.ValidateReference(ref); err != nil {
		return false, err
	}

	admitted, err := g.repo.Register(ctx, tx, scope, strings.TrimSpace(ref), time.Now().UTC())
	if err != nil {
		return false, err
	}
	if !admitted {
		g.metrics.DuplicateEvent(scope)
	}
	return admitted, nil
}

// Guard runs fn in the same transaction as the registration of ref. If fn
// fails the registration is rolled back with it. Returns admitted=false and
// a nil error when ref was already processed.
func (g *IdempotencyGuard) Guard(ctx context.Context, scope, ref string, fn func(ctx context.Context, tx Transaction) error) (bool, error) {
	var admitted bool
	err := g.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
		ok, err := g.AdmitOnceTx(ctx, tx, scope, ref)
		if err != nil {
			return err
		}
		admitted = ok
		if !ok {
			return nil
		}
		return fn(ctx, tx)
	})
	if err != nil {
		return false, err
	}
	return admitted, nil
}

// Seen reports whether ref was admitted in scope.
func (g *IdempotencyGuard) Seen(ctx context.Context, scope, ref string) (bool, error) {
	if err := domain.ValidateReference(ref); err != nil {
		return false, err
	}
	return g.repo.Exists(ctx, scope, strings.TrimSpace(ref))
}
