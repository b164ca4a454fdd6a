package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iho/farmledger/internal/domain"
)

// UnitOfWork runs a function inside one database transaction with a deadline,
// retrying the whole unit on transient store errors.
type UnitOfWork struct {
	txManager TransactionManager
	retrier   Retrier
	timeout   time.Duration
}

// NewUnitOfWork creates a UnitOfWork. A nil retrier runs each unit once.
func NewUnitOfWork(txManager TransactionManager, retrier Retrier, timeout time.Duration) *UnitOfWork {
	if timeout <= 0 {
		timeout = DefaultTransactionTimeout
	}
	return &UnitOfWork{
		txManager: txManager,
		retrier:   retrier,
		timeout:   timeout,
	}
}

// Do executes fn in a transaction and commits when fn returns nil. fn may be
// called more than once and must not leak state between attempts.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, u.timeout)
		defer cancel()

		tx, err := u.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		hooks := &commitHooks{}
		if err := fn(context.WithValue(txCtx, commitHooksKey{}, hooks), tx); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return err
		}
		for _, hook := range hooks.fns {
			hook()
		}
		return nil
	}

	if u.retrier == nil {
		return attempt()
	}
	return u.retrier.Retry(ctx, attempt)
}

type commitHooksKey struct{}

type commitHooks struct {
	fns []func()
}

// AfterCommit defers fn until the unit of work carried by ctx commits. A
// rolled back or retried attempt drops its hooks. Outside a unit of work fn
// runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	if hooks, ok := ctx.Value(commitHooksKey{}).(*commitHooks); ok {
		hooks.fns = append(hooks.fns, fn)
		return
	}
	fn()
}

func newOutboxEvent(id, aggregateType, aggregateID, eventType string, payload any, now time.Time) (*domain.OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	return &domain.OutboxEvent{
		ID:            id,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       fields,
		CreatedAt:     now,
	}, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
