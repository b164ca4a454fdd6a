package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks github.com/iho/farmledger/internal/usecase EntryRepository,ProcessedEventRepository

// AccountRepository defines data access for accounts and sponsor edges.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	// BumpVersion increments the lock token of an account locked in tx and
	// returns the new version.
	BumpVersion(ctx context.Context, tx Transaction, id string, updatedAt time.Time) (int64, error)
	SetSponsor(ctx context.Context, tx Transaction, id, sponsorID string, updatedAt time.Time) error
	// LockSponsorGraph serializes sponsor edge changes for the rest of tx.
	LockSponsorGraph(ctx context.Context, tx Transaction) error
	// SponsorChain returns up to depth ancestors of id, nearest first.
	SponsorChain(ctx context.Context, id string, depth int) ([]string, error)
	SponsorChainTx(ctx context.Context, tx Transaction, id string, depth int) ([]string, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// BalanceRepository defines data access for cached balances.
// Writes happen only while the owning account row is locked.
type BalanceRepository interface {
	Get(ctx context.Context, accountID string, currency domain.Currency) (*domain.Balance, error)
	GetTx(ctx context.Context, tx Transaction, accountID string, currency domain.Currency) (*domain.Balance, error)
	Upsert(ctx context.Context, tx Transaction, balance *domain.Balance) error
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Balance, error)
	ListByAccountTx(ctx context.Context, tx Transaction, accountID string) ([]*domain.Balance, error)
}

// EntryRepository defines data access for the append-only ledger.
type EntryRepository interface {
	// Create returns domain.ErrDuplicateEvent when an entry of the same kind
	// already exists for the account and event id.
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.LedgerEntry, error)
	GetByExternalReferenceTx(ctx context.Context, tx Transaction, kind domain.EntryKind, ref string) (*domain.LedgerEntry, error)
	UpdateStatus(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
	ListByKind(ctx context.Context, kind domain.EntryKind, limit, offset int) ([]*domain.LedgerEntry, error)
	ListByExternalReference(ctx context.Context, ref string) ([]*domain.LedgerEntry, error)
	ListByEventID(ctx context.Context, eventID string) ([]*domain.LedgerEntry, error)
	// SumCompletedTx sums completed entries of an account per currency.
	SumCompletedTx(ctx context.Context, tx Transaction, accountID string) (map[domain.Currency]decimal.Decimal, error)
}

// ProcessedEventRepository stores admitted external references.
type ProcessedEventRepository interface {
	// Register inserts (scope, ref) and reports false if it already existed.
	Register(ctx context.Context, tx Transaction, scope, ref string, at time.Time) (bool, error)
	Exists(ctx context.Context, scope, ref string) (bool, error)
}

// PositionRepository defines data access for farming positions.
type PositionRepository interface {
	Create(ctx context.Context, tx Transaction, position *domain.Position) error
	GetByID(ctx context.Context, id string) (*domain.Position, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Position, error)
	// ListDue returns active positions with last_accrued_at < now and id > afterID,
	// ordered by id.
	ListDue(ctx context.Context, now time.Time, afterID string, limit int) ([]*domain.Position, error)
	// AdvanceAccrual moves last_accrued_at from `from` to `to` and sets the
	// active flag. Returns domain.ErrStaleAccrualWindow if last_accrued_at is
	// no longer `from`.
	AdvanceAccrual(ctx context.Context, tx Transaction, id string, from, to time.Time, active bool, updatedAt time.Time) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Position, error)
	GetByExternalReference(ctx context.Context, ref string) (*domain.Position, error)
}

// WithdrawalRepository defines data access for withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx Transaction, w *domain.WithdrawalRequest) error
	GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.WithdrawalRequest, error)
	Update(ctx context.Context, tx Transaction, w *domain.WithdrawalRequest) error
	ListByState(ctx context.Context, state domain.WithdrawalState, limit, offset int) ([]*domain.WithdrawalRequest, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.WithdrawalRequest, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	// MarkPublished returns domain.ErrEventAlreadyPublished when another relay
	// marked the event first.
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	// DeletePublished removes events published before the cutoff and returns
	// how many were removed.
	DeletePublished(ctx context.Context, before time.Time) (int64, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient store errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Metrics records engine activity. Implementations must be safe for
// concurrent use.
type Metrics interface {
	EntryRecorded(kind domain.EntryKind, currency domain.Currency, amount decimal.Decimal)
	InsufficientFunds(kind domain.EntryKind)
	DuplicateEvent(scope string)
	ReconciliationMismatch(accountID string)
	Distribution(result string, levels int)
	PositionAccrued(result string)
	TickCompleted(duration time.Duration, positions int)
	WithdrawalTransition(state domain.WithdrawalState)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) EntryRecorded(domain.EntryKind, domain.Currency, decimal.Decimal) {}
func (NopMetrics) InsufficientFunds(domain.EntryKind)                                {}
func (NopMetrics) DuplicateEvent(string)                                             {}
func (NopMetrics) ReconciliationMismatch(string)                                     {}
func (NopMetrics) Distribution(string, int)                                          {}
func (NopMetrics) PositionAccrued(string)                                            {}
func (NopMetrics) TickCompleted(time.Duration, int)                                  {}
func (NopMetrics) WithdrawalTransition(domain.WithdrawalState)                       {}
