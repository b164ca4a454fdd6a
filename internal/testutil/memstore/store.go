// Package memstore is an in-memory transactional implementation of the
// repository ports, used by use case tests. Transactions are serialized and
// rolled back through an undo log.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/usecase"
)

var errTxClosed = errors.New("memstore: transaction already closed")

type balanceKey struct {
	accountID string
	currency  domain.Currency
}

type eventKey struct {
	kind      domain.EntryKind
	accountID string
	eventID   string
}

// Store holds all tables. The zero value is not usable; call New.
type Store struct {
	// txMu is held from Begin to Commit or Rollback, so transactions never
	// interleave.
	txMu sync.Mutex
	mu   sync.RWMutex

	accounts    map[string]*domain.Account
	balances    map[balanceKey]*domain.Balance
	entries     []*domain.LedgerEntry
	entryIndex  map[string]int
	eventIndex  map[eventKey]string
	processed   map[string]time.Time
	positions   map[string]*domain.Position
	withdrawals map[string]*domain.WithdrawalRequest
	outbox      []*domain.OutboxEvent

	failMu    sync.RWMutex
	failEntry func(*domain.LedgerEntry) error
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts:    make(map[string]*domain.Account),
		balances:    make(map[balanceKey]*domain.Balance),
		entryIndex:  make(map[string]int),
		eventIndex:  make(map[eventKey]string),
		processed:   make(map[string]time.Time),
		positions:   make(map[string]*domain.Position),
		withdrawals: make(map[string]*domain.WithdrawalRequest),
	}
}

// FailEntriesWhen makes every ledger write for which fn returns an error fail
// with that error. Pass nil to clear.
func (s *Store) FailEntriesWhen(fn func(*domain.LedgerEntry) error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failEntry = fn
}

// Begin implements usecase.TransactionManager.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.txMu.Lock()
	return &Tx{store: s}, nil
}

// Tx is a memstore transaction.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

// Commit implements usecase.Transaction.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxClosed
	}
	if err := ctx.Err(); err != nil {
		t.rollback()
		return err
	}
	t.done = true
	t.undo = nil
	t.store.txMu.Unlock()
	return nil
}

// Rollback implements usecase.Transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.rollback()
	return nil
}

func (t *Tx) rollback() {
	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.store.mu.Unlock()
	t.undo = nil
	t.done = true
	t.store.txMu.Unlock()
}

// onRollback must be called with store.mu held.
func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func open(ctx context.Context, tx usecase.Transaction) (*Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, errors.New("memstore: foreign transaction")
	}
	if t.done {
		return nil, errTxClosed
	}
	return t, nil
}

// Accounts returns the account repository.
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{s: s} }

// Balances returns the balance repository.
func (s *Store) Balances() *BalanceRepository { return &BalanceRepository{s: s} }

// Entries returns the ledger entry repository.
func (s *Store) Entries() *EntryRepository { return &EntryRepository{s: s} }

// ProcessedEvents returns the idempotency key repository.
func (s *Store) ProcessedEvents() *ProcessedEventRepository {
	return &ProcessedEventRepository{s: s}
}

// Positions returns the position repository.
func (s *Store) Positions() *PositionRepository { return &PositionRepository{s: s} }

// Withdrawals returns the withdrawal repository.
func (s *Store) Withdrawals() *WithdrawalRepository { return &WithdrawalRepository{s: s} }

// Outbox returns the outbox repository.
func (s *Store) Outbox() *OutboxRepository { return &OutboxRepository{s: s} }

// AllEntries returns a copy of every ledger entry in insertion order.
func (s *Store) AllEntries() []*domain.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.LedgerEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, cloneEntry(e))
	}
	return out
}

// AllOutboxEvents returns a copy of every outbox event.
func (s *Store) AllOutboxEvents() []*domain.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.OutboxEvent, 0, len(s.outbox))
	for _, e := range s.outbox {
		c := *e
		out = append(out, &c)
	}
	return out
}

// Balance returns the cached balance, zero when none was written.
func (s *Store) Balance(accountID string, currency domain.Currency) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.balances[balanceKey{accountID, currency}]; ok {
		return b.Amount
	}
	return decimal.Zero
}

// SetBalanceUnsafe overwrites a cached balance without a ledger entry. It
// exists to simulate corruption in reconciliation tests.
func (s *Store) SetBalanceUnsafe(accountID string, currency domain.Currency, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[balanceKey{accountID, currency}] = &domain.Balance{
		AccountID: accountID,
		Currency:  currency,
		Amount:    amount,
		UpdatedAt: time.Now().UTC(),
	}
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.SponsorID != nil {
		s := *a.SponsorID
		c.SponsorID = &s
	}
	return &c
}

func cloneEntry(e *domain.LedgerEntry) *domain.LedgerEntry {
	c := *e
	if e.Metadata != nil {
		c.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	if e.ExternalReference != nil {
		r := *e.ExternalReference
		c.ExternalReference = &r
	}
	if e.EventID != nil {
		id := *e.EventID
		c.EventID = &id
	}
	return &c
}

func clonePosition(p *domain.Position) *domain.Position {
	c := *p
	if p.ExpiresAt != nil {
		t := *p.ExpiresAt
		c.ExpiresAt = &t
	}
	if p.ExternalReference != nil {
		r := *p.ExternalReference
		c.ExternalReference = &r
	}
	return &c
}

func cloneWithdrawal(w *domain.WithdrawalRequest) *domain.WithdrawalRequest {
	c := *w
	for _, p := range []**time.Time{&c.ApprovedAt, &c.RejectedAt, &c.CompletedAt} {
		if *p != nil {
			t := **p
			*p = &t
		}
	}
	return &c
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	_ usecase.TransactionManager       = (*Store)(nil)
	_ usecase.AccountRepository        = (*AccountRepository)(nil)
	_ usecase.BalanceRepository        = (*BalanceRepository)(nil)
	_ usecase.EntryRepository          = (*EntryRepository)(nil)
	_ usecase.ProcessedEventRepository = (*ProcessedEventRepository)(nil)
	_ usecase.PositionRepository       = (*PositionRepository)(nil)
	_ usecase.WithdrawalRepository     = (*WithdrawalRepository)(nil)
	_ usecase.OutboxRepository         = (*OutboxRepository)(nil)
)
