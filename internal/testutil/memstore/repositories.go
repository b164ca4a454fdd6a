package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct{ s *Store }

func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := open(ctx, tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[account.ID]; ok {
		return domain.ErrAccountExists
	}
	if account.SponsorID != nil {
		if _, ok := r.s.accounts[*account.SponsorID]; !ok {
			return domain.ErrAccountNotFound
		}
	}
	r.s.accounts[account.ID] = cloneAccount(account)
	t.onRollback(func() { delete(r.s.accounts, account.ID) })
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if _, err := open(ctx, tx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if _, err := open(ctx, tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.s.accounts[id]; ok {
			out = append(out, cloneAccount(a))
		}
	}
	return out, nil
}

func (r *AccountRepository) BumpVersion(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) (int64, error) {
	t, err := open(ctx, tx)
	if err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	prev := cloneAccount(a)
	a.Version++
	a.UpdatedAt = updatedAt
	t.onRollback(func() { r.s.accounts[id] = prev })
	return a.Version, nil
}

func (r *AccountRepository) SetSponsor(ctx context.Context, tx usecase.Transaction, id, sponsorID string, updatedAt time.Time) error {
	t, err := open(ctx, tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	prev := cloneAccount(a)
	a.SponsorID = &sponsorID
	a.UpdatedAt = updatedAt
	t.onRollback(func() { r.s.accounts[id] = prev })
	return nil
}

// ForceSponsorUnsafe writes a sponsor edge without any checks, for tests
// that need a corrupted graph.
func (r *AccountRepository) ForceSponsorUnsafe(id, sponsorID string) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a, ok := r.s.accounts[id]; ok {
		a.SponsorID = &sponsorID
	}
}

func (r *AccountRepository) LockSponsorGraph(ctx context.Context, tx usecase.Transaction) error {
	_, err := open(ctx, tx)
	return err
}

func (r *AccountRepository) SponsorChain(ctx context.Context, id string, depth int) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	var chain []string
	for len(chain) < depth && a.SponsorID != nil {
		chain = append(chain, *a.SponsorID)
		next, ok := r.s.accounts[*a.SponsorID]
		if !ok {
			break
		}
		a = next
	}
	return chain, nil
}

func (r *AccountRepository) SponsorChainTx(ctx context.Context, tx usecase.Transaction, id string, depth int) ([]string, error) {
	if _, err := open(ctx, tx); err != nil {
		return nil, err
	}
	return r.SponsorChain(ctx, id, depth)
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := make([]*domain.Account, 0, len(r.s.accounts))
	for _, id := range sortedKeys(r.s.accounts) {
		all = append(all, cloneAccount(r.s.accounts[id]))
	}
	return page(all, limit, offset), nil
}

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct{ s *Store }

func (r *BalanceRepository) Get(ctx context.Context, accountID string, currency domain.Currency) (*domain.Balance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if b, ok := r.s.balances[balanceKey{accountID, currency}]; ok {
		c := *b
		return &c, nil
	}
	return &domain.Balance{AccountID: accountID, Currency: currency, Amount: decimal.Zero}, nil
}

func (r *BalanceRepository) GetTx(ctx context.Context, tx usecase.Transaction, accountID string, currency domain.Currency) (*domain.Balance, error) {
	if _, err := open(ctx, tx); err != nil {
		return nil, err
	}
	return r.Get(ctx, accountID, currency)
}

func (r *BalanceRepository) Upsert(ctx context.Context, tx usecase.Transaction, balance *domain.Balance) error {
	t, err := open(ctx, tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := balanceKey{balance.AccountID, balance.Currency}
	prev, existed := r.s.balances[key]
	c := *balance
	r.s.balances[key] = &c
	t.onRollback(func() {
		if existed {
			r.s.balances[key] = prev
		} else {
			delete(r.s.balances, key)
		}
	})
	return nil
}

func (r *BalanceRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Balance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Balance
	for key, b := range r.s.balances {
		if key.accountID == accountID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

func (r *BalanceRepository) ListByAccountTx(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.Balance, error) {
	if _, err := open(ctx, tx); err != nil {
		return nil, err
	}
	return r.ListByAccount(ctx, accountID)
}

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct{ s *Store }

func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	t, err := open(ctx, tx)
	if err != nil {
		return err
	}

	r.s.failMu.RLock()
	fail := r.s.failEntry
	r.s.failMu.RUnlock()
	if fail != nil {
		if err := fail(entry); err != nil {
			return err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var key *eventKey
	if entry.EventID != nil {
		k := eventKey{entry.Kind, entry.AccountID, *entry.EventID}
		if _, ok := r.s.eventIndex[k]; ok {
			return domain.ErrDuplicateEvent
		}
		key = &k
	}

	r.s.entries = append(r.s.entries, cloneEntry(entry))
	r.s.entryIndex[entry.ID] = len(r.s.entries) - 1
	if key != nil {
		r.s.eventIndex[*key] = entry.ID
	}

	t.onRollback(func() {
		r.s.entries = r.s.entries[:len(r.s.entries)-1]
		delete(r.s.entryIndex, entry.ID)
		if key != nil {
			delete(r.s.eventIndex, *key)
		}
	})
	return nil
}

func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i, ok := r.s.entryIndex[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return cloneEntry(r.s.entries[i]), nil
}

func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	if _, err := open(ctx, tx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *EntryRepository) GetByExternalReferenceTx(ctx context.Context, tx usecase.Transaction, kind domain.EntryKind, ref string) (*domain.LedgerEntry, error) {
	if _, err := open(ctx, tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.entries {
		if e.Kind == kind && e.ExternalReference != nil && *e.ExternalReference == ref {
			return cloneEntry(e), nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (r *EntryRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	t, err := open(ctx, tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.entryIndex[entry.ID]
	if !ok {
		return domain.ErrEntryNotFound
	}
	stored := r.s.entries[i]
	if stored.Status != domain.EntryStatusPending {
		return domain.ErrInvalidEntryTransition
	}
	prev := cloneEntry(stored)
	stored.Status = entry.Status
	stored.BalanceAfter = entry.BalanceAfter
	stored.AccountVersion = entry.AccountVersion
	t.onRollback(func() { r.s.entries[i] = prev })
	return nil
}

func (r *EntryRepository) filter(match func(*domain.LedgerEntry) bool) []*domain.LedgerEntry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.LedgerEntry
	for i := len(r.s.entries) - 1; i >= 0; i-- {
		if match(r.s.entries[i]) {
			out = append(out, cloneEntry(r.s.entries[i]))
		}
	}
	return out
}

func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	all := r.filter(func(e *domain.LedgerEntry) bool { return e.AccountID == accountID })
	return page(all, limit, offset), nil
}

func (r *EntryRepository) ListByKind(ctx context.Context, kind domain.EntryKind, limit, offset int) ([]*domain.LedgerEntry, error) {
	all := r.filter(func(e *domain.LedgerEntry) bool { return e.Kind == kind })
	return page(all, limit, offset), nil
}

func (r *EntryRepository) ListByExternalReference(ctx context.Context, ref string) ([]*domain.LedgerEntry, error) {
	return r.filter(func(e *domain.LedgerEntry) bool {
		return e.ExternalReference != nil && *e.ExternalReference == ref
	}), nil
}

func (r *EntryRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.LedgerEntry, error) {
	prefix := eventID + ":L"
	return r.filter(func(e *domain.LedgerEntry) bool {
		if e.EventID == nil {
			return false
		}
		id := *e.EventID
		return id == eventID || (len(id) > len(prefix) && id[:len(prefix)] == prefix)
	}), nil
}

func (r *EntryRepository) SumCompletedTx(ctx context.Context, tx usecase.Transaction, accountID string) (map[domain.Currency]decimal.Decimal, error) {
	if _, err := open(ctx, tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sums := make(map[domain.Currency]decimal.Decimal)
	for _, e := range r.s.entries {
		if e.AccountID == accountID && e.Status == domain.EntryStatusCompleted {
			sums[e.Currency] = sums[e.Currency].Add(e.Amount)
		}
	}
	return sums, nil
}

// ProcessedEventRepository implements usecase.ProcessedEventRepository.
type ProcessedEventRepository struct{ s *Store }

func (r *ProcessedEventRepository) Register(ctx context.Context, tx usecase.Transaction, scope, ref string, at time.Time) (bool, error) {
	t, err := open(ctx, tx)
	if err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := scope + "\x00" + ref
	if _, ok := r.s.processed[key]; ok {
		return false, nil
	}
	r.s.processed[key] = at
	t.onRollback(func() { delete(r.s.processed, key) })
	return true, nil
}

func (r *ProcessedEventRepository) Exists(ctx context.Context, scope, ref string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.processed[scope+"\x00"+ref]
	return ok, nil
}

// PositionRepository implements usecase.PositionRepository.
type PositionRepository struct{ s *Store }

func (r *PositionRepository) Create(ctx context.Context, tx usecase.Transaction, position *domain.Position) error {
	t, err := open(ctx, tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.positions[position.ID] = clonePosition(position)
	t.onRollback(func() { delete(r.s.positions, position.ID) })
	return nil
}

func (r *PositionRepository) GetByID(ctx context.Context, id string) (*domain.Position, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.positions[id]
	if !ok {
		return nil, domain.ErrPositionNotFound
	}
	return clonePosition(p), nil
}

func (r *PositionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Position, error) {
	if _, err := open(ctx, tx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *PositionRepository) ListDue(ctx context.Context, now time.Time, afterID string, limit int) ([]*domain.Position, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Position
	for _, id := range sortedKeys(r.s.positions) {
		p := r.s.positions[id]
		if id <= afterID || !p.Active || !p.LastAccruedAt.Before(now) {
			continue
		}
		out = append(out, clonePosition(p))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *PositionRepository) AdvanceAccrual(ctx context.Context, tx usecase.Transaction, id string, from, to time.Time, active bool, updatedAt time.Time) error {
	t, err := open(ctx, tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.positions[id]
	if !ok {
		return domain.ErrPositionNotFound
	}
	if !p.LastAccruedAt.Equal(from) || to.Before(from) {
		return domain.ErrStaleAccrualWindow
	}
	prev := clonePosition(p)
	p.LastAccruedAt = to
	p.Active = active
	p.UpdatedAt = updatedAt
	t.onRollback(func() { r.s.positions[id] = prev })
	return nil
}

func (r *PositionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Position, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []*domain.Position
	for _, id := range sortedKeys(r.s.positions) {
		if p := r.s.positions[id]; p.AccountID == accountID {
			all = append(all, clonePosition(p))
		}
	}
	return page(all, limit, offset), nil
}

func (r *PositionRepository) GetByExternalReference(ctx context.Context, ref string) (*domain.Position, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, id := range sortedKeys(r.s.positions) {
		p := r.s.positions[id]
		if p.ExternalReference != nil && *p.ExternalReference == ref {
			return clonePosition(p), nil
		}
	}
	return nil, domain.ErrPositionNotFound
}

// WithdrawalRepository implements usecase.WithdrawalRepository.
type WithdrawalRepository struct{ s *Store }

func (r *WithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, w *domain.WithdrawalRequest) error {
	t, err := open(ctx, tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.withdrawals[w.ID] = cloneWithdrawal(w)
	t.onRollback(func() { delete(r.s.withdrawals, w.ID) })
	return nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.withdrawals[id]
	if !ok {
		return nil, domain.ErrWithdrawalNotFound
	}
	return cloneWithdrawal(w), nil
}

func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.WithdrawalRequest, error) {
	if _, err := open(ctx, tx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *WithdrawalRepository) Update(ctx context.Context, tx usecase.Transaction, w *domain.WithdrawalRequest) error {
	t, err := open(ctx, tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.withdrawals[w.ID]
	if !ok {
		return domain.ErrWithdrawalNotFound
	}
	r.s.withdrawals[w.ID] = cloneWithdrawal(w)
	t.onRollback(func() { r.s.withdrawals[w.ID] = prev })
	return nil
}

func (r *WithdrawalRepository) list(match func(*domain.WithdrawalRequest) bool, limit, offset int) []*domain.WithdrawalRequest {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []*domain.WithdrawalRequest
	for _, id := range sortedKeys(r.s.withdrawals) {
		if w := r.s.withdrawals[id]; match(w) {
			all = append(all, cloneWithdrawal(w))
		}
	}
	return page(all, limit, offset)
}

func (r *WithdrawalRepository) ListByState(ctx context.Context, state domain.WithdrawalState, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	return r.list(func(w *domain.WithdrawalRequest) bool { return w.State == state }, limit, offset), nil
}

func (r *WithdrawalRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	return r.list(func(w *domain.WithdrawalRequest) bool { return w.AccountID == accountID }, limit, offset), nil
}

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct{ s *Store }

func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	t, err := open(ctx, tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *event
	r.s.outbox = append(r.s.outbox, &c)
	t.onRollback(func() { r.s.outbox = r.s.outbox[:len(r.s.outbox)-1] })
	return nil
}

func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range r.s.outbox {
		if !e.Published {
			c := *e
			out = append(out, &c)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.outbox {
		if e.ID == id {
			if e.Published {
				return domain.ErrEventAlreadyPublished
			}
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return domain.ErrEventAlreadyPublished
}

func (r *OutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []*domain.OutboxEvent
	for _, e := range r.s.outbox {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			c := *e
			all = append(all, &c)
		}
	}
	return page(all, limit, offset), nil
}

func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.outbox[:0]
	var removed int64
	for _, e := range r.s.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.s.outbox = kept
	return removed, nil
}
