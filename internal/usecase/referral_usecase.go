package usecase

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/domain"
)

// ReferralUseCase fans a reward out to the earning account's sponsor chain.
type ReferralUseCase struct {
	uow         *UnitOfWork
	accountRepo AccountRepository
	balances    *BalanceManager
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	metrics     Metrics
}

// NewReferralUseCase creates a new ReferralUseCase.
func NewReferralUseCase(
	uow *UnitOfWork,
	accountRepo AccountRepository,
	balances *BalanceManager,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics Metrics,
) *ReferralUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &ReferralUseCase{
		uow:         uow,
		accountRepo: accountRepo,
		balances:    balances,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// DistributeInput represents a reward to propagate.
type DistributeInput struct {
	SourceAccountID string
	SourceEventID   string
	Currency        domain.Currency
	Reward          decimal.Decimal
}

// Distribution is the committed result of one fan-out.
type Distribution struct {
	SourceAccountID string
	SourceEventID   string
	Currency        domain.Currency
	Reward          decimal.Decimal
	Total           decimal.Decimal
	Commissions     []*domain.LedgerEntry
}

// Distribute credits every commission for one reward in a single
// transaction. Any failure rolls all levels back and is returned as a
// *domain.DistributionError.
func (uc *ReferralUseCase) Distribute(ctx context.Context, input DistributeInput) (*Distribution, error) {
	var dist *Distribution
	err := uc.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
		var err error
		dist, err = uc.DistributeTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dist, nil
}

// DistributeTx runs the fan-out inside an existing transaction. The caller
// must roll tx back on error.
func (uc *ReferralUseCase) DistributeTx(ctx context.Context, tx Transaction, input DistributeInput) (*Distribution, error) {
	if err := domain.ValidateAmount(input.Reward); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}
	if err := domain.ValidateReference(input.SourceEventID); err != nil {
		return nil, err
	}

	chain, err := uc.accountRepo.SponsorChainTx(ctx, tx, input.SourceAccountID, domain.MaxReferralDepth)
	if err != nil {
		return nil, err
	}

	dist := &Distribution{
		SourceAccountID: input.SourceAccountID,
		SourceEventID:   input.SourceEventID,
		Currency:        input.Currency,
		Reward:          input.Reward,
		Total:           decimal.Zero,
	}

	shares := domain.SplitCommissions(input.Reward, chain)
	if len(shares) == 0 {
		uc.metrics.Distribution(DistributionEmpty, 0)
		return dist, nil
	}

	if err := lockAccounts(ctx, uc.accountRepo, tx, chain); err != nil {
		uc.metrics.Distribution(DistributionFailed, 0)
		return nil, &domain.DistributionError{Level: 0, AccountID: input.SourceAccountID, Err: err}
	}

	for _, share := range shares {
		eventID := commissionEventID(input.SourceEventID, share.Level)
		entry, err := uc.balances.CreditTx(ctx, tx, CreditInput{
			AccountID:   share.AccountID,
			Amount:      share.Amount,
			Currency:    input.Currency,
			Kind:        domain.EntryKindReferralCommission,
			EventID:     &eventID,
			Description: "referral commission level " + strconv.Itoa(share.Level),
			Metadata: map[string]any{
				"source_account_id": input.SourceAccountID,
				"source_reward":     input.Reward.String(),
				"source_event_id":   input.SourceEventID,
				"level":             share.Level,
			},
		})
		if err != nil {
			uc.metrics.Distribution(DistributionFailed, share.Level)
			return nil, &domain.DistributionError{Level: share.Level, AccountID: share.AccountID, Err: err}
		}

		dist.Commissions = append(dist.Commissions, entry)
		dist.Total = dist.Total.Add(share.Amount)
	}

	event, err := newOutboxEvent(
		uc.idGen.Generate(),
		domain.AggregateTypeAccount,
		input.SourceAccountID,
		domain.EventTypeCommissionDistributed,
		domain.CommissionDistributedEvent{
			SourceAccountID: input.SourceAccountID,
			SourceEventID:   input.SourceEventID,
			SourceReward:    input.Reward.String(),
			Currency:        string(input.Currency),
			Levels:          len(dist.Commissions),
			Total:           dist.Total.String(),
		},
		time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	AfterCommit(ctx, func() {
		uc.metrics.Distribution(DistributionCommitted, len(dist.Commissions))
	})

	return dist, nil
}

// LockParticipantsTx locks the earning account and its sponsor chain in
// sorted id order, so the reward credit and the fan-out that follows never
// acquire account locks out of order.
func (uc *ReferralUseCase) LockParticipantsTx(ctx context.Context, tx Transaction, accountID string) error {
	chain, err := uc.accountRepo.SponsorChainTx(ctx, tx, accountID, domain.MaxReferralDepth)
	if err != nil {
		return err
	}
	return lockAccounts(ctx, uc.accountRepo, tx, append([]string{accountID}, chain...))
}

func commissionEventID(sourceEventID string, level int) string {
	return sourceEventID + ":L" + strconv.Itoa(level)
}

// lockAccounts locks the unique ids in sorted order (deadlock prevention).
func lockAccounts(ctx context.Context, repo AccountRepository, tx Transaction, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Strings(unique)

	accounts, err := repo.GetByIDsForUpdate(ctx, tx, unique)
	if err != nil {
		return err
	}
	if len(accounts) != len(unique) {
		return domain.ErrAccountNotFound
	}
	return nil
}
