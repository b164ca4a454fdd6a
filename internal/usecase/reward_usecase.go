package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/domain"
)

// RewardUseCase grants one-off rewards such as completed missions.
type RewardUseCase struct {
	guard      *IdempotencyGuard
	balances   *BalanceManager
	referral   *ReferralUseCase
	outboxRepo OutboxRepository
	idGen      IDGenerator
}

// NewRewardUseCase creates a new RewardUseCase.
func NewRewardUseCase(
	guard *IdempotencyGuard,
	balances *BalanceManager,
	referral *ReferralUseCase,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *RewardUseCase {
	return &RewardUseCase{
		guard:      guard,
		balances:   balances,
		referral:   referral,
		outboxRepo: outboxRepo,
		idGen:      idGen,
	}
}

// GrantRewardInput represents a validated reward event.
type GrantRewardInput struct {
	Metadata          map[string]any
	AccountID         string
	ExternalReference string
	Description       string
	Currency          domain.Currency
	Amount            decimal.Decimal
}

// RewardResult is the outcome of a grant.
type RewardResult struct {
	Entry        *domain.LedgerEntry
	Distribution *Distribution
	Duplicate    bool
}

// Grant credits a reward_accrual entry and fans it out in one transaction.
// A repeated external reference is reported as Duplicate with no changes.
func (uc *RewardUseCase) Grant(ctx context.Context, input GrantRewardInput) (*RewardResult, error) {
	result := &RewardResult{}

	admitted, err := uc.guard.Guard(ctx, ScopeMission, input.ExternalReference, func(ctx context.Context, tx Transaction) error {
		if err := uc.referral.LockParticipantsTx(ctx, tx, input.AccountID); err != nil {
			return err
		}

		ref := input.ExternalReference
		eventID := ScopeMission + ":" + ref
		entry, err := uc.balances.CreditTx(ctx, tx, CreditInput{
			AccountID:         input.AccountID,
			Amount:            input.Amount,
			Currency:          input.Currency,
			Kind:              domain.EntryKindRewardAccrual,
			Description:       input.Description,
			Metadata:          input.Metadata,
			ExternalReference: &ref,
			EventID:           &eventID,
		})
		if err != nil {
			return err
		}

		dist, err := uc.referral.DistributeTx(ctx, tx, DistributeInput{
			SourceAccountID: input.AccountID,
			SourceEventID:   eventID,
			Currency:        input.Currency,
			Reward:          input.Amount,
		})
		if err != nil {
			return err
		}

		event, err := newOutboxEvent(
			uc.idGen.Generate(),
			domain.AggregateTypeAccount,
			input.AccountID,
			domain.EventTypeRewardAccrued,
			domain.RewardAccruedEvent{
				EntryID:   entry.ID,
				AccountID: input.AccountID,
				Amount:    input.Amount.String(),
				Currency:  string(input.Currency),
				EventID:   eventID,
			},
			time.Now().UTC(),
		)
		if err != nil {
			return err
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		result.Entry = entry
		result.Distribution = dist
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !admitted {
		return &RewardResult{Duplicate: true}, nil
	}
	return result, nil
}
