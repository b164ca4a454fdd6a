package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/domain"
)

// WithdrawalUseCase reserves, completes and refunds withdrawals.
type WithdrawalUseCase struct {
	uow            *UnitOfWork
	balances       *BalanceManager
	withdrawalRepo WithdrawalRepository
	entryRepo      EntryRepository
	outboxRepo     OutboxRepository
	idGen          IDGenerator
	metrics        Metrics
	fees           map[domain.Currency]decimal.Decimal
}

// NewWithdrawalUseCase creates a new WithdrawalUseCase. fees holds the flat
// fee charged per currency; currencies without an entry are free.
func NewWithdrawalUseCase(
	uow *UnitOfWork,
	balances *BalanceManager,
	withdrawalRepo WithdrawalRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics Metrics,
	fees map[domain.Currency]decimal.Decimal,
) *WithdrawalUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &WithdrawalUseCase{
		uow:            uow,
		balances:       balances,
		withdrawalRepo: withdrawalRepo,
		entryRepo:      entryRepo,
		outboxRepo:     outboxRepo,
		idGen:          idGen,
		metrics:        metrics,
		fees:           fees,
	}
}

// RequestWithdrawalInput represents a validated withdrawal request.
type RequestWithdrawalInput struct {
	AccountID   string
	Destination string
	Currency    domain.Currency
	Amount      decimal.Decimal
}

// ReasonNotReserved is recorded on requests rejected at approval because
// their reserved funds could not be found in the ledger.
const ReasonNotReserved = "funds not reserved"

// Request debits the amount and fee immediately and creates a pending
// request, so the funds cannot be spent twice while it is outstanding.
func (uc *WithdrawalUseCase) Request(ctx context.Context, input RequestWithdrawalInput) (*domain.WithdrawalRequest, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}
	if err := domain.ValidateDestination(input.Destination); err != nil {
		return nil, err
	}

	fee := uc.fees[input.Currency]

	var w *domain.WithdrawalRequest
	err := uc.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()
		w = &domain.WithdrawalRequest{
			ID:          uc.idGen.Generate(),
			AccountID:   input.AccountID,
			Amount:      input.Amount,
			Fee:         fee,
			Currency:    input.Currency,
			Destination: strings.TrimSpace(input.Destination),
			State:       domain.WithdrawalStatePending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		reservation, err := uc.balances.DebitTx(ctx, tx, DebitInput{
			AccountID:   w.AccountID,
			Amount:      w.Amount,
			Currency:    w.Currency,
			Kind:        domain.EntryKindWithdrawal,
			Description: "withdrawal reservation",
			Metadata: map[string]any{
				"withdrawal_id": w.ID,
				"destination":   w.Destination,
			},
		})
		if err != nil {
			return err
		}
		w.ReservationEntryID = reservation.ID

		if w.HasFee() {
			feeEntry, err := uc.balances.DebitTx(ctx, tx, DebitInput{
				AccountID:   w.AccountID,
				Amount:      w.Fee,
				Currency:    w.Currency,
				Kind:        domain.EntryKindWithdrawalFee,
				Description: "withdrawal fee",
				Metadata:    map[string]any{"withdrawal_id": w.ID},
			})
			if err != nil {
				return err
			}
			w.FeeEntryID = feeEntry.ID
		}

		if err := uc.withdrawalRepo.Create(ctx, tx, w); err != nil {
			return err
		}

		return uc.emit(ctx, tx, w, domain.EventTypeWithdrawalRequested, now)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.WithdrawalTransition(w.State)
	return w, nil
}

// Approve completes a pending request. The funds were reserved at request
// time so only the reservation is verified. A request whose reservation is
// missing is rejected with ReasonNotReserved instead; nothing is refunded
// because nothing was debited. Callers must check the returned state.
func (uc *WithdrawalUseCase) Approve(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	var w *domain.WithdrawalRequest
	err := uc.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
		var err error
		w, err = uc.withdrawalRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !w.CanTransitionTo(domain.WithdrawalStateCompleted) {
			return domain.ErrInvalidWithdrawalTransition
		}

		now := time.Now().UTC()
		err = uc.verifyReservation(ctx, w)
		if errors.Is(err, domain.ErrWithdrawalNotReserved) {
			if err := w.Reject(now, ReasonNotReserved); err != nil {
				return err
			}
			if err := uc.withdrawalRepo.Update(ctx, tx, w); err != nil {
				return err
			}
			return uc.emit(ctx, tx, w, domain.EventTypeWithdrawalRejected, now)
		}
		if err != nil {
			return err
		}

		if err := w.Complete(now); err != nil {
			return err
		}
		if err := uc.withdrawalRepo.Update(ctx, tx, w); err != nil {
			return err
		}

		return uc.emit(ctx, tx, w, domain.EventTypeWithdrawalCompleted, now)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.WithdrawalTransition(w.State)
	return w, nil
}

// Reject marks a pending request rejected and refunds the reserved amount and
// fee through normal credits.
func (uc *WithdrawalUseCase) Reject(ctx context.Context, id, reason string) (*domain.WithdrawalRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "rejected"
	}

	var w *domain.WithdrawalRequest
	err := uc.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
		var err error
		w, err = uc.withdrawalRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := w.Reject(now, reason); err != nil {
			return err
		}

		refundEventID := "withdrawal:" + w.ID + ":refund"
		if _, err := uc.balances.CreditTx(ctx, tx, CreditInput{
			AccountID:   w.AccountID,
			Amount:      w.Amount,
			Currency:    w.Currency,
			Kind:        domain.EntryKindWithdrawal,
			EventID:     &refundEventID,
			Description: "withdrawal refund",
			Metadata: map[string]any{
				"withdrawal_id": w.ID,
				"reason":        reason,
			},
		}); err != nil {
			return err
		}

		if w.HasFee() {
			feeEventID := "withdrawal:" + w.ID + ":fee_refund"
			if _, err := uc.balances.CreditTx(ctx, tx, CreditInput{
				AccountID:   w.AccountID,
				Amount:      w.Fee,
				Currency:    w.Currency,
				Kind:        domain.EntryKindWithdrawalFee,
				EventID:     &feeEventID,
				Description: "withdrawal fee refund",
				Metadata:    map[string]any{"withdrawal_id": w.ID},
			}); err != nil {
				return err
			}
		}

		if err := uc.withdrawalRepo.Update(ctx, tx, w); err != nil {
			return err
		}

		return uc.emit(ctx, tx, w, domain.EventTypeWithdrawalRejected, now)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.WithdrawalTransition(w.State)
	return w, nil
}

// Get retrieves a withdrawal request by ID.
func (uc *WithdrawalUseCase) Get(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	return uc.withdrawalRepo.GetByID(ctx, id)
}

// ListPending lists requests awaiting an approval decision.
func (uc *WithdrawalUseCase) ListPending(ctx context.Context, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	limit, offset = clampPage(limit, offset)
	return uc.withdrawalRepo.ListByState(ctx, domain.WithdrawalStatePending, limit, offset)
}

// ListByAccount lists the requests of an account.
func (uc *WithdrawalUseCase) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	limit, offset = clampPage(limit, offset)
	return uc.withdrawalRepo.ListByAccount(ctx, accountID, limit, offset)
}

func (uc *WithdrawalUseCase) verifyReservation(ctx context.Context, w *domain.WithdrawalRequest) error {
	if w.ReservationEntryID == "" {
		return domain.ErrWithdrawalNotReserved
	}

	entry, err := uc.entryRepo.GetByID(ctx, w.ReservationEntryID)
	if errors.Is(err, domain.ErrEntryNotFound) {
		return domain.ErrWithdrawalNotReserved
	}
	if err != nil {
		return err
	}

	if entry.Kind != domain.EntryKindWithdrawal ||
		entry.Status != domain.EntryStatusCompleted ||
		entry.AccountID != w.AccountID ||
		!entry.Amount.Equal(w.Amount.Neg()) {
		return domain.ErrWithdrawalNotReserved
	}
	return nil
}

func (uc *WithdrawalUseCase) emit(ctx context.Context, tx Transaction, w *domain.WithdrawalRequest, eventType string, now time.Time) error {
	event, err := newOutboxEvent(
		uc.idGen.Generate(),
		domain.AggregateTypeWithdrawal,
		w.ID,
		eventType,
		domain.WithdrawalEvent{
			WithdrawalID: w.ID,
			AccountID:    w.AccountID,
			Amount:       w.Amount.String(),
			Fee:          w.Fee.String(),
			Currency:     string(w.Currency),
			Destination:  w.Destination,
			State:        string(w.State),
			Reason:       w.Reason,
		},
		now,
	)
	if err != nil {
		return err
	}
	return uc.outboxRepo.Create(ctx, tx, event)
}
