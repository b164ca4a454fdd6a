package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalState is the lifecycle state of a withdrawal request.
type WithdrawalState string

const (
	WithdrawalStatePending   WithdrawalState = "pending"
	WithdrawalStateApproved  WithdrawalState = "approved"
	WithdrawalStateRejected  WithdrawalState = "rejected"
	WithdrawalStateCompleted WithdrawalState = "completed"
)

// IsTerminal reports whether no further transition is possible.
func (s WithdrawalState) IsTerminal() bool {
	return s == WithdrawalStateRejected || s == WithdrawalStateCompleted
}

// WithdrawalRequest is a user request to move funds off the platform.
// Amount and Fee are debited when the request is created.
type WithdrawalRequest struct {
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ApprovedAt         *time.Time
	RejectedAt         *time.Time
	CompletedAt        *time.Time
	ID                 string
	AccountID          string
	Currency           Currency
	Destination        string
	ReservationEntryID string
	FeeEntryID         string
	Reason             string
	State              WithdrawalState
	Amount             decimal.Decimal
	Fee                decimal.Decimal
}

// Total is the amount reserved from the balance.
func (w *WithdrawalRequest) Total() decimal.Decimal {
	return w.Amount.Add(w.Fee)
}

// HasFee reports whether a fee was debited with the request.
func (w *WithdrawalRequest) HasFee() bool {
	return w.Fee.IsPositive()
}

// CanTransitionTo checks if the request can move to the target state.
func (w *WithdrawalRequest) CanTransitionTo(target WithdrawalState) bool {
	switch w.State {
	case WithdrawalStatePending:
		return target == WithdrawalStateApproved ||
			target == WithdrawalStateRejected ||
			target == WithdrawalStateCompleted
	case WithdrawalStateApproved:
		return target == WithdrawalStateCompleted
	default:
		return false
	}
}

// Complete marks an approved payout as done. Approval and completion happen
// together since the funds were reserved at request time.
func (w *WithdrawalRequest) Complete(now time.Time) error {
	if !w.CanTransitionTo(WithdrawalStateCompleted) {
		return ErrInvalidWithdrawalTransition
	}
	if w.ApprovedAt == nil {
		w.ApprovedAt = &now
	}
	w.CompletedAt = &now
	w.UpdatedAt = now
	w.State = WithdrawalStateCompleted
	return nil
}

// Reject marks the request rejected. The caller refunds the reserved funds.
func (w *WithdrawalRequest) Reject(now time.Time, reason string) error {
	if !w.CanTransitionTo(WithdrawalStateRejected) {
		return ErrInvalidWithdrawalTransition
	}
	w.RejectedAt = &now
	w.UpdatedAt = now
	w.Reason = reason
	w.State = WithdrawalStateRejected
	return nil
}
