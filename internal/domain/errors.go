package domain

import (
	"errors"
	"fmt"
)

var (
	// Balance errors
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists")

	// Ledger errors
	ErrEntryNotFound          = errors.New("ledger entry not found")
	ErrInvalidEntryKind       = errors.New("invalid ledger entry kind")
	ErrInvalidEntryTransition = errors.New("ledger entry status transition not allowed")
	ErrReconciliationMismatch = errors.New("reconciliation mismatch: cached balance differs from ledger")

	// Idempotency errors
	ErrDuplicateEvent = errors.New("event already processed")

	// Referral errors
	ErrPartialDistribution = errors.New("referral distribution failed")
	ErrSelfReferral        = errors.New("account cannot sponsor itself")
	ErrSponsorCycle        = errors.New("sponsor link would create a referral cycle")
	ErrSponsorAlreadySet   = errors.New("account already has a sponsor")

	// Position errors
	ErrPositionNotFound    = errors.New("position not found")
	ErrPositionInactive    = errors.New("position is not active")
	ErrInvalidRate         = errors.New("reward rate must be positive")
	ErrInvalidExpiry       = errors.New("position must expire after activation")
	ErrInvalidPositionKind = errors.New("invalid position kind")
	ErrStaleAccrualWindow  = errors.New("position accrual window already advanced")

	// Withdrawal errors
	ErrWithdrawalNotFound          = errors.New("withdrawal request not found")
	ErrInvalidWithdrawalTransition = errors.New("withdrawal state transition not allowed")
	ErrWithdrawalNotReserved       = errors.New("withdrawal funds were not reserved")

	// Outbox errors
	ErrEventAlreadyPublished = errors.New("outbox event already published")

	// Store errors
	ErrTransientStore = errors.New("transient store error")
)

// DistributionError reports the referral level at which a fan-out failed.
// The whole distribution is rolled back when it is returned.
type DistributionError struct {
	Level     int
	AccountID string
	Err       error
}

func (e *DistributionError) Error() string {
	return fmt.Sprintf("%s: level %d (account %s): %v", ErrPartialDistribution, e.Level, e.AccountID, e.Err)
}

// Is matches ErrPartialDistribution.
func (e *DistributionError) Is(target error) bool {
	return target == ErrPartialDistribution
}

func (e *DistributionError) Unwrap() error {
	return e.Err
}
