package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryKindRewardAccrual      EntryKind = "reward_accrual"
	EntryKindReferralCommission EntryKind = "referral_commission"
	EntryKindDeposit            EntryKind = "deposit"
	EntryKindWithdrawal         EntryKind = "withdrawal"
	EntryKindWithdrawalFee      EntryKind = "withdrawal_fee"
	EntryKindAdjustment         EntryKind = "adjustment"
)

var validEntryKinds = map[EntryKind]bool{
	EntryKindRewardAccrual:      true,
	EntryKindReferralCommission: true,
	EntryKindDeposit:            true,
	EntryKindWithdrawal:         true,
	EntryKindWithdrawalFee:      true,
	EntryKindAdjustment:         true,
}

// IsValid checks if the kind is a known entry kind.
func (k EntryKind) IsValid() bool {
	return validEntryKinds[k]
}

// EntryStatus is the lifecycle status of a ledger entry.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusFailed    EntryStatus = "failed"
)

// LedgerEntry is one immutable balance-affecting record.
// Only completed entries count towards the account balance.
type LedgerEntry struct {
	CreatedAt         time.Time
	Metadata          map[string]any
	ExternalReference *string
	EventID           *string
	ID                string
	AccountID         string
	Description       string
	Currency          Currency
	Kind              EntryKind
	Status            EntryStatus
	Amount            decimal.Decimal
	BalanceAfter      decimal.NullDecimal
	AccountVersion    int64
}

// CanTransitionTo reports whether the entry may move to the given status.
func (e *LedgerEntry) CanTransitionTo(status EntryStatus) bool {
	return e.Status == EntryStatusPending &&
		(status == EntryStatusCompleted || status == EntryStatusFailed)
}

// IsCredit reports whether the entry increases the balance.
func (e *LedgerEntry) IsCredit() bool {
	return e.Amount.IsPositive()
}
