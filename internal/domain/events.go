package domain

import "time"

// Event types
const (
	EventTypeRewardAccrued         = "reward.accrued"
	EventTypeCommissionDistributed = "commission.distributed"
	EventTypeDepositConfirmed      = "deposit.confirmed"
	EventTypeWithdrawalRequested   = "withdrawal.requested"
	EventTypeWithdrawalCompleted   = "withdrawal.completed"
	EventTypeWithdrawalRejected    = "withdrawal.rejected"
)

// Aggregate types
const (
	AggregateTypeAccount    = "account"
	AggregateTypePosition   = "position"
	AggregateTypeWithdrawal = "withdrawal"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// RewardAccruedEvent payload
type RewardAccruedEvent struct {
	EntryID    string `json:"entry_id"`
	AccountID  string `json:"account_id"`
	PositionID string `json:"position_id,omitempty"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	EventID    string `json:"event_id"`
}

// CommissionDistributedEvent payload
type CommissionDistributedEvent struct {
	SourceAccountID string `json:"source_account_id"`
	SourceEventID   string `json:"source_event_id"`
	SourceReward    string `json:"source_reward"`
	Currency        string `json:"currency"`
	Levels          int    `json:"levels"`
	Total           string `json:"total"`
}

// DepositConfirmedEvent payload
type DepositConfirmedEvent struct {
	EntryID           string `json:"entry_id"`
	AccountID         string `json:"account_id"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	ExternalReference string `json:"external_reference"`
	PositionID        string `json:"position_id,omitempty"`
}

// WithdrawalEvent payload, shared by every withdrawal transition.
type WithdrawalEvent struct {
	WithdrawalID string `json:"withdrawal_id"`
	AccountID    string `json:"account_id"`
	Amount       string `json:"amount"`
	Fee          string `json:"fee"`
	Currency     string `json:"currency"`
	Destination  string `json:"destination"`
	State        string `json:"state"`
	Reason       string `json:"reason,omitempty"`
}
