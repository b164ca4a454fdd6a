package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultPageSize and MaxPageSize bound list queries.
	DefaultPageSize = 20
	MaxPageSize     = 100

	// DefaultAccrualBatchSize is how many due positions a tick loads per page.
	DefaultAccrualBatchSize = 500

	// DefaultAccrualConcurrency is how many positions a tick accrues in parallel.
	DefaultAccrualConcurrency = 8
)

// Idempotency scopes for processed external references.
const (
	ScopeDeposit    = "deposit"
	ScopeMission    = "mission"
	ScopePosition   = "position"
	ScopeWithdrawal = "withdrawal"
)

// Distribution results reported to Metrics.
const (
	DistributionCommitted = "committed"
	DistributionEmpty     = "empty"
	DistributionFailed    = "failed"
)

// Accrual results reported to Metrics.
const (
	AccrualCredited = "credited"
	AccrualSkipped  = "skipped"
	AccrualExpired  = "expired"
	AccrualFailed   = "failed"
)
