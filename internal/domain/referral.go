package domain

import "github.com/shopspring/decimal"

// MaxReferralDepth is the number of sponsor levels that receive commissions.
const MaxReferralDepth = 20

var (
	hundred    = decimal.NewFromInt(100)
	firstLevel = decimal.NewFromInt(1)
)

// CommissionRate returns the share of a reward paid to the ancestor at level.
// Level 1 (the direct sponsor) receives the full reward, level N in 2..20
// receives N percent, anything else receives nothing.
func CommissionRate(level int) decimal.Decimal {
	switch {
	case level == 1:
		return firstLevel
	case level >= 2 && level <= MaxReferralDepth:
		return decimal.NewFromInt(int64(level)).Div(hundred)
	default:
		return decimal.Zero
	}
}

// Commission returns the amount credited to the ancestor at level for reward.
func Commission(reward decimal.Decimal, level int) decimal.Decimal {
	return reward.Mul(CommissionRate(level)).Truncate(AmountScale)
}

// CommissionShare is one computed fan-out credit.
type CommissionShare struct {
	Level     int
	AccountID string
	Amount    decimal.Decimal
}

// SplitCommissions maps a nearest-first sponsor chain to commission shares.
// Ancestors beyond MaxReferralDepth and zero shares are dropped.
func SplitCommissions(reward decimal.Decimal, chain []string) []CommissionShare {
	if len(chain) > MaxReferralDepth {
		chain = chain[:MaxReferralDepth]
	}

	shares := make([]CommissionShare, 0, len(chain))
	for i, accountID := range chain {
		level := i + 1
		amount := Commission(reward, level)
		if !amount.IsPositive() {
			continue
		}
		shares = append(shares, CommissionShare{
			Level:     level,
			AccountID: accountID,
			Amount:    amount,
		})
	}
	return shares
}
