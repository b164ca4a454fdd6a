package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionKind distinguishes farming deposits from boost purchases.
type PositionKind string

const (
	PositionKindFarming PositionKind = "farming"
	PositionKindBoost   PositionKind = "boost"
)

// IsValid checks if the kind is a known position kind.
func (k PositionKind) IsValid() bool {
	return k == PositionKindFarming || k == PositionKindBoost
}

// RateUnit is the time unit a position's RatePerSecond is expressed in.
// Elapsed time must always be converted with ElapsedInRateUnits.
const RateUnit = time.Second

var secondsPerDay = decimal.NewFromInt(int64(24 * time.Hour / RateUnit))

// Position is a reward-earning farming deposit or boost.
type Position struct {
	ActivatedAt       time.Time
	LastAccruedAt     time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ExpiresAt         *time.Time
	ExternalReference *string
	ID                string
	AccountID         string
	Kind              PositionKind
	Currency          Currency
	Principal         decimal.Decimal
	RatePerSecond     decimal.Decimal
	Active            bool
}

// Validate validates a new position.
func (p *Position) Validate() error {
	if !p.Kind.IsValid() {
		return ErrInvalidPositionKind
	}
	if err := ValidateCurrency(p.Currency); err != nil {
		return err
	}
	if p.Principal.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	// A zero rate never earns, so its window would never advance and it would
	// be listed as due on every tick.
	if !p.RatePerSecond.IsPositive() {
		return ErrInvalidRate
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(p.ActivatedAt) {
		return ErrInvalidExpiry
	}
	return nil
}

// AccrualWindow returns the window that has not been accrued yet as of now.
// The window end is clamped to the expiry; expired reports that the position
// has reached its expiry and must be deactivated once the window is accrued.
func (p *Position) AccrualWindow(now time.Time) (start, end time.Time, expired bool) {
	start = p.LastAccruedAt
	end = now

	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		end = *p.ExpiresAt
		expired = true
	}

	if end.Before(start) {
		end = start
	}

	return start, end, expired
}

// RewardFor returns the reward earned over elapsed, truncated to AmountScale.
func (p *Position) RewardFor(elapsed time.Duration) decimal.Decimal {
	if elapsed <= 0 {
		return decimal.Zero
	}

	return p.Principal.
		Mul(p.RatePerSecond).
		Mul(ElapsedInRateUnits(elapsed)).
		Truncate(AmountScale)
}

// ElapsedInRateUnits converts a duration to seconds with microsecond precision.
func ElapsedInRateUnits(d time.Duration) decimal.Decimal {
	return decimal.New(d.Microseconds(), -6)
}

// RatePerSecondFromDaily converts a daily reward rate to a per-second rate.
func RatePerSecondFromDaily(daily decimal.Decimal) decimal.Decimal {
	return daily.DivRound(secondsPerDay, 28)
}
